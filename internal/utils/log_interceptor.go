// Package utils holds small path and logging helpers shared by the commands.
package utils

import (
	"bytes"
	"io"
	"log/slog"
	"sync"
	"time"
)

// LogInterceptor prefixes each complete line written to it with a sequence
// number and a timestamp before forwarding it to target. Partial lines are
// held until their newline arrives or Close is called.
type LogInterceptor struct {
	target io.Writer
	now    func() time.Time

	mu   sync.Mutex
	seq  uint64
	tail []byte
}

func NewLogInterceptor(target io.Writer) *LogInterceptor {
	return &LogInterceptor{
		target: target,
		now:    time.Now,
	}
}

func (i *LogInterceptor) writeLine(line []byte) error {
	i.seq++
	prefix := slog.Uint64("line", i.seq).String() + " " +
		slog.String("time", i.now().Format(time.RFC3339)).String() + " "

	buf := make([]byte, 0, len(prefix)+len(line)+1)
	buf = append(buf, prefix...)
	buf = append(buf, line...)
	buf = append(buf, '\n')

	_, err := i.target.Write(buf)
	return err
}

// Write always reports len(p) on success since the caller's bytes are
// accepted even when they only extend a pending line.
func (i *LogInterceptor) Write(p []byte) (int, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	data := append(i.tail, p...)
	for {
		idx := bytes.IndexByte(data, '\n')
		if idx < 0 {
			break
		}
		line := bytes.TrimSuffix(data[:idx], []byte("\r"))
		if err := i.writeLine(line); err != nil {
			return 0, err
		}
		data = data[idx+1:]
	}
	i.tail = append(i.tail[:0:0], data...)

	return len(p), nil
}

// Close flushes any pending partial line.
func (i *LogInterceptor) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if len(i.tail) == 0 {
		return nil
	}
	err := i.writeLine(i.tail)
	i.tail = nil
	return err
}
