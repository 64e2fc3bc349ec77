package publish

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

const DefaultCopyCommand = "iget -rf {source} {dest_root}"

var ErrCopierUnavailable = errors.New("bulk copy command unavailable")

// CopyOutput is what the bulk-copy process left behind.
type CopyOutput struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}

// Copier recursively copies a store collection into the catalog. The copy
// tool names the destination after the source collection, so dest is only
// informational for most commands.
type Copier interface {
	Copy(source, destRoot, dest string) (*CopyOutput, error)
}

// ExecCopier runs an external bulk-copy command. The command is blocking and
// has no timeout.
type ExecCopier struct {
	args []string
	env  []string
}

// NewExecCopier parses a command template. {source}, {dest_root} and {dest}
// are substituted per copy; env entries ("KEY=value") are added to the
// inherited environment.
func NewExecCopier(template string, env ...string) (*ExecCopier, error) {
	args := strings.Fields(template)
	if len(args) == 0 {
		return nil, fmt.Errorf("%w: empty command", ErrCopierUnavailable)
	}
	return &ExecCopier{args: args, env: env}, nil
}

func (c *ExecCopier) expand(source, destRoot, dest string) []string {
	replacer := strings.NewReplacer(
		"{source}", source,
		"{dest_root}", destRoot,
		"{dest}", dest,
	)
	args := make([]string, len(c.args))
	for i, arg := range c.args {
		args[i] = replacer.Replace(arg)
	}
	return args
}

func (c *ExecCopier) Copy(source, destRoot, dest string) (*CopyOutput, error) {
	args := c.expand(source, destRoot, dest)

	var stdout, stderr bytes.Buffer
	cmd := exec.Command(args[0], args[1:]...)
	cmd.Env = append(os.Environ(), c.env...)
	cmd.Stdin = nil
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &CopyOutput{
			ExitCode: exitErr.ExitCode(),
			Stdout:   stdout.Bytes(),
			Stderr:   stderr.Bytes(),
		}, nil
	} else if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCopierUnavailable, err)
	}

	return &CopyOutput{
		Stdout: stdout.Bytes(),
		Stderr: stderr.Bytes(),
	}, nil
}
