package publish

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/openmined/netcdfpub/internal/catalog"
	"github.com/openmined/netcdfpub/internal/source"
)

// Result is the outcome of publishing one resource. Err is nil on success.
type Result struct {
	ID          string
	Source      string
	Destination string
	Timestamp   time.Time
	Renamed     int
	Err         *PublicationError
}

func (r *Result) OK() bool {
	return r.Err == nil
}

// Publisher copies one resource from the store into the catalog, normalizes
// it and stamps it with the latest source timestamp.
type Publisher struct {
	proxyRoot string
	catalog   *catalog.Catalog
	resolver  *source.Resolver
	copier    Copier
	mode      fs.FileMode
	logger    *slog.Logger
}

func NewPublisher(proxyRoot string, cat *catalog.Catalog, resolver *source.Resolver, copier Copier, logger *slog.Logger) *Publisher {
	return &Publisher{
		proxyRoot: proxyRoot,
		catalog:   cat,
		resolver:  resolver,
		copier:    copier,
		mode:      catalog.DefaultMode,
		logger:    logger.With("component", "publish"),
	}
}

// SetMode overrides the permissions applied to published trees.
func (p *Publisher) SetMode(mode fs.FileMode) {
	p.mode = mode
}

// Publish publishes a single resource. Per-resource failures are reported in
// Result.Err; the returned error is reserved for failures that should end the
// whole run: cancellation, or a bulk-copy command that cannot be started.
// A failed copy may leave a partial destination behind.
func (p *Publisher) Publish(ctx context.Context, id string) (*Result, error) {
	result := &Result{
		ID:          id,
		Source:      path.Join(p.proxyRoot, id),
		Destination: p.catalog.Path(id),
	}
	logger := p.logger.With("id", id)
	logger.Info("publishing", "source", result.Source, "destination", result.Destination)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stats, err := p.resolver.Stats(ctx, result.Source)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err == nil {
		result.Timestamp, err = stats.LatestTimestamp()
	}
	if err != nil {
		return p.fail(logger, result, StageTimestamp, err), nil
	}

	out, err := p.copier.Copy(result.Source, p.catalog.Root, result.Destination)
	if err != nil {
		return nil, err
	}
	if out.ExitCode != 0 {
		result.Err = &PublicationError{
			ID:          id,
			Source:      result.Source,
			Destination: result.Destination,
			Stage:       StageCopy,
			ExitCode:    out.ExitCode,
			Stdout:      out.Stdout,
			Stderr:      out.Stderr,
			Err:         ErrCopyFailed,
		}
		logger.Error("publish failed",
			"stage", StageCopy,
			"exitCode", out.ExitCode,
			"stdout", string(out.Stdout),
			"stderr", string(out.Stderr),
		)
		return result, nil
	}

	if err := p.catalog.NormalizePermissions(result.Destination, p.mode); err != nil {
		return p.fail(logger, result, StageNormalize, err), nil
	}
	renamed, err := p.catalog.NormalizeNames(result.Destination)
	if err != nil {
		return p.fail(logger, result, StageNormalize, err), nil
	}
	result.Renamed = renamed

	if err := p.catalog.Stamp(id, result.Timestamp); err != nil {
		return p.fail(logger, result, StageStamp, err), nil
	}

	logger.Info("published",
		"timestamp", result.Timestamp,
		"files", stats.Files,
		"size", humanize.Bytes(uint64(stats.Bytes)),
		"renamed", renamed,
	)
	return result, nil
}

func (p *Publisher) fail(logger *slog.Logger, result *Result, stage Stage, err error) *Result {
	result.Err = &PublicationError{
		ID:          result.ID,
		Source:      result.Source,
		Destination: result.Destination,
		Stage:       stage,
		Err:         fmt.Errorf("%s: %w", result.Source, err),
	}
	logger.Error("publish failed", "stage", stage, "error", err)
	return result
}
