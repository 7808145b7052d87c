package operation

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/looprc/pkg/archive"
	"github.com/walteh/looprc/pkg/config"
	"github.com/walteh/looprc/pkg/log"
	"github.com/walteh/looprc/pkg/mount"
)

// 🎯 Operator defines one offload run over every configured source
type Operator interface {
	// Run processes each source once, in config order
	Run(ctx context.Context) error
}

// 🔧 Archiver runs the move, evict and purge pipeline for one source
type Archiver interface {
	Archive(ctx context.Context, src config.SourceSpec, dst config.DestinationSpec) (archive.Stats, error)
}

// 🔧 Options contains configuration for the operator
type Options struct {
	// Config is the looprc configuration
	Config *config.Config
	// Archiver performs the per-source pipeline
	Archiver Archiver
	// Reporter renders progress and the final summary
	Reporter *log.Logger
	// DryRun marks the summary as simulated
	DryRun bool
}

// 🏭 New creates a new operator with the given options
func New(opts Options) (Operator, error) {
	if opts.Config == nil {
		return nil, errors.Errorf("config is required")
	}
	if opts.Archiver == nil {
		return nil, errors.Errorf("archiver is required")
	}
	if opts.Reporter == nil {
		return nil, errors.Errorf("reporter is required")
	}
	return &operator{
		config:   opts.Config,
		archiver: opts.Archiver,
		reporter: opts.Reporter,
		dryRun:   opts.DryRun,
	}, nil
}

// 🎮 operator implements the Operator interface
type operator struct {
	config   *config.Config
	archiver Archiver
	reporter *log.Logger
	dryRun   bool
}

// Run walks the configured sources in order. A source whose device
// cannot be mounted is skipped with a warning and the run moves on;
// any other failure stops the run where it happened.
func (o *operator) Run(ctx context.Context) error {
	runID := uuid.NewString()
	logger := zerolog.Ctx(ctx).With().Str("run_id", runID).Logger()
	ctx = logger.WithContext(ctx)

	logger.Info().
		Int("sources", len(o.config.Sources)).
		Str("destination", o.config.Destination.Path).
		Bool("dry_run", o.dryRun).
		Msg("starting run")

	summary := log.RunSummary{
		RunID:   runID,
		Sources: len(o.config.Sources),
		DryRun:  o.dryRun,
	}

	for _, src := range o.config.Sources {
		device := src.StorageDevice.DevicePath()

		stats, err := o.archiver.Archive(ctx, src, o.config.Destination)
		if err != nil {
			if errors.Is(err, mount.ErrMountFailed) {
				logger.Warn().Err(err).Str("device", device).Msg("device not mountable, skipping source")
				o.reporter.Warningf("skipping %s: device not mountable", device)
				summary.SourcesSkipped++
				continue
			}
			return errors.Errorf("offloading %s: %w", device, err)
		}

		summary.Archived += stats.Archived
		summary.ArchivedBytes += stats.ArchivedBytes
		summary.Evicted += stats.Evicted
		summary.EvictedBytes += stats.EvictedBytes
		summary.Purged += stats.Purged
	}

	o.reporter.LogNewline()
	o.reporter.Summary(ctx, summary)
	return nil
}
