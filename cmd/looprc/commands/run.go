package commands

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/looprc/cmd/looprc/opts"
	"github.com/walteh/looprc/pkg/archive"
	"github.com/walteh/looprc/pkg/config"
	"github.com/walteh/looprc/pkg/mount"
	"github.com/walteh/looprc/pkg/operation"
	"github.com/walteh/looprc/pkg/proc"
	"github.com/walteh/looprc/pkg/source"
)

// NewRunCmd creates a new run command
func NewRunCmd(opts *opts.RootOpts) *cobra.Command {
	var dryRun bool
	var dryRunLoop bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Offload every configured storage device once",
		Long: `Run performs one offload pass. For each configured source it will:
1. Mount the storage device on a private mount point
2. Move matching files into the destination
3. Evict the oldest archived files until the loop size fits
4. Purge leftover source files
5. Unmount the device`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ctx = zerolog.Ctx(ctx).With().Str("command", "run").Logger().WithContext(ctx)

			operator, err := buildOperator(opts, dryRun, dryRunLoop)
			if err != nil {
				return err
			}

			opts.Reporter.Header("offloading storage devices")
			if err := operator.Run(ctx); err != nil {
				return errors.Errorf("running offload: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "log every step without executing anything")
	cmd.Flags().BoolVar(&dryRunLoop, "dry-run-loop", false, "mount sources for real but only log moves, evictions and purges")

	return cmd
}

// buildOperator wires the process runner, mount manager, archive
// engine and operator together for one run.
func buildOperator(opts *opts.RootOpts, dryRun, dryRunLoop bool) (operation.Operator, error) {
	runner := proc.New(proc.Options{DryRun: dryRun})
	mounts := mount.New(runner)

	engine, err := archive.New(archive.Options{
		Scopes: func(spec config.SourceSpec) archive.SourceScope {
			return source.New(spec, mounts)
		},
		Reporter:   opts.Reporter,
		DryRun:     dryRun,
		DryRunLoop: dryRunLoop,
	})
	if err != nil {
		return nil, errors.Errorf("creating archive engine: %w", err)
	}

	operator, err := operation.New(operation.Options{
		Config:   opts.Config,
		Archiver: engine,
		Reporter: opts.Reporter,
		DryRun:   dryRun || dryRunLoop,
	})
	if err != nil {
		return nil, errors.Errorf("creating operator: %w", err)
	}
	return operator, nil
}
