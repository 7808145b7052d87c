package commands

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/walteh/looprc/cmd/looprc/opts"
	"github.com/walteh/looprc/pkg/daemon"
)

// NewDaemonCmd creates a new daemon command
func NewDaemonCmd(opts *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Stay resident and offload on a schedule or on device arrival",
		Long: `Daemon keeps looprc running and starts an offload run whenever the
configured cron schedule fires or a watched storage device appears.
Runs never overlap; triggers arriving during a run collapse into one
follow-up run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg := opts.Config
			if cfg.Daemon == nil {
				return errors.Errorf("config has no daemon section")
			}

			if cfg.Daemon.LogFile != "" {
				writer := &lumberjack.Logger{
					Filename:   cfg.Daemon.LogFile,
					MaxSize:    cfg.Daemon.LogMaxSizeMB,
					MaxBackups: cfg.Daemon.LogMaxBackups,
				}
				logger := zerolog.New(writer).With().Timestamp().Logger()
				ctx = logger.WithContext(ctx)
			}

			operator, err := buildOperator(opts, false, false)
			if err != nil {
				return err
			}

			var devices []string
			for _, src := range cfg.Sources {
				devices = append(devices, src.StorageDevice.DevicePath())
			}

			d, err := daemon.New(daemon.Options{
				Config:  cfg.Daemon,
				Run:     operator.Run,
				Devices: devices,
			})
			if err != nil {
				return errors.Errorf("creating daemon: %w", err)
			}

			zerolog.Ctx(ctx).Info().
				Str("schedule", cfg.Daemon.Schedule).
				Bool("watch", cfg.Daemon.Watch.Enabled).
				Msg("daemon starting")

			if err := d.Run(ctx); err != nil {
				return errors.Errorf("running daemon: %w", err)
			}
			return nil
		},
	}

	return cmd
}
