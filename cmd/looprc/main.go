package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/walteh/looprc/cmd/looprc/commands"
	"github.com/walteh/looprc/cmd/looprc/opts"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := &opts.RootOpts{}

	rootCmd := &cobra.Command{
		Use:   "looprc",
		Short: "Offload camera storage into a rolling archive",
		Long: `looprc mounts each configured storage device, moves matching footage
into the destination directory, evicts the oldest archived files until
the destination fits its loop size again, then purges leftover source
files like thumbnails and preview clips.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			ctx := setupLogging(cmd.Context())
			cmd.SetContext(ctx)

			loaded, err := newRootOpts(ctx)
			if err != nil {
				return err
			}
			*root = *loaded
			return nil
		},
	}

	addRootFlags(rootCmd)

	rootCmd.AddCommand(
		commands.NewRunCmd(root),
		commands.NewStatusCmd(root),
		commands.NewDaemonCmd(root),
	)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
