package commands

import (
	"fmt"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/looprc/cmd/looprc/opts"
	"github.com/walteh/looprc/pkg/inventory"
)

// NewStatusCmd creates a new status command
func NewStatusCmd(opts *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show destination usage against the loop size",
		Long: `Status reports how full the destination is, how many files are
archived there, and which file the next eviction would remove.
Nothing is mounted and nothing is modified.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			dest := opts.Config.Destination

			size, err := inventory.TotalSize(dest.Path)
			if err != nil {
				return errors.Errorf("measuring destination: %w", err)
			}
			snap, err := inventory.Scan(dest.Path)
			if err != nil {
				return errors.Errorf("scanning destination: %w", err)
			}

			opts.Reporter.Header("destination status")
			opts.Reporter.Infof("destination: %s", dest.Path)

			quota := int64(*dest.LoopSize)
			usage := fmt.Sprintf("%s of %s used", humanize.Bytes(uint64(size)), dest.LoopSize.String())
			if size > quota {
				opts.Reporter.Warningf("%s, over the loop size", usage)
			} else if quota > 0 {
				opts.Reporter.Infof("%s (%.0f%%)", usage, float64(size)/float64(quota)*100)
			} else {
				opts.Reporter.Info(usage)
			}

			opts.Reporter.Infof("%d archived files", snap.Len())
			if oldest, ok := snap.Next(); ok {
				opts.Reporter.Infof("next eviction: %s (%s, %s)",
					filepath.Base(oldest.Path),
					humanize.Bytes(uint64(oldest.Size)),
					humanize.Time(oldest.ModTime))
			}
			if entries := snap.Entries(); len(entries) > 0 {
				newest := entries[len(entries)-1]
				opts.Reporter.Infof("newest archive: %s (%s)",
					filepath.Base(newest.Path),
					humanize.Time(newest.ModTime))
			}

			return nil
		},
	}

	return cmd
}
