// Package daemon keeps looprc resident, starting offload runs on a
// cron schedule or when a watched device node shows up.
package daemon

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"

	"github.com/walteh/looprc/pkg/config"
)

// 🔧 Options configures a daemon
type Options struct {
	// Config holds the schedule and watch settings
	Config *config.DaemonConfig
	// Run performs one offload run, called at most once at a time
	Run func(ctx context.Context) error
	// Devices are the device nodes whose arrival triggers a run
	Devices []string
}

// 🤖 Daemon coordinates triggers and serializes offload runs. Triggers
// land in a one-slot mailbox, so bursts collapse into a single run and
// runs never overlap.
type Daemon struct {
	cfg     *config.DaemonConfig
	run     func(ctx context.Context) error
	devices []string
	trigger chan string
}

// 🏭 New creates a new daemon with the given options
func New(opts Options) (*Daemon, error) {
	if opts.Config == nil {
		return nil, errors.Errorf("daemon config is required")
	}
	if opts.Run == nil {
		return nil, errors.Errorf("run callback is required")
	}
	return &Daemon{
		cfg:     opts.Config,
		run:     opts.Run,
		devices: opts.Devices,
		trigger: make(chan string, 1),
	}, nil
}

// ▶️ Run blocks until ctx is canceled, dispatching offload runs as
// triggers arrive. A failed run stops the daemon; only a refused mount
// is survivable and that is already handled inside the run itself.
func (d *Daemon) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	if d.cfg.Schedule != "" {
		sched, err := cron.ParseStandard(d.cfg.Schedule)
		if err != nil {
			return errors.Errorf("parsing schedule %q: %w", d.cfg.Schedule, err)
		}
		g.Go(func() error { return d.runSchedule(ctx, sched) })
	}

	if d.cfg.Watch.Enabled {
		for _, device := range d.devices {
			if deviceExists(device) {
				d.requestRun(ctx, "device present at startup")
				break
			}
		}
		g.Go(func() error { return d.runWatcher(ctx) })
	}

	g.Go(func() error { return d.dispatch(ctx) })

	return g.Wait()
}

// requestRun drops a trigger into the mailbox. A trigger that arrives
// while one is already pending is coalesced away.
func (d *Daemon) requestRun(ctx context.Context, reason string) {
	select {
	case d.trigger <- reason:
	default:
		zerolog.Ctx(ctx).Debug().Str("reason", reason).Msg("run already pending, trigger coalesced")
	}
}

// dispatch drains the mailbox, one run at a time.
func (d *Daemon) dispatch(ctx context.Context) error {
	logger := zerolog.Ctx(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case reason := <-d.trigger:
			logger.Info().Str("reason", reason).Msg("starting offload run")
			if err := d.run(ctx); err != nil {
				return errors.Errorf("offload run (%s): %w", reason, err)
			}
		}
	}
}

func (d *Daemon) runSchedule(ctx context.Context, sched cron.Schedule) error {
	logger := zerolog.Ctx(ctx)
	for {
		next := sched.Next(time.Now())
		logger.Debug().Time("next", next).Msg("schedule armed")

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
			d.requestRun(ctx, "schedule")
		}
	}
}

func (d *Daemon) runWatcher(ctx context.Context) error {
	mode := d.cfg.Watch.Mode
	if mode == config.WatchModeAuto || mode == "" {
		if probe, err := fsnotify.NewWatcher(); err == nil {
			probe.Close()
			mode = config.WatchModeFsnotify
		} else {
			zerolog.Ctx(ctx).Warn().Err(err).Msg("fsnotify unavailable, falling back to polling")
			mode = config.WatchModePoll
		}
	}

	switch mode {
	case config.WatchModeFsnotify:
		return d.watchFsnotify(ctx)
	case config.WatchModePoll:
		return d.watchPoll(ctx)
	default:
		return errors.Errorf("unknown watch mode: %s", mode)
	}
}

// watchFsnotify watches the parent directories of each device node for
// create events. Arrival is debounced so the kernel can finish setting
// up partition links before the run starts.
func (d *Daemon) watchFsnotify(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	watched := map[string]bool{}
	for _, device := range d.devices {
		dir := filepath.Dir(device)
		if watched[dir] {
			continue
		}
		watched[dir] = true
		if err := watcher.Add(dir); err != nil {
			return errors.Errorf("watching %s: %w", dir, err)
		}
	}

	logger := zerolog.Ctx(ctx)
	logger.Info().Int("dirs", len(watched)).Msg("watching for device arrival")

	var settle <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) || !d.isWatchedDevice(event.Name) {
				continue
			}
			logger.Debug().Str("device", event.Name).Msg("device appeared")
			settle = time.After(time.Duration(d.cfg.Watch.Debounce))
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn().Err(err).Msg("watch error")
		case <-settle:
			settle = nil
			d.requestRun(ctx, "device arrival")
		}
	}
}

// watchPoll stats each device node on an interval and triggers on the
// absent-to-present edge.
func (d *Daemon) watchPoll(ctx context.Context) error {
	interval := time.Duration(d.cfg.Watch.PollInterval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	present := make(map[string]bool, len(d.devices))
	for _, device := range d.devices {
		present[device] = deviceExists(device)
	}

	logger := zerolog.Ctx(ctx)
	logger.Info().Dur("interval", interval).Msg("polling for device arrival")

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			for _, device := range d.devices {
				exists := deviceExists(device)
				if exists && !present[device] {
					logger.Debug().Str("device", device).Msg("device appeared")
					d.requestRun(ctx, "device arrival")
				}
				present[device] = exists
			}
		}
	}
}

func (d *Daemon) isWatchedDevice(path string) bool {
	for _, device := range d.devices {
		if path == device {
			return true
		}
	}
	return false
}

func deviceExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
