// Package source manages temporary, mounted access to storage devices.
package source

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/looprc/pkg/config"
	"github.com/walteh/looprc/pkg/mount"
)

type state int

const (
	stateInitialized state = iota
	stateActive
	stateTornDown
)

func (s state) String() string {
	switch s {
	case stateInitialized:
		return "initialized"
	case stateActive:
		return "active"
	case stateTornDown:
		return "torn down"
	default:
		return "unknown"
	}
}

// 🚪 Scope mounts one source's storage device on a private mount point
// for the duration of an archive pass. Scopes are single use: Enter
// once, Exit once, then throw the scope away.
type Scope struct {
	spec   config.SourceSpec
	mounts *mount.Manager
	state  state
	path   string
}

// 🏭 New creates a scope for one source. Nothing is mounted until Enter.
func New(spec config.SourceSpec, mounts *mount.Manager) *Scope {
	return &Scope{spec: spec, mounts: mounts}
}

// Enter creates a fresh mount point and mounts the source's device on
// it, returning the path. The location variant is checked before
// anything touches the filesystem, and a failed mount removes the
// mount point again, so a failed Enter leaves nothing behind.
func (s *Scope) Enter(ctx context.Context) (string, error) {
	if s.state != stateInitialized {
		return "", errors.Errorf("scope is %s, cannot enter", s.state)
	}

	device := s.spec.StorageDevice
	if device == nil {
		return "", errors.Errorf("source has no supported location")
	}

	path, err := os.MkdirTemp("", "looprc-*")
	if err != nil {
		return "", errors.Errorf("creating mount point: %w", err)
	}

	devicePath := device.DevicePath()
	if err := s.mounts.Mount(ctx, devicePath, path, device.MountOptions); err != nil {
		if rmErr := os.Remove(path); rmErr != nil {
			zerolog.Ctx(ctx).Warn().Err(rmErr).Str("path", path).Msg("could not remove unused mount point")
		}
		return "", err
	}

	s.state = stateActive
	s.path = path

	zerolog.Ctx(ctx).Debug().
		Str("device", devicePath).
		Str("path", path).
		Msg("entered source")

	return path, nil
}

// Exit unmounts the device and removes the mount point. The scope is
// spent after the first call, whatever the outcome.
func (s *Scope) Exit(ctx context.Context) error {
	if s.state != stateActive {
		return errors.Errorf("scope is %s, cannot exit", s.state)
	}
	s.state = stateTornDown

	if err := s.mounts.Unmount(ctx, s.path); err != nil {
		return err
	}
	if err := os.Remove(s.path); err != nil {
		return errors.Errorf("removing mount point %s: %w", s.path, err)
	}

	zerolog.Ctx(ctx).Debug().Str("path", s.path).Msg("exited source")
	return nil
}
