// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package mount

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/looprc/pkg/proc"
)

// ❌ ErrMountFailed marks a mount invocation that exited nonzero. It is
// the only error in this package safe to skip-and-continue on: match it
// with errors.Is. Unmount failures deliberately do not carry it.
var ErrMountFailed = errors.Base("mount failed")

// 🔌 Manager attaches and detaches block devices via sudo mount/umount
type Manager struct {
	runner proc.Runner
}

// 🏭 New creates a new Manager on top of the given runner
func New(runner proc.Runner) *Manager {
	return &Manager{runner: runner}
}

// 🔗 Mount runs `sudo mount [-o o1,o2,...] devicePath mountPath`
func (m *Manager) Mount(ctx context.Context, devicePath string, mountPath string, options []string) error {
	args := []string{"sudo", "mount"}
	if len(options) > 0 {
		args = append(args, "-o", strings.Join(options, ","))
	}
	args = append(args, devicePath, mountPath)

	res, err := m.runner.Run(ctx, args...)
	if err != nil {
		return errors.Errorf("mounting %s at %s: %w", devicePath, mountPath, err)
	}
	if res.ExitCode != 0 {
		return errors.Errorf("mounting %s at %s: exit code %d: %w", devicePath, mountPath, res.ExitCode, ErrMountFailed)
	}

	zerolog.Ctx(ctx).Debug().
		Str("device", devicePath).
		Str("mount_path", mountPath).
		Msg("mounted")
	return nil
}

// ⛓️ Unmount runs `sudo umount mountPath`
func (m *Manager) Unmount(ctx context.Context, mountPath string) error {
	res, err := m.runner.Run(ctx, "sudo", "umount", mountPath)
	if err != nil {
		return errors.Errorf("unmounting %s: %w", mountPath, err)
	}
	if res.ExitCode != 0 {
		return errors.Errorf("unmounting %s: exit code %d", mountPath, res.ExitCode)
	}

	zerolog.Ctx(ctx).Debug().
		Str("mount_path", mountPath).
		Msg("unmounted")
	return nil
}
