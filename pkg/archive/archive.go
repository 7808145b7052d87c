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

package archive

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/looprc/pkg/config"
	"github.com/walteh/looprc/pkg/log"
)

// 🚪 SourceScope is acquired access to one source location. Enter
// resolves the concrete path, Exit releases it. Both are single-use.
type SourceScope interface {
	Enter(ctx context.Context) (string, error)
	Exit(ctx context.Context) error
}

// 🏭 ScopeFactory builds the scope for one source spec
type ScopeFactory func(spec config.SourceSpec) SourceScope

// 📊 Stats counts what one archival pass did (or, when simulating,
// would have done)
type Stats struct {
	Archived      int
	ArchivedBytes int64
	Evicted       int
	EvictedBytes  int64
	Purged        int
	Skipped       int
}

// ⚙️ Options configures an Engine
type Options struct {
	Scopes   ScopeFactory
	Reporter *log.Logger
	// DryRun suppresses every mutating step of the pass. DryRunLoop
	// suppresses only move/evict/purge; mounts still happen.
	DryRun     bool
	DryRunLoop bool
}

// 🎯 Engine runs the archive-and-evict pipeline for one source at a time
type Engine struct {
	scopes     ScopeFactory
	reporter   *log.Logger
	dryRun     bool
	dryRunLoop bool
	stats      Stats
}

// 🏭 New creates a new Engine
func New(opts Options) (*Engine, error) {
	if opts.Scopes == nil {
		return nil, errors.Errorf("scope factory is required")
	}
	if opts.Reporter == nil {
		return nil, errors.Errorf("reporter is required")
	}
	return &Engine{
		scopes:     opts.Scopes,
		reporter:   opts.Reporter,
		dryRun:     opts.DryRun,
		dryRunLoop: opts.DryRunLoop,
	}, nil
}

// simulate reports whether the move/evict/purge steps are suppressed.
func (e *Engine) simulate() bool {
	return e.dryRun || e.dryRunLoop
}

// 📦 Archive runs one full pass for a single source: move matching files
// to the destination, evict the destination down to quota, then purge
// leftover source files. The source scope is torn down on every path out.
func (e *Engine) Archive(ctx context.Context, src config.SourceSpec, dst config.DestinationSpec) (stats Stats, err error) {
	e.stats = Stats{}

	info, err := os.Stat(dst.Path)
	if err != nil {
		return Stats{}, errors.Errorf("destination %s: %w", dst.Path, err)
	}
	if !info.IsDir() {
		return Stats{}, errors.Errorf("destination %s is not a directory", dst.Path)
	}

	var quota int64
	if dst.LoopSize != nil {
		quota = int64(*dst.LoopSize)
	}

	scope := e.scopes(src)
	sourcePath, err := scope.Enter(ctx)
	if err != nil {
		return Stats{}, errors.Errorf("acquiring source: %w", err)
	}
	defer func() {
		exitErr := scope.Exit(ctx)
		if exitErr == nil {
			return
		}
		if err == nil {
			err = exitErr
			return
		}
		zerolog.Ctx(ctx).Error().Err(exitErr).Msg("source teardown failed after earlier error")
	}()

	op := log.SourceOperation{MountPath: sourcePath, Destination: dst.Path}
	if src.StorageDevice != nil {
		op.Device = src.StorageDevice.DevicePath()
	}
	e.reporter.StartSourceOperation(ctx, op)
	defer e.reporter.EndSourceOperation(ctx)

	if err = e.Move(ctx, sourcePath, dst.Path, src.Patterns); err != nil {
		return e.stats, err
	}
	if err = e.LoopDelete(ctx, dst.Path, quota); err != nil {
		return e.stats, err
	}
	if err = e.Delete(ctx, sourcePath, src.DeletePatterns); err != nil {
		return e.stats, err
	}

	return e.stats, nil
}
