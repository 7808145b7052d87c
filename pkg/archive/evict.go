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
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/looprc/pkg/inventory"
	"github.com/walteh/looprc/pkg/log"
)

// ♻️ LoopDelete deletes the oldest files under destPath until the total
// size fits loopSize. Candidates come from one snapshot taken up front,
// oldest first; the total is remeasured after every deletion. When the
// snapshot runs dry before the quota is met the overage is logged and
// the pass continues.
func (e *Engine) LoopDelete(ctx context.Context, destPath string, loopSize int64) error {
	logger := zerolog.Ctx(ctx)

	snap, err := inventory.Scan(destPath)
	if err != nil {
		return err
	}

	for {
		size, err := inventory.TotalSize(destPath)
		if err != nil {
			return err
		}
		if size <= loopSize {
			logger.Debug().
				Int64("size", size).
				Int64("loop_size", loopSize).
				Msg("destination within quota")
			return nil
		}

		candidate, ok := snap.Next()
		if !ok {
			logger.Warn().
				Int64("size", size).
				Int64("loop_size", loopSize).
				Msg("nothing left to evict, quota not reachable")
			return nil
		}

		if e.simulate() {
			// One probe is enough to show what the loop would start on.
			logger.Info().Str("file", candidate.Path).Msg("dry run, not evicting oldest file")
			e.stats.Evicted++
			e.reporter.LogFileOperation(ctx, log.FileOperation{
				Path:   filepath.Base(candidate.Path),
				Action: log.ActionEvicted,
				Size:   candidate.Size,
				DryRun: true,
			})
			return nil
		}

		if err := os.Remove(candidate.Path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				logger.Warn().Str("file", candidate.Path).Msg("eviction candidate already gone")
				continue
			}
			return errors.Errorf("evicting %s: %w", candidate.Path, err)
		}

		e.stats.Evicted++
		e.stats.EvictedBytes += candidate.Size
		e.reporter.LogFileOperation(ctx, log.FileOperation{
			Path:   filepath.Base(candidate.Path),
			Action: log.ActionEvicted,
			Size:   candidate.Size,
		})
	}
}
