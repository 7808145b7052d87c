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

	"github.com/walteh/looprc/pkg/log"
)

// 🗑️ Delete removes every file under sourcePath matching patterns,
// without copying anything first. Patterns are applied one at a time
// against a fresh directory listing, same as Move.
func (e *Engine) Delete(ctx context.Context, sourcePath string, patterns []string) error {
	logger := zerolog.Ctx(ctx)

	for _, pattern := range patterns {
		matches, err := matchPattern(sourcePath, pattern)
		if err != nil {
			return err
		}

		logger.Debug().
			Str("pattern", pattern).
			Int("matches", len(matches)).
			Msg("purging matched files")

		for _, name := range matches {
			path := filepath.Join(sourcePath, name)

			if e.simulate() {
				logger.Info().Str("file", path).Msg("dry run, not deleting file")
				e.stats.Purged++
				e.reporter.LogFileOperation(ctx, log.FileOperation{
					Path:   name,
					Action: log.ActionPurged,
					Size:   sizeOf(path),
					DryRun: true,
				})
				continue
			}

			size := sizeOf(path)
			if err := os.Remove(path); err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					logger.Warn().Str("file", path).Msg("matched file vanished before delete")
					e.stats.Skipped++
					e.reporter.LogFileOperation(ctx, log.FileOperation{
						Path:   name,
						Action: log.ActionSkipped,
					})
					continue
				}
				return errors.Errorf("deleting %s: %w", name, err)
			}

			e.stats.Purged++
			e.reporter.LogFileOperation(ctx, log.FileOperation{
				Path:   name,
				Action: log.ActionPurged,
				Size:   size,
			})
		}
	}

	return nil
}
