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
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/looprc/pkg/log"
)

// errVanished marks a source file that disappeared between matching
// and acting on it. Only this case is skippable; a missing destination
// also raises fs.ErrNotExist and must stay fatal.
var errVanished = errors.Base("source file vanished")

// 📦 Move copies every file under sourcePath matching patterns into
// destPath, preserving modification time, then removes the original.
// Patterns are applied one at a time against a fresh directory listing.
// A file that vanishes between matching and moving is reported and
// skipped.
func (e *Engine) Move(ctx context.Context, sourcePath, destPath string, patterns []string) error {
	logger := zerolog.Ctx(ctx)

	for _, pattern := range patterns {
		matches, err := matchPattern(sourcePath, pattern)
		if err != nil {
			return err
		}

		logger.Debug().
			Str("pattern", pattern).
			Int("matches", len(matches)).
			Msg("moving matched files")

		for _, name := range matches {
			srcFile := filepath.Join(sourcePath, name)
			dstFile := filepath.Join(destPath, name)

			if e.simulate() {
				logger.Info().Str("from", srcFile).Str("to", dstFile).Msg("dry run, not moving file")
				e.stats.Archived++
				e.reporter.LogFileOperation(ctx, log.FileOperation{
					Path:   name,
					Action: log.ActionArchived,
					Size:   sizeOf(srcFile),
					DryRun: true,
				})
				continue
			}

			size, err := moveFile(srcFile, dstFile)
			if err != nil {
				if errors.Is(err, errVanished) {
					logger.Warn().Str("file", srcFile).Msg("matched file vanished before move")
					e.stats.Skipped++
					e.reporter.LogFileOperation(ctx, log.FileOperation{
						Path:   name,
						Action: log.ActionSkipped,
					})
					continue
				}
				return errors.Errorf("moving %s: %w", name, err)
			}

			e.stats.Archived++
			e.stats.ArchivedBytes += size
			e.reporter.LogFileOperation(ctx, log.FileOperation{
				Path:   name,
				Action: log.ActionArchived,
				Size:   size,
			})
		}
	}

	return nil
}

// matchPattern lists dir and returns the names of regular entries
// matching pattern, in listing order.
func matchPattern(dir, pattern string) ([]string, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, errors.Errorf("matching pattern %q: %w", pattern, doublestar.ErrBadPattern)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Errorf("listing %s: %w", dir, err)
	}

	var matches []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ok, err := doublestar.Match(pattern, entry.Name())
		if err != nil {
			return nil, errors.Errorf("matching pattern %q: %w", pattern, err)
		}
		if ok {
			matches = append(matches, entry.Name())
		}
	}
	return matches, nil
}

// moveFile copies src to dst and removes src, returning the size moved.
// The copy lands under a temporary name and is renamed into place so a
// torn copy never shadows the destination.
func moveFile(src, dst string) (int64, error) {
	info, err := os.Stat(src)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, errVanished
		}
		return 0, err
	}

	if err := copyFile(src, dst, info); err != nil {
		return 0, err
	}
	if err := os.Remove(src); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, errVanished
		}
		return 0, err
	}
	return info.Size(), nil
}

func copyFile(src, dst string, info os.FileInfo) error {
	in, err := os.Open(src)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return errVanished
		}
		return err
	}
	defer in.Close()

	tmp := dst + ".partial"
	out, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(tmp)
		return err
	}
	if err := out.Sync(); err != nil {
		out.Close()
		os.Remove(tmp)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return err
	}

	if err := os.Chtimes(tmp, time.Now(), info.ModTime()); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

func sizeOf(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}
