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

package inventory

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gitlab.com/tozd/go/errors"
)

// 📄 Entry is one file observed during a scan
type Entry struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// 📏 TotalSize sums the size of every file under dir, recursively.
// A directory that does not exist counts as empty. Files that vanish
// mid-walk are skipped.
func TotalSize(dir string) (int64, error) {
	var total int64
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		total += info.Size()
		return nil
	})
	if err != nil {
		return 0, errors.Errorf("sizing %s: %w", dir, err)
	}
	return total, nil
}

// 🗃️ Snapshot is a point-in-time inventory of a directory tree, ordered
// oldest first by modification time. It is drained through Next and never
// refreshed; changes made after Scan are invisible to it.
type Snapshot struct {
	entries []Entry
	next    int
}

// 🔍 Scan walks dir and captures every file as an Entry, ordered ascending
// by modification time. Ties keep walk order, so the result is
// deterministic for a fixed directory state.
func Scan(dir string) (*Snapshot, error) {
	var entries []Entry
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		entries = append(entries, Entry{Path: path, Size: info.Size(), ModTime: info.ModTime()})
		return nil
	})
	if err != nil {
		return nil, errors.Errorf("scanning %s: %w", dir, err)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].ModTime.Before(entries[j].ModTime)
	})
	return &Snapshot{entries: entries}, nil
}

// ⏭️ Next returns the next-oldest entry, or false once drained
func (s *Snapshot) Next() (Entry, bool) {
	if s.next >= len(s.entries) {
		return Entry{}, false
	}
	e := s.entries[s.next]
	s.next++
	return e, true
}

// Len reports how many entries the snapshot captured in total.
func (s *Snapshot) Len() int {
	return len(s.entries)
}

// Entries exposes the full ordered snapshot, oldest first.
func (s *Snapshot) Entries() []Entry {
	return s.entries
}
