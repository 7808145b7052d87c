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

// Package archive implements the move, evict and purge pipeline that
// drains a mounted storage device into the loop recorder destination.
//
// 🎯 Purpose:
// One Engine runs the three steps for a single source, always in the
// same order:
//
//	┌────────────────────────────────────────────────────────────┐
//	│                      Engine.Archive                        │
//	│                                                            │
//	│  scope.Enter ──▶ Move ──▶ LoopDelete ──▶ Delete ──▶ Exit   │
//	│      │                                               ▲     │
//	│      └──────────────── error paths ──────────────────┘     │
//	└────────────────────────────────────────────────────────────┘
//
//	Move        copy matching files to the destination (mtime kept),
//	            then remove the originals
//	LoopDelete  evict oldest destination files until under quota
//	Delete      remove matching source files without copying
//
// 🔑 Key Concepts:
//   - SourceScope: acquired access to one source path. The engine does
//     not know about devices or mounts, only Enter and Exit.
//   - Quota (loop size): an upper bound on the destination's total
//     size. Eviction is oldest-first from a snapshot taken before the
//     first deletion, so a noisy clock cannot reorder the loop.
//   - Simulation: DryRun and DryRunLoop make every step log instead of
//     touch the filesystem. The eviction loop probes a single
//     candidate when simulating, since nothing shrinks in between.
//
// 📝 Example:
//
//	engine, err := archive.New(archive.Options{
//	    Scopes:   newScope,
//	    Reporter: reporter,
//	})
//	if err != nil {
//	    return err
//	}
//	stats, err := engine.Archive(ctx, src, cfg.Destination)
//
// ⚠️ Error Handling:
// The engine fails fast. Any error from a step aborts the pass for
// that source, but the scope is always torn down on the way out.
// The only tolerated surprises are files that vanish between a
// directory listing and the action on them; those are reported as
// skipped and the pass continues.
package archive
