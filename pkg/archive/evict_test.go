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
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoopDelete(t *testing.T) {
	block := strings.Repeat("x", 40)

	tests := []struct {
		name  string
		quota int64
		want  []string
	}{
		{
			name:  "evicts_oldest_until_under_quota",
			quota: 90,
			want:  []string{"mid.bin", "new.bin"},
		},
		{
			name:  "already_under_quota_is_a_noop",
			quota: 200,
			want:  []string{"mid.bin", "new.bin", "old.bin"},
		},
		{
			name:  "exact_fit_is_under_quota",
			quota: 120,
			want:  []string{"mid.bin", "new.bin", "old.bin"},
		},
		{
			name:  "zero_quota_evicts_everything",
			quota: 0,
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			destDir := t.TempDir()
			writeFileAged(t, destDir, "old.bin", block, 3*time.Hour)
			writeFileAged(t, destDir, "mid.bin", block, 2*time.Hour)
			writeFileAged(t, destDir, "new.bin", block, time.Hour)

			engine := newEngine(t, Options{})
			require.NoError(t, engine.LoopDelete(testContext(t), destDir, tt.quota))
			assert.ElementsMatch(t, tt.want, dirNames(t, destDir))
		})
	}
}

func TestLoopDeleteReachesIntoSubdirectories(t *testing.T) {
	destDir := t.TempDir()
	writeFileAged(t, destDir, "2024/GX010001.MP4", strings.Repeat("x", 60), 3*time.Hour)
	writeFileAged(t, destDir, "GX010002.MP4", strings.Repeat("x", 60), time.Hour)

	engine := newEngine(t, Options{})
	require.NoError(t, engine.LoopDelete(testContext(t), destDir, 80))

	assert.ElementsMatch(t, []string{"2024", "GX010002.MP4"}, dirNames(t, destDir))
	assert.Empty(t, dirNames(t, destDir+"/2024"), "the older nested file is the eviction candidate")
}

// a negative quota can never be satisfied, so the candidate snapshot
// runs dry; the loop has to stop cleanly instead of spinning or failing
func TestLoopDeleteUnreachableQuota(t *testing.T) {
	destDir := t.TempDir()
	writeFileAged(t, destDir, "old.bin", "data", 2*time.Hour)
	writeFileAged(t, destDir, "new.bin", "data", time.Hour)

	engine := newEngine(t, Options{})
	require.NoError(t, engine.LoopDelete(testContext(t), destDir, -1))
	assert.Empty(t, dirNames(t, destDir))
}

func TestLoopDeleteDryRunProbesOnce(t *testing.T) {
	destDir := t.TempDir()
	writeFileAged(t, destDir, "old.bin", strings.Repeat("x", 40), 3*time.Hour)
	writeFileAged(t, destDir, "mid.bin", strings.Repeat("x", 40), 2*time.Hour)
	writeFileAged(t, destDir, "new.bin", strings.Repeat("x", 40), time.Hour)

	engine := newEngine(t, Options{DryRunLoop: true})
	require.NoError(t, engine.LoopDelete(testContext(t), destDir, 50))

	assert.ElementsMatch(t, []string{"mid.bin", "new.bin", "old.bin"}, dirNames(t, destDir))
	assert.Equal(t, 1, engine.stats.Evicted, "one probe shows where the loop would start")
}

func TestLoopDeleteDryRunUnderQuota(t *testing.T) {
	destDir := t.TempDir()
	writeFileAged(t, destDir, "old.bin", "data", time.Hour)

	engine := newEngine(t, Options{DryRun: true})
	require.NoError(t, engine.LoopDelete(testContext(t), destDir, 1000))
	assert.Zero(t, engine.stats.Evicted, "nothing to probe when already under quota")
}

func TestLoopDeleteMissingDestination(t *testing.T) {
	engine := newEngine(t, Options{})
	err := engine.LoopDelete(testContext(t), t.TempDir()+"/nope", 100)
	require.NoError(t, err, "a missing tree has size zero and nothing to evict")
}
