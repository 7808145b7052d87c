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

package log

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger(t *testing.T) {
	// Disable color for testing
	color.NoColor = true
	defer func() { color.NoColor = false }()

	tests := []struct {
		name     string
		op       func(t *testing.T, logger *Logger)
		wantLogs []string
	}{
		{
			name: "log_source_operation",
			op: func(t *testing.T, logger *Logger) {
				logger.StartSourceOperation(context.Background(), SourceOperation{
					Device:      "/dev/disk/by-uuid/4E21-0000",
					MountPath:   "/tmp/looprc-1234",
					Destination: "/srv/footage",
				})
			},
			wantLogs: []string{
				"[offloading /dev/disk/by-uuid/4E21-0000]",
				"◆ /tmp/looprc-1234 → /srv/footage",
			},
		},
		{
			name: "log_messages",
			op: func(t *testing.T, logger *Logger) {
				logger.Info("info message")
				logger.Warning("warning message")
				logger.Error("error message")
				logger.Success("success message")
			},
			wantLogs: []string{
				"ℹ️  info message",
				"⚠️  warning message",
				"❌ error message",
				"✅ success message",
			},
		},
		{
			name: "log_formatted_messages",
			op: func(t *testing.T, logger *Logger) {
				logger.Infof("info %s", "test")
				logger.Warningf("warning %s", "test")
				logger.Errorf("error %s", "test")
				logger.Successf("success %s", "test")
			},
			wantLogs: []string{
				"ℹ️  info test",
				"⚠️  warning test",
				"❌ error test",
				"✅ success test",
			},
		},
		{
			name: "log_header",
			op: func(t *testing.T, logger *Logger) {
				logger.Header("offloading storage devices")
			},
			wantLogs: []string{
				"looprc • offloading storage devices",
			},
		},
		{
			name: "log_newline",
			op: func(t *testing.T, logger *Logger) {
				logger.Info("first")
				logger.LogNewline()
				logger.Info("second")
			},
			wantLogs: []string{
				"ℹ️  first",
				"",
				"ℹ️  second",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := New(buf, zerolog.InfoLevel)

			tt.op(t, logger)

			output := strings.TrimSpace(buf.String())
			lines := strings.Split(output, "\n")

			require.Equal(t, len(tt.wantLogs), len(lines), "number of log lines should match")
			for i, want := range tt.wantLogs {
				assert.Equal(t, want, strings.TrimSpace(lines[i]), "log line %d should match", i)
			}
		})
	}
}

func TestLoggerContext(t *testing.T) {
	logger := New(io.Discard, zerolog.InfoLevel)

	ctx := context.Background()
	ctx = NewContext(ctx, logger)

	got := FromContext(ctx)
	assert.Same(t, logger, got, "logger from context should be the same instance")

	assert.Panics(t, func() {
		FromContext(context.Background())
	}, "FromContext should panic when logger is missing")
}

func TestFileOperationFormatting(t *testing.T) {
	// Disable color for testing
	color.NoColor = true
	defer func() { color.NoColor = false }()

	tests := []struct {
		name       string
		op         FileOperation
		wantFields []string
	}{
		{
			name: "archived_file",
			op: FileOperation{
				Path:   "GX010042.MP4",
				Action: ActionArchived,
				Size:   5,
			},
			wantFields: []string{"✓", "GX010042.MP4", "archived", "5", "B"},
		},
		{
			name: "evicted_file",
			op: FileOperation{
				Path:   "GX010001.MP4",
				Action: ActionEvicted,
				Size:   1200,
			},
			wantFields: []string{"✗", "GX010001.MP4", "evicted", "1.2", "kB"},
		},
		{
			name: "purged_file",
			op: FileOperation{
				Path:   "GX010042.THM",
				Action: ActionPurged,
				Size:   0,
			},
			wantFields: []string{"-", "GX010042.THM", "purged", "0", "B"},
		},
		{
			name: "dry_run_suffix",
			op: FileOperation{
				Path:   "GX010042.MP4",
				Action: ActionArchived,
				Size:   5,
				DryRun: true,
			},
			wantFields: []string{"✓", "GX010042.MP4", "archived", "5", "B", "(dry", "run)"},
		},
		{
			name: "skipped_file",
			op: FileOperation{
				Path:   "GX010042.MP4",
				Action: ActionSkipped,
				Size:   0,
			},
			wantFields: []string{"•", "GX010042.MP4", "skipped", "0", "B"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := New(buf, zerolog.InfoLevel)

			logger.LogFileOperation(context.Background(), tt.op)

			assert.Equal(t, tt.wantFields, strings.Fields(buf.String()), "formatted output should match")
		})
	}
}
