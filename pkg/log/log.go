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
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
)

// 🎨 Display configuration
const (
	fileIndent  = 4  // spaces to indent file entries
	nameWidth   = 35 // base width for filename
	actionWidth = 12 // width for the action column
	sizeWidth   = 10 // width for the size column
)

// 🎯 File actions reported during an archival pass
const (
	ActionArchived = "archived" // moved from source to destination
	ActionEvicted  = "evicted"  // deleted from destination to honor quota
	ActionPurged   = "purged"   // deleted from source after archiving
	ActionSkipped  = "skipped"  // matched but no longer present
)

// 🎯 FileOperation represents one file touched during a pass
type FileOperation struct {
	Path   string // file path, usually just the basename
	Action string // one of the Action constants
	Size   int64  // file size in bytes, 0 when unknown
	DryRun bool   // action was only simulated
}

// 📦 SourceOperation represents one source being offloaded
type SourceOperation struct {
	Device      string // resolved device node
	MountPath   string // where the source is mounted
	Destination string // archive destination
}

// 📊 RunSummary aggregates one whole batch run
type RunSummary struct {
	RunID          string
	Sources        int
	SourcesSkipped int
	Archived       int
	ArchivedBytes  int64
	Evicted        int
	EvictedBytes   int64
	Purged         int
	DryRun         bool
}

// 🎯 Logger handles structured logging with console output
type Logger struct {
	zlog       zerolog.Logger
	console    io.Writer
	mu         sync.Mutex
	currentOp  *SourceOperation
	operations []FileOperation
}

// 🏭 New creates a new logger
func New(console io.Writer, level zerolog.Level) *Logger {
	zlog := zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger().Level(level)
	return &Logger{
		zlog:    zlog,
		console: console,
		mu:      sync.Mutex{},
	}
}

// 🔑 contextKey is the type for context values
type contextKey struct{}

// 🎯 FromContext gets the logger from context
func FromContext(ctx context.Context) *Logger {
	logger, ok := ctx.Value(contextKey{}).(*Logger)
	if !ok {
		panic("logger not found in context")
	}
	return logger
}

// 🎯 NewContext adds the logger to context
func NewContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// 📝 formatFileOperation formats a file operation for display
func (l *Logger) formatFileOperation(op FileOperation) string {
	var symbol rune
	var symbolColor color.Attribute
	switch op.Action {
	case ActionArchived:
		symbol = '✓'
		symbolColor = color.FgGreen
	case ActionEvicted:
		symbol = '✗'
		symbolColor = color.FgRed
	case ActionPurged:
		symbol = '-'
		symbolColor = color.FgYellow
	default:
		symbol = '•'
		symbolColor = color.FgCyan
	}

	var actionColor color.Attribute
	switch op.Action {
	case ActionArchived:
		actionColor = color.FgGreen
	case ActionEvicted:
		actionColor = color.FgRed
	default:
		actionColor = color.FgYellow
	}

	line := fmt.Sprintf("%s%s %s %s %s",
		fmt.Sprintf("%*s", fileIndent, ""),
		color.New(symbolColor).Sprint(string(symbol)),
		fmt.Sprintf("%-*s", nameWidth, op.Path),
		color.New(actionColor).Sprint(fmt.Sprintf("%-*s", actionWidth, op.Action)),
		fmt.Sprintf("%*s", sizeWidth, humanize.Bytes(uint64(op.Size))))
	if op.DryRun {
		line += " " + color.New(color.Faint).Sprint("(dry run)")
	}
	return line
}

// 📝 LogFileOperation logs a file operation
func (l *Logger) LogFileOperation(ctx context.Context, op FileOperation) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.operations = append(l.operations, op)

	fmt.Fprintln(l.console, l.formatFileOperation(op))

	l.zlog.Info().
		Str("file", op.Path).
		Str("action", op.Action).
		Int64("size", op.Size).
		Bool("dry_run", op.DryRun).
		Msg("file operation")
}

// 📝 StartSourceOperation starts a new source offload
func (l *Logger) StartSourceOperation(ctx context.Context, op SourceOperation) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.currentOp = &op
	l.operations = nil

	fmt.Fprintf(l.console, "[offloading %s]\n",
		color.New(color.FgCyan).Sprint(op.Device))

	fmt.Fprintf(l.console, "%s %s %s %s\n",
		color.New(color.FgMagenta).Sprint("◆"),
		color.New(color.Bold).Sprint(op.MountPath),
		color.New(color.Faint).Sprint("→"),
		color.New(color.FgYellow).Sprint(op.Destination))

	l.zlog.Info().
		Str("device", op.Device).
		Str("mount_path", op.MountPath).
		Str("destination", op.Destination).
		Msg("starting source offload")
}

// 📝 EndSourceOperation ends the current source offload
func (l *Logger) EndSourceOperation(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.currentOp == nil {
		return
	}

	l.zlog.Info().
		Str("device", l.currentOp.Device).
		Int("files", len(l.operations)).
		Msg("source offload complete")

	l.currentOp = nil
	l.operations = nil
}

// 📊 Summary reports the outcome of a whole batch run
func (l *Logger) Summary(ctx context.Context, s RunSummary) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if s.SourcesSkipped > 0 {
		pterm.Warning.WithPrefix(pterm.Prefix{Text: "⚠️"}).
			Printfln("%d of %d sources skipped", s.SourcesSkipped, s.Sources)
	}

	msg := fmt.Sprintf("archived %d (%s), evicted %d (%s), purged %d",
		s.Archived, humanize.Bytes(uint64(s.ArchivedBytes)),
		s.Evicted, humanize.Bytes(uint64(s.EvictedBytes)),
		s.Purged)
	if s.DryRun {
		msg += " [dry run]"
	}
	pterm.Success.WithPrefix(pterm.Prefix{Text: "📦"}).Println(msg)

	l.zlog.Info().
		Str("run_id", s.RunID).
		Int("sources", s.Sources).
		Int("sources_skipped", s.SourcesSkipped).
		Int("archived", s.Archived).
		Int64("archived_bytes", s.ArchivedBytes).
		Int("evicted", s.Evicted).
		Int64("evicted_bytes", s.EvictedBytes).
		Int("purged", s.Purged).
		Bool("dry_run", s.DryRun).
		Msg("run complete")
}

// 📝 LogNewline logs a newline
func (l *Logger) LogNewline() {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.console)
}

// 📝 Header logs a header
func (l *Logger) Header(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	looprcText := color.New(color.Bold, color.FgCyan).Sprint("looprc")
	fmt.Fprintf(l.console, "\n%s %s\n\n", looprcText, color.New(color.Faint).Sprint("• "+msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Success logs a success message
func (l *Logger) Success(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "✅ %s\n", color.New(color.FgGreen).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Warning logs a warning message
func (l *Logger) Warning(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "⚠️  %s\n", color.New(color.FgYellow).Sprint(msg))
	l.zlog.Warn().Msg(msg)
}

// 📝 Error logs an error message
func (l *Logger) Error(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "❌ %s\n", color.New(color.FgRed).Sprint(msg))
	l.zlog.Error().Msg(msg)
}

// 📝 Info logs an info message
func (l *Logger) Info(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "ℹ️  %s\n", color.New(color.FgCyan).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Infof logs a formatted info message
func (l *Logger) Infof(format string, args ...interface{}) {
	l.Info(fmt.Sprintf(format, args...))
}

// 📝 Warningf logs a formatted warning message
func (l *Logger) Warningf(format string, args ...interface{}) {
	l.Warning(fmt.Sprintf(format, args...))
}

// 📝 Errorf logs a formatted error message
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.Error(fmt.Sprintf(format, args...))
}

// 📝 Successf logs a formatted success message
func (l *Logger) Successf(format string, args ...interface{}) {
	l.Success(fmt.Sprintf(format, args...))
}
