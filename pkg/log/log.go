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
	"os"
	"sync"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// 🎨 Display configuration
const (
	fileIndent  = 4  // spaces to indent document entries
	nameWidth   = 45 // Base width for the document path
	statusWidth = 12 // Width for status text
)

// Document statuses
const (
	StatusPatched   = "patched"
	StatusUnchanged = "unchanged"
	StatusDryRun    = "dry-run"
	StatusSkipped   = "skipped"
	StatusFailed    = "failed"
)

// 🎯 DocumentOperation is the outcome of patching one target document
type DocumentOperation struct {
	Path        string // Target path
	Status      string // One of the Status constants
	LinesBefore int    // Line count before patching
	LinesAfter  int    // Line count after patching
	Inserted    int    // Number of inserted sections
	Replaced    int    // Number of applied block replacements
	Warnings    int    // Number of warnings raised
}

// 📦 JobOperation is one configured job
type JobOperation struct {
	Name   string // Job label
	Target string // Target path or glob
}

// 🎯 Logger prints a per-document run log to the console and mirrors it to zerolog
type Logger struct {
	zlog       zerolog.Logger
	console    io.Writer
	mu         sync.Mutex
	currentJob *JobOperation
	operations []DocumentOperation
}

// 🏭 New creates a new logger writing rows to console
func New(console io.Writer, zlog zerolog.Logger) *Logger {
	return &Logger{
		zlog:    zlog,
		console: console,
	}
}

// 🔑 contextKey is the type for context values
type contextKey struct{}

// 🎯 FromContext gets the logger from context, falling back to a quiet logger on stdout
func FromContext(ctx context.Context) *Logger {
	logger, ok := ctx.Value(contextKey{}).(*Logger)
	if !ok {
		return New(os.Stdout, *zerolog.Ctx(ctx))
	}
	return logger
}

// 🎯 NewContext adds the logger to context
func NewContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// 🖥️ ColorEnabled reports whether w is a terminal that should receive colour
func ColorEnabled(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// 🔧 Setup builds the zerolog logger used by the CLI and sets colour output for w
func Setup(w io.Writer, debug bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}

	color.NoColor = !ColorEnabled(w)

	return zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		NoColor:    !ColorEnabled(os.Stderr),
		TimeFormat: "15:04:05",
	}).Level(level).With().Timestamp().Logger()
}

// 📝 formatDocumentOperation formats a document operation for display
func (l *Logger) formatDocumentOperation(op DocumentOperation) string {
	var symbol rune
	var symbolColor color.Attribute
	switch op.Status {
	case StatusPatched:
		symbol = '✓'
		symbolColor = color.FgGreen
	case StatusDryRun:
		symbol = '⟳'
		symbolColor = color.FgBlue
	case StatusFailed:
		symbol = '✗'
		symbolColor = color.FgRed
	case StatusSkipped:
		symbol = '-'
		symbolColor = color.FgYellow
	default:
		symbol = '•'
		symbolColor = color.FgCyan
	}

	detail := ""
	if op.Status != StatusSkipped && op.Status != StatusFailed {
		detail = fmt.Sprintf("%d → %d lines, %d inserted, %d replaced", op.LinesBefore, op.LinesAfter, op.Inserted, op.Replaced)
		if op.Warnings > 0 {
			detail += color.New(color.FgYellow).Sprintf(", %d warnings", op.Warnings)
		}
	}

	return fmt.Sprintf("%s%s %s %s %s",
		fmt.Sprintf("%*s", fileIndent, ""),
		color.New(symbolColor).Sprint(string(symbol)),
		fmt.Sprintf("%-*s", nameWidth, op.Path),
		color.New(symbolColor).Sprint(fmt.Sprintf("%-*s", statusWidth, op.Status)),
		detail)
}

// 📝 LogDocumentOperation logs a document operation
func (l *Logger) LogDocumentOperation(ctx context.Context, op DocumentOperation) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.operations = append(l.operations, op)

	fmt.Fprintln(l.console, l.formatDocumentOperation(op))

	l.zlog.Info().
		Str("file", op.Path).
		Str("status", op.Status).
		Int("lines_before", op.LinesBefore).
		Int("lines_after", op.LinesAfter).
		Int("inserted", op.Inserted).
		Int("replaced", op.Replaced).
		Int("warnings", op.Warnings).
		Msg("document operation")
}

// 📝 StartJob starts a new job section in the log
func (l *Logger) StartJob(ctx context.Context, op JobOperation) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.currentJob = &op
	l.operations = nil

	fmt.Fprintf(l.console, "%s %s %s %s\n",
		color.New(color.FgMagenta).Sprint("◆"),
		color.New(color.Bold).Sprint(op.Name),
		color.New(color.Faint).Sprint("•"),
		color.New(color.FgYellow).Sprint(op.Target))

	l.zlog.Info().
		Str("job", op.Name).
		Str("target", op.Target).
		Msg("starting job")
}

// 📝 EndJob ends the current job and returns the documents it touched
func (l *Logger) EndJob(ctx context.Context) []DocumentOperation {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.currentJob == nil {
		return nil
	}

	ops := l.operations
	l.zlog.Info().
		Str("job", l.currentJob.Name).
		Int("documents", len(ops)).
		Msg("job complete")

	l.currentJob = nil
	l.operations = nil
	return ops
}

// 📝 Header logs a header
func (l *Logger) Header(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	name := color.New(color.Bold, color.FgCyan).Sprint("docpatch")
	fmt.Fprintf(l.console, "\n%s %s\n\n", name, color.New(color.Faint).Sprint("• "+msg))
	l.zlog.Debug().Msg(msg)
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

// 📝 Warningf logs a formatted warning message
func (l *Logger) Warningf(format string, args ...interface{}) {
	l.Warning(fmt.Sprintf(format, args...))
}

// 📝 Successf logs a formatted success message
func (l *Logger) Successf(format string, args ...interface{}) {
	l.Success(fmt.Sprintf(format, args...))
}
