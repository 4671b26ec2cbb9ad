package diagnostics

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/quark-lang/quarkc/internal/source"
)

// Severity is the typed event kind carried on the bus (spec.md §4.10).
type Severity int

const (
	Debug Severity = iota
	Info
	Warning
	Error
	Success
	Progress
)

func (s Severity) String() string {
	switch s {
	case Debug:
		return "debug"
	case Info:
		return "info"
	case Warning:
		return "warning"
	case Error:
		return "error"
	case Success:
		return "success"
	case Progress:
		return "progress"
	}
	return "unknown"
}

// Event is one message flowing through the bus.
type Event struct {
	Severity Severity
	Message  string
	Newline  bool
	Report   *Report // non-nil only for Error/Warning events with structured detail
}

// StructuredCallback receives a typed event.
type StructuredCallback func(ev Event)

// RawCallback receives the rendered text form of an event.
type RawCallback func(text string, newline bool)

// Bus fans every diagnostic event out to up to three subscribers: a
// structured callback, a raw-text callback, and an internal terminal
// renderer. All three are optional independently, matching spec.md
// §4.10's "two subscribers in parallel... plus an internal renderer".
type Bus struct {
	structured RawStructuredPair
	echo       bool
	noColor    bool
	verbose    bool
	out        io.Writer
	errCount   int
	warnCount  int
	files      map[string]*source.File
}

type RawStructuredPair struct {
	Structured StructuredCallback
	Raw        RawCallback
}

// NewBus creates a Bus with terminal echo enabled by default, writing
// to os.Stderr, matching the CLI's own default behavior.
func NewBus() *Bus {
	return &Bus{echo: true, out: os.Stderr, files: map[string]*source.File{}}
}

// SetDiagnosticCallback installs the structured subscriber.
func (b *Bus) SetDiagnosticCallback(cb StructuredCallback) { b.structured.Structured = cb }

// SetRawOutputCallback installs the raw-text subscriber.
func (b *Bus) SetRawOutputCallback(cb RawCallback) { b.structured.Raw = cb }

// SetConsoleEcho toggles the internal terminal renderer.
func (b *Bus) SetConsoleEcho(enabled bool) { b.echo = enabled }

// SetNoColor disables ANSI coloring in the terminal renderer.
func (b *Bus) SetNoColor(v bool) { b.noColor = v }

// SetVerbose controls whether Debug-severity events reach the terminal
// renderer; they are always delivered to registered callbacks
// regardless of this setting.
func (b *Bus) SetVerbose(v bool) { b.verbose = v }

// SetOutput redirects the terminal renderer's target stream (tests use this).
func (b *Bus) SetOutput(w io.Writer) { b.out = w }

// RegisterFile lets the bus look up source text to render caret
// excerpts for Error events that carry a span.
func (b *Bus) RegisterFile(f *source.File) {
	b.files[f.CanonicalPath] = f
}

// ErrorCount and WarningCount back the embedding interface's
// get_error_count / get_warning_count operations.
func (b *Bus) ErrorCount() int   { return b.errCount }
func (b *Bus) WarningCount() int { return b.warnCount }

func (b *Bus) emit(ev Event) {
	switch ev.Severity {
	case Error:
		b.errCount++
	case Warning:
		b.warnCount++
	}
	if b.structured.Structured != nil {
		b.structured.Structured(ev)
	}
	if b.structured.Raw != nil {
		b.structured.Raw(ev.Message, ev.Newline)
	}
	if b.echo && (ev.Severity != Debug || b.verbose) {
		b.render(ev)
	}
}

func (b *Bus) Emit(sev Severity, message string, newline bool) {
	b.emit(Event{Severity: sev, Message: message, Newline: newline})
}

func (b *Bus) Debugf(format string, args ...any) {
	b.emit(Event{Severity: Debug, Message: fmt.Sprintf(format, args...), Newline: true})
}

func (b *Bus) Infof(format string, args ...any) {
	b.emit(Event{Severity: Info, Message: fmt.Sprintf(format, args...), Newline: true})
}

func (b *Bus) Progressf(format string, args ...any) {
	b.emit(Event{Severity: Progress, Message: fmt.Sprintf(format, args...), Newline: false})
}

func (b *Bus) Successf(format string, args ...any) {
	b.emit(Event{Severity: Success, Message: fmt.Sprintf(format, args...), Newline: true})
}

// Warn emits a Warning-severity Report. Warnings never prevent emission.
func (b *Bus) Warn(r *Report) {
	b.emit(Event{Severity: Warning, Message: r.Message, Newline: true, Report: r})
}

// Err emits an Error-severity Report.
func (b *Bus) Err(r *Report) {
	b.emit(Event{Severity: Error, Message: r.Message, Newline: true, Report: r})
}

// render is the internal terminal subscriber. Colorization mirrors
// cmd/ailang/main.go's color.New(...).SprintFunc() severity palette.
func (b *Bus) render(ev Event) {
	var sprint func(a ...interface{}) string
	if b.noColor {
		sprint = fmt.Sprint
	} else {
		switch ev.Severity {
		case Error:
			sprint = color.New(color.FgRed, color.Bold).SprintFunc()
		case Warning:
			sprint = color.New(color.FgYellow).SprintFunc()
		case Success:
			sprint = color.New(color.FgGreen).SprintFunc()
		case Debug, Progress:
			sprint = color.New(color.FgCyan).SprintFunc()
		default:
			sprint = fmt.Sprint
		}
	}

	label := strings.ToUpper(ev.Severity.String())
	line := fmt.Sprintf("%s: %s", sprint(label), ev.Message)
	if ev.Report != nil && ev.Report.Span != nil {
		line += "\n" + b.renderCaret(ev.Report)
	}
	if ev.Newline {
		fmt.Fprintln(b.out, line)
	} else {
		fmt.Fprint(b.out, line)
	}
}

// renderCaret pretty-prints the offending source line with a caret
// underline beneath the span, as required by spec.md §4.10.
func (b *Bus) renderCaret(r *Report) string {
	span := r.Span
	f, ok := b.files[span.File]
	if !ok {
		return fmt.Sprintf("  --> %s", span.String())
	}
	text := f.Line(span.StartLine)
	caretLen := r.CaretLength
	if caretLen < 1 {
		caretLen = 1
	}
	prefix := fmt.Sprintf("%s:%d:%d: ", span.File, span.StartLine, span.StartCol)
	var b2 strings.Builder
	fmt.Fprintf(&b2, "  %s\n", text)
	fmt.Fprintf(&b2, "  %s%s%s", strings.Repeat(" ", span.StartCol-1), strings.Repeat("^", caretLen), "")
	return prefix + "\n" + b2.String()
}
