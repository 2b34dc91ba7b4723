// Package output provides mode-aware rendering for CLI commands.
//
// A Renderer adapts command output to where it is going: styled text on
// interactive terminals, plain text or markdown in pipes, and JSON for
// scripting. Commands decide what to show, the renderer decides how it
// looks.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"golang.org/x/term"
)

// Mode selects how command output is rendered.
type Mode string

const (
	// ModeAuto picks styled text on terminals and plain text in pipes.
	ModeAuto Mode = "auto"
	// ModeText renders human-readable text.
	ModeText Mode = "text"
	// ModeMarkdown renders markdown suitable for docs and PR comments.
	ModeMarkdown Mode = "markdown"
	// ModeJSON renders machine-readable JSON.
	ModeJSON Mode = "json"
)

// Renderer writes command output in the selected mode.
type Renderer struct {
	out    io.Writer
	errOut io.Writer
	mode   Mode
	isTTY  bool
	styles *Styles
}

// NewRenderer creates a renderer, detecting terminal support from the
// output writer.
func NewRenderer(out, errOut io.Writer, mode Mode) *Renderer {
	isTTY := false
	if f, ok := out.(*os.File); ok {
		isTTY = term.IsTerminal(int(f.Fd()))
	}
	return NewRendererWithTTY(out, errOut, mode, isTTY)
}

// NewRendererWithTTY creates a renderer with explicit terminal behavior.
// Useful for tests and callers that already know where output goes.
func NewRendererWithTTY(out, errOut io.Writer, mode Mode, isTTY bool) *Renderer {
	return &Renderer{
		out:    out,
		errOut: errOut,
		mode:   mode,
		isTTY:  isTTY,
		styles: NewStyles(isTTY),
	}
}

// EffectiveMode resolves ModeAuto (and anything unrecognized) to a
// concrete mode.
func (r *Renderer) EffectiveMode() Mode {
	switch r.mode {
	case ModeText, ModeMarkdown, ModeJSON:
		return r.mode
	default:
		return ModeText
	}
}

// IsTTY reports whether the output writer is an interactive terminal.
func (r *Renderer) IsTTY() bool {
	return r.isTTY
}

// Writer returns the output writer for callers that render directly.
func (r *Renderer) Writer() io.Writer {
	return r.out
}

// ErrWriter returns the error output writer.
func (r *Renderer) ErrWriter() io.Writer {
	return r.errOut
}

// Styles returns the style set matching the output target.
func (r *Renderer) Styles() *Styles {
	return r.styles
}

// Println writes a line to the output writer.
func (r *Renderer) Println(a ...any) {
	_, _ = fmt.Fprintln(r.out, a...)
}

// Printf writes formatted output to the output writer.
func (r *Renderer) Printf(format string, a ...any) {
	_, _ = fmt.Fprintf(r.out, format, a...)
}

// Header writes a styled section header.
func (r *Renderer) Header(level int, text string) {
	switch level {
	case 1:
		r.Println(r.styles.Header1.Render(text))
	case 2:
		r.Println(r.styles.Header2.Render(text))
	default:
		r.Println(r.styles.Bold.Render(text))
	}
}

// Success writes a line with a success marker.
func (r *Renderer) Success(msg string) {
	r.Println(r.styles.StatusSuccess.String() + " " + msg)
}

// Warning writes a line with a warning marker.
func (r *Renderer) Warning(msg string) {
	r.Println(r.styles.Warning.Render("!") + " " + msg)
}

// Muted writes a de-emphasized line.
func (r *Renderer) Muted(msg string) {
	r.Println(r.styles.Muted.Render(msg))
}

// StatusLine writes an indented per-item status line, as used in listings
// and check reports.
func (r *Renderer) StatusLine(name, status, detail string) {
	icon := r.styles.StatusSuccess.String()
	switch status {
	case "warn", "warning":
		icon = r.styles.Warning.Render("!")
	case "error", "failed":
		icon = r.styles.StatusFailed.String()
	case "skipped":
		icon = r.styles.Muted.Render("-")
	}

	line := fmt.Sprintf("  %s %s", icon, name)
	if detail != "" {
		line += " " + r.styles.Muted.Render("("+detail+")")
	}
	r.Println(line)
}

// JSON writes v as indented JSON to the output writer.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Table renders a table with the shared visual style.
func (r *Renderer) Table(header table.Row, rows []table.Row) {
	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(header)
	t.AppendRows(rows)
	t.Render()
}

// Markdown formatting helpers, used by commands rendering ModeMarkdown.

// FormatHeader returns a markdown header followed by a blank line.
func FormatHeader(level int, text string) string {
	return strings.Repeat("#", level) + " " + text + "\n"
}

// FormatKeyValue returns a markdown bullet with a bold key.
func FormatKeyValue(key, value string) string {
	return fmt.Sprintf("- **%s**: %s", key, value)
}

// FormatCodeBlock returns a fenced markdown code block.
func FormatCodeBlock(lang, code string) string {
	return fmt.Sprintf("```%s\n%s\n```", lang, code)
}
