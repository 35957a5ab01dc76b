package diag

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/sqlweave/sqlweave/pkg/source"
)

// Styles holds the lipgloss styles used when rendering diagnostics.
type Styles struct {
	Location lipgloss.Style
	Label    lipgloss.Style
	Caret    lipgloss.Style
	Hint     lipgloss.Style
}

// NewStyles returns the diagnostic styles. With color disabled every
// style is a no-op and rendering degrades to plain text.
func NewStyles(color bool) *Styles {
	if !color {
		return &Styles{}
	}
	return &Styles{
		Location: lipgloss.NewStyle().Bold(true),
		Label:    lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		Caret:    lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		Hint:     lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
	}
}

// Render writes the diagnostic for f to w: the location line, the
// offending source line, a caret underline aligned to the span, and the
// hint if any. Multi-line spans underline the first line only.
func Render(w io.Writer, f *source.File, d *Diagnostic, styles *Styles) {
	if styles == nil {
		styles = NewStyles(false)
	}
	renderAt(w, f, d.Span, styles.Label.Render("error:")+" "+d.Message, styles)
	if d.Note != nil {
		renderAt(w, f, d.Note.Span, styles.Label.Render("note:")+" "+d.Note.Message, styles)
	}
	if d.Hint != "" {
		fmt.Fprintf(w, "  %s %s\n", styles.Hint.Render("hint:"), d.Hint)
	}
}

// RenderBare writes a diagnostic that has no source position, such as
// an unknown --target flag.
func RenderBare(w io.Writer, d *Diagnostic, styles *Styles) {
	if styles == nil {
		styles = NewStyles(false)
	}
	fmt.Fprintf(w, "%s %s\n", styles.Label.Render("error:"), d.Message)
	if d.Hint != "" {
		fmt.Fprintf(w, "  %s %s\n", styles.Hint.Render("hint:"), d.Hint)
	}
}

func renderAt(w io.Writer, f *source.File, span source.Span, message string, styles *Styles) {
	line, col := span.LineCol(f.Data)
	location := fmt.Sprintf("%s:%d:%d:", f.Name, line, col)
	fmt.Fprintf(w, "%s %s\n", styles.Location.Render(location), message)

	text, lineStart := span.Line(f.Data)
	fmt.Fprintf(w, "  %s\n", text)

	// The underline covers the part of the span that falls on its first
	// line, converted to scalar positions so it lines up with the text.
	end := span.End
	if lineEnd := lineStart + len(text); end > lineEnd {
		end = lineEnd
	}
	width := len([]rune(string(f.Data[span.Start:max(span.Start, end)])))
	if width < 1 {
		width = 1
	}
	underline := "^" + strings.Repeat("~", width-1)
	fmt.Fprintf(w, "  %s%s\n", strings.Repeat(" ", col-1), styles.Caret.Render(underline))
}
