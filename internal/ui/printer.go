package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/muesli/termenv"
)

// Status classifies a comparison row.
type Status int

const (
	StatusOK Status = iota
	StatusNew
	StatusImproved
	StatusRegressed
)

func (s Status) String() string {
	switch s {
	case StatusNew:
		return "NEW"
	case StatusImproved:
		return "IMPROVED"
	case StatusRegressed:
		return "REGRESSED"
	default:
		return "OK"
	}
}

// Printer writes styled output. Colors, borders and markdown rendering are only
// used when the writer is a color-capable terminal.
type Printer struct {
	w        io.Writer
	renderer *lipgloss.Renderer
	styled   bool
}

// NewPrinter inspects w to decide whether to style output.
func NewPrinter(w io.Writer) *Printer {
	r := lipgloss.NewRenderer(w)
	return &Printer{w: w, renderer: r, styled: r.ColorProfile() != termenv.Ascii}
}

// Styled reports whether output carries ANSI styling.
func (p *Printer) Styled() bool {
	return p.styled
}

// Title prints a section heading.
func (p *Printer) Title(text string) {
	if !p.styled {
		fmt.Fprintln(p.w, text)
		return
	}
	fmt.Fprintln(p.w, titleStyle.Renderer(p.renderer).Render(text))
}

// Muted prints secondary text.
func (p *Printer) Muted(format string, args ...any) {
	text := fmt.Sprintf(format, args...)
	if p.styled {
		text = mutedStyle.Renderer(p.renderer).Render(text)
	}
	fmt.Fprintln(p.w, text)
}

// Status renders a comparison status label.
func (p *Printer) Status(s Status) string {
	if !p.styled {
		return s.String()
	}
	var style lipgloss.Style
	switch s {
	case StatusRegressed:
		style = regressedStyle
	case StatusImproved:
		style = improvedStyle
	default:
		style = okStyle
	}
	return style.Renderer(p.renderer).Render(s.String())
}

// Table prints rows under headers. Plain output is tab separated so it stays
// easy to pipe through cut and awk.
func (p *Printer) Table(headers []string, rows [][]string) {
	if !p.styled {
		fmt.Fprintln(p.w, strings.Join(headers, "\t"))
		for _, row := range rows {
			fmt.Fprintln(p.w, strings.Join(row, "\t"))
		}
		return
	}

	header := headerCellStyle.Renderer(p.renderer)
	cell := cellStyle.Renderer(p.renderer)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Renderer(p.renderer).Foreground(brandColor)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		})
	fmt.Fprintln(p.w, t.Render())
}

// Markdown prints a markdown document, rendered for terminals and raw otherwise.
func (p *Printer) Markdown(md string) {
	if !p.styled {
		fmt.Fprint(p.w, md)
		return
	}
	out, err := RenderMarkdown(md, "dark", 100)
	if err != nil {
		fmt.Fprint(p.w, md)
		return
	}
	fmt.Fprint(p.w, out)
}

// RenderMarkdown renders md with a glamour standard style ("dark", "light", "notty").
func RenderMarkdown(md, style string, width int) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	return r.Render(md)
}
