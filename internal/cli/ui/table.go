package ui

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
)

// Table renders rows under a header line, columns padded to their widest cell.
type Table struct {
	w       io.Writer
	headers []string
	rows    [][]string
	noColor bool
}

// TableOptions configures table rendering.
type TableOptions struct {
	NoColor bool
}

// NewTable creates a table with the given column headers.
func NewTable(w io.Writer, headers []string, opts TableOptions) *Table {
	return &Table{
		w:       w,
		headers: headers,
		noColor: opts.NoColor,
	}
}

// AddRow appends a row. Extra cells beyond the header count are dropped.
func (t *Table) AddRow(cells ...string) {
	t.rows = append(t.rows, cells)
}

// Render writes the table.
func (t *Table) Render() {
	if len(t.headers) == 0 {
		return
	}

	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = displayWidth(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], displayWidth(cell))
			}
		}
	}

	head := color.New(color.Bold, color.FgCyan)
	gray := color.New(color.FgHiBlack)
	if t.noColor {
		head.DisableColor()
		gray.DisableColor()
	}

	for i, h := range t.headers {
		if i > 0 {
			fmt.Fprint(t.w, "  ")
		}
		head.Fprint(t.w, padRight(h, widths[i]))
	}
	fmt.Fprintln(t.w)

	for i, width := range widths {
		if i > 0 {
			gray.Fprint(t.w, "  ")
		}
		gray.Fprint(t.w, strings.Repeat("─", width))
	}
	fmt.Fprintln(t.w)

	for _, row := range t.rows {
		for i, cell := range row {
			if i >= len(widths) {
				break
			}
			if i > 0 {
				fmt.Fprint(t.w, "  ")
			}
			fmt.Fprint(t.w, padRight(cell, widths[i]))
		}
		fmt.Fprintln(t.w)
	}
}

// KeyValueTable renders aligned "key: value" lines.
type KeyValueTable struct {
	w       io.Writer
	keys    []string
	values  []string
	noColor bool
}

// NewKeyValueTable creates an empty key-value table.
func NewKeyValueTable(w io.Writer, noColor bool) *KeyValueTable {
	return &KeyValueTable{w: w, noColor: noColor}
}

// AddRow appends a key-value pair.
func (t *KeyValueTable) AddRow(key, value string) {
	t.keys = append(t.keys, key)
	t.values = append(t.values, value)
}

// Render writes the table with keys padded to the widest key.
func (t *KeyValueTable) Render() {
	if len(t.keys) == 0 {
		return
	}

	keyWidth := 0
	for _, k := range t.keys {
		keyWidth = max(keyWidth, displayWidth(k))
	}

	cyan := color.New(color.FgCyan)
	if t.noColor {
		cyan.DisableColor()
	}
	for i, k := range t.keys {
		cyan.Fprint(t.w, padRight(k+":", keyWidth+1))
		fmt.Fprintf(t.w, " %s\n", t.values[i])
	}
}

// Section renders a titled block with indented content lines.
type Section struct {
	w       io.Writer
	title   string
	lines   []string
	noColor bool
}

// NewSection creates a section with the given title.
func NewSection(w io.Writer, title string, noColor bool) *Section {
	return &Section{w: w, title: title, noColor: noColor}
}

// AddLine appends a content line.
func (s *Section) AddLine(line string) {
	s.lines = append(s.lines, line)
}

// Render writes the title, the indented lines, and a trailing blank line.
func (s *Section) Render() {
	title := color.New(color.Bold, color.FgCyan)
	if s.noColor {
		title.DisableColor()
	}
	title.Fprintln(s.w, s.title)
	for _, line := range s.lines {
		fmt.Fprintf(s.w, "  %s\n", line)
	}
	fmt.Fprintln(s.w)
}

// List renders a bulleted or numbered list.
type List struct {
	w        io.Writer
	items    []string
	numbered bool
	noColor  bool
}

// ListOptions configures list rendering.
type ListOptions struct {
	Numbered bool
	NoColor  bool
}

// NewList creates an empty list.
func NewList(w io.Writer, opts ListOptions) *List {
	return &List{w: w, numbered: opts.Numbered, noColor: opts.NoColor}
}

// AddItem appends an item.
func (l *List) AddItem(item string) {
	l.items = append(l.items, item)
}

// Render writes the list.
func (l *List) Render() {
	cyan := color.New(color.FgCyan)
	if l.noColor {
		cyan.DisableColor()
	}
	for i, item := range l.items {
		if l.numbered {
			cyan.Fprintf(l.w, "%d. ", i+1)
		} else {
			cyan.Fprint(l.w, "• ")
		}
		fmt.Fprintln(l.w, item)
	}
}

// Divider writes a horizontal rule of the given width (80 when zero).
func Divider(w io.Writer, width int, noColor bool) {
	if width <= 0 {
		width = 80
	}
	gray := color.New(color.FgHiBlack)
	if noColor {
		gray.DisableColor()
	}
	gray.Fprintln(w, strings.Repeat("─", width))
}

// Header writes a bold title underlined by a divider of the same width.
func Header(w io.Writer, title string, noColor bool) {
	bold := color.New(color.Bold, color.FgCyan)
	if noColor {
		bold.DisableColor()
	}
	bold.Fprintln(w, title)
	Divider(w, displayWidth(title), noColor)
}

// displayWidth counts runes, so glyphs like ✓ pad correctly.
func displayWidth(s string) int {
	return utf8.RuneCountInString(s)
}

func padRight(s string, width int) string {
	if pad := width - displayWidth(s); pad > 0 {
		return s + strings.Repeat(" ", pad)
	}
	return s
}
