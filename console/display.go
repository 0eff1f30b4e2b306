/*
zlock - Электронный замок на Go
Copyright (c) 2023 GSB, Georgii Batanov gbatanov@yandex.ru
MIT License
*/
package console

import (
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

const (
	Cols = 16
	Rows = 2
)

var frameStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("42")).
	Foreground(lipgloss.Color("120")).
	Padding(0, 1)

// Display is a 16x2 character screen drawn as a framed box on w after
// every change.
type Display struct {
	mu       sync.Mutex
	w        io.Writer
	cells    [Rows][Cols]byte
	row, col int
}

func NewDisplay(w io.Writer) *Display {
	d := &Display{w: w}
	d.blank()
	return d
}

func (d *Display) Clear() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.blank()
	return d.render()
}

func (d *Display) Text(s string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.put(s)
	return d.render()
}

func (d *Display) TextAt(s string, row, col int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.row = min(max(row, 0), Rows-1)
	d.col = min(max(col, 0), Cols-1)
	d.put(s)
	return d.render()
}

// Lines returns the current screen content.
func (d *Display) Lines() [Rows]string {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out [Rows]string
	for r := range d.cells {
		out[r] = string(d.cells[r][:])
	}
	return out
}

// put writes at the cursor; characters past the end of a row are lost.
func (d *Display) put(s string) {
	for i := 0; i < len(s); i++ {
		if d.col >= Cols {
			return
		}
		d.cells[d.row][d.col] = s[i]
		d.col++
	}
}

func (d *Display) blank() {
	for r := range d.cells {
		for c := range d.cells[r] {
			d.cells[r][c] = ' '
		}
	}
	d.row, d.col = 0, 0
}

func (d *Display) render() error {
	if d.w == nil {
		return nil
	}
	lines := make([]string, Rows)
	for r := range d.cells {
		lines[r] = string(d.cells[r][:])
	}
	frame := frameStyle.Render(strings.Join(lines, "\n"))
	// raw mode terminals need explicit carriage returns
	frame = strings.ReplaceAll(frame, "\n", "\r\n")
	_, err := io.WriteString(d.w, "\x1b[H\x1b[2J"+frame+"\r\n")
	return err
}
