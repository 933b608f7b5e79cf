// Package gridnav tracks keyboard focus over an editable table. Pressing
// Enter moves to the next editable cell, wrapping onto the following row.
package gridnav

import "errors"

// Cell addresses a grid position by zero-based row and column index.
type Cell struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// ErrOutOfRange is returned when focusing a cell outside the grid.
var ErrOutOfRange = errors.New("gridnav: cell out of range")

// Grid holds the dimensions, editable columns and the focused cell. It is a
// plain value so that owners can persist it alongside their rows.
type Grid struct {
	Rows     int   `json:"rows"`
	Editable []int `json:"editable"`
	Focus    *Cell `json:"focus,omitempty"`
}

// New creates a grid with the given editable column indexes, in tab order.
func New(rows int, editable ...int) Grid {
	cols := append([]int(nil), editable...)
	return Grid{Rows: rows, Editable: cols}
}

// Reset drops the focus and reshapes the grid. Used whenever the rows are
// regenerated wholesale.
func (g *Grid) Reset(rows int, editable ...int) {
	g.Rows = rows
	g.Editable = append(g.Editable[:0:0], editable...)
	g.Focus = nil
}

// FocusCell moves focus to an explicit cell.
func (g *Grid) FocusCell(c Cell) error {
	if c.Row < 0 || c.Row >= g.Rows || g.colPos(c.Col) < 0 {
		return ErrOutOfRange
	}
	g.Focus = &c
	return nil
}

// Next advances focus as Enter would and returns the new cell. From no
// focus it lands on the first editable cell. ok is false once the last cell
// has been passed; focus is then cleared.
func (g *Grid) Next() (Cell, bool) {
	if g.Rows <= 0 || len(g.Editable) == 0 {
		g.Focus = nil
		return Cell{}, false
	}
	if g.Focus == nil {
		c := Cell{Row: 0, Col: g.Editable[0]}
		g.Focus = &c
		return c, true
	}
	pos := g.colPos(g.Focus.Col)
	row := g.Focus.Row
	if pos < 0 || pos+1 >= len(g.Editable) {
		row++
		pos = 0
	} else {
		pos++
	}
	if row >= g.Rows {
		g.Focus = nil
		return Cell{}, false
	}
	c := Cell{Row: row, Col: g.Editable[pos]}
	g.Focus = &c
	return c, true
}

// RemoveRow keeps focus consistent after a row deletion: focus on a later row
// shifts up, focus on the deleted row moves to the row that replaced it.
func (g *Grid) RemoveRow(index int) {
	if index < 0 || index >= g.Rows {
		return
	}
	g.Rows--
	if g.Focus == nil {
		return
	}
	switch {
	case g.Rows == 0:
		g.Focus = nil
	case g.Focus.Row > index:
		g.Focus.Row--
	case g.Focus.Row == index && index >= g.Rows:
		g.Focus.Row = g.Rows - 1
	}
}

func (g *Grid) colPos(col int) int {
	for i, c := range g.Editable {
		if c == col {
			return i
		}
	}
	return -1
}
