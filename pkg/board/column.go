package board

import (
	"errors"
	"fmt"
)

// Column is one of the fixed lanes an item belongs to.
type Column string

// These constants refer to the columns supported by the board.
const (
	ColumnTodo    Column = "todo"
	ColumnOngoing Column = "ongoing"
	ColumnDone    Column = "done"
)

// ErrInvalidColumn is returned when a string does not name a known column.
var ErrInvalidColumn = errors.New("invalid column")

// transitions is a directed graph: moving back from done skips straight to ongoing, never to todo.
var transitions = map[Column][]Column{
	ColumnTodo:    {ColumnOngoing},
	ColumnOngoing: {ColumnDone, ColumnTodo},
	ColumnDone:    {ColumnOngoing},
}

// Columns returns the columns in board order, left to right.
func Columns() []Column {
	return []Column{ColumnTodo, ColumnOngoing, ColumnDone}
}

// ParseColumn converts s into a Column.
func ParseColumn(s string) (Column, error) {
	c := Column(s)
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidColumn, s)
	}

	return c, nil
}

// Valid reports whether c is one of the known columns.
func (c Column) Valid() bool {
	_, ok := transitions[c]

	return ok
}

// Title returns the display name of the column.
func (c Column) Title() string {
	switch c {
	case ColumnTodo:
		return "To Do"
	case ColumnOngoing:
		return "Ongoing"
	case ColumnDone:
		return "Done"
	}

	return string(c)
}

// Transitions returns the columns an item in from may move to, not counting from itself.
// Unknown columns have no transitions.
func Transitions(from Column) []Column {
	return append([]Column(nil), transitions[from]...)
}

// IsValidTransition reports whether an item may move from one column to another. Dropping an
// item back on its own column is always allowed.
func IsValidTransition(from, to Column) bool {
	if from == to {
		return true
	}

	for _, c := range transitions[from] {
		if c == to {
			return true
		}
	}

	return false
}
