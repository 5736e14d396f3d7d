package controller

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/matt-steen/todo-board/pkg/board"
	"github.com/matt-steen/todo-board/pkg/dragdrop"
	"github.com/rivo/tview"
	"github.com/rs/zerolog/log"
)

// handleMouse turns mouse events into drag and drop: a press on a todo starts a drag, moving over
// a column hovers it, and releasing drops on the column under the pointer. Releasing outside
// every column, or without having moved, abandons the drag.
func (c *Controller) handleMouse(evt *tcell.EventMouse, action tview.MouseAction) (*tcell.EventMouse, tview.MouseAction) {
	if name, _ := c.pages.GetFrontPage(); name != pageBoard {
		return evt, action
	}

	x, y := evt.Position()

	if c.pointer(x, y, action) {
		return nil, action
	}

	return evt, action
}

// pointer handles one mouse action at x, y and reports whether it consumed it.
func (c *Controller) pointer(x, y int, action tview.MouseAction) bool {
	column, inColumn := c.columnAt(x, y)

	switch action {
	case tview.MouseLeftDown:
		if !inColumn {
			return false
		}

		item, ok := c.contents[column].itemAt(c.rowAt(column, y))
		if !ok {
			return false
		}

		c.pressed = true
		c.dragMoved = false
		c.dropEffect = ""
		c.app.Session.OnDragStart(item)

		// let the table select the row as well
		return false

	case tview.MouseMove:
		if !c.pressed {
			return false
		}

		c.dragMoved = true

		if !inColumn {
			if c.app.Session.Hovered.Get() != nil {
				c.app.Session.OnDragLeave()
			}

			return true
		}

		if hovered := c.app.Session.Hovered.Get(); hovered != nil && *hovered == column {
			return true
		}

		evt := &dragdrop.PointerEvent{DropEffect: dragdrop.DropEffectMove}
		c.app.Session.OnDragOver(evt, column)
		c.dropEffect = evt.DropEffect
		c.refreshColumns()

		return true

	case tview.MouseLeftUp:
		if !c.pressed {
			return false
		}

		c.pressed = false

		if !c.dragMoved || !inColumn {
			c.app.Session.OnDragEnd()

			return c.dragMoved
		}

		item := c.app.Session.Dragged.Get()
		legal := item != nil && board.IsValidTransition(item.Column, column)

		log.Debug().Str("column", string(column)).Bool("legal", legal).Msg("drop")

		c.app.Drops.OnDrop(column)
		c.dropEffect = ""

		if !legal {
			if item != nil {
				c.showNotice(fmt.Sprintf("'%s' can't move from %s to %s", item.Title, item.Column.Title(), column.Title()))
			}

			return true
		}

		c.notice = ""

		if column != c.selectedColumn {
			c.selectedRow[column] = len(c.app.ItemsIn(column))
			c.focusColumn(column)
		}

		return true
	}

	return false
}

// columnAt returns the column whose table contains x, y.
func (c *Controller) columnAt(x, y int) (board.Column, bool) {
	for _, column := range board.Columns() {
		if c.columns[column].InRect(x, y) {
			return column, true
		}
	}

	return "", false
}

// rowAt returns the table row shown at screen line y of column, accounting for scrolling below the
// fixed header.
func (c *Controller) rowAt(column board.Column, y int) int {
	table := c.columns[column]
	_, top, _, _ := table.GetInnerRect()
	rowOffset, _ := table.GetOffset()

	line := y - top
	if line < headerRows {
		return line
	}

	return line + rowOffset
}
