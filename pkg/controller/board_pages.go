package controller

import (
	"fmt"
	"sort"

	"github.com/gdamore/tcell/v2"
	"github.com/matt-steen/todo-board/pkg/board"
	"github.com/rivo/tview"
)

func (c *Controller) initPages() {
	c.pages = tview.NewPages()

	c.pages.AddPage(pageBoard, c.getBoardGrid(), true, true)
	c.pages.AddPage(pageForm, c.getFormGrid(), true, false)
}

// getBoardGrid lays out the shortcut header, one table per column and the status bar.
func (c *Controller) getBoardGrid() *tview.Grid {
	c.header = c.getHeader()
	c.statusBar = tview.NewTextView().SetDynamicColors(true)

	lanes := tview.NewFlex().SetDirection(tview.FlexColumn)

	for _, column := range board.Columns() {
		c.columns[column] = c.getTable(column)
		lanes.AddItem(c.columns[column], 0, 1, column == c.selectedColumn)
	}

	grid := tview.NewGrid().SetRows(c.header.GetRowCount(), 0, 1).SetBorders(false)

	grid.AddItem(c.header, 0, 0, 1, 1, 0, 0, false)
	grid.AddItem(lanes, 1, 0, 1, 1, 0, 0, true)
	grid.AddItem(c.statusBar, 2, 0, 1, 1, 0, 0, false)

	return grid
}

// getHeader returns a table listing the keyboard shortcuts, sorted by description.
func (c *Controller) getHeader() *tview.Table {
	table := tview.NewTable().SetBorders(false).SetSelectable(false, false)

	type shortcut struct {
		key         string
		description string
	}

	shortcuts := []shortcut{{key: "drag", description: "Move todo"}}

	for key, event := range c.events {
		shortcuts = append(shortcuts, shortcut{key: keyName(key), description: event.Description})
	}

	sort.Slice(shortcuts, func(i, j int) bool {
		return shortcuts[i].description < shortcuts[j].description
	})

	const perRow = 4

	for i, s := range shortcuts {
		text := fmt.Sprintf("[orange]<%s>[white] %s", s.key, s.description)
		table.SetCell(i/perRow, i%perRow, tview.NewTableCell(text).SetExpansion(1))
	}

	return table
}

func (c *Controller) getTable(column board.Column) *tview.Table {
	content := &ColumnContent{}
	c.contents[column] = content

	table := tview.NewTable().SetBorders(false)
	table.SetContent(content)
	table.SetSelectable(true, false)
	table.SetFixed(headerRows, 0)
	table.SetBorder(true)
	table.SetTitle(fmt.Sprintf(" %s ", column.Title()))

	table.SetSelectionChangedFunc(func(row, _ int) {
		c.selectedRow[column] = row
	})

	table.SetFocusFunc(func() {
		if c.selectedColumn != column {
			c.selectedColumn = column
			c.refreshColumns()
		}
	})

	table.SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyEscape {
			c.tui.Stop()
		}
	})

	return table
}

// neighbor returns the column delta positions away from column on the board, if any.
func neighbor(column board.Column, delta int) (board.Column, bool) {
	columns := board.Columns()

	for i, c := range columns {
		if c == column {
			if j := i + delta; j >= 0 && j < len(columns) {
				return columns[j], true
			}

			return "", false
		}
	}

	return "", false
}
