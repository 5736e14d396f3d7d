package controller

import (
	"github.com/gdamore/tcell/v2"
	"github.com/matt-steen/todo-board/pkg/board"
	"github.com/rivo/tview"
)

const (
	titleExpansion = 3
	headerRows     = 1
)

// ColumnContent implements tview.TableContent, which tview.Table uses to update data.
type ColumnContent struct {
	tview.TableContentReadOnly
	items     []board.Item
	draggedID int
}

// itemAt returns the item shown in the given table row.
func (s *ColumnContent) itemAt(row int) (board.Item, bool) {
	// adjust for the header row
	if idx := row - headerRows; idx >= 0 && idx < len(s.items) {
		return s.items[idx], true
	}

	return board.Item{}, false
}

// GetCell returns the cell at the given position or nil if no cell.
func (s *ColumnContent) GetCell(row, col int) *tview.TableCell {
	if row == 0 {
		switch col {
		case 0:
			return tview.NewTableCell("title").SetExpansion(titleExpansion).
				SetTextColor(tcell.ColorYellow).SetSelectable(false)
		case 1:
			return tview.NewTableCell("by").SetExpansion(1).
				SetTextColor(tcell.ColorYellow).SetSelectable(false)
		case 2:
			return tview.NewTableCell("updated").SetExpansion(1).
				SetTextColor(tcell.ColorYellow).SetSelectable(false)
		}

		return nil
	}

	item, ok := s.itemAt(row)
	if !ok {
		return nil
	}

	color := tcell.ColorWhite
	if item.ID == s.draggedID {
		color = tcell.ColorFuchsia
	}

	switch col {
	case 0:
		return tview.NewTableCell(tview.Escape(item.Title)).SetExpansion(titleExpansion).
			SetTextColor(color).SetReference(item.ID)
	case 1:
		return tview.NewTableCell(tview.Escape(item.Creator)).SetExpansion(1).SetTextColor(tcell.ColorGreen)
	case 2:
		return tview.NewTableCell(item.LastUpdated).SetExpansion(1).SetTextColor(tcell.ColorGray)
	}

	return nil
}

// GetRowCount returns the number of rows in the table.
func (s *ColumnContent) GetRowCount() int {
	return len(s.items) + headerRows
}

// GetColumnCount returns the number of columns in the table.
func (s *ColumnContent) GetColumnCount() int {
	return 3
}
