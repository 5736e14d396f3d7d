package controller

import (
	"context"
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/matt-steen/todo-board/pkg/board"
	"github.com/rivo/tview"
	"github.com/rs/zerolog/log"
)

const titleMax = 200

func (c *Controller) switchToForm(column board.Column) {
	c.titleField.SetText("")

	for i, col := range board.Columns() {
		if col == column {
			c.columnDrop.SetCurrentOption(i)
		}
	}

	c.todoForm.SetFocus(0)
	c.pages.SwitchToPage(pageForm)
}

func (c *Controller) closeForm() {
	c.pages.SwitchToPage(pageBoard)
	c.focusColumn(c.selectedColumn)
}

func (c *Controller) getFormGrid() *tview.Grid {
	grid := tview.NewGrid().SetRows(0, 9, 0).SetColumns(0, 60, 0)

	c.initForm()

	grid.AddItem(c.todoForm, 1, 1, 1, 1, 0, 0, true)

	return grid
}

func (c *Controller) initForm() {
	options := []string{}
	for _, column := range board.Columns() {
		options = append(options, column.Title())
	}

	c.todoForm = tview.NewForm().
		AddInputField("Title", "", titleMax, nil, nil).
		AddDropDown("Column", options, 0, nil)

	c.todoForm.SetBorder(true).SetTitle(" New Todo ")

	c.titleField, _ = c.todoForm.GetFormItemByLabel("Title").(*tview.InputField)
	c.columnDrop, _ = c.todoForm.GetFormItemByLabel("Column").(*tview.DropDown)

	c.todoForm.AddButton("Save", c.saveForm)
	c.todoForm.AddButton("Cancel", c.closeForm)

	c.todoForm.SetCancelFunc(c.closeForm)

	c.titleField.SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyEnter {
			c.saveForm()
		}
	})
}

func (c *Controller) saveForm() {
	title := c.titleField.GetText()
	index, _ := c.columnDrop.GetCurrentOption()

	column := board.ColumnTodo
	if columns := board.Columns(); index >= 0 && index < len(columns) {
		column = columns[index]
	}

	log.Debug().Str("column", string(column)).Msgf("saving todo with title '%s'", title)

	c.closeForm()

	c.background(fmt.Sprintf("add '%s'", title), func(ctx context.Context) error {
		item, err := c.app.AddItem(ctx, column, title)
		if err != nil || item == nil {
			return err
		}

		c.draw(func() {
			// select the new todo at the bottom of its column
			c.selectedRow[column] = len(c.app.ItemsIn(column))
			c.focusColumn(column)
			c.syncSelection()
		})

		return nil
	})
}
