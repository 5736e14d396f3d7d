package controller

import (
	"context"
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/matt-steen/todo-board/pkg/app"
	"github.com/matt-steen/todo-board/pkg/board"
	"github.com/matt-steen/todo-board/pkg/dragdrop"
	"github.com/rivo/tview"
	"github.com/rs/zerolog/log"
)

const (
	pageBoard = "board"
	pageForm  = "form"
)

// Controller mediates between the app state and the view.
type Controller struct {
	ctx context.Context
	app *app.App
	tui *tview.Application

	pages     *tview.Pages
	header    *tview.Table
	statusBar *tview.TextView
	columns   map[board.Column]*tview.Table
	contents  map[board.Column]*ColumnContent

	todoForm   *tview.Form
	titleField *tview.InputField
	columnDrop *tview.DropDown

	selectedColumn board.Column
	selectedRow    map[board.Column]int

	// pressed is set between a mouse press on an item and the matching release.
	pressed    bool
	dragMoved  bool
	dropEffect dragdrop.DropEffect
	notice     string

	events map[rune]KeyEvent

	// draw schedules f on the UI goroutine followed by a redraw. It never waits for f.
	draw func(f func())
}

// KeyEvent defines an event associated with a keypress.
type KeyEvent struct {
	Description string
	Action      func(*tcell.EventKey) *tcell.EventKey
}

// NewController creates a new Controller to run the board for a.
func NewController(ctx context.Context, a *app.App) (*Controller, error) {
	c := Controller{
		ctx:            ctx,
		app:            a,
		tui:            tview.NewApplication(),
		columns:        map[board.Column]*tview.Table{},
		contents:       map[board.Column]*ColumnContent{},
		selectedColumn: board.ColumnTodo,
		selectedRow:    map[board.Column]int{},
	}

	// subscribers also fire on the event loop itself, which QueueUpdateDraw waits for
	c.draw = func(f func()) {
		go c.tui.QueueUpdateDraw(f)
	}

	c.initEvents()
	c.initPages()
	c.subscribe()

	return &c, nil
}

// Go starts the app and blocks until the user quits.
func (c *Controller) Go() error {
	c.tui.EnableMouse(true)
	c.tui.SetMouseCapture(c.handleMouse)
	c.tui.SetInputCapture(c.handleKeys)

	c.refresh()
	c.focusColumn(c.selectedColumn)

	if err := c.tui.SetRoot(c.pages, true).Run(); err != nil {
		return fmt.Errorf("error running board: %w", err)
	}

	return nil
}

// subscribe redraws whenever any shared state changes.
func (c *Controller) subscribe() {
	c.app.Items.Subscribe(func([]board.Item) { c.draw(c.refresh) })
	c.app.User.Subscribe(func(*board.User) { c.draw(c.refreshStatus) })
	c.app.Session.Dragged.Subscribe(func(*board.Item) { c.draw(c.refreshColumns) })
	c.app.Session.Hovered.Subscribe(func(*board.Column) { c.draw(c.refreshColumns) })
	c.app.Errors.Subscribe(func(err error) {
		if err != nil {
			c.draw(func() { c.showNotice(err.Error()) })
		}
	})
}

// background runs fn off the UI goroutine; state changes it makes reach the view through the
// subscriptions.
func (c *Controller) background(what string, fn func(ctx context.Context) error) {
	go func() {
		if err := fn(c.ctx); err != nil {
			log.Error().Err(err).Msgf("error while trying to %s", what)

			c.draw(func() { c.showNotice(fmt.Sprintf("couldn't %s: %s", what, err)) })
		}
	}()
}

func (c *Controller) showNotice(msg string) {
	c.notice = msg
	c.refreshStatus()
}

func (c *Controller) refresh() {
	for _, column := range board.Columns() {
		c.contents[column].items = c.app.ItemsIn(column)
	}

	c.refreshColumns()
	c.refreshStatus()
	c.syncSelection()
}

func (c *Controller) refreshColumns() {
	hovered := c.app.Session.Hovered.Get()
	dragged := c.app.Session.Dragged.Get()

	for _, column := range board.Columns() {
		table := c.columns[column]
		content := c.contents[column]

		content.draggedID = 0
		if dragged != nil {
			content.draggedID = dragged.ID
		}

		table.SetTitle(fmt.Sprintf(" %s (%d) ", column.Title(), len(content.items)))

		color := tcell.ColorWhite

		if column == c.selectedColumn {
			color = tcell.ColorYellow
		}

		if hovered != nil && *hovered == column && dragged != nil {
			color = tcell.ColorGreen
			if c.dropEffect == dragdrop.DropEffectNone {
				color = tcell.ColorRed
			}
		}

		table.SetBorderColor(color)
	}
}

func (c *Controller) refreshStatus() {
	text := "[yellow]user[white] -"

	if user := c.app.User.Get(); user != nil {
		text = fmt.Sprintf("[yellow]user[white] %s  [yellow]list[white] %d", user.Username, user.LastUsedTodolistID)
	}

	if c.notice != "" {
		text += "  [red]" + tview.Escape(c.notice)
	}

	c.statusBar.SetText(text)
}

// syncSelection keeps each column's selected row inside its item range.
func (c *Controller) syncSelection() {
	for _, column := range board.Columns() {
		n := len(c.contents[column].items)
		row := c.selectedRow[column]

		switch {
		case n == 0:
			row = 0
		case row < 1:
			row = 1
		case row > n:
			row = n
		}

		c.selectedRow[column] = row

		if row > 0 {
			c.columns[column].Select(row, 0)
		}
	}
}

// selectedItem returns the item under the cursor of the focused column.
func (c *Controller) selectedItem() (board.Item, bool) {
	return c.contents[c.selectedColumn].itemAt(c.selectedRow[c.selectedColumn])
}

func (c *Controller) focusColumn(column board.Column) {
	c.selectedColumn = column
	c.tui.SetFocus(c.columns[column])
	c.refreshColumns()
}
