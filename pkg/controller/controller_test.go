package controller

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/matt-steen/todo-board/pkg/app"
	"github.com/matt-steen/todo-board/pkg/board"
	"github.com/matt-steen/todo-board/pkg/dragdrop"
	"github.com/matt-steen/todo-board/pkg/identity"
	"github.com/matt-steen/todo-board/pkg/tasks"
	"github.com/matt-steen/todo-board/pkg/testutil"
	"github.com/rivo/tview"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	laneWidth  = 30
	laneTop    = 2
	laneHeight = 10
	// first item row: border, then the header row
	firstItemY = laneTop + 2
)

func laneX(column board.Column) int {
	for i, c := range board.Columns() {
		if c == column {
			return i*laneWidth + 5
		}
	}

	return -1
}

// newTestApp returns a started app whose todo column holds the given titles.
func newTestApp(t *testing.T, titles ...string) (*app.App, *testutil.FakeRemote, *tasks.Queue) {
	t.Helper()

	remote := testutil.NewFakeRemote()
	queue := tasks.NewQueue(context.Background(), nil)
	t.Cleanup(queue.Close)

	a := app.New(app.Options{
		Remote:   remote,
		Identity: identity.NewCache(t.TempDir(), remote),
		Queue:    queue,
		Now: func() time.Time {
			return time.Date(2026, time.October, 15, 14, 5, 9, 0, time.Local)
		},
	})
	require.Nil(t, a.Start(context.Background()))

	for _, title := range titles {
		_, err := a.AddItem(context.Background(), board.ColumnTodo, title)
		require.Nil(t, err)
	}

	return a, remote, queue
}

// getController returns a controller that redraws synchronously and lays its columns out side by
// side without a screen.
func getController(t *testing.T, titles ...string) (*Controller, *testutil.FakeRemote, *tasks.Queue) {
	t.Helper()

	a, remote, queue := newTestApp(t, titles...)

	c, err := NewController(context.Background(), a)
	require.Nil(t, err)

	c.draw = func(f func()) { f() }

	for i, column := range board.Columns() {
		c.columns[column].SetRect(i*laneWidth, laneTop, laneWidth, laneHeight)
	}

	c.refresh()

	return c, remote, queue
}

func TestNeighbor(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	next, ok := neighbor(board.ColumnTodo, 1)
	assert.True(ok)
	assert.Equal(board.ColumnOngoing, next)

	prev, ok := neighbor(board.ColumnDone, -1)
	assert.True(ok)
	assert.Equal(board.ColumnOngoing, prev)

	_, ok = neighbor(board.ColumnTodo, -1)
	assert.False(ok)

	_, ok = neighbor(board.ColumnDone, 1)
	assert.False(ok)

	_, ok = neighbor("archived", 1)
	assert.False(ok)
}

func TestColumnContent(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	c, _, _ := getController(t, "one", "two")
	content := c.contents[board.ColumnTodo]

	assert.Equal(3, content.GetRowCount())
	assert.Equal("title", content.GetCell(0, 0).Text)
	assert.Equal("one", content.GetCell(1, 0).Text)
	assert.Equal("two", content.GetCell(2, 0).Text)
	assert.Equal("10/15/2026, 2:05:09 PM", content.GetCell(1, 2).Text)
	assert.Nil(content.GetCell(3, 0))

	assert.Equal(1, c.contents[board.ColumnOngoing].GetRowCount())
}

func TestHeaderListsShortcuts(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	c, _, _ := getController(t)

	text := []string{}

	for row := 0; row < c.header.GetRowCount(); row++ {
		for col := 0; col < c.header.GetColumnCount(); col++ {
			if cell := c.header.GetCell(row, col); cell != nil {
				text = append(text, cell.Text)
			}
		}
	}

	joined := strings.Join(text, "|")
	assert.Contains(joined, "<q>[white] Exit")
	assert.Contains(joined, "<>>[white] Move right")
	assert.Contains(joined, "<drag>[white] Move todo")
	assert.Len(text, len(c.events)+1)
}

func TestColumnAt(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	c, _, _ := getController(t)

	column, ok := c.columnAt(laneX(board.ColumnDone), firstItemY)
	assert.True(ok)
	assert.Equal(board.ColumnDone, column)

	_, ok = c.columnAt(5, laneTop+laneHeight+1)
	assert.False(ok)

	assert.Equal(0, c.rowAt(board.ColumnTodo, laneTop+1))
	assert.Equal(1, c.rowAt(board.ColumnTodo, firstItemY))
}

func TestDragToNeighbor(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	c, remote, queue := getController(t, "write tests")
	item := c.app.ItemsIn(board.ColumnTodo)[0]

	assert.False(c.pointer(laneX(board.ColumnTodo), firstItemY, tview.MouseLeftDown))
	assert.Equal(item.ID, c.app.Session.Dragged.Get().ID)

	assert.True(c.pointer(laneX(board.ColumnOngoing), firstItemY, tview.MouseMove))
	assert.Equal(board.ColumnOngoing, *c.app.Session.Hovered.Get())
	assert.Equal(dragdrop.DropEffectMove, c.dropEffect)

	assert.True(c.pointer(laneX(board.ColumnOngoing), firstItemY, tview.MouseLeftUp))

	queue.Wait()

	assert.Empty(c.app.ItemsIn(board.ColumnTodo))
	assert.Len(c.app.ItemsIn(board.ColumnOngoing), 1)
	assert.Len(c.contents[board.ColumnOngoing].items, 1)
	assert.Equal(board.ColumnOngoing, c.selectedColumn)
	assert.Nil(c.app.Session.Dragged.Get())
	assert.Nil(c.app.Session.Hovered.Get())
	assert.False(c.pressed)
	assert.Equal(1, remote.Calls("UpdateItemColumn"))

	stored, ok := remote.Item(item.ID)
	assert.True(ok)
	assert.Equal(board.ColumnOngoing, stored.Column)
}

func TestDragToIllegalColumn(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	c, remote, queue := getController(t, "write tests")

	c.pointer(laneX(board.ColumnTodo), firstItemY, tview.MouseLeftDown)
	c.pointer(laneX(board.ColumnDone), firstItemY, tview.MouseMove)

	assert.Equal(dragdrop.DropEffectNone, c.dropEffect)

	assert.True(c.pointer(laneX(board.ColumnDone), firstItemY, tview.MouseLeftUp))

	queue.Wait()

	assert.Len(c.app.ItemsIn(board.ColumnTodo), 1)
	assert.Empty(c.app.ItemsIn(board.ColumnDone))
	assert.Nil(c.app.Session.Dragged.Get())
	assert.Contains(c.notice, "can't move")
	assert.Equal(board.ColumnTodo, c.selectedColumn)
	assert.Equal(0, remote.Calls("UpdateItemColumn"))
}

func TestClickIsNotADrop(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	c, remote, queue := getController(t, "write tests")

	c.pointer(laneX(board.ColumnTodo), firstItemY, tview.MouseLeftDown)
	assert.False(c.pointer(laneX(board.ColumnTodo), firstItemY, tview.MouseLeftUp))

	queue.Wait()

	assert.Nil(c.app.Session.Dragged.Get())
	assert.Len(c.app.ItemsIn(board.ColumnTodo), 1)
	assert.Equal(0, remote.Calls("UpdateItemColumn"))
}

func TestDragOutOfBoard(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	c, remote, queue := getController(t, "write tests")
	outside := laneTop + laneHeight + 3

	c.pointer(laneX(board.ColumnTodo), firstItemY, tview.MouseLeftDown)
	c.pointer(laneX(board.ColumnOngoing), firstItemY, tview.MouseMove)
	assert.NotNil(c.app.Session.Hovered.Get())

	assert.True(c.pointer(laneX(board.ColumnOngoing), outside, tview.MouseMove))
	assert.Nil(c.app.Session.Hovered.Get())
	assert.NotNil(c.app.Session.Dragged.Get())

	assert.True(c.pointer(laneX(board.ColumnOngoing), outside, tview.MouseLeftUp))

	queue.Wait()

	assert.Nil(c.app.Session.Dragged.Get())
	assert.Len(c.app.ItemsIn(board.ColumnTodo), 1)
	assert.Equal(0, remote.Calls("UpdateItemColumn"))
}

func TestPressOnEmptyRowIgnored(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	c, _, _ := getController(t, "write tests")

	assert.False(c.pointer(laneX(board.ColumnOngoing), firstItemY, tview.MouseLeftDown))
	assert.False(c.pressed)
	assert.Nil(c.app.Session.Dragged.Get())

	assert.False(c.pointer(laneX(board.ColumnOngoing), firstItemY, tview.MouseMove))
}

func TestHandleMouseConsumesDrag(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	c, _, _ := getController(t, "write tests")

	press := tcell.NewEventMouse(laneX(board.ColumnTodo), firstItemY, tcell.Button1, tcell.ModNone)
	evt, _ := c.handleMouse(press, tview.MouseLeftDown)
	assert.Equal(press, evt)

	move := tcell.NewEventMouse(laneX(board.ColumnOngoing), firstItemY, tcell.Button1, tcell.ModNone)
	evt, _ = c.handleMouse(move, tview.MouseMove)
	assert.Nil(evt)
}

func TestKeyboardMove(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	c, remote, queue := getController(t, "write tests")
	right := tcell.NewEventKey(tcell.KeyRune, KeyMoveRight, tcell.ModNone)
	left := tcell.NewEventKey(tcell.KeyRune, KeyMoveLeft, tcell.ModNone)

	assert.Nil(c.handleKeys(right))
	assert.Len(c.app.ItemsIn(board.ColumnOngoing), 1)
	assert.Equal(board.ColumnOngoing, c.selectedColumn)

	assert.Nil(c.handleKeys(right))
	assert.Len(c.app.ItemsIn(board.ColumnDone), 1)
	assert.Equal(board.ColumnDone, c.selectedColumn)

	// nothing to the right of done
	assert.Nil(c.handleKeys(right))
	assert.Len(c.app.ItemsIn(board.ColumnDone), 1)

	assert.Nil(c.handleKeys(left))
	assert.Len(c.app.ItemsIn(board.ColumnOngoing), 1)

	queue.Wait()
	assert.Equal(3, remote.Calls("UpdateItemColumn"))
}

func TestArrowKeysChangeFocus(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	c, _, _ := getController(t)

	assert.Nil(c.handleKeys(tcell.NewEventKey(tcell.KeyRight, 0, tcell.ModNone)))
	assert.Equal(board.ColumnOngoing, c.selectedColumn)

	assert.Nil(c.handleKeys(tcell.NewEventKey(tcell.KeyRight, 0, tcell.ModNone)))
	assert.Nil(c.handleKeys(tcell.NewEventKey(tcell.KeyRight, 0, tcell.ModNone)))
	assert.Equal(board.ColumnDone, c.selectedColumn)

	assert.Nil(c.handleKeys(tcell.NewEventKey(tcell.KeyLeft, 0, tcell.ModNone)))
	assert.Equal(board.ColumnOngoing, c.selectedColumn)

	unbound := tcell.NewEventKey(tcell.KeyRune, 'z', tcell.ModNone)
	assert.Equal(unbound, c.handleKeys(unbound))
}

func TestRemoteErrorShownInStatus(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	c, remote, queue := getController(t, "write tests")
	remote.UpdateItemColumnErr = errors.New("service unavailable")

	c.handleKeys(tcell.NewEventKey(tcell.KeyRune, KeyMoveRight, tcell.ModNone))
	queue.Wait()

	assert.Contains(c.statusBar.GetText(true), "not on the server")
	assert.Len(c.app.ItemsIn(board.ColumnOngoing), 1)
}

func TestStatusShowsUser(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	c, _, _ := getController(t)
	user := c.app.User.Get()

	assert.Contains(c.statusBar.GetText(true), user.Username)
}

func TestAddFormSwitchesPages(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	c, _, _ := getController(t)
	c.focusColumn(board.ColumnOngoing)

	c.handleKeys(tcell.NewEventKey(tcell.KeyRune, KeyAdd, tcell.ModNone))

	name, _ := c.pages.GetFrontPage()
	assert.Equal(pageForm, name)

	index, option := c.columnDrop.GetCurrentOption()
	assert.Equal(1, index)
	assert.Equal("Ongoing", option)

	// board keys are inert while the form is up
	key := tcell.NewEventKey(tcell.KeyRune, KeyMoveRight, tcell.ModNone)
	assert.Equal(key, c.handleKeys(key))

	c.closeForm()

	name, _ = c.pages.GetFrontPage()
	assert.Equal(pageBoard, name)
}
