package controller

import (
	"context"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/matt-steen/todo-board/pkg/board"
	"github.com/matt-steen/todo-board/pkg/tasks"
	"github.com/matt-steen/todo-board/pkg/testutil"
	"github.com/rivo/tview"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const loopTimeout = 3 * time.Second

// runController starts the board on a simulated screen and stops it when the test ends.
func runController(t *testing.T, titles ...string) (*Controller, tcell.SimulationScreen, *testutil.FakeRemote, *tasks.Queue) {
	t.Helper()

	a, remote, queue := newTestApp(t, titles...)

	c, err := NewController(context.Background(), a)
	require.Nil(t, err)

	screen := tcell.NewSimulationScreen("")
	require.Nil(t, screen.Init())
	c.tui.SetScreen(screen)
	screen.SetSize(90, 24)

	done := make(chan error, 1)

	go func() {
		done <- c.Go()
	}()

	t.Cleanup(func() {
		c.tui.Stop()

		select {
		case err := <-done:
			assert.Nil(t, err)
		case <-time.After(loopTimeout):
			t.Error("board did not stop")
		}
	})

	// wait for the first frame so the columns have their places on screen
	onLoop(t, c, func() {})

	return c, screen, remote, queue
}

// onLoop runs f on the board's event loop, then redraws, and fails the test if the loop doesn't
// get through it.
func onLoop(t *testing.T, c *Controller, f func()) {
	t.Helper()

	ran := make(chan struct{})

	go func() {
		c.tui.QueueUpdateDraw(f)
		close(ran)
	}()

	select {
	case <-ran:
	case <-time.After(loopTimeout):
		t.Fatal("event loop is stuck")
	}
}

// itemPoint returns the screen position of the first item row of column.
func itemPoint(c *Controller, column board.Column) (int, int) {
	x, y, _, _ := c.columns[column].GetInnerRect()

	return x + 1, y + headerRows
}

func TestKeyboardMoveOnEventLoop(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	c, _, remote, queue := runController(t, "write tests")

	onLoop(t, c, func() {
		c.handleKeys(tcell.NewEventKey(tcell.KeyRune, KeyMoveRight, tcell.ModNone))
	})

	// the loop must still be serving updates after the move
	onLoop(t, c, func() {})

	queue.Wait()

	assert.Len(c.app.ItemsIn(board.ColumnOngoing), 1)
	assert.Nil(c.app.Session.Dragged.Get())
	assert.Equal(1, remote.Calls("UpdateItemColumn"))
}

func TestDragOnEventLoop(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	c, _, remote, queue := runController(t, "write tests")

	var dropped bool

	onLoop(t, c, func() {
		x, y := itemPoint(c, board.ColumnTodo)
		c.pointer(x, y, tview.MouseLeftDown)

		x, y = itemPoint(c, board.ColumnOngoing)
		c.pointer(x, y, tview.MouseMove)
		dropped = c.pointer(x, y, tview.MouseLeftUp)
	})

	onLoop(t, c, func() {})

	queue.Wait()

	assert.True(dropped)
	assert.Len(c.app.ItemsIn(board.ColumnOngoing), 1)
	assert.Empty(c.app.ItemsIn(board.ColumnTodo))
	assert.Equal(1, remote.Calls("UpdateItemColumn"))
}

func TestInjectedKeyMovesItem(t *testing.T) {
	t.Parallel()

	c, screen, remote, _ := runController(t, "write tests")

	screen.InjectKey(tcell.KeyRune, KeyMoveRight, tcell.ModNone)

	assert.Eventually(t, func() bool {
		return len(c.app.ItemsIn(board.ColumnOngoing)) == 1 && remote.Calls("UpdateItemColumn") == 1
	}, loopTimeout, 10*time.Millisecond)

	onLoop(t, c, func() {})
}
