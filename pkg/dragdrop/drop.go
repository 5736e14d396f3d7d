package dragdrop

import (
	"context"
	"fmt"
	"time"

	"github.com/matt-steen/todo-board/pkg/board"
	"github.com/matt-steen/todo-board/pkg/state"
	"github.com/matt-steen/todo-board/pkg/tasks"
	"github.com/rs/zerolog/log"
)

// ColumnUpdater persists an item's new column remotely.
type ColumnUpdater interface {
	UpdateItemColumn(ctx context.Context, id int, column board.Column, lastUpdated string) error
}

// Submitter runs a task in the background without waiting for it.
type Submitter interface {
	Submit(name string, task tasks.Task) bool
}

// Coordinator applies drops: the local item list changes at once and the remote update runs in
// the background. A failed remote update is not rolled back.
type Coordinator struct {
	session *Session
	items   *state.Value[[]board.Item]
	remote  ColumnUpdater
	queue   Submitter
	now     func() time.Time

	// OnRemoteError, when set, is called from a background goroutine when the remote update of a
	// dropped item fails.
	OnRemoteError func(item board.Item, target board.Column, err error)
}

// NewCoordinator creates a Coordinator for session that keeps items in sync with remote.
// now is the clock used for LastUpdated; nil means time.Now.
func NewCoordinator(
	session *Session, items *state.Value[[]board.Item], remote ColumnUpdater, queue Submitter, now func() time.Time,
) *Coordinator {
	if now == nil {
		now = time.Now
	}

	return &Coordinator{
		session: session,
		items:   items,
		remote:  remote,
		queue:   queue,
		now:     now,
	}
}

// Session returns the drag session the coordinator drops from.
func (c *Coordinator) Session() *Session {
	return c.session
}

// OnDrop moves the dragged item to target when the transition is legal. Illegal drops are a normal
// outcome and are ignored. The session is cleared either way.
func (c *Coordinator) OnDrop(target board.Column) {
	dragged := c.session.Dragged.Get()
	if dragged == nil {
		c.session.clear()

		return
	}

	item := *dragged

	defer c.session.clear()

	if !board.IsValidTransition(item.Column, target) {
		log.Debug().
			Int("item", item.ID).
			Str("from", string(item.Column)).
			Str("to", string(target)).
			Msg("ignoring drop on a column the item can't move to")

		return
	}

	lastUpdated := c.now().Format(board.TimestampLayout)

	c.queue.Submit(fmt.Sprintf("update todo %d", item.ID), func(ctx context.Context) error {
		err := c.remote.UpdateItemColumn(ctx, item.ID, target, lastUpdated)
		if err != nil && c.OnRemoteError != nil {
			c.OnRemoteError(item, target, err)
		}

		return err
	})

	c.items.Update(func(items []board.Item) []board.Item {
		updated := make([]board.Item, len(items))

		for i, it := range items {
			if it.ID == item.ID {
				it.Column = target
				it.LastUpdated = lastUpdated
			}

			updated[i] = it
		}

		return updated
	})

	log.Info().
		Int("item", item.ID).
		Str("from", string(item.Column)).
		Str("to", string(target)).
		Msg("moved todo")
}
