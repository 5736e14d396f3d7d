// Package app wires the board's state and actions together. One App is created at startup and
// handed to whatever drives the UI.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/matt-steen/todo-board/pkg/api"
	"github.com/matt-steen/todo-board/pkg/board"
	"github.com/matt-steen/todo-board/pkg/dragdrop"
	"github.com/matt-steen/todo-board/pkg/state"
	"github.com/rs/zerolog/log"
)

// ErrInvalidUser is returned when an action needs a user and none is loaded.
var ErrInvalidUser = errors.New("invalid user")

// ErrItemNotFound is returned when an action names an item that isn't on the board.
var ErrItemNotFound = errors.New("todo not found")

// Identity is the local user store.
type Identity interface {
	Initialize(ctx context.Context) (board.User, error)
	Current() *board.User
	Update(user board.User) (board.User, error)
}

// Options configure an App.
type Options struct {
	Remote   api.Remote
	Identity Identity
	Queue    dragdrop.Submitter
	// Now is the clock for LastUpdated stamps; nil means time.Now.
	Now func() time.Time
}

// App holds the board's shared state.
type App struct {
	remote   api.Remote
	identity Identity
	now      func() time.Time

	// User is the active user, nil until Start succeeds.
	User *state.Value[*board.User]
	// Items are the items of the user's last used list.
	Items *state.Value[[]board.Item]
	// Errors carries failures of background work, most recent last.
	Errors *state.Value[error]

	Session *dragdrop.Session
	Drops   *dragdrop.Coordinator
}

// New creates an App.
func New(opts Options) *App {
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	a := &App{
		remote:   opts.Remote,
		identity: opts.Identity,
		now:      now,
		User:     state.NewValue[*board.User](nil),
		Items:    state.NewValue([]board.Item{}),
		Errors:   state.NewValue[error](nil),
		Session:  dragdrop.NewSession(),
	}

	a.Drops = dragdrop.NewCoordinator(a.Session, a.Items, opts.Remote, opts.Queue, now)
	a.Drops.OnRemoteError = func(item board.Item, target board.Column, err error) {
		a.Errors.Set(fmt.Errorf("'%s' was moved to %s here but not on the server: %w", item.Title, target, err))
	}

	return a
}

// Start loads the local user, creating one on first run, and then the user's last used list.
func (a *App) Start(ctx context.Context) error {
	user, err := a.identity.Initialize(ctx)
	if err != nil {
		return fmt.Errorf("error initializing user: %w", err)
	}

	a.User.Set(&user)

	return a.LoadList(ctx, user.LastUsedTodolistID)
}

// Reload fetches the current list again.
func (a *App) Reload(ctx context.Context) error {
	user := a.User.Get()
	if !user.Valid() {
		return fmt.Errorf("error reloading todolist: %w", ErrInvalidUser)
	}

	return a.LoadList(ctx, user.LastUsedTodolistID)
}

// LoadList replaces the board's items with those of listID.
func (a *App) LoadList(ctx context.Context, listID int) error {
	if !a.User.Get().Valid() {
		return fmt.Errorf("error loading todolist: %w", ErrInvalidUser)
	}

	items, err := a.remote.GetList(ctx, listID)
	if err != nil {
		return err
	}

	a.Items.Set(items)

	log.Debug().Int("list", listID).Int("todos", len(items)).Msg("loaded todolist")

	return nil
}

// NewList creates a list, makes it the user's last used list and empties the board.
func (a *App) NewList(ctx context.Context) (board.List, error) {
	current := a.User.Get()
	if !current.Valid() {
		return board.List{}, fmt.Errorf("error creating todolist: %w", ErrInvalidUser)
	}

	list, err := a.remote.CreateList(ctx, current.ID)
	if err != nil {
		return board.List{}, err
	}

	user := *current
	user.LastUsedTodolistID = list.ID

	stored, err := a.identity.Update(user)
	if err != nil {
		return board.List{}, fmt.Errorf("error saving todolist %d as last used: %w", list.ID, err)
	}

	a.User.Set(&stored)
	a.Items.Set([]board.Item{})

	log.Info().Int("list", list.ID).Msg("created todolist")

	return list, nil
}

// AddItem creates an item titled title in column on the current list. A blank title is ignored
// and reported as nil.
func (a *App) AddItem(ctx context.Context, column board.Column, title string) (*board.Item, error) {
	user := a.User.Get()
	if !user.Valid() {
		return nil, fmt.Errorf("error adding todo: %w", ErrInvalidUser)
	}

	if !column.Valid() {
		return nil, fmt.Errorf("error adding todo: %w: %q", board.ErrInvalidColumn, column)
	}

	title = strings.TrimSpace(title)
	if title == "" {
		return nil, nil
	}

	created, err := a.remote.CreateItem(ctx, api.NewItem{
		Title:       title,
		UserID:      user.ID,
		Column:      column,
		LastUpdated: a.now().Format(board.TimestampLayout),
		ListID:      user.LastUsedTodolistID,
	})
	if err != nil {
		return nil, err
	}

	a.Items.Update(func(items []board.Item) []board.Item {
		return append(append([]board.Item{}, items...), created)
	})

	log.Info().Int("item", created.ID).Str("column", string(column)).Msgf("added todo '%s'", title)

	return &created, nil
}

// DeleteItem removes the item from the service and then from the board.
func (a *App) DeleteItem(ctx context.Context, id int) error {
	if _, ok := a.Item(id); !ok {
		return fmt.Errorf("error deleting todo %d: %w", id, ErrItemNotFound)
	}

	if err := a.remote.DeleteItem(ctx, id); err != nil {
		return err
	}

	a.Items.Update(func(items []board.Item) []board.Item {
		kept := make([]board.Item, 0, len(items))

		for _, it := range items {
			if it.ID != id {
				kept = append(kept, it)
			}
		}

		return kept
	})

	return nil
}

// MoveItem moves an item the way a drag and drop would. It reports whether the move was legal.
func (a *App) MoveItem(id int, target board.Column) (bool, error) {
	item, ok := a.Item(id)
	if !ok {
		return false, fmt.Errorf("error moving todo %d: %w", id, ErrItemNotFound)
	}

	a.Session.OnDragStart(item)
	a.Drops.OnDrop(target)

	return board.IsValidTransition(item.Column, target), nil
}

// Item returns the board item with the given id.
func (a *App) Item(id int) (board.Item, bool) {
	for _, it := range a.Items.Get() {
		if it.ID == id {
			return it, true
		}
	}

	return board.Item{}, false
}

// ItemsIn returns the board items in column, in list order.
func (a *App) ItemsIn(column board.Column) []board.Item {
	items := []board.Item{}

	for _, it := range a.Items.Get() {
		if it.Column == column {
			items = append(items, it)
		}
	}

	return items
}
