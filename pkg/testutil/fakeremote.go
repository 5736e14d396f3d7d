// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/matt-steen/todo-board/pkg/api"
	"github.com/matt-steen/todo-board/pkg/board"
)

// FakeRemote is an in-memory implementation of api.Remote for testing.
type FakeRemote struct {
	mu     sync.Mutex
	nextID int
	users  map[int]board.User
	lists  map[int]board.List
	items  map[int][]board.Item // list id -> items
	calls  map[string]int

	// Error injection for testing
	CreateUserErr       error
	GetUserErr          error
	CreateListErr       error
	GetListErr          error
	CreateItemErr       error
	UpdateItemColumnErr error
	DeleteItemErr       error
}

var _ api.Remote = (*FakeRemote)(nil)

// NewFakeRemote creates an empty FakeRemote.
func NewFakeRemote() *FakeRemote {
	return &FakeRemote{
		users: map[int]board.User{},
		lists: map[int]board.List{},
		items: map[int][]board.Item{},
		calls: map[string]int{},
	}
}

// Calls returns how many times the named method was called.
func (f *FakeRemote) Calls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.calls[method]
}

// TotalCalls returns how many calls were made to any method.
func (f *FakeRemote) TotalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	total := 0
	for _, n := range f.calls {
		total += n
	}

	return total
}

// AddItem stores item directly, bypassing call counting.
func (f *FakeRemote) AddItem(item board.Item) board.Item {
	f.mu.Lock()
	defer f.mu.Unlock()

	if item.ID == 0 {
		item.ID = f.id()
	}

	f.items[item.ListID] = append(f.items[item.ListID], item)

	return item
}

// Item returns the stored item with the given id.
func (f *FakeRemote) Item(id int) (board.Item, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, items := range f.items {
		for _, it := range items {
			if it.ID == id {
				return it, true
			}
		}
	}

	return board.Item{}, false
}

func (f *FakeRemote) id() int {
	f.nextID++

	return f.nextID
}

func (f *FakeRemote) record(method string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls[method]++
}

// CreateUser implements api.Remote.
func (f *FakeRemote) CreateUser(ctx context.Context) (board.User, error) {
	f.record("CreateUser")

	if f.CreateUserErr != nil {
		return board.User{}, f.CreateUserErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	id := f.id()
	user := board.User{ID: id, Username: fmt.Sprintf("calm-fox-%d", id)}
	f.users[id] = user

	return user, nil
}

// GetUser implements api.Remote.
func (f *FakeRemote) GetUser(ctx context.Context, id int) (board.User, error) {
	f.record("GetUser")

	if f.GetUserErr != nil {
		return board.User{}, f.GetUserErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	user, ok := f.users[id]
	if !ok {
		return board.User{}, api.ErrUserNotFound
	}

	return user, nil
}

// CreateList implements api.Remote.
func (f *FakeRemote) CreateList(ctx context.Context, userID int) (board.List, error) {
	f.record("CreateList")

	if f.CreateListErr != nil {
		return board.List{}, f.CreateListErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	list := board.List{ID: f.id(), UserID: userID}
	f.lists[list.ID] = list

	if _, ok := f.items[list.ID]; !ok {
		f.items[list.ID] = []board.Item{}
	}

	if user, ok := f.users[userID]; ok {
		user.LastUsedTodolistID = list.ID
		f.users[userID] = user
	}

	return list, nil
}

// GetList implements api.Remote.
func (f *FakeRemote) GetList(ctx context.Context, listID int) ([]board.Item, error) {
	f.record("GetList")

	if f.GetListErr != nil {
		return nil, f.GetListErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]board.Item{}, f.items[listID]...), nil
}

// CreateItem implements api.Remote.
func (f *FakeRemote) CreateItem(ctx context.Context, item api.NewItem) (board.Item, error) {
	f.record("CreateItem")

	if f.CreateItemErr != nil {
		return board.Item{}, f.CreateItemErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	created := board.Item{
		ID:          f.id(),
		Title:       item.Title,
		UserID:      item.UserID,
		ListID:      item.ListID,
		Column:      item.Column,
		LastUpdated: item.LastUpdated,
		Creator:     f.users[item.UserID].Username,
	}
	f.items[item.ListID] = append(f.items[item.ListID], created)

	return created, nil
}

// UpdateItemColumn implements api.Remote.
func (f *FakeRemote) UpdateItemColumn(ctx context.Context, id int, column board.Column, lastUpdated string) error {
	f.record("UpdateItemColumn")

	if f.UpdateItemColumnErr != nil {
		return f.UpdateItemColumnErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	for listID, items := range f.items {
		for i, it := range items {
			if it.ID == id {
				f.items[listID][i].Column = column
				f.items[listID][i].LastUpdated = lastUpdated
			}
		}
	}

	return nil
}

// DeleteItem implements api.Remote.
func (f *FakeRemote) DeleteItem(ctx context.Context, id int) error {
	f.record("DeleteItem")

	if f.DeleteItemErr != nil {
		return f.DeleteItemErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	for listID, items := range f.items {
		for i, it := range items {
			if it.ID == id {
				f.items[listID] = append(items[:i:i], items[i+1:]...)

				return nil
			}
		}
	}

	return nil
}
