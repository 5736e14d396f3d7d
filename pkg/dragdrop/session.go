// Package dragdrop implements the pointer driven move of items between board columns.
package dragdrop

import (
	"github.com/matt-steen/todo-board/pkg/board"
	"github.com/matt-steen/todo-board/pkg/state"
	"github.com/rs/zerolog/log"
)

// DropEffect is the feedback a drag target gives about what a drop would do.
type DropEffect string

// These constants refer to the drop effects the board uses.
const (
	DropEffectMove DropEffect = "move"
	DropEffectNone DropEffect = "none"
)

// DragEvent is the pointer event delivered while an item is dragged over a column.
type DragEvent interface {
	// PreventDefault suppresses the platform's own handling so that a drop can happen.
	PreventDefault()
	// SetDropEffect sets the visual feedback for the drag.
	SetDropEffect(DropEffect)
}

// PointerEvent is a DragEvent that records what the handlers asked for.
type PointerEvent struct {
	DefaultPrevented bool
	DropEffect       DropEffect
}

// PreventDefault implements DragEvent.
func (e *PointerEvent) PreventDefault() {
	e.DefaultPrevented = true
}

// SetDropEffect implements DragEvent.
func (e *PointerEvent) SetDropEffect(effect DropEffect) {
	e.DropEffect = effect
}

// Session tracks the item being dragged and the column under the pointer for the length of one
// interaction. Both fields are observable so the UI can follow them independently.
type Session struct {
	Dragged *state.Value[*board.Item]
	Hovered *state.Value[*board.Column]
}

// NewSession creates an empty Session.
func NewSession() *Session {
	return &Session{
		Dragged: state.NewValue[*board.Item](nil),
		Hovered: state.NewValue[*board.Column](nil),
	}
}

// OnDragStart makes item the dragged item, replacing any previous one.
func (s *Session) OnDragStart(item board.Item) {
	log.Debug().Int("item", item.ID).Str("column", string(item.Column)).Msg("drag start")

	s.Dragged.Set(&item)
}

// OnDragOver records target as hovered and signals no-drop on evt when the dragged item cannot
// move there. It never changes the dragged item.
func (s *Session) OnDragOver(evt DragEvent, target board.Column) {
	evt.PreventDefault()

	s.Hovered.Set(&target)

	if item := s.Dragged.Get(); item != nil && !board.IsValidTransition(item.Column, target) {
		evt.SetDropEffect(DropEffectNone)
	}
}

// OnDragLeave clears the hovered column; the drag itself may continue.
func (s *Session) OnDragLeave() {
	s.Hovered.Set(nil)
}

// OnDragEnd abandons the drag.
func (s *Session) OnDragEnd() {
	s.clear()
}

// Active reports whether an item is being dragged.
func (s *Session) Active() bool {
	return s.Dragged.Get() != nil
}

func (s *Session) clear() {
	s.Dragged.Set(nil)
	s.Hovered.Set(nil)
}
