package controller

import (
	"context"
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rs/zerolog/log"
)

// These constants refer to the keys bound on the board page.
const (
	KeyAdd       = 'a'
	KeyNewList   = 'n'
	KeyReload    = 'r'
	KeyDelete    = 'x'
	KeyMoveLeft  = '<'
	KeyMoveRight = '>'
	KeyQuit      = 'q'
)

func keyName(r rune) string {
	return string(r)
}

func (c *Controller) initEvents() {
	c.events = map[rune]KeyEvent{}

	c.initMoveEvents(c.events)
	c.initListEvents(c.events)
	c.initExitEvent(c.events)
}

func (c *Controller) handleKeys(evt *tcell.EventKey) *tcell.EventKey {
	if name, _ := c.pages.GetFrontPage(); name != pageBoard {
		return evt
	}

	switch evt.Key() {
	case tcell.KeyLeft, tcell.KeyBacktab:
		c.focusNeighbor(-1)

		return nil
	case tcell.KeyRight, tcell.KeyTab:
		c.focusNeighbor(1)

		return nil
	case tcell.KeyRune:
		if k, ok := c.events[evt.Rune()]; ok {
			return k.Action(evt)
		}
	}

	return evt
}

func (c *Controller) focusNeighbor(delta int) {
	if column, ok := neighbor(c.selectedColumn, delta); ok {
		c.focusColumn(column)
	}
}

func (c *Controller) getExitAction() func(key *tcell.EventKey) *tcell.EventKey {
	return func(key *tcell.EventKey) *tcell.EventKey {
		log.Info().Msg("terminating application")

		c.tui.Stop()

		return nil
	}
}

func (c *Controller) initExitEvent(events map[rune]KeyEvent) {
	events[KeyQuit] = KeyEvent{
		Description: "Exit",
		Action:      c.getExitAction(),
	}
}

// getMoveAction moves the selected todo one column over, through the same path a drop takes.
func (c *Controller) getMoveAction(delta int) func(key *tcell.EventKey) *tcell.EventKey {
	return func(key *tcell.EventKey) *tcell.EventKey {
		item, ok := c.selectedItem()
		if !ok {
			return nil
		}

		target, ok := neighbor(item.Column, delta)
		if !ok {
			return nil
		}

		moved, err := c.app.MoveItem(item.ID, target)
		if err != nil {
			log.Warn().Err(err).Msgf(
				"error while trying to move todo '%s' from %s to %s.", item.Title, item.Column, target,
			)

			return nil
		}

		if !moved {
			c.showNotice(fmt.Sprintf("'%s' can't move from %s to %s", item.Title, item.Column.Title(), target.Title()))

			return nil
		}

		c.notice = ""
		c.selectedRow[target] = len(c.app.ItemsIn(target))
		c.focusColumn(target)

		return nil
	}
}

func (c *Controller) initMoveEvents(events map[rune]KeyEvent) {
	events[KeyMoveLeft] = KeyEvent{
		Description: "Move left",
		Action:      c.getMoveAction(-1),
	}

	events[KeyMoveRight] = KeyEvent{
		Description: "Move right",
		Action:      c.getMoveAction(1),
	}
}

func (c *Controller) initListEvents(events map[rune]KeyEvent) {
	events[KeyAdd] = KeyEvent{
		Description: "Add todo",
		Action: func(key *tcell.EventKey) *tcell.EventKey {
			c.switchToForm(c.selectedColumn)

			return nil
		},
	}

	events[KeyNewList] = KeyEvent{
		Description: "New list",
		Action: func(key *tcell.EventKey) *tcell.EventKey {
			c.background("create a new list", func(ctx context.Context) error {
				_, err := c.app.NewList(ctx)

				return err
			})

			return nil
		},
	}

	events[KeyReload] = KeyEvent{
		Description: "Reload",
		Action: func(key *tcell.EventKey) *tcell.EventKey {
			c.notice = ""
			c.background("reload the list", c.app.Reload)

			return nil
		},
	}

	events[KeyDelete] = KeyEvent{
		Description: "Delete todo",
		Action: func(key *tcell.EventKey) *tcell.EventKey {
			item, ok := c.selectedItem()
			if !ok {
				return nil
			}

			c.background(fmt.Sprintf("delete '%s'", item.Title), func(ctx context.Context) error {
				return c.app.DeleteItem(ctx, item.ID)
			})

			return nil
		},
	}
}
