package db

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/matt-steen/todo-board/pkg/board"

	// use the sqlite db driver.
	_ "github.com/mattn/go-sqlite3"
)

//go:embed base.sql
var baseSQL string

// maxNameAttempts bounds the search for an unused username or slug.
const maxNameAttempts = 1000

// Database manages the service's sqlite connection.
type Database struct {
	conn *sql.DB

	randMu sync.Mutex
	rand   *rand.Rand
}

// NewDatabase connects to the sqlite database at the given filename and initializes the structure
// if not present.
func NewDatabase(ctx context.Context, filename string) (*Database, error) {
	conn, err := sql.Open("sqlite3", filename+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("error connecting to sqlite db at %s: %w", filename, err)
	}

	database := Database{
		conn: conn,
		rand: rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	err = database.initialize(ctx)
	if err != nil {
		conn.Close()

		return nil, err
	}

	return &database, nil
}

func (d *Database) initialize(ctx context.Context) error {
	// run idempotent setup sql to create empty tables if they don't exist
	if _, err := d.conn.ExecContext(ctx, baseSQL); err != nil {
		return fmt.Errorf("error running base sql: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (d *Database) Close() error {
	return d.conn.Close()
}

// Ping checks the connection.
func (d *Database) Ping(ctx context.Context) error {
	return d.conn.PingContext(ctx)
}

func (d *Database) exists(ctx context.Context, query string, args ...interface{}) (bool, error) {
	var exists bool

	err := d.conn.QueryRowContext(ctx, query, args...).Scan(&exists)

	return exists, err
}

// NewUser creates a user with a generated, unused username.
func (d *Database) NewUser(ctx context.Context) (board.User, error) {
	for attempt := 0; attempt < maxNameAttempts; attempt++ {
		username := d.newUsername()

		taken, err := d.exists(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`, username)
		if err != nil {
			return board.User{}, fmt.Errorf("error checking username '%s': %w", username, err)
		}

		if taken {
			continue
		}

		result, err := d.conn.ExecContext(ctx, `INSERT INTO users (username) VALUES ($1)`, username)
		if err != nil {
			return board.User{}, fmt.Errorf("error adding user '%s': %w", username, err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return board.User{}, fmt.Errorf("error getting id of new user '%s': %w", username, err)
		}

		return board.User{ID: int(id), Username: username}, nil
	}

	return board.User{}, errors.New("error adding user: no unused username found")
}

// GetUser returns the user with the given id.
func (d *Database) GetUser(ctx context.Context, id int) (board.User, error) {
	var user board.User

	err := d.conn.QueryRowContext(ctx,
		`SELECT id, username, COALESCE(last_used_todolist_id, 0) FROM users WHERE id = $1`, id,
	).Scan(&user.ID, &user.Username, &user.LastUsedTodolistID)
	if errors.Is(err, sql.ErrNoRows) {
		return board.User{}, NotFoundError{Kind: "user", ID: id}
	}

	if err != nil {
		return board.User{}, fmt.Errorf("error loading user %d: %w", id, err)
	}

	return user, nil
}

// NewTodolist creates a list for userID and makes it the user's last used list.
func (d *Database) NewTodolist(ctx context.Context, userID int) (board.List, error) {
	found, err := d.exists(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, userID)
	if err != nil {
		return board.List{}, fmt.Errorf("error checking user %d: %w", userID, err)
	}

	if !found {
		return board.List{}, NotFoundError{Kind: "user", ID: userID}
	}

	slug, err := d.unusedSlug(ctx)
	if err != nil {
		return board.List{}, err
	}

	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return board.List{}, fmt.Errorf("error starting transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `INSERT INTO todolists (user_id, slug) VALUES ($1, $2)`, userID, slug)
	if err != nil {
		return board.List{}, fmt.Errorf("error adding todolist for user %d: %w", userID, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return board.List{}, fmt.Errorf("error getting id of new todolist: %w", err)
	}

	_, err = tx.ExecContext(ctx, `UPDATE users SET last_used_todolist_id = $1 WHERE id = $2`, id, userID)
	if err != nil {
		return board.List{}, fmt.Errorf("error setting last used todolist of user %d: %w", userID, err)
	}

	if err := tx.Commit(); err != nil {
		return board.List{}, fmt.Errorf("error committing todolist: %w", err)
	}

	return board.List{ID: int(id), UserID: userID, Slug: slug}, nil
}

func (d *Database) unusedSlug(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxNameAttempts; attempt++ {
		slug := d.newSlug()

		taken, err := d.exists(ctx, `SELECT EXISTS (SELECT 1 FROM todolists WHERE slug = $1)`, slug)
		if err != nil {
			return "", fmt.Errorf("error checking slug '%s': %w", slug, err)
		}

		if !taken {
			return slug, nil
		}
	}

	return "", errors.New("error adding todolist: no unused slug found")
}

// TodolistItems returns the items of the list, each with its creator's username.
func (d *Database) TodolistItems(ctx context.Context, listID int) ([]board.Item, error) {
	rows, err := d.conn.QueryContext(ctx, `
		SELECT todos.id, todos.title, todos.user_id, todos.todolist_id,
		       COALESCE(users.username, ''), todos."column", todos.last_updated
		FROM todos
		LEFT JOIN users ON todos.user_id = users.id
		WHERE todos.todolist_id = $1
		ORDER BY todos.id`, listID)
	if err != nil {
		return nil, fmt.Errorf("error loading todos of todolist %d: %w", listID, err)
	}
	defer rows.Close()

	items := []board.Item{}

	for rows.Next() {
		var item board.Item

		err := rows.Scan(&item.ID, &item.Title, &item.UserID, &item.ListID, &item.Creator, &item.Column, &item.LastUpdated)
		if err != nil {
			return nil, fmt.Errorf("error scanning todos: %w", err)
		}

		items = append(items, item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error scanning todos: %w", err)
	}

	return items, nil
}

// NewTodo stores item and returns it with its id and creator filled in.
func (d *Database) NewTodo(ctx context.Context, item board.Item) (board.Item, error) {
	found, err := d.exists(ctx, `SELECT EXISTS (SELECT 1 FROM todolists WHERE id = $1)`, item.ListID)
	if err != nil {
		return board.Item{}, fmt.Errorf("error checking todolist %d: %w", item.ListID, err)
	}

	if !found {
		return board.Item{}, NotFoundError{Kind: "todolist", ID: item.ListID}
	}

	user, err := d.GetUser(ctx, item.UserID)
	if err != nil {
		return board.Item{}, err
	}

	item.Creator = user.Username

	result, err := d.conn.ExecContext(ctx,
		`INSERT INTO todos (title, user_id, todolist_id, "column", last_updated) VALUES ($1, $2, $3, $4, $5)`,
		item.Title, item.UserID, item.ListID, item.Column, item.LastUpdated,
	)
	if err != nil {
		return board.Item{}, fmt.Errorf("error adding todo '%s': %w", item.Title, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return board.Item{}, fmt.Errorf("error getting id of new todo '%s': %w", item.Title, err)
	}

	item.ID = int(id)

	return item, nil
}

// ChangeColumn moves the todo to column. Transitions aren't checked here: updates from a client
// may arrive out of order, and the last one to land wins.
func (d *Database) ChangeColumn(ctx context.Context, id int, column board.Column, lastUpdated string) error {
	result, err := d.conn.ExecContext(ctx,
		`UPDATE todos SET "column" = $1, last_updated = $2 WHERE id = $3`, column, lastUpdated, id,
	)
	if err != nil {
		return fmt.Errorf("error moving todo %d to %s: %w", id, column, err)
	}

	return expectRow(result, "todo", id)
}

// DeleteTodo removes the todo.
func (d *Database) DeleteTodo(ctx context.Context, id int) error {
	result, err := d.conn.ExecContext(ctx, `DELETE FROM todos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting todo %d: %w", id, err)
	}

	return expectRow(result, "todo", id)
}

func expectRow(result sql.Result, kind string, id int) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error counting affected rows: %w", err)
	}

	if n == 0 {
		return NotFoundError{Kind: kind, ID: id}
	}

	return nil
}
