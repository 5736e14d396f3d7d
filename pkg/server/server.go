// Package server is the remote todo service the board talks to.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/matt-steen/todo-board/pkg/api"
	"github.com/matt-steen/todo-board/pkg/board"
	"github.com/matt-steen/todo-board/pkg/db"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Store is the persistence the service needs.
type Store interface {
	NewUser(ctx context.Context) (board.User, error)
	GetUser(ctx context.Context, id int) (board.User, error)
	NewTodolist(ctx context.Context, userID int) (board.List, error)
	TodolistItems(ctx context.Context, listID int) ([]board.Item, error)
	NewTodo(ctx context.Context, item board.Item) (board.Item, error)
	ChangeColumn(ctx context.Context, id int, column board.Column, lastUpdated string) error
	DeleteTodo(ctx context.Context, id int) error
}

var _ Store = (*db.Database)(nil)

// Server serves the users, todolists and todos endpoints.
type Server struct {
	store   Store
	origins []string
}

// New creates a Server backed by store. origins lists the browser origins allowed by CORS.
func New(store Store, origins []string) *Server {
	return &Server{store: store, origins: origins}
}

// Handler returns the service's routes wrapped with CORS and request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /_ping", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "PONG")
	})

	mux.HandleFunc("POST /users/{$}", s.createUser)
	mux.HandleFunc("GET /users/{id}", s.getUser)
	mux.HandleFunc("POST /todolists/{$}", s.createTodolist)
	mux.HandleFunc("GET /todolists/{id}", s.getTodolist)
	mux.HandleFunc("POST /todos/{$}", s.createTodo)
	mux.HandleFunc("PUT /todos/{id}", s.updateTodoColumn)
	mux.HandleFunc("DELETE /todos/{id}", s.deleteTodo)

	handler := cors.New(cors.Options{
		AllowedOrigins:   s.origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", api.RequestIDHeader},
		AllowCredentials: true,
	}).Handler(mux)

	return logRequests(handler)
}

// ListenAndServe serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errs := make(chan error, 1)

	go func() {
		log.Info().Str("addr", addr).Msg("server is running")

		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return fmt.Errorf("error serving on %s: %w", addr, err)
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		level := zerolog.DebugLevel
		if rec.status >= http.StatusInternalServerError {
			level = zerolog.ErrorLevel
		}

		log.WithLevel(level).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("request_id", r.Header.Get(api.RequestIDHeader)).
			Int("status", rec.status).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("error writing response")
	}
}

func pathID(w http.ResponseWriter, r *http.Request, kind string) (int, bool) {
	raw := r.PathValue("id")

	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		http.Error(w, fmt.Sprintf("Invalid %s ID: %q", kind, raw), http.StatusBadRequest)

		return 0, false
	}

	return id, true
}

// storeError maps a store failure to a response. Missing rows become notFound.
func storeError(w http.ResponseWriter, err error, notFound int) {
	var nf db.NotFoundError
	if errors.As(err, &nf) {
		http.Error(w, nf.Error(), notFound)

		return
	}

	log.Error().Err(err).Msg("store error")
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.store.NewUser(r.Context())
	if err != nil {
		storeError(w, err, http.StatusInternalServerError)

		return
	}

	log.Info().Int("user", user.ID).Str("username", user.Username).Msg("created user")

	writeJSON(w, user)
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "user")
	if !ok {
		return
	}

	user, err := s.store.GetUser(r.Context(), id)
	if err != nil {
		storeError(w, err, http.StatusNotFound)

		return
	}

	writeJSON(w, user)
}

func (s *Server) createTodolist(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID int `json:"user_id"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)

		return
	}

	list, err := s.store.NewTodolist(r.Context(), req.UserID)
	if err != nil {
		storeError(w, err, http.StatusBadRequest)

		return
	}

	writeJSON(w, list)
}

func (s *Server) getTodolist(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "todolist")
	if !ok {
		return
	}

	items, err := s.store.TodolistItems(r.Context(), id)
	if err != nil {
		storeError(w, err, http.StatusNotFound)

		return
	}

	writeJSON(w, items)
}

func (s *Server) createTodo(w http.ResponseWriter, r *http.Request) {
	var item board.Item

	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)

		return
	}

	item.Title = strings.TrimSpace(item.Title)
	if item.Title == "" {
		http.Error(w, "Missing title", http.StatusBadRequest)

		return
	}

	if !item.Column.Valid() {
		http.Error(w, fmt.Sprintf("Invalid column: %q", item.Column), http.StatusBadRequest)

		return
	}

	created, err := s.store.NewTodo(r.Context(), item)
	if err != nil {
		storeError(w, err, http.StatusBadRequest)

		return
	}

	writeJSON(w, created)
}

func (s *Server) updateTodoColumn(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "todo")
	if !ok {
		return
	}

	var req struct {
		ID          int          `json:"id"`
		Column      board.Column `json:"column"`
		LastUpdated string       `json:"lastUpdated"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)

		return
	}

	if req.ID != 0 && req.ID != id {
		http.Error(w, fmt.Sprintf("TODO ID mismatch: path %d, body %d", id, req.ID), http.StatusBadRequest)

		return
	}

	if !req.Column.Valid() {
		http.Error(w, fmt.Sprintf("Invalid column: %q", req.Column), http.StatusBadRequest)

		return
	}

	if err := s.store.ChangeColumn(r.Context(), id, req.Column, req.LastUpdated); err != nil {
		storeError(w, err, http.StatusNotFound)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) deleteTodo(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "todo")
	if !ok {
		return
	}

	if err := s.store.DeleteTodo(r.Context(), id); err != nil {
		storeError(w, err, http.StatusNotFound)

		return
	}

	w.WriteHeader(http.StatusNoContent)
}
