package todo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/camoris/tareas/internal/api"
	"github.com/camoris/tareas/internal/model"
	"github.com/camoris/tareas/internal/store/localstore"
)

// Store is the authoritative backing store the controller reconciles
// against: the remote REST backend or the per-identity local blob.
type Store interface {
	Load(ctx context.Context) ([]model.Todo, error)
	// Create persists a new record and returns the authoritative
	// version (the backend may assign the id).
	Create(ctx context.Context, t model.Todo) (model.Todo, error)
	SetCompleted(ctx context.Context, id string, completed bool) error
	Delete(ctx context.Context, id string) error
}

// ---------------------------------------------------
// Remote variant
// ---------------------------------------------------

type remoteStore struct {
	client *api.Client
}

// NewRemoteStore adapts the API client to the Store contract.
func NewRemoteStore(client *api.Client) Store {
	return &remoteStore{client: client}
}

func (s *remoteStore) Load(ctx context.Context) ([]model.Todo, error) {
	return s.client.ListTodos(ctx)
}

func (s *remoteStore) Create(ctx context.Context, t model.Todo) (model.Todo, error) {
	return s.client.CreateTodo(ctx, api.Draft{
		Title:     t.Title,
		Latitude:  t.Latitude,
		Longitude: t.Longitude,
	})
}

func (s *remoteStore) SetCompleted(ctx context.Context, id string, completed bool) error {
	_, err := s.client.UpdateTodo(ctx, id, api.Patch{Completed: &completed})
	return err
}

func (s *remoteStore) Delete(ctx context.Context, id string) error {
	return s.client.DeleteTodo(ctx, id)
}

// ---------------------------------------------------
// Local variant
// ---------------------------------------------------

type localStore struct {
	store *localstore.Store
	owner string
}

// NewLocalStore scopes the whole-blob store to one identity. Every
// mutation is a read-modify-write of the owner's full collection.
func NewLocalStore(store *localstore.Store, owner string) Store {
	return &localStore{store: store, owner: owner}
}

func (s *localStore) Load(_ context.Context) ([]model.Todo, error) {
	return s.store.Load(s.owner)
}

func (s *localStore) Create(_ context.Context, t model.Todo) (model.Todo, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	t.Owner = s.owner
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	todos, err := s.store.Load(s.owner)
	if err != nil {
		return model.Todo{}, err
	}
	todos = append([]model.Todo{t}, todos...)
	if err := s.store.Save(s.owner, todos); err != nil {
		// The record is returned anyway: the caller keeps it in
		// memory and surfaces the alert.
		return t, err
	}
	return t, nil
}

func (s *localStore) SetCompleted(_ context.Context, id string, completed bool) error {
	todos, err := s.store.Load(s.owner)
	if err != nil {
		return err
	}
	found := false
	for i := range todos {
		if todos[i].ID == id {
			todos[i].Completed = completed
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("todo %s not found", id)
	}
	return s.store.Save(s.owner, todos)
}

func (s *localStore) Delete(_ context.Context, id string) error {
	todos, err := s.store.Load(s.owner)
	if err != nil {
		return err
	}
	out := todos[:0]
	for _, t := range todos {
		if t.ID != id {
			out = append(out, t)
		}
	}
	return s.store.Save(s.owner, out)
}
