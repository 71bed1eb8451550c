package todo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camoris/tareas/internal/geo"
	"github.com/camoris/tareas/internal/model"
	"github.com/camoris/tareas/internal/photo"
	"github.com/camoris/tareas/internal/store/localstore"
)

// fakeStore is an in-memory authoritative store with injectable faults.
type fakeStore struct {
	todos  []model.Todo
	nextID int

	createErr error
	setErr    error
	deleteErr error
}

func (s *fakeStore) Load(context.Context) ([]model.Todo, error) {
	out := make([]model.Todo, len(s.todos))
	copy(out, s.todos)
	return out, nil
}

func (s *fakeStore) Create(_ context.Context, t model.Todo) (model.Todo, error) {
	if s.createErr != nil {
		return t, s.createErr
	}
	if t.ID == "" {
		t.ID = fmt.Sprint(s.nextID)
		s.nextID++
	}
	s.todos = append([]model.Todo{t}, s.todos...)
	return t, nil
}

func (s *fakeStore) SetCompleted(_ context.Context, id string, completed bool) error {
	if s.setErr != nil {
		return s.setErr
	}
	for i := range s.todos {
		if s.todos[i].ID == id {
			s.todos[i].Completed = completed
			return nil
		}
	}
	return fmt.Errorf("todo %s not found", id)
}

func (s *fakeStore) Delete(_ context.Context, id string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	out := s.todos[:0]
	for _, t := range s.todos {
		if t.ID != id {
			out = append(out, t)
		}
	}
	s.todos = out
	return nil
}

func ctx() context.Context { return context.Background() }

func TestLoadMovesLoadingToReady(t *testing.T) {
	c := NewRemote(&fakeStore{}, nil)

	assert.Equal(t, Loading, c.Phase())
	require.NoError(t, c.Load(ctx()))
	assert.Equal(t, Ready, c.Phase())
}

func TestCreatePrependsNewestFirst(t *testing.T) {
	c := NewRemote(&fakeStore{nextID: 1}, nil)
	require.NoError(t, c.Load(ctx()))

	_, err := c.Create(ctx(), "first", "")
	require.NoError(t, err)
	_, err = c.Create(ctx(), "second", "")
	require.NoError(t, err)

	entries := c.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "second", entries[0].Title)
	assert.Equal(t, "first", entries[1].Title)
	assert.Equal(t, Synced, entries[0].State)
}

func TestCreateRejectsEmptyTitle(t *testing.T) {
	store := &fakeStore{}
	c := NewRemote(store, nil)
	require.NoError(t, c.Load(ctx()))

	_, err := c.Create(ctx(), "   ", "")

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Empty(t, c.Entries())
	assert.Empty(t, store.todos)
}

func TestCreateAgainstMockBackend(t *testing.T) {
	// Backend assigns id 7; the list ends up with exactly that entry.
	c := NewRemote(&fakeStore{nextID: 7}, nil)
	require.NoError(t, c.Load(ctx()))

	created, err := c.Create(ctx(), "Buy milk", "")
	require.NoError(t, err)
	assert.Equal(t, "7", created.ID)

	entries := c.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "7", entries[0].ID)
	assert.Equal(t, "Buy milk", entries[0].Title)
	assert.False(t, entries[0].Completed)
}

func TestCreateCapturesPositionBestEffort(t *testing.T) {
	c := NewRemote(&fakeStore{nextID: 1}, geo.FixedLocator{Lat: "-33.4489", Lon: "-70.6693"})
	require.NoError(t, c.Load(ctx()))

	created, err := c.Create(ctx(), "with location", "")
	require.NoError(t, err)
	require.NotNil(t, created.Latitude)
	assert.InDelta(t, -33.4489, *created.Latitude, 1e-9)
}

func TestCreateProceedsWhenLocationDenied(t *testing.T) {
	c := NewRemote(&fakeStore{nextID: 1}, geo.FixedLocator{})
	require.NoError(t, c.Load(ctx()))

	created, err := c.Create(ctx(), "no location", "")
	require.NoError(t, err)
	assert.Nil(t, created.Latitude)
	assert.Nil(t, created.Longitude)
}

func TestCreateFailureAddsNothing(t *testing.T) {
	store := &fakeStore{createErr: errors.New("network down")}
	c := NewRemote(store, nil)
	require.NoError(t, c.Load(ctx()))

	_, err := c.Create(ctx(), "doomed", "")
	require.Error(t, err)
	assert.Empty(t, c.Entries())
}

func TestLocalPersistFailureKeepsItemInMemory(t *testing.T) {
	store := &fakeStore{createErr: &localstore.StorageError{
		Key: "todos_v1_a@b.com",
		Err: errors.New("disk full"),
	}}
	c := NewRemote(store, nil)
	require.NoError(t, c.Load(ctx()))

	_, err := c.Create(ctx(), "kept anyway", "")

	var storageErr *localstore.StorageError
	require.ErrorAs(t, err, &storageErr)
	entries := c.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "kept anyway", entries[0].Title)
}

func TestToggleOptimisticSuccess(t *testing.T) {
	store := &fakeStore{todos: []model.Todo{{ID: "7", Title: "Buy milk"}}}
	c := NewRemote(store, nil)
	require.NoError(t, c.Load(ctx()))

	require.NoError(t, c.Toggle(ctx(), "7"))

	entries := c.Entries()
	assert.True(t, entries[0].Completed)
	assert.Equal(t, Synced, entries[0].State)
	assert.True(t, store.todos[0].Completed)
}

// blockingStore parks SetCompleted until released, so the test can look
// at the rendered list while a persist is in flight.
type blockingStore struct {
	fakeStore
	started chan struct{}
	release chan struct{}
}

func (s *blockingStore) SetCompleted(ctx context.Context, id string, completed bool) error {
	close(s.started)
	<-s.release
	return s.fakeStore.SetCompleted(ctx, id, completed)
}

func TestToggleRendersPendingWhilePersistInFlight(t *testing.T) {
	store := &blockingStore{
		fakeStore: fakeStore{todos: []model.Todo{{ID: "7", Title: "Buy milk"}}},
		started:   make(chan struct{}),
		release:   make(chan struct{}),
	}
	c := NewRemote(store, nil)
	require.NoError(t, c.Load(ctx()))

	done := make(chan error, 1)
	go func() { done <- c.Toggle(ctx(), "7") }()
	<-store.started

	// The store call is parked; the render path must still answer, and
	// it must already show the optimistic flip.
	entries := c.Entries()
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Completed)
	assert.Equal(t, Pending, entries[0].State)

	doneCount, pendingCount := c.Stats()
	assert.Equal(t, 1, doneCount)
	assert.Equal(t, 0, pendingCount)
	assert.Equal(t, Ready, c.Phase())

	close(store.release)
	require.NoError(t, <-done)

	entries = c.Entries()
	assert.Equal(t, Synced, entries[0].State)
	assert.True(t, entries[0].Completed)
}

func TestFailedToggleReloadsAuthoritativeValue(t *testing.T) {
	store := &fakeStore{
		todos:  []model.Todo{{ID: "7", Title: "Buy milk", Completed: false}},
		setErr: errors.New("network error"),
	}
	c := NewRemote(store, nil)
	require.NoError(t, c.Load(ctx()))

	err := c.Toggle(ctx(), "7")
	require.Error(t, err)

	// The optimistic guess is gone; the displayed value is the
	// pre-toggle authoritative state.
	entries := c.Entries()
	require.Len(t, entries, 1)
	assert.False(t, entries[0].Completed)
	assert.Equal(t, Synced, entries[0].State)
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	store := &fakeStore{todos: []model.Todo{{ID: "7", Title: "Buy milk"}}}
	c := NewRemote(store, nil)
	require.NoError(t, c.Load(ctx()))

	err := c.ConfirmDelete(ctx(), "7")
	require.ErrorIs(t, err, ErrConfirmRequired)
	assert.Len(t, c.Entries(), 1)
	assert.Len(t, store.todos, 1)
}

func TestConfirmedDeleteRemovesEverywhere(t *testing.T) {
	store := &fakeStore{todos: []model.Todo{{ID: "7", Title: "Buy milk"}}}
	c := NewRemote(store, nil)
	require.NoError(t, c.Load(ctx()))

	require.NoError(t, c.RequestDelete("7"))
	require.NoError(t, c.ConfirmDelete(ctx(), "7"))

	assert.Empty(t, c.Entries())
	assert.Empty(t, store.todos)
}

func TestCancelledDeleteNeedsANewRequest(t *testing.T) {
	store := &fakeStore{todos: []model.Todo{{ID: "7", Title: "Buy milk"}}}
	c := NewRemote(store, nil)
	require.NoError(t, c.Load(ctx()))

	require.NoError(t, c.RequestDelete("7"))
	c.CancelDelete("7")

	err := c.ConfirmDelete(ctx(), "7")
	require.ErrorIs(t, err, ErrConfirmRequired)
	assert.Len(t, c.Entries(), 1)
}

func TestDeleteBackendFailureRestoresTruth(t *testing.T) {
	store := &fakeStore{
		todos:     []model.Todo{{ID: "7", Title: "Buy milk"}},
		deleteErr: errors.New("network error"),
	}
	c := NewRemote(store, nil)
	require.NoError(t, c.Load(ctx()))

	require.NoError(t, c.RequestDelete("7"))
	err := c.ConfirmDelete(ctx(), "7")
	require.Error(t, err)

	// Reload brought the record back.
	entries := c.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "7", entries[0].ID)
}

func TestSilentReloadNeverTouchesLoading(t *testing.T) {
	store := &fakeStore{todos: []model.Todo{{ID: "1", Title: "old"}}}
	c := NewRemote(store, nil)
	require.NoError(t, c.Load(ctx()))

	store.todos = []model.Todo{{ID: "2", Title: "new"}}
	require.NoError(t, c.Reload(ctx()))

	assert.Equal(t, Ready, c.Phase())
	entries := c.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "new", entries[0].Title)
}

func TestLocalVariantRequiresPhoto(t *testing.T) {
	dir := t.TempDir()
	store := NewLocalStore(localstore.New(dir), "a@b.com")
	c := NewLocal(store, photo.NewStore(dir), nil)
	require.NoError(t, c.Load(ctx()))

	_, err := c.Create(ctx(), "no photo", "")

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "photo is required", vErr.Message)
	assert.Empty(t, c.Entries())
}

func TestCreateMissingPhotoSourceIsValidation(t *testing.T) {
	dir := t.TempDir()
	store := NewLocalStore(localstore.New(dir), "a@b.com")
	c := NewLocal(store, photo.NewStore(dir), nil)
	require.NoError(t, c.Load(ctx()))

	_, err := c.Create(ctx(), "bad path", filepath.Join(dir, "nope.jpg"))

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Message, "could not read photo")
	assert.Empty(t, c.Entries())
}

func TestCreatePhotoDirFailureIsNotValidation(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "cat.jpg")
	require.NoError(t, os.WriteFile(src, []byte("jpeg bytes"), 0o600))
	// Block the photos dir with a regular file so the copy fails on the
	// destination side.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "photos"), nil, 0o600))

	store := NewLocalStore(localstore.New(dir), "a@b.com")
	c := NewLocal(store, photo.NewStore(dir), nil)
	require.NoError(t, c.Load(ctx()))

	_, err := c.Create(ctx(), "doomed copy", src)
	require.Error(t, err)

	var vErr *ValidationError
	assert.False(t, errors.As(err, &vErr))
	var storErr *photo.StorageError
	assert.ErrorAs(t, err, &storErr)
	assert.Empty(t, c.Entries())
}

func TestLocalVariantEndToEnd(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "cat.jpg")
	require.NoError(t, os.WriteFile(src, []byte("jpeg bytes"), 0o600))

	blobs := localstore.New(dir)
	c := NewLocal(NewLocalStore(blobs, "a@b.com"), photo.NewStore(dir), nil)
	require.NoError(t, c.Load(ctx()))

	created, err := c.Create(ctx(), "Feed the cat", src)
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "a@b.com", created.Owner)
	assert.False(t, created.CreatedAt.IsZero())

	// Photo copied under the data dir.
	require.NotEmpty(t, created.PhotoPath)
	_, err = os.Stat(created.PhotoPath)
	require.NoError(t, err)

	// Blob written under the namespaced key, scoped per owner.
	_, err = os.Stat(filepath.Join(dir, "todos_v1_a@b.com.json"))
	require.NoError(t, err)

	other, err := blobs.Load("c@d.com")
	require.NoError(t, err)
	assert.Empty(t, other)

	// A fresh controller for the same owner sees the task.
	fresh := NewLocal(NewLocalStore(blobs, "a@b.com"), photo.NewStore(dir), nil)
	require.NoError(t, fresh.Load(ctx()))
	entries := fresh.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "Feed the cat", entries[0].Title)
}
