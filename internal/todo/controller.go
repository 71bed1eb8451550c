package todo

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/camoris/tareas/internal/geo"
	"github.com/camoris/tareas/internal/model"
	"github.com/camoris/tareas/internal/photo"
	"github.com/camoris/tareas/internal/store/localstore"
)

// Phase is the screen lifecycle. The controller enters Loading exactly
// once, on the initial Load; every later refetch is silent.
type Phase int

const (
	Loading Phase = iota
	Ready
)

// SyncState tags a displayed entry against the backing store.
type SyncState int

const (
	// Synced: the entry matches the last authoritative read.
	Synced SyncState = iota
	// Pending: an optimistic value is shown while the persist is in
	// flight.
	Pending
	// Reverting: the persist failed; the authoritative reload will
	// overwrite this entry.
	Reverting
)

// Entry is one rendered list row.
type Entry struct {
	model.Todo
	State SyncState
}

// ValidationError blocks an action before any state changes. Message is
// shown inline next to the form.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return "validation: " + e.Message }

// ErrConfirmRequired is returned when a delete arrives without a prior
// matching RequestDelete. Deletion is irreversible; the confirmation
// step is part of the contract, not a UI nicety.
var ErrConfirmRequired = errors.New("delete requires confirmation")

// Controller is the view-level state machine for one todo screen. It
// owns the rendered list and reconciles optimistic updates against the
// backing store.
//
// Two locks: opMu serializes mutations end to end (concurrent rapid
// mutations had no defined order in the original design, so they run
// one at a time here), while mu guards the rendered state and is never
// held across a store call. The render path stays responsive while a
// persist is in flight, which is what makes the Pending tag visible.
type Controller struct {
	store        Store
	locator      geo.Locator
	photos       *photo.Store
	requirePhoto bool

	opMu sync.Mutex // one mutation at a time

	mu            sync.Mutex // rendered state below
	phase         Phase
	entries       []Entry
	pendingDelete map[string]bool
}

// NewRemote builds a controller over the REST backend. The remote
// variant does not attach photos.
func NewRemote(store Store, locator geo.Locator) *Controller {
	return &Controller{
		store:         store,
		locator:       locator,
		pendingDelete: map[string]bool{},
	}
}

// NewLocal builds a controller over the per-identity blob store. The
// local variant requires a photo on every new task.
func NewLocal(store Store, photos *photo.Store, locator geo.Locator) *Controller {
	return &Controller{
		store:         store,
		locator:       locator,
		photos:        photos,
		requirePhoto:  true,
		pendingDelete: map[string]bool{},
	}
}

// Phase returns the current lifecycle phase.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Entries returns a copy of the rendered list, newest first. Never
// blocks on an in-flight persist.
func (c *Controller) Entries() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Load performs the initial full fetch and moves Loading -> Ready. The
// phase ends up Ready even on failure; the error is the caller's banner.
func (c *Controller) Load(ctx context.Context) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	err := c.refetch(ctx)
	c.mu.Lock()
	c.phase = Ready
	c.mu.Unlock()
	return err
}

// Reload is the silent reload: a full refetch that never touches the
// loading indicator, so background consistency checks don't blank the
// screen.
func (c *Controller) Reload(ctx context.Context) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	return c.refetch(ctx)
}

// refetch replaces the rendered list with the authoritative collection.
// On failure the current entries stay as they are. Callers hold opMu.
func (c *Controller) refetch(ctx context.Context) error {
	todos, err := c.store.Load(ctx)
	if err != nil {
		return err
	}
	entries := make([]Entry, 0, len(todos))
	for _, t := range todos {
		entries = append(entries, Entry{Todo: t, State: Synced})
	}
	c.mu.Lock()
	c.entries = entries
	c.mu.Unlock()
	return nil
}

// Create validates, captures the position best-effort, persists and
// prepends the new record. photoPath is ignored in the remote variant.
func (c *Controller) Create(ctx context.Context, title, photoPath string) (model.Todo, error) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	title = strings.TrimSpace(title)
	if title == "" {
		return model.Todo{}, &ValidationError{Message: "title is required"}
	}
	if c.requirePhoto && photoPath == "" {
		return model.Todo{}, &ValidationError{Message: "photo is required"}
	}

	t := model.Todo{Title: title, CreatedAt: time.Now()}

	if photoPath != "" && c.photos != nil {
		stored, err := c.photos.Attach(photoPath)
		if err != nil {
			// A write failure in the photo dir is storage trouble
			// (popup); only a bad source path is the user's input.
			var storErr *photo.StorageError
			if errors.As(err, &storErr) {
				return model.Todo{}, err
			}
			return model.Todo{}, &ValidationError{Message: "could not read photo: " + err.Error()}
		}
		t.PhotoPath = stored
	}

	// Best-effort position: a denied permission or failed read just
	// leaves the coordinates out.
	if c.locator != nil {
		if pos, err := c.locator.Current(ctx); err == nil {
			t.Latitude = &pos.Latitude
			t.Longitude = &pos.Longitude
		}
	}

	created, err := c.store.Create(ctx, t)
	if err != nil {
		var se *localstore.StorageError
		if errors.As(err, &se) {
			// Local persist failed after the record was built: the
			// item stays in memory and the alert is the caller's.
			c.prepend(created)
			return created, err
		}
		return model.Todo{}, err
	}
	c.prepend(created)
	return created, nil
}

func (c *Controller) prepend(t model.Todo) {
	c.mu.Lock()
	c.entries = append([]Entry{{Todo: t, State: Synced}}, c.entries...)
	c.mu.Unlock()
}

// Toggle flips completed optimistically, then persists. The flipped
// value is rendered (tagged Pending) while the store call runs; a
// failed persist triggers the authoritative reload, overwriting the
// guess.
func (c *Controller) Toggle(ctx context.Context, id string) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	i := c.indexLocked(id)
	if i < 0 {
		c.mu.Unlock()
		return &ValidationError{Message: "unknown todo"}
	}
	c.entries[i].Completed = !c.entries[i].Completed
	c.entries[i].State = Pending
	completed := c.entries[i].Completed
	c.mu.Unlock()

	if err := c.store.SetCompleted(ctx, id, completed); err != nil {
		c.setState(id, Reverting)
		// Resync from the authoritative source; if even the reload
		// fails the entry stays tagged Reverting as the divergence
		// indicator.
		_ = c.refetch(ctx)
		return err
	}
	c.setState(id, Synced)
	return nil
}

func (c *Controller) setState(id string, s SyncState) {
	c.mu.Lock()
	if i := c.indexLocked(id); i >= 0 {
		c.entries[i].State = s
	}
	c.mu.Unlock()
}

// RequestDelete arms the confirmation for one record.
func (c *Controller) RequestDelete(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.indexLocked(id) < 0 {
		return &ValidationError{Message: "unknown todo"}
	}
	c.pendingDelete[id] = true
	return nil
}

// CancelDelete disarms a pending confirmation.
func (c *Controller) CancelDelete(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.pendingDelete, id)
}

// ConfirmDelete removes the record from memory and the store. Without a
// prior RequestDelete it refuses with ErrConfirmRequired. On a backend
// failure the reload restores the authoritative truth.
func (c *Controller) ConfirmDelete(ctx context.Context, id string) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	if !c.pendingDelete[id] {
		c.mu.Unlock()
		return ErrConfirmRequired
	}
	delete(c.pendingDelete, id)

	i := c.indexLocked(id)
	if i < 0 {
		c.mu.Unlock()
		return &ValidationError{Message: "unknown todo"}
	}
	c.entries = append(c.entries[:i], c.entries[i+1:]...)
	c.mu.Unlock()

	if err := c.store.Delete(ctx, id); err != nil {
		_ = c.refetch(ctx)
		return err
	}
	return nil
}

// indexLocked is called with mu held.
func (c *Controller) indexLocked(id string) int {
	for i := range c.entries {
		if c.entries[i].ID == id {
			return i
		}
	}
	return -1
}

// Stats counts done and pending entries for the header line.
func (c *Controller) Stats() (done, pending int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.entries {
		if e.Completed {
			done++
		} else {
			pending++
		}
	}
	return
}
