// Package board holds the in-memory snapshot of listings and proxies every
// mutation to the backend, reconciling the snapshot with the record the
// backend returns.
package board

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/erazemk/findit/internal/filter"
	"github.com/erazemk/findit/internal/model"
)

// Errors returned by Store operations.
var (
	ErrUnauthenticated = errors.New("sign in required")
	ErrForbidden       = errors.New("only the author can change this item")
	ErrNotFound        = errors.New("item not found")
	ErrCommentsClosed  = errors.New("comments are closed for this item")
)

// Backend is the persistence boundary behind the store. Update and get-style
// calls return nil when the row does not exist.
type Backend interface {
	ListItems(ctx context.Context) ([]model.Item, error)
	InsertItem(ctx context.Context, author model.Principal, draft model.ItemDraft) (*model.Item, error)
	UpdateItem(ctx context.Context, id string, patch model.ItemPatch, updatedAt time.Time) (*model.Item, error)
	DeleteItem(ctx context.Context, id string) (bool, error)
	InsertComment(ctx context.Context, author model.Principal, draft model.CommentDraft) (*model.Comment, error)
	ListComments(ctx context.Context, postID string) ([]model.Comment, error)
}

// Store is the item snapshot plus the operations that mutate it.
//
// Backend calls run without holding the lock. Failed writes are logged and
// returned; the snapshot is only touched after the backend succeeds.
type Store struct {
	backend Backend
	now     func() time.Time

	mu     sync.RWMutex
	items  []model.Item
	loaded bool
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the clock used for update timestamps and date filtering.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates an empty, unloaded store.
func New(backend Backend, opts ...Option) *Store {
	s := &Store{backend: backend, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the snapshot with every item from the backend, newest first.
// On failure the snapshot becomes empty and the error is returned.
func (s *Store) Load(ctx context.Context) error {
	items, err := s.backend.ListItems(ctx)
	if err != nil {
		slog.Error("failed to load items", "error", err)
		items = nil
	}

	s.mu.Lock()
	s.items = items
	s.loaded = true
	s.mu.Unlock()

	if err != nil {
		return fmt.Errorf("loading items: %w", err)
	}
	slog.Info("items loaded", "count", len(items))
	return nil
}

// Loaded reports whether Load has completed at least once.
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Items returns a copy of the snapshot.
func (s *Store) Items() []model.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Item, len(s.items))
	copy(out, s.items)
	return out
}

// Get returns the snapshot's copy of an item.
func (s *Store) Get(id string) (model.Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, item := range s.items {
		if item.ID == id {
			return item, true
		}
	}
	return model.Item{}, false
}

// Filter returns the snapshot items matching c, in snapshot order.
func (s *Store) Filter(c filter.Criteria) []model.Item {
	now := s.now()
	s.mu.RLock()
	defer s.mu.RUnlock()
	return filter.Apply(s.items, c, now)
}

// Create stores a new item owned by p and prepends the stored record to the snapshot.
func (s *Store) Create(ctx context.Context, p *model.Principal, draft model.ItemDraft) (*model.Item, error) {
	if !p.Valid() {
		return nil, ErrUnauthenticated
	}
	draft.Normalize()
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	item, err := s.backend.InsertItem(ctx, *p, draft)
	if err != nil {
		slog.Error("failed to create item", "user", p.Email, "error", err)
		return nil, fmt.Errorf("creating item: %w", err)
	}

	s.mu.Lock()
	s.items = append([]model.Item{*item}, s.items...)
	s.mu.Unlock()

	slog.Info("item created", "user", p.Email, "item", item.ID, "type", item.ItemType)
	return item, nil
}

// Update applies patch to an item owned by p. The snapshot record is replaced
// by the record the backend returns, unless a newer version is already held.
func (s *Store) Update(ctx context.Context, p *model.Principal, id string, patch model.ItemPatch) (*model.Item, error) {
	if _, err := s.authorize(p, id); err != nil {
		return nil, err
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	item, err := s.backend.UpdateItem(ctx, id, patch, s.now().UTC())
	if err != nil {
		slog.Error("failed to update item", "user", p.Email, "item", id, "error", err)
		return nil, fmt.Errorf("updating item: %w", err)
	}
	if item == nil {
		slog.Warn("item vanished from backend before update", "item", id)
		return nil, ErrNotFound
	}

	s.reconcile(*item)
	slog.Info("item updated", "user", p.Email, "item", id, "status", item.Status, "version", item.Version)
	return item, nil
}

// Delete permanently removes an item owned by p.
func (s *Store) Delete(ctx context.Context, p *model.Principal, id string) error {
	if _, err := s.authorize(p, id); err != nil {
		return err
	}

	deleted, err := s.backend.DeleteItem(ctx, id)
	if err != nil {
		slog.Error("failed to delete item", "user", p.Email, "item", id, "error", err)
		return fmt.Errorf("deleting item: %w", err)
	}
	if !deleted {
		slog.Warn("item already gone from backend", "item", id)
	}

	s.mu.Lock()
	kept := make([]model.Item, 0, len(s.items))
	for _, item := range s.items {
		if item.ID != id {
			kept = append(kept, item)
		}
	}
	s.items = kept
	s.mu.Unlock()

	slog.Info("item deleted", "user", p.Email, "item", id)
	return nil
}

// AddComment posts a comment by p on an active item. Comment threads are not
// cached; callers re-fetch them after posting.
func (s *Store) AddComment(ctx context.Context, p *model.Principal, draft model.CommentDraft) (*model.Comment, error) {
	if !p.Valid() {
		return nil, ErrUnauthenticated
	}
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	item, ok := s.Get(draft.PostID)
	if !ok {
		return nil, ErrNotFound
	}
	if item.Status != model.ItemStatusActive {
		return nil, ErrCommentsClosed
	}

	c, err := s.backend.InsertComment(ctx, *p, draft)
	if err != nil {
		slog.Error("failed to add comment", "user", p.Email, "item", draft.PostID, "error", err)
		return nil, fmt.Errorf("adding comment: %w", err)
	}

	slog.Info("comment added", "user", p.Email, "item", draft.PostID)
	return c, nil
}

// FetchComments returns an item's comments, oldest first. On failure it
// returns an empty thread together with the error.
func (s *Store) FetchComments(ctx context.Context, itemID string) ([]model.Comment, error) {
	comments, err := s.backend.ListComments(ctx, itemID)
	if err != nil {
		slog.Error("failed to fetch comments", "item", itemID, "error", err)
		return []model.Comment{}, fmt.Errorf("fetching comments: %w", err)
	}
	if comments == nil {
		comments = []model.Comment{}
	}
	return comments, nil
}

// authorize checks that p may mutate the item with the given id.
func (s *Store) authorize(p *model.Principal, id string) (model.Item, error) {
	if !p.Valid() {
		return model.Item{}, ErrUnauthenticated
	}
	item, ok := s.Get(id)
	if !ok {
		return model.Item{}, ErrNotFound
	}
	if !item.OwnedBy(p) {
		return model.Item{}, ErrForbidden
	}
	return item, nil
}

// reconcile swaps in the backend's record. A response carrying an older
// version than the one held is dropped, so overlapping updates settle on the
// highest version rather than on whichever response arrived last. Items
// deleted in the meantime are not resurrected.
func (s *Store) reconcile(item model.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].ID != item.ID {
			continue
		}
		if item.Version < s.items[i].Version {
			slog.Debug("dropping stale item response", "item", item.ID, "held", s.items[i].Version, "got", item.Version)
			return
		}
		s.items[i] = item
		return
	}
}
