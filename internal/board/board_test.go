package board

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/findit/internal/filter"
	"github.com/erazemk/findit/internal/model"
)

var (
	alice = &model.Principal{ID: "alice", Email: "alice@example.com"}
	bob   = &model.Principal{ID: "bob", Email: "bob@example.com"}

	fixedNow = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
)

// fakeBackend records calls and serves canned results.
type fakeBackend struct {
	mu       sync.Mutex
	items    []model.Item
	comments []model.Comment
	calls    []string
	seq      int
	err      error

	// onUpdate, when set, replaces the default patch application.
	onUpdate func(id string, patch model.ItemPatch, at time.Time) *model.Item
}

func (f *fakeBackend) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	return f.err
}

func (f *fakeBackend) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeBackend) ListItems(ctx context.Context) ([]model.Item, error) {
	if err := f.record("ListItems"); err != nil {
		return nil, err
	}
	return append([]model.Item(nil), f.items...), nil
}

func (f *fakeBackend) InsertItem(ctx context.Context, author model.Principal, draft model.ItemDraft) (*model.Item, error) {
	if err := f.record("InsertItem"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	item := model.Item{
		ID:               fmt.Sprintf("item-%d", f.seq),
		Title:            draft.Title,
		Description:      draft.Description,
		LastSeenLocation: draft.LastSeenLocation,
		DateLost:         draft.DateLost,
		ItemType:         draft.ItemType,
		Category:         draft.Category,
		Status:           draft.Status,
		AuthorID:         author.ID,
		AuthorEmail:      author.Email,
		CreatedAt:        fixedNow,
		UpdatedAt:        fixedNow,
		Version:          1,
	}
	f.items = append([]model.Item{item}, f.items...)
	return &item, nil
}

func (f *fakeBackend) UpdateItem(ctx context.Context, id string, patch model.ItemPatch, at time.Time) (*model.Item, error) {
	if err := f.record("UpdateItem"); err != nil {
		return nil, err
	}
	if f.onUpdate != nil {
		return f.onUpdate(id, patch, at), nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.items {
		if f.items[i].ID != id {
			continue
		}
		if patch.Status != nil {
			f.items[i].Status = *patch.Status
		}
		if patch.Title != nil {
			f.items[i].Title = *patch.Title
		}
		f.items[i].UpdatedAt = at
		f.items[i].Version++
		item := f.items[i]
		return &item, nil
	}
	return nil, nil
}

func (f *fakeBackend) DeleteItem(ctx context.Context, id string) (bool, error) {
	if err := f.record("DeleteItem"); err != nil {
		return false, err
	}
	return true, nil
}

func (f *fakeBackend) InsertComment(ctx context.Context, author model.Principal, draft model.CommentDraft) (*model.Comment, error) {
	if err := f.record("InsertComment"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	c := model.Comment{ID: fmt.Sprintf("c-%d", len(f.comments)+1), PostID: draft.PostID, AuthorID: author.ID, AuthorEmail: author.Email, Content: draft.Content}
	f.comments = append(f.comments, c)
	return &c, nil
}

func (f *fakeBackend) ListComments(ctx context.Context, postID string) ([]model.Comment, error) {
	if err := f.record("ListComments"); err != nil {
		return nil, err
	}
	var out []model.Comment
	for _, c := range f.comments {
		if c.PostID == postID {
			out = append(out, c)
		}
	}
	return out, nil
}

func draft(title string) model.ItemDraft {
	return model.ItemDraft{
		Title:            title,
		Description:      "details",
		LastSeenLocation: "Central Park",
		DateLost:         model.NewDate(fixedNow),
		ItemType:         model.ItemTypeLost,
	}
}

func ownedItem(id string, owner *model.Principal) model.Item {
	return model.Item{
		ID:               id,
		Title:            "Keys",
		Description:      "details",
		LastSeenLocation: "Station",
		DateLost:         model.NewDate(fixedNow),
		ItemType:         model.ItemTypeFound,
		Status:           model.ItemStatusActive,
		AuthorID:         owner.ID,
		AuthorEmail:      owner.Email,
		Version:          1,
	}
}

func newLoadedStore(t *testing.T, backend *fakeBackend) *Store {
	t.Helper()
	s := New(backend, WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, s.Load(context.Background()))
	return s
}

func TestLoad(t *testing.T) {
	backend := &fakeBackend{items: []model.Item{ownedItem("b", alice), ownedItem("a", bob)}}
	s := New(backend)
	assert.False(t, s.Loaded())

	require.NoError(t, s.Load(context.Background()))
	assert.True(t, s.Loaded())
	assert.Len(t, s.Items(), 2)
	assert.Equal(t, "b", s.Items()[0].ID)
}

func TestLoadFailureLeavesEmptySnapshot(t *testing.T) {
	backend := &fakeBackend{items: []model.Item{ownedItem("a", alice)}, err: errors.New("backend unreachable")}
	s := New(backend)

	err := s.Load(context.Background())
	assert.Error(t, err)
	assert.True(t, s.Loaded())
	assert.Empty(t, s.Items())
}

func TestCreateRequiresPrincipal(t *testing.T) {
	backend := &fakeBackend{items: []model.Item{ownedItem("a", alice)}}
	s := newLoadedStore(t, backend)
	before := s.Items()

	for _, p := range []*model.Principal{nil, {}, {Email: "no-id@example.com"}} {
		item, err := s.Create(context.Background(), p, draft("Wallet"))
		assert.ErrorIs(t, err, ErrUnauthenticated)
		assert.Nil(t, item)
	}

	assert.Equal(t, before, s.Items())
	assert.Equal(t, []string{"ListItems"}, backend.Calls(), "no backend call expected")
}

func TestCreatePrependsCanonicalRecord(t *testing.T) {
	backend := &fakeBackend{items: []model.Item{ownedItem("a", bob)}}
	s := newLoadedStore(t, backend)

	item, err := s.Create(context.Background(), alice, draft("  Wallet  "))
	require.NoError(t, err)

	assert.Equal(t, "item-1", item.ID)
	assert.Equal(t, "Wallet", item.Title)
	assert.Equal(t, model.ItemStatusActive, item.Status)
	assert.Equal(t, alice.ID, item.AuthorID)
	assert.Equal(t, alice.Email, item.AuthorEmail)

	items := s.Items()
	require.Len(t, items, 2)
	assert.Equal(t, *item, items[0])
	assert.Equal(t, "a", items[1].ID)
}

func TestCreateValidationFailsBeforeBackend(t *testing.T) {
	backend := &fakeBackend{}
	s := newLoadedStore(t, backend)

	d := draft("Wallet")
	d.ItemType = "stolen"
	_, err := s.Create(context.Background(), alice, d)

	var verr *model.ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"ListItems"}, backend.Calls())
}

func TestCreateBackendFailureLeavesSnapshot(t *testing.T) {
	backend := &fakeBackend{items: []model.Item{ownedItem("a", alice)}}
	s := newLoadedStore(t, backend)
	backend.err = errors.New("insert rejected")

	item, err := s.Create(context.Background(), alice, draft("Wallet"))
	assert.Error(t, err)
	assert.Nil(t, item)
	assert.Len(t, s.Items(), 1)
}

func TestUpdateReplacesWithCanonicalRecord(t *testing.T) {
	local := ownedItem("a", alice)
	backend := &fakeBackend{items: []model.Item{local}}
	s := newLoadedStore(t, backend)

	// The backend's record differs from the local copy in more than the patched field.
	backend.onUpdate = func(id string, patch model.ItemPatch, at time.Time) *model.Item {
		canonical := local
		canonical.Status = *patch.Status
		canonical.Title = "Keys (server copy)"
		canonical.UpdatedAt = at
		canonical.Version = 2
		return &canonical
	}

	resolved := model.ItemStatusResolved
	updated, err := s.Update(context.Background(), alice, "a", model.ItemPatch{Status: &resolved})
	require.NoError(t, err)

	got, ok := s.Get("a")
	require.True(t, ok)
	assert.Equal(t, *updated, got)
	assert.Equal(t, model.ItemStatusResolved, got.Status)
	assert.Equal(t, "Keys (server copy)", got.Title)
	assert.Equal(t, fixedNow, got.UpdatedAt)
}

func TestUpdateOwnershipGate(t *testing.T) {
	backend := &fakeBackend{items: []model.Item{ownedItem("a", alice)}}
	s := newLoadedStore(t, backend)
	closed := model.ItemStatusClosed
	patch := model.ItemPatch{Status: &closed}

	_, err := s.Update(context.Background(), nil, "a", patch)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = s.Update(context.Background(), bob, "a", patch)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = s.Update(context.Background(), alice, "missing", patch)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, []string{"ListItems"}, backend.Calls())
	got, _ := s.Get("a")
	assert.Equal(t, model.ItemStatusActive, got.Status)
}

func TestUpdateBackendFailureLeavesSnapshot(t *testing.T) {
	backend := &fakeBackend{items: []model.Item{ownedItem("a", alice)}}
	s := newLoadedStore(t, backend)
	backend.err = errors.New("update rejected")

	title := "New title"
	_, err := s.Update(context.Background(), alice, "a", model.ItemPatch{Title: &title})
	assert.Error(t, err)

	got, _ := s.Get("a")
	assert.Equal(t, "Keys", got.Title)
}

func TestUpdateDropsStaleResponse(t *testing.T) {
	backend := &fakeBackend{items: []model.Item{ownedItem("a", alice)}}
	s := newLoadedStore(t, backend)

	title := "Newest"
	_, err := s.Update(context.Background(), alice, "a", model.ItemPatch{Title: &title})
	require.NoError(t, err)

	// A slower, older response arrives after the newer one was applied.
	backend.onUpdate = func(id string, patch model.ItemPatch, at time.Time) *model.Item {
		stale := ownedItem("a", alice)
		stale.Title = "Older"
		stale.Version = 1
		return &stale
	}
	older := "Older"
	_, err = s.Update(context.Background(), alice, "a", model.ItemPatch{Title: &older})
	require.NoError(t, err)

	got, _ := s.Get("a")
	assert.Equal(t, "Newest", got.Title)
	assert.Equal(t, int64(2), got.Version)
}

func TestDeleteRemovesOnlyMatchingID(t *testing.T) {
	twin1 := ownedItem("a", alice)
	twin2 := ownedItem("b", alice)
	backend := &fakeBackend{items: []model.Item{twin1, twin2, ownedItem("c", bob)}}
	s := newLoadedStore(t, backend)

	require.NoError(t, s.Delete(context.Background(), alice, "b"))

	items := s.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "a", items[0].ID)
	assert.Equal(t, "c", items[1].ID)
}

func TestDeleteGates(t *testing.T) {
	backend := &fakeBackend{items: []model.Item{ownedItem("a", alice)}}
	s := newLoadedStore(t, backend)

	assert.ErrorIs(t, s.Delete(context.Background(), nil, "a"), ErrUnauthenticated)
	assert.ErrorIs(t, s.Delete(context.Background(), bob, "a"), ErrForbidden)
	assert.Len(t, s.Items(), 1)

	backend.err = errors.New("delete rejected")
	assert.Error(t, s.Delete(context.Background(), alice, "a"))
	assert.Len(t, s.Items(), 1)
}

func TestAddComment(t *testing.T) {
	resolved := ownedItem("done", alice)
	resolved.Status = model.ItemStatusResolved
	backend := &fakeBackend{items: []model.Item{ownedItem("a", alice), resolved}}
	s := newLoadedStore(t, backend)
	ctx := context.Background()

	_, err := s.AddComment(ctx, nil, model.CommentDraft{PostID: "a", Content: "hi"})
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = s.AddComment(ctx, bob, model.CommentDraft{PostID: "a", Content: "   "})
	var verr *model.ValidationError
	assert.ErrorAs(t, err, &verr)

	_, err = s.AddComment(ctx, bob, model.CommentDraft{PostID: "done", Content: "hi"})
	assert.ErrorIs(t, err, ErrCommentsClosed)

	_, err = s.AddComment(ctx, bob, model.CommentDraft{PostID: "missing", Content: "hi"})
	assert.ErrorIs(t, err, ErrNotFound)

	c, err := s.AddComment(ctx, bob, model.CommentDraft{PostID: "a", Content: "  I saw it  "})
	require.NoError(t, err)
	assert.Equal(t, "I saw it", c.Content)
	assert.Equal(t, bob.Email, c.AuthorEmail)

	comments, err := s.FetchComments(ctx, "a")
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, c.ID, comments[0].ID)
}

func TestFetchCommentsFailure(t *testing.T) {
	backend := &fakeBackend{}
	s := newLoadedStore(t, backend)
	backend.err = errors.New("query rejected")

	comments, err := s.FetchComments(context.Background(), "a")
	assert.Error(t, err)
	assert.NotNil(t, comments)
	assert.Empty(t, comments)

	backend.err = nil
	comments, err = s.FetchComments(context.Background(), "none")
	assert.NoError(t, err)
	assert.NotNil(t, comments)
}

func TestFilterUsesSnapshot(t *testing.T) {
	lost := ownedItem("lost", alice)
	lost.ItemType = model.ItemTypeLost
	backend := &fakeBackend{items: []model.Item{lost, ownedItem("found", bob)}}
	s := newLoadedStore(t, backend)

	got := s.Filter(filter.Criteria{ItemType: model.ItemTypeLost})
	require.Len(t, got, 1)
	assert.Equal(t, "lost", got[0].ID)
	assert.Len(t, s.Filter(filter.Default()), 2)
}

func TestConcurrentCreates(t *testing.T) {
	backend := &fakeBackend{}
	s := newLoadedStore(t, backend)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.Create(context.Background(), alice, draft(fmt.Sprintf("item %d", i)))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Len(t, s.Items(), 20)
}
