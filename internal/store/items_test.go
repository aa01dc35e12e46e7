package store

import (
	"context"
	"testing"
	"time"

	"github.com/erazemk/findit/internal/db"
	"github.com/erazemk/findit/internal/model"
)

func testDraft(title string) model.ItemDraft {
	d := model.ItemDraft{
		Title:            title,
		Description:      "Seen near the fountain",
		LastSeenLocation: "Central Park",
		DateLost:         model.NewDate(time.Now()),
		ItemType:         model.ItemTypeLost,
		Category:         "Keys",
	}
	d.Normalize()
	return d
}

func TestCreateAndGetItem(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	author := createTestUser(t, database, "owner@example.com")

	item, err := CreateItem(ctx, database, author, testDraft("House keys"))
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	if item.ID == "" {
		t.Fatal("expected generated id")
	}
	if item.Title != "House keys" {
		t.Errorf("expected title 'House keys', got %q", item.Title)
	}
	if item.AuthorID != author.ID || item.AuthorEmail != author.Email {
		t.Errorf("expected author %+v, got %s/%s", author, item.AuthorID, item.AuthorEmail)
	}
	if item.Status != model.ItemStatusActive {
		t.Errorf("expected status 'active', got %q", item.Status)
	}
	if item.Version != 1 {
		t.Errorf("expected version 1, got %d", item.Version)
	}
	if item.CreatedAt.IsZero() || item.UpdatedAt.IsZero() {
		t.Error("expected timestamps to be set")
	}

	got, err := GetItem(ctx, database, item.ID)
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if got.DateLost.String() != item.DateLost.String() {
		t.Errorf("expected date %s, got %s", item.DateLost, got.DateLost)
	}
	if got.Category != "Keys" {
		t.Errorf("expected category 'Keys', got %q", got.Category)
	}

	missing, err := GetItem(ctx, database, "nope")
	if err != nil || missing != nil {
		t.Errorf("expected nil, nil for missing item, got %v, %v", missing, err)
	}
}

func TestListItemsNewestFirst(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	author := createTestUser(t, database, "owner@example.com")

	for _, title := range []string{"first", "second", "third"} {
		if _, err := CreateItem(ctx, database, author, testDraft(title)); err != nil {
			t.Fatalf("CreateItem(%s): %v", title, err)
		}
		time.Sleep(2 * time.Millisecond)
	}

	items, err := ListItems(ctx, database)
	if err != nil {
		t.Fatalf("ListItems: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	if items[0].Title != "third" || items[2].Title != "first" {
		t.Errorf("expected newest first, got %q, %q, %q", items[0].Title, items[1].Title, items[2].Title)
	}
}

func TestUpdateItemPartial(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	author := createTestUser(t, database, "owner@example.com")

	item, _ := CreateItem(ctx, database, author, testDraft("Umbrella"))

	resolved := model.ItemStatusResolved
	stamp := time.Now().Add(time.Minute).UTC()
	updated, err := UpdateItem(ctx, database, item.ID, model.ItemPatch{Status: &resolved}, stamp)
	if err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}
	if updated.Status != model.ItemStatusResolved {
		t.Errorf("expected status resolved, got %q", updated.Status)
	}
	if updated.Title != "Umbrella" {
		t.Errorf("untouched field changed: %q", updated.Title)
	}
	if updated.Version != item.Version+1 {
		t.Errorf("expected version %d, got %d", item.Version+1, updated.Version)
	}
	if !updated.UpdatedAt.Equal(stamp) {
		t.Errorf("expected updated_at %v, got %v", stamp, updated.UpdatedAt)
	}

	noCategory := ""
	cleared, err := UpdateItem(ctx, database, item.ID, model.ItemPatch{Category: &noCategory}, stamp)
	if err != nil {
		t.Fatalf("UpdateItem clear category: %v", err)
	}
	if cleared.Category != "" {
		t.Errorf("expected cleared category, got %q", cleared.Category)
	}

	missing, err := UpdateItem(ctx, database, "nope", model.ItemPatch{Status: &resolved}, stamp)
	if err != nil || missing != nil {
		t.Errorf("expected nil, nil for missing item, got %v, %v", missing, err)
	}
}

func TestDeleteItemCascadesComments(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	author := createTestUser(t, database, "owner@example.com")

	item, _ := CreateItem(ctx, database, author, testDraft("Scarf"))
	if _, err := CreateComment(ctx, database, author, model.CommentDraft{PostID: item.ID, Content: "still looking"}); err != nil {
		t.Fatalf("CreateComment: %v", err)
	}

	deleted, err := DeleteItem(ctx, database, item.ID)
	if err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}
	if !deleted {
		t.Error("expected a row to be deleted")
	}

	got, _ := GetItem(ctx, database, item.ID)
	if got != nil {
		t.Error("expected item to be gone")
	}
	comments, _ := ListComments(ctx, database, item.ID)
	if len(comments) != 0 {
		t.Errorf("expected comments to be deleted with the item, got %d", len(comments))
	}

	again, err := DeleteItem(ctx, database, item.ID)
	if err != nil || again {
		t.Errorf("expected false, nil on second delete, got %v, %v", again, err)
	}
}

func TestItemPhotoCleanup(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	author := createTestUser(t, database, "owner@example.com")

	first, err := CreateImage(ctx, database, []byte("first"), "image/jpeg", author.ID)
	if err != nil {
		t.Fatalf("CreateImage: %v", err)
	}
	second, _ := CreateImage(ctx, database, []byte("second"), "image/jpeg", author.ID)

	draft := testDraft("Camera")
	draft.ImageURL = ImageURL(first)
	item, err := CreateItem(ctx, database, author, draft)
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}

	// Rewriting the same URL keeps the photo.
	same := ImageURL(first)
	if _, err := UpdateItem(ctx, database, item.ID, model.ItemPatch{ImageURL: &same}, time.Now()); err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}
	if data, _, _ := GetImage(ctx, database, first); data == nil {
		t.Error("expected photo to survive an update that keeps it")
	}

	replacement := ImageURL(second)
	if _, err := UpdateItem(ctx, database, item.ID, model.ItemPatch{ImageURL: &replacement}, time.Now()); err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}
	if data, _, _ := GetImage(ctx, database, first); data != nil {
		t.Error("expected replaced photo to be deleted")
	}

	if _, err := DeleteItem(ctx, database, item.ID); err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}
	if data, _, _ := GetImage(ctx, database, second); data != nil {
		t.Error("expected photo to be deleted with its item")
	}
}

func TestExternalPhotoURLLeavesImagesAlone(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	author := createTestUser(t, database, "owner@example.com")

	unrelated, _ := CreateImage(ctx, database, []byte("kept"), "image/png", author.ID)
	draft := testDraft("Bike")
	draft.ImageURL = "https://example.com/bike.jpg"
	item, _ := CreateItem(ctx, database, author, draft)

	if _, err := DeleteItem(ctx, database, item.ID); err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}
	if data, _, _ := GetImage(ctx, database, unrelated); data == nil {
		t.Error("expected unrelated image to remain")
	}
}
