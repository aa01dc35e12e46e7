package model

import (
	"errors"
	"testing"
	"time"
)

func validDraft() ItemDraft {
	return ItemDraft{
		Title:            "Black wallet",
		Description:      "Leather, two cards inside",
		LastSeenLocation: "Central Park",
		DateLost:         NewDate(time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)),
		ItemType:         ItemTypeLost,
		Category:         "Accessories",
	}
}

func TestDraftNormalizeDefaultsStatus(t *testing.T) {
	d := validDraft()
	d.Title = "  Black wallet  "
	d.Normalize()
	if d.Status != ItemStatusActive {
		t.Errorf("expected default status %q, got %q", ItemStatusActive, d.Status)
	}
	if d.Title != "Black wallet" {
		t.Errorf("expected trimmed title, got %q", d.Title)
	}
	if err := d.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestDraftValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ItemDraft)
		field  string
	}{
		{"missing title", func(d *ItemDraft) { d.Title = "" }, "title"},
		{"missing description", func(d *ItemDraft) { d.Description = "" }, "description"},
		{"missing location", func(d *ItemDraft) { d.LastSeenLocation = "" }, "last_seen_location"},
		{"missing date", func(d *ItemDraft) { d.DateLost = Date{} }, "date_lost"},
		{"bad type", func(d *ItemDraft) { d.ItemType = "stolen" }, "item_type"},
		{"bad category", func(d *ItemDraft) { d.Category = "electronics" }, "category"},
		{"bad status", func(d *ItemDraft) { d.Status = "archived" }, "status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDraft()
			d.Normalize()
			tt.mutate(&d)
			err := d.Validate()
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Field != tt.field {
				t.Errorf("expected field %q, got %q", tt.field, verr.Field)
			}
		})
	}
}

func TestPatchValidate(t *testing.T) {
	empty := ""
	resolved := ItemStatusResolved
	bogus := "bogus"
	noCategory := ""

	if err := (&ItemPatch{Status: &resolved}).Validate(); err != nil {
		t.Errorf("valid status patch: %v", err)
	}
	if err := (&ItemPatch{Category: &noCategory}).Validate(); err != nil {
		t.Errorf("clearing category should be allowed: %v", err)
	}
	if err := (&ItemPatch{Title: &empty}).Validate(); err == nil {
		t.Error("expected error for empty title")
	}
	if err := (&ItemPatch{Status: &bogus}).Validate(); err == nil {
		t.Error("expected error for unknown status")
	}
	if !(&ItemPatch{}).Empty() {
		t.Error("zero patch should be empty")
	}
}

func TestOwnedBy(t *testing.T) {
	item := Item{AuthorID: "u1"}
	if !item.OwnedBy(&Principal{ID: "u1"}) {
		t.Error("author should own item")
	}
	if item.OwnedBy(&Principal{ID: "u2"}) {
		t.Error("other user should not own item")
	}
	if item.OwnedBy(nil) {
		t.Error("anonymous should not own item")
	}
}
