package model

import (
	"slices"
	"strings"
	"time"
)

// Item is a lost or found listing.
type Item struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	LastSeenLocation string    `json:"last_seen_location"`
	DateLost         Date      `json:"date_lost"`
	ImageURL         string    `json:"image_url,omitempty"`
	AuthorID         string    `json:"author_id"`
	AuthorEmail      string    `json:"author_email"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
	ItemType         string    `json:"item_type"`
	Category         string    `json:"category,omitempty"`
	Status           string    `json:"status"`
	Version          int64     `json:"version"`
}

// OwnedBy reports whether the principal created the item.
func (i *Item) OwnedBy(p *Principal) bool {
	return p.Valid() && i.AuthorID == p.ID
}

// Item types.
const (
	ItemTypeLost  = "lost"
	ItemTypeFound = "found"
)

// Item statuses.
const (
	ItemStatusActive   = "active"
	ItemStatusResolved = "resolved"
	ItemStatusClosed   = "closed"
)

// ItemTypes lists the accepted item types.
var ItemTypes = []string{ItemTypeLost, ItemTypeFound}

// ItemStatuses lists the accepted item statuses. Any transition between them is allowed.
var ItemStatuses = []string{ItemStatusActive, ItemStatusResolved, ItemStatusClosed}

// Categories is the fixed category enumeration shared by the create and edit
// forms, the filter bar and API validation.
var Categories = []string{
	"Electronics",
	"Clothing",
	"Accessories",
	"Documents",
	"Keys",
	"Bags",
	"Jewelry",
	"Books",
	"Sports Equipment",
	"Other",
}

// ValidItemType reports whether t is lost or found.
func ValidItemType(t string) bool { return slices.Contains(ItemTypes, t) }

// ValidStatus reports whether s is a known item status.
func ValidStatus(s string) bool { return slices.Contains(ItemStatuses, s) }

// ValidCategory reports whether c is empty or one of Categories (case-sensitive).
func ValidCategory(c string) bool {
	return c == "" || slices.Contains(Categories, c)
}

// ItemDraft holds the caller-supplied fields of a new item. Owner identity is
// injected from the acting principal, never taken from the draft.
type ItemDraft struct {
	Title            string `json:"title"`
	Description      string `json:"description"`
	LastSeenLocation string `json:"last_seen_location"`
	DateLost         Date   `json:"date_lost"`
	ImageURL         string `json:"image_url,omitempty"`
	ItemType         string `json:"item_type"`
	Category         string `json:"category,omitempty"`
	Status           string `json:"status,omitempty"`
}

// Normalize trims text fields and fills the default status.
func (d *ItemDraft) Normalize() {
	d.Title = strings.TrimSpace(d.Title)
	d.Description = strings.TrimSpace(d.Description)
	d.LastSeenLocation = strings.TrimSpace(d.LastSeenLocation)
	d.ImageURL = strings.TrimSpace(d.ImageURL)
	if d.Status == "" {
		d.Status = ItemStatusActive
	}
}

// Validate checks the required fields and enumerated values.
func (d *ItemDraft) Validate() error {
	switch {
	case d.Title == "":
		return &ValidationError{Field: "title", Reason: "required"}
	case d.Description == "":
		return &ValidationError{Field: "description", Reason: "required"}
	case d.LastSeenLocation == "":
		return &ValidationError{Field: "last_seen_location", Reason: "required"}
	case d.DateLost.IsZero():
		return &ValidationError{Field: "date_lost", Reason: "required"}
	case !ValidItemType(d.ItemType):
		return &ValidationError{Field: "item_type", Reason: "must be lost or found"}
	case !ValidCategory(d.Category):
		return &ValidationError{Field: "category", Reason: "unknown category"}
	case !ValidStatus(d.Status):
		return &ValidationError{Field: "status", Reason: "unknown status"}
	}
	return nil
}

// ItemPatch is a partial update. Nil fields are left unchanged. The owner
// fields are deliberately absent.
type ItemPatch struct {
	Title            *string `json:"title,omitempty"`
	Description      *string `json:"description,omitempty"`
	LastSeenLocation *string `json:"last_seen_location,omitempty"`
	DateLost         *Date   `json:"date_lost,omitempty"`
	ImageURL         *string `json:"image_url,omitempty"`
	ItemType         *string `json:"item_type,omitempty"`
	Category         *string `json:"category,omitempty"`
	Status           *string `json:"status,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p *ItemPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.LastSeenLocation == nil &&
		p.DateLost == nil && p.ImageURL == nil && p.ItemType == nil &&
		p.Category == nil && p.Status == nil
}

// Validate checks that every set field holds an acceptable value.
func (p *ItemPatch) Validate() error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return &ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if p.Description != nil && strings.TrimSpace(*p.Description) == "" {
		return &ValidationError{Field: "description", Reason: "must not be empty"}
	}
	if p.LastSeenLocation != nil && strings.TrimSpace(*p.LastSeenLocation) == "" {
		return &ValidationError{Field: "last_seen_location", Reason: "must not be empty"}
	}
	if p.DateLost != nil && p.DateLost.IsZero() {
		return &ValidationError{Field: "date_lost", Reason: "must not be empty"}
	}
	if p.ItemType != nil && !ValidItemType(*p.ItemType) {
		return &ValidationError{Field: "item_type", Reason: "must be lost or found"}
	}
	if p.Category != nil && !ValidCategory(*p.Category) {
		return &ValidationError{Field: "category", Reason: "unknown category"}
	}
	if p.Status != nil && !ValidStatus(*p.Status) {
		return &ValidationError{Field: "status", Reason: "unknown status"}
	}
	return nil
}

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Reason
}
