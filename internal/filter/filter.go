// Package filter derives the displayed subset of the item snapshot.
//
// Filtering is a pure full rescan of the snapshot on every call; snapshots are
// small enough that no index or memoization is kept.
package filter

import (
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/erazemk/findit/internal/model"
)

// All leaves an enumerated criterion unconstrained.
const All = "all"

// Date ranges.
const (
	RangeWeek  = "week"
	RangeMonth = "month"
	RangeYear  = "year"
)

// rangeDays is the inclusive upper bound on an item's age in days per range.
var rangeDays = map[string]float64{
	RangeWeek:  7,
	RangeMonth: 30,
	RangeYear:  365,
}

// DateRanges lists the accepted date range values, All included.
var DateRanges = []string{All, RangeWeek, RangeMonth, RangeYear}

// Criteria is the current filter selection. An empty enumerated field means
// the same as All, so the zero value is unconstrained.
type Criteria struct {
	ItemType  string `json:"itemType"`
	Category  string `json:"category"`
	Status    string `json:"status"`
	Location  string `json:"location"`
	DateRange string `json:"dateRange"`
}

// Default returns the unconstrained criteria the filter bar resets to.
func Default() Criteria {
	return Criteria{ItemType: All, Status: All, DateRange: All}
}

// Normalize fills empty enumerated fields with All. The location is matched
// as given.
func (c Criteria) Normalize() Criteria {
	if c.ItemType == "" {
		c.ItemType = All
	}
	if c.Status == "" {
		c.Status = All
	}
	if c.DateRange == "" {
		c.DateRange = All
	}
	if c.Category == All {
		c.Category = ""
	}
	return c
}

// IsDefault reports whether c constrains nothing.
func (c Criteria) IsDefault() bool {
	return c.Normalize() == Default()
}

// ActiveCount counts the constrained enumerated criteria. The location search
// is not counted.
func (c Criteria) ActiveCount() int {
	c = c.Normalize()
	n := 0
	for _, active := range []bool{c.ItemType != All, c.Category != "", c.Status != All, c.DateRange != All} {
		if active {
			n++
		}
	}
	return n
}

// Validate rejects unknown enumerated values.
func (c Criteria) Validate() error {
	c = c.Normalize()
	if c.ItemType != All && !model.ValidItemType(c.ItemType) {
		return fmt.Errorf("invalid itemType %q", c.ItemType)
	}
	if c.Status != All && !model.ValidStatus(c.Status) {
		return fmt.Errorf("invalid status %q", c.Status)
	}
	if _, ok := rangeDays[c.DateRange]; c.DateRange != All && !ok {
		return fmt.Errorf("invalid dateRange %q", c.DateRange)
	}
	return nil
}

// Matches reports whether item satisfies every predicate of c at time now.
func (c Criteria) Matches(item *model.Item, now time.Time) bool {
	c = c.Normalize()

	if c.ItemType != All && item.ItemType != c.ItemType {
		return false
	}
	// Category is an exact, case-sensitive match.
	if c.Category != "" && item.Category != c.Category {
		return false
	}
	if c.Status != All && item.Status != c.Status {
		return false
	}
	// Location is a case-insensitive substring match.
	if c.Location != "" && !strings.Contains(strings.ToLower(item.LastSeenLocation), strings.ToLower(c.Location)) {
		return false
	}
	// Unknown ranges constrain nothing. Future dates give a negative age and
	// pass every range.
	if limit, ok := rangeDays[c.DateRange]; ok && ageDays(item.DateLost, now) > limit {
		return false
	}
	return true
}

// ageDays is the number of started days between date (midnight UTC) and now.
func ageDays(date model.Date, now time.Time) float64 {
	return math.Ceil(float64(now.Sub(date.Time)) / float64(24*time.Hour))
}

// Apply returns the items matching c, in snapshot order.
func Apply(items []model.Item, c Criteria, now time.Time) []model.Item {
	c = c.Normalize()
	out := make([]model.Item, 0, len(items))
	for i := range items {
		if c.Matches(&items[i], now) {
			out = append(out, items[i])
		}
	}
	return out
}

// Query parameter names.
const (
	ParamItemType  = "itemType"
	ParamCategory  = "category"
	ParamStatus    = "status"
	ParamLocation  = "location"
	ParamDateRange = "dateRange"
)

// ParseQuery reads criteria from URL query values. Missing keys take their
// defaults; unknown enumerated values are an error.
func ParseQuery(values url.Values) (Criteria, error) {
	c := Criteria{
		ItemType:  values.Get(ParamItemType),
		Category:  values.Get(ParamCategory),
		Status:    values.Get(ParamStatus),
		Location:  values.Get(ParamLocation),
		DateRange: values.Get(ParamDateRange),
	}.Normalize()

	if err := c.Validate(); err != nil {
		return Default(), err
	}
	return c, nil
}

// Query encodes the non-default fields of c as URL query values.
func (c Criteria) Query() url.Values {
	c = c.Normalize()
	values := url.Values{}
	if c.ItemType != All {
		values.Set(ParamItemType, c.ItemType)
	}
	if c.Category != "" {
		values.Set(ParamCategory, c.Category)
	}
	if c.Status != All {
		values.Set(ParamStatus, c.Status)
	}
	if c.Location != "" {
		values.Set(ParamLocation, c.Location)
	}
	if c.DateRange != All {
		values.Set(ParamDateRange, c.DateRange)
	}
	return values
}
