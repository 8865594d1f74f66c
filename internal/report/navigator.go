package report

import (
	"errors"
	"fmt"
	"sync"

	"github.com/wesm/inventoryview/internal/trend"
)

// ErrInvalidTimeRange is returned by SelectTimeRange for ranges
// other than weekly, monthly, or yearly.
var ErrInvalidTimeRange = errors.New("invalid time range")

// Selection identifies the active report.
type Selection struct {
	Category  string          `json:"category"`
	Type      string          `json:"type"`
	TimeRange trend.TimeRange `json:"time_range"`
}

// Navigator holds the selection of a report view. It starts at the
// registry's first report with a monthly range and has no terminal
// state. Safe for concurrent use.
type Navigator struct {
	reg *Registry

	mu  sync.Mutex
	sel Selection
}

// NewNavigator returns a Navigator at the initial selection.
func NewNavigator(reg *Registry) *Navigator {
	n := &Navigator{reg: reg}
	n.sel = n.initial()
	return n
}

func (n *Navigator) initial() Selection {
	c, t := n.reg.First()
	return Selection{Category: c, Type: t, TimeRange: trend.Monthly}
}

// Current returns the selection.
func (n *Navigator) Current() Selection {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.sel
}

// Select replaces category and type together. Unknown pairs are
// accepted and resolve to the placeholder report.
func (n *Navigator) Select(category, typ string) Selection {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sel.Category = category
	n.sel.Type = typ
	return n.sel
}

// SelectTimeRange replaces only the time range. An invalid range
// leaves the selection unchanged.
func (n *Navigator) SelectTimeRange(r string) (Selection, error) {
	tr, err := trend.ParseTimeRange(r)
	n.mu.Lock()
	defer n.mu.Unlock()
	if err != nil {
		return n.sel, fmt.Errorf("%w: %q", ErrInvalidTimeRange, r)
	}
	n.sel.TimeRange = tr
	return n.sel, nil
}

// Reset returns to the initial selection.
func (n *Navigator) Reset() Selection {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sel = n.initial()
	return n.sel
}

// Resolve builds the report for the current selection. The
// selection's time range overrides in.TimeRange.
func (n *Navigator) Resolve(in Input) Report {
	sel := n.Current()
	in.TimeRange = sel.TimeRange
	return n.reg.Build(sel.Category, sel.Type, in)
}
