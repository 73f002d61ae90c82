package worldsync

import (
	"sort"

	"github.com/mxkacsa/worldsync/state"
)

// Operation types for change tracking
type Operation uint8

const (
	OpNone    Operation = iota
	OpAdd               // Entry appeared
	OpReplace           // Entry changed value
	OpRemove            // Entry disappeared
)

func (o Operation) String() string {
	switch o {
	case OpNone:
		return "none"
	case OpAdd:
		return "add"
	case OpReplace:
		return "replace"
	case OpRemove:
		return "remove"
	default:
		return "unknown"
	}
}

func (o Operation) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

// RegionChange is a region status transition.
type RegionChange struct {
	Region string       `json:"region"`
	Op     Operation    `json:"op"`
	From   state.Status `json:"from"`
	To     state.Status `json:"to"`
}

// LocationChange is a location whose accessibility flipped.
type LocationChange struct {
	Location   string    `json:"location"`
	Op         Operation `json:"op"`
	Accessible bool      `json:"accessible"`
}

// ItemChange is an inventory count change.
type ItemChange struct {
	Item string    `json:"item"`
	Op   Operation `json:"op"`
	From int       `json:"from"`
	To   int       `json:"to"`
}

// KeyChange is an entry added to or removed from a set, such as the
// collected events or the checked locations.
type KeyChange struct {
	Key string    `json:"key"`
	Op  Operation `json:"op"`
}

// ChangeSet describes what differs between two snapshots. Every slice is
// sorted by name.
type ChangeSet struct {
	Regions   []RegionChange   `json:"regions,omitempty"`
	Locations []LocationChange `json:"locations,omitempty"`
	Items     []ItemChange     `json:"items,omitempty"`
	Checked   []KeyChange      `json:"checked,omitempty"`
	Events    []KeyChange      `json:"events,omitempty"`
}

// Diff computes the changes from prev to next. A nil snapshot is treated as
// empty.
func Diff(prev, next *state.Snapshot) *ChangeSet {
	if prev == nil {
		prev = state.Empty()
	}
	if next == nil {
		next = state.Empty()
	}

	cs := &ChangeSet{}
	diffMaps(prev.Regions(), next.Regions(), func(name string, op Operation, from, to state.Status) {
		cs.Regions = append(cs.Regions, RegionChange{Region: name, Op: op, From: from, To: to})
	})
	diffMaps(prev.Locations(), next.Locations(), func(name string, op Operation, _, to bool) {
		cs.Locations = append(cs.Locations, LocationChange{Location: name, Op: op, Accessible: to})
	})
	diffMaps(prev.Inventory(), next.Inventory(), func(name string, op Operation, from, to int) {
		cs.Items = append(cs.Items, ItemChange{Item: name, Op: op, From: from, To: to})
	})
	diffMaps(prev.Inputs().CheckedSet(), next.Inputs().CheckedSet(), func(name string, op Operation, _, _ struct{}) {
		cs.Checked = append(cs.Checked, KeyChange{Key: name, Op: op})
	})
	diffMaps(prev.EventSet(), next.EventSet(), func(name string, op Operation, _, _ struct{}) {
		cs.Events = append(cs.Events, KeyChange{Key: name, Op: op})
	})
	return cs
}

// HasChanges returns true if anything differs.
func (cs *ChangeSet) HasChanges() bool { return cs.Len() > 0 }

// Len returns the total number of entries.
func (cs *ChangeSet) Len() int {
	if cs == nil {
		return 0
	}
	return len(cs.Regions) + len(cs.Locations) + len(cs.Items) + len(cs.Checked) + len(cs.Events)
}

// NewlyReachable returns the regions that became reachable.
func (cs *ChangeSet) NewlyReachable() []string {
	var out []string
	for _, c := range cs.Regions {
		if c.To.IsReachable() && !c.From.IsReachable() {
			out = append(out, c.Region)
		}
	}
	return out
}

// NewlyAccessible returns the locations that became accessible.
func (cs *ChangeSet) NewlyAccessible() []string {
	var out []string
	for _, c := range cs.Locations {
		if c.Accessible {
			out = append(out, c.Location)
		}
	}
	return out
}

// diffMaps calls fn for every key whose presence or value differs, in key
// order. For OpAdd from is the zero value, for OpRemove to is.
func diffMaps[V comparable](prev, next map[string]V, fn func(key string, op Operation, from, to V)) {
	keys := make([]string, 0, len(prev)+len(next))
	for k := range prev {
		keys = append(keys, k)
	}
	for k := range next {
		if _, ok := prev[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var zero V
	for _, k := range keys {
		from, inPrev := prev[k]
		to, inNext := next[k]
		switch {
		case !inPrev:
			fn(k, OpAdd, zero, to)
		case !inNext:
			fn(k, OpRemove, from, zero)
		case from != to:
			fn(k, OpReplace, from, to)
		}
	}
}
