// Package state defines the immutable point-in-time snapshot produced by
// every recompute.
package state

import (
	"sort"

	"github.com/google/uuid"
)

// Status is the reachability status of a region.
type Status uint8

const (
	Unreachable Status = iota
	Reachable
	Checked
)

func (s Status) String() string {
	switch s {
	case Unreachable:
		return "unreachable"
	case Reachable:
		return "reachable"
	case Checked:
		return "checked"
	default:
		return "unknown"
	}
}

// MarshalText encodes the status by name.
func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText decodes a status name; unknown names decode as Unreachable.
func (s *Status) UnmarshalText(b []byte) error {
	switch string(b) {
	case "reachable":
		*s = Reachable
	case "checked":
		*s = Checked
	default:
		*s = Unreachable
	}
	return nil
}

// IsReachable reports whether the region can be entered.
func (s Status) IsReachable() bool { return s == Reachable || s == Checked }

// Result is what a solve computes from Inputs.
type Result struct {
	Regions   map[string]Status
	Locations map[string]bool
	Events    map[string]struct{}
	Passes    int
}

// Snapshot is an immutable view of tracker state. It is never modified after
// New returns; a recompute builds a new one.
type Snapshot struct {
	version uint64
	loadID  uuid.UUID
	inputs  Inputs
	events  map[string]struct{}
	regions map[string]Status
	access  map[string]bool
	passes  int
}

// New assembles a snapshot. The maps in res are owned by the snapshot afterwards.
func New(version uint64, loadID uuid.UUID, in Inputs, res *Result) *Snapshot {
	s := &Snapshot{
		version: version,
		loadID:  loadID,
		inputs:  in,
		events:  map[string]struct{}{},
		regions: map[string]Status{},
		access:  map[string]bool{},
	}
	if res != nil {
		if res.Events != nil {
			s.events = res.Events
		}
		if res.Regions != nil {
			s.regions = res.Regions
		}
		if res.Locations != nil {
			s.access = res.Locations
		}
		s.passes = res.Passes
	}
	return s
}

// Empty returns the snapshot published before any world is loaded.
func Empty() *Snapshot { return New(0, uuid.Nil, Inputs{}, nil) }

func (s *Snapshot) Version() uint64   { return s.version }
func (s *Snapshot) LoadID() uuid.UUID { return s.loadID }
func (s *Snapshot) Passes() int       { return s.passes }
func (s *Snapshot) Inputs() Inputs    { return s.inputs }

// Count returns the raw inventory count of item, without progression mapping.
func (s *Snapshot) Count(item string) int { return s.inputs.Count(item) }

// Inventory returns a copy of the raw inventory.
func (s *Snapshot) Inventory() map[string]int { return s.inputs.Inventory() }

// IsChecked reports whether location was marked checked.
func (s *Snapshot) IsChecked(location string) bool { return s.inputs.IsChecked(location) }

// HasEvent reports whether event was triggered during the solve.
func (s *Snapshot) HasEvent(event string) bool {
	_, ok := s.events[event]
	return ok
}

// Events returns the triggered events, sorted.
func (s *Snapshot) Events() []string { return sortedKeys(s.events) }

// RegionStatus returns the status of region; unknown regions are Unreachable.
func (s *Snapshot) RegionStatus(region string) Status { return s.regions[region] }

// IsRegionReachable reports whether region is reachable or checked.
func (s *Snapshot) IsRegionReachable(region string) bool { return s.regions[region].IsReachable() }

// IsLocationAccessible returns the accessibility of location and whether the
// snapshot knows the location at all.
func (s *Snapshot) IsLocationAccessible(location string) (accessible, known bool) {
	accessible, known = s.access[location]
	return accessible, known
}

// ReachableRegions returns the reachable or checked regions, sorted.
func (s *Snapshot) ReachableRegions() []string {
	out := make([]string, 0, len(s.regions))
	for name, st := range s.regions {
		if st.IsReachable() {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// AccessibleLocations returns the accessible locations, sorted.
func (s *Snapshot) AccessibleLocations() []string {
	out := make([]string, 0, len(s.access))
	for name, ok := range s.access {
		if ok {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// Regions returns a copy of the region status map.
func (s *Snapshot) Regions() map[string]Status {
	out := make(map[string]Status, len(s.regions))
	for k, v := range s.regions {
		out[k] = v
	}
	return out
}

// Locations returns a copy of the location accessibility map.
func (s *Snapshot) Locations() map[string]bool {
	out := make(map[string]bool, len(s.access))
	for k, v := range s.access {
		out[k] = v
	}
	return out
}

// EventSet returns a copy of the triggered events.
func (s *Snapshot) EventSet() map[string]struct{} {
	out := make(map[string]struct{}, len(s.events))
	for k := range s.events {
		out[k] = struct{}{}
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
