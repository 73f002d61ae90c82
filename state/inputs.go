package state

import "sort"

// Inputs is the externally mutated part of a snapshot: inventory and
// checked locations. Every With* method returns a new value and leaves the
// receiver untouched, so an Inputs captured by a snapshot never changes.
type Inputs struct {
	inventory map[string]int
	checked   map[string]struct{}
}

// NewInputs copies inventory and checked into a fresh Inputs.
// Non-positive counts are dropped.
func NewInputs(inventory map[string]int, checked []string) Inputs {
	in := Inputs{
		inventory: make(map[string]int, len(inventory)),
		checked:   make(map[string]struct{}, len(checked)),
	}
	for k, v := range inventory {
		if v > 0 {
			in.inventory[k] = v
		}
	}
	for _, c := range checked {
		in.checked[c] = struct{}{}
	}
	return in
}

// Count returns the raw count of item.
func (in Inputs) Count(item string) int { return in.inventory[item] }

// IsChecked reports whether location is checked.
func (in Inputs) IsChecked(location string) bool {
	_, ok := in.checked[location]
	return ok
}

// Inventory returns a copy of the inventory.
func (in Inputs) Inventory() map[string]int {
	out := make(map[string]int, len(in.inventory))
	for k, v := range in.inventory {
		out[k] = v
	}
	return out
}

// Checked returns the checked locations, sorted.
func (in Inputs) Checked() []string { return sortedKeys(in.checked) }

// CheckedSet returns a copy of the checked set.
func (in Inputs) CheckedSet() map[string]struct{} {
	out := make(map[string]struct{}, len(in.checked))
	for k := range in.checked {
		out[k] = struct{}{}
	}
	return out
}

// WithCount returns a copy with item set to n. n <= 0 removes the item.
func (in Inputs) WithCount(item string, n int) Inputs {
	out := Inputs{inventory: in.Inventory(), checked: in.checked}
	if n > 0 {
		out.inventory[item] = n
	} else {
		delete(out.inventory, item)
	}
	return out
}

// WithChecked returns a copy with location marked checked or unchecked.
func (in Inputs) WithChecked(location string, checked bool) Inputs {
	out := Inputs{inventory: in.inventory, checked: in.CheckedSet()}
	if checked {
		out.checked[location] = struct{}{}
	} else {
		delete(out.checked, location)
	}
	return out
}

// Covers reports whether in holds at least every item count of other and
// every location other has checked.
func (in Inputs) Covers(other Inputs) bool {
	for item, n := range other.inventory {
		if in.inventory[item] < n {
			return false
		}
	}
	for loc := range other.checked {
		if _, ok := in.checked[loc]; !ok {
			return false
		}
	}
	return true
}

// Items returns inventory item names, sorted.
func (in Inputs) Items() []string {
	out := make([]string, 0, len(in.inventory))
	for k := range in.inventory {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
