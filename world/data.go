package world

import (
	"sort"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/mxkacsa/worldsync/ast"
)

// Region is a node of the region graph.
type Region struct {
	Name         string
	Index        int
	Locations    []*Location
	Exits        []*Exit
	Reward       string
	BossLocation string
	Tags         []string
}

// HasTag reports whether the region carries tag.
func (r *Region) HasTag(tag string) bool {
	for _, t := range r.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Location is a checkable spot inside a region.
type Location struct {
	Name   string
	ID     *int64
	Item   *PlacedItem
	Rule   *ast.Rule
	Region string
}

// IsEvent reports whether the location is an event: no id, resolved
// automatically and never offered for manual checking.
func (l *Location) IsEvent() bool { return l.ID == nil }

// Exit is a directed edge from Parent to Target.
type Exit struct {
	Name   string
	Parent string
	Target string
	Rule   *ast.Rule
}

// Resolution is where a name lands in the progression mapping.
// Level 0 means the name counts as a copy of Base itself.
type Resolution struct {
	Base  string
	Level int
}

// Data is the immutable, indexed world for one load.
// Nothing reachable from a Data may be mutated after Build returns.
type Data struct {
	LoadID uuid.UUID
	Game   string
	Player int

	startRegions []string
	regions      []*Region
	regionIndex  map[string]int
	locations    map[string]*Location
	locationList []*Location
	eventCount   int

	items         map[string]*Item
	groups        map[string][]string
	progression   map[string]Progressive
	resolutions   map[string]Resolution
	pickupsByBase map[string][]string

	settings map[string]any
}

// Build indexes doc into a Data. Rules are taken as they are; dialect
// strings must already have been converted by the loader.
func Build(doc *Document) (*Data, error) {
	if doc == nil {
		return nil, eris.New("nil world document")
	}

	d := &Data{
		LoadID:        uuid.New(),
		Game:          doc.Game,
		Player:        doc.Player,
		regionIndex:   make(map[string]int, len(doc.Regions)),
		locations:     make(map[string]*Location),
		items:         make(map[string]*Item, len(doc.Items)),
		groups:        make(map[string][]string),
		progression:   make(map[string]Progressive, len(doc.Progression)),
		resolutions:   make(map[string]Resolution),
		pickupsByBase: make(map[string][]string),
		settings:      make(map[string]any, len(doc.Settings)),
	}

	d.startRegions = append([]string(nil), doc.StartRegions...)
	if len(d.startRegions) == 0 {
		d.startRegions = []string{DefaultStartRegion}
	}

	for i := range doc.Regions {
		rd := &doc.Regions[i]
		if _, dup := d.regionIndex[rd.Name]; dup {
			return nil, eris.Errorf("duplicate region %q", rd.Name)
		}
		region := &Region{
			Name:         rd.Name,
			Index:        len(d.regions),
			Reward:       rd.Reward,
			BossLocation: rd.BossLocation,
			Tags:         append([]string(nil), rd.Tags...),
		}
		for _, ld := range rd.Locations {
			if _, dup := d.locations[ld.Name]; dup {
				return nil, eris.Errorf("duplicate location %q in region %q", ld.Name, rd.Name)
			}
			loc := &Location{Name: ld.Name, ID: ld.ID, Item: ld.Item, Rule: ld.AccessRule, Region: rd.Name}
			region.Locations = append(region.Locations, loc)
			d.locations[loc.Name] = loc
			d.locationList = append(d.locationList, loc)
			if loc.IsEvent() {
				d.eventCount++
			}
		}
		for _, ed := range rd.Exits {
			region.Exits = append(region.Exits, &Exit{
				Name:   ed.Name,
				Parent: rd.Name,
				Target: ed.ConnectedRegion,
				Rule:   ed.AccessRule,
			})
		}
		d.regionIndex[rd.Name] = region.Index
		d.regions = append(d.regions, region)
	}

	for i := range doc.Items {
		item := doc.Items[i]
		d.items[item.Name] = &item
		for _, g := range item.Groups {
			d.groups[g] = append(d.groups[g], item.Name)
		}
	}
	for g := range d.groups {
		sort.Strings(d.groups[g])
	}

	for base, p := range doc.Progression {
		d.progression[base] = p
		for _, tier := range p.Tiers {
			if tier.Name == base {
				continue
			}
			d.resolutions[tier.Name] = Resolution{Base: base, Level: tier.Level}
		}
		for _, pickup := range p.Pickups {
			d.resolutions[pickup] = Resolution{Base: base}
			d.pickupsByBase[base] = append(d.pickupsByBase[base], pickup)
		}
	}
	for base := range doc.Progression {
		// Base names win over tiers or pickups that happen to share the name.
		d.resolutions[base] = Resolution{Base: base}
		sort.Strings(d.pickupsByBase[base])
	}

	for k, v := range doc.Settings {
		d.settings[k] = ast.NormalizeNumber(v)
	}

	return d, nil
}

// StartRegions returns the regions reachable with no requirements.
func (d *Data) StartRegions() []string { return append([]string(nil), d.startRegions...) }

// Regions returns regions in document order. The slice must not be modified.
func (d *Data) Regions() []*Region { return d.regions }

// NumRegions returns the number of regions.
func (d *Data) NumRegions() int { return len(d.regions) }

// Region looks up a region by name.
func (d *Data) Region(name string) (*Region, bool) {
	i, ok := d.regionIndex[name]
	if !ok {
		return nil, false
	}
	return d.regions[i], true
}

// RegionIndex returns the dense index of a region.
func (d *Data) RegionIndex(name string) (int, bool) {
	i, ok := d.regionIndex[name]
	return i, ok
}

// Location looks up a location by name.
func (d *Data) Location(name string) (*Location, bool) {
	l, ok := d.locations[name]
	return l, ok
}

// Locations returns every location in region order. The slice must not be modified.
func (d *Data) Locations() []*Location { return d.locationList }

// NumEvents returns the number of event locations.
func (d *Data) NumEvents() int { return d.eventCount }

// Item looks up item metadata.
func (d *Data) Item(name string) (*Item, bool) {
	it, ok := d.items[name]
	return it, ok
}

// ItemsInGroup returns the sorted item names belonging to group.
func (d *Data) ItemsInGroup(group string) []string { return d.groups[group] }

// Resolve maps an item name through the progression mapping.
func (d *Data) Resolve(name string) (Resolution, bool) {
	r, ok := d.resolutions[name]
	return r, ok
}

// Pickups returns the raw pickup names that count toward base.
func (d *Data) Pickups(base string) []string { return d.pickupsByBase[base] }

// Progressive returns the tiers of a progressive base item.
func (d *Data) Progressive(base string) (Progressive, bool) {
	p, ok := d.progression[base]
	return p, ok
}

// Setting returns a per-player setting. Integral JSON numbers come back as int.
func (d *Data) Setting(key string) (any, bool) {
	v, ok := d.settings[key]
	return v, ok
}

// SettingKeys returns the sorted setting names.
func (d *Data) SettingKeys() []string {
	keys := make([]string, 0, len(d.settings))
	for k := range d.settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
