package world

import (
	"fmt"

	"github.com/mxkacsa/worldsync/ast"
)

// Builder assembles a Document in code. Game plugins' tests and the CLI's
// examples use it; rules files go through the parse package instead.
type Builder struct {
	doc    Document
	nextID int64
}

// NewBuilder starts a document for game.
func NewBuilder(game string) *Builder {
	return &Builder{doc: Document{Game: game}, nextID: 1}
}

// Start sets the start regions.
func (b *Builder) Start(regions ...string) *Builder {
	b.doc.StartRegions = append(b.doc.StartRegions, regions...)
	return b
}

// Item declares an item with optional groups.
func (b *Builder) Item(name string, groups ...string) *Builder {
	b.doc.Items = append(b.doc.Items, Item{Name: name, Groups: groups, Progression: true})
	return b
}

// Progressive declares base with tiers at levels 1..n in the given order.
func (b *Builder) Progressive(base string, tiers ...string) *Builder {
	if b.doc.Progression == nil {
		b.doc.Progression = make(map[string]Progressive)
	}
	p := b.doc.Progression[base]
	for i, t := range tiers {
		p.Tiers = append(p.Tiers, Tier{Name: t, Level: i + 1})
	}
	b.doc.Progression[base] = p
	return b
}

// Pickups declares raw pickup names counting toward base.
func (b *Builder) Pickups(base string, pickups ...string) *Builder {
	if b.doc.Progression == nil {
		b.doc.Progression = make(map[string]Progressive)
	}
	p := b.doc.Progression[base]
	p.Pickups = append(p.Pickups, pickups...)
	b.doc.Progression[base] = p
	return b
}

// Setting sets a per-player setting.
func (b *Builder) Setting(key string, value any) *Builder {
	if b.doc.Settings == nil {
		b.doc.Settings = make(map[string]any)
	}
	b.doc.Settings[key] = value
	return b
}

// Region appends a region and returns a builder for its contents.
func (b *Builder) Region(name string) *RegionBuilder {
	b.doc.Regions = append(b.doc.Regions, RegionDoc{Name: name})
	return &RegionBuilder{b: b, idx: len(b.doc.Regions) - 1}
}

// Document returns the assembled document.
func (b *Builder) Document() *Document { return &b.doc }

// Build indexes the assembled document.
func (b *Builder) Build() (*Data, error) { return Build(&b.doc) }

// MustBuild is Build for fixtures; it panics on error.
func (b *Builder) MustBuild() *Data {
	d, err := b.Build()
	if err != nil {
		panic(fmt.Sprintf("world builder: %v", err))
	}
	return d
}

// RegionBuilder adds exits and locations to one region.
type RegionBuilder struct {
	b   *Builder
	idx int
}

func (r *RegionBuilder) region() *RegionDoc { return &r.b.doc.Regions[r.idx] }

// Exit adds an exit named "<region> -> <target>".
func (r *RegionBuilder) Exit(target string, rule *ast.Rule) *RegionBuilder {
	reg := r.region()
	reg.Exits = append(reg.Exits, ExitDoc{
		Name:            reg.Name + " -> " + target,
		ConnectedRegion: target,
		AccessRule:      rule,
	})
	return r
}

// Location adds a manual location with the next free id.
func (r *RegionBuilder) Location(name string, rule *ast.Rule) *RegionBuilder {
	return r.LocationWithItem(name, "", rule)
}

// LocationWithItem adds a manual location holding item.
func (r *RegionBuilder) LocationWithItem(name, item string, rule *ast.Rule) *RegionBuilder {
	id := r.b.nextID
	r.b.nextID++
	loc := LocationDoc{Name: name, ID: &id, AccessRule: rule}
	if item != "" {
		loc.Item = &PlacedItem{Name: item}
	}
	reg := r.region()
	reg.Locations = append(reg.Locations, loc)
	return r
}

// Event adds an event location whose collection triggers event.
func (r *RegionBuilder) Event(name, event string, rule *ast.Rule) *RegionBuilder {
	reg := r.region()
	reg.Locations = append(reg.Locations, LocationDoc{
		Name:       name,
		Item:       &PlacedItem{Name: event},
		AccessRule: rule,
	})
	return r
}

// Reward marks the region as granting reward once bossLocation is accessible.
func (r *RegionBuilder) Reward(reward, bossLocation string) *RegionBuilder {
	reg := r.region()
	reg.Reward = reward
	reg.BossLocation = bossLocation
	return r
}

// Tag adds tags to the region.
func (r *RegionBuilder) Tag(tags ...string) *RegionBuilder {
	reg := r.region()
	reg.Tags = append(reg.Tags, tags...)
	return r
}

// Region continues with another region of the same document.
func (r *RegionBuilder) Region(name string) *RegionBuilder { return r.b.Region(name) }

// Done returns to the document builder.
func (r *RegionBuilder) Done() *Builder { return r.b }
