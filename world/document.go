// Package world holds the static, per-load description of a game world:
// regions, locations, exits, items, the progression mapping and settings.
package world

import "github.com/mxkacsa/worldsync/ast"

// DefaultStartRegion is used when a document names no start regions.
const DefaultStartRegion = "Menu"

// Document is the JSON form of a rules file.
// rules.schema.json is generated from this type.
type Document struct {
	Game         string                 `json:"game" validate:"required"`
	Player       int                    `json:"player,omitempty" validate:"gte=0"`
	StartRegions []string               `json:"start_regions,omitempty" validate:"dive,required"`
	Regions      []RegionDoc            `json:"regions" validate:"required,min=1,dive"`
	Items        []Item                 `json:"items,omitempty" validate:"dive"`
	Progression  map[string]Progressive `json:"progression_mapping,omitempty" validate:"dive"`
	Settings     map[string]any         `json:"settings,omitempty"`
}

// RegionDoc is a region as written in a rules file.
type RegionDoc struct {
	Name         string        `json:"name" validate:"required"`
	Locations    []LocationDoc `json:"locations,omitempty" validate:"dive"`
	Exits        []ExitDoc     `json:"exits,omitempty" validate:"dive"`
	Reward       string        `json:"reward,omitempty"`
	BossLocation string        `json:"boss_location,omitempty"`
	Tags         []string      `json:"tags,omitempty"`
}

// LocationDoc is a location as written in a rules file.
// An access_rule given as a plain string is a legacy dialect rule.
type LocationDoc struct {
	Name       string      `json:"name" validate:"required"`
	ID         *int64      `json:"id,omitempty"`
	Item       *PlacedItem `json:"item,omitempty"`
	AccessRule *ast.Rule   `json:"access_rule,omitempty"`
}

// ExitDoc is an exit as written in a rules file.
type ExitDoc struct {
	Name            string    `json:"name" validate:"required"`
	ConnectedRegion string    `json:"connected_region" validate:"required"`
	AccessRule      *ast.Rule `json:"access_rule,omitempty"`
}

// PlacedItem is the item sitting at a location.
type PlacedItem struct {
	Name   string `json:"name" validate:"required"`
	Player int    `json:"player,omitempty"`
}

// Item describes a collectable item.
type Item struct {
	Name        string   `json:"name" validate:"required"`
	ID          int64    `json:"id,omitempty"`
	Groups      []string `json:"groups,omitempty"`
	Progression bool     `json:"progression,omitempty"`
}

// Progressive maps a progressive base item to its tiers.
// Pickups lists raw item names that count as copies of the base.
type Progressive struct {
	Tiers   []Tier   `json:"items" validate:"required,min=1,dive"`
	Pickups []string `json:"pickups,omitempty"`
}

// Tier is one level of a progressive item.
type Tier struct {
	Name  string `json:"name" validate:"required"`
	Level int    `json:"level" validate:"gte=1"`
}
