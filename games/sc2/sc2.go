// Package sc2 provides StarCraft II helpers. Helpers are namespaced per
// faction with the terran_, zerg_ and protoss_ prefixes; an unprefixed name
// resolves against the factions in that order.
package sc2

import (
	"github.com/mxkacsa/worldsync/plugin"
)

const Game = "sc2"

// Factions in resolution order.
var Factions = []string{"terran", "zerg", "protoss"}

type faction struct {
	units     []string
	antiAir   []string
	detection []string
	upgrades  []string
}

var factions = map[string]faction{
	"terran": {
		units:     []string{"Marine", "Marauder", "Firebat", "Reaper", "Goliath", "Diamondback", "Siege Tank", "Thor", "Banshee", "Battlecruiser"},
		antiAir:   []string{"Marine", "Goliath", "Viking", "Wraith", "Valkyrie", "Thor", "Battlecruiser", "Missile Turret"},
		detection: []string{"Raven", "Missile Turret", "Science Vessel"},
		upgrades:  []string{"Progressive Terran Infantry Weapon", "Progressive Terran Vehicle Weapon", "Progressive Terran Ship Weapon"},
	},
	"zerg": {
		units:     []string{"Zergling", "Roach", "Hydralisk", "Aberration", "Swarm Host", "Ultralisk", "Mutalisk", "Brood Lord"},
		antiAir:   []string{"Hydralisk", "Mutalisk", "Corruptor", "Brood Queen", "Infestor", "Spore Crawler"},
		detection: []string{"Overseer", "Spore Crawler"},
		upgrades:  []string{"Progressive Zerg Melee Attack", "Progressive Zerg Missile Attack", "Progressive Zerg Flyer Attack"},
	},
	"protoss": {
		units:     []string{"Zealot", "Stalker", "Dragoon", "Adept", "Immortal", "Colossus", "Archon", "Carrier", "Void Ray"},
		antiAir:   []string{"Stalker", "Dragoon", "Phoenix", "Carrier", "Void Ray", "Archon", "Photon Cannon"},
		detection: []string{"Observer", "Photon Cannon", "Oracle"},
		upgrades:  []string{"Progressive Protoss Ground Weapon", "Progressive Protoss Air Weapon"},
	},
}

// Plugin returns the sc2 helper table.
func Plugin() *plugin.Plugin {
	helpers := make(map[string]plugin.HelperFunc)
	prefixes := make([]string, 0, len(Factions))
	for _, name := range Factions {
		f := factions[name]
		prefix := name + "_"
		prefixes = append(prefixes, prefix)

		ratingKey := prefix + "power_rating"
		helpers[prefix+"power_rating"] = func(ctx plugin.Context, _ []any) any {
			if v, ok := ctx.Derived(ratingKey); ok {
				return v
			}
			return powerRating(ctx, f)
		}
		helpers[prefix+"common_unit"] = func(ctx plugin.Context, _ []any) any {
			return plugin.HasAny(ctx, f.units...)
		}
		helpers[prefix+"competent_anti_air"] = func(ctx plugin.Context, _ []any) any {
			return countHeld(ctx, f.antiAir) >= 2
		}
		helpers[prefix+"basic_anti_air"] = func(ctx plugin.Context, _ []any) any {
			return plugin.HasAny(ctx, f.antiAir...)
		}
		helpers[prefix+"has_detection"] = func(ctx plugin.Context, _ []any) any {
			return plugin.HasAny(ctx, f.detection...)
		}
		// power_at_least(n) compares the injected rating.
		helpers[prefix+"power_at_least"] = func(ctx plugin.Context, args []any) any {
			v, ok := ctx.Derived(ratingKey)
			if !ok {
				v = powerRating(ctx, f)
			}
			return plugin.Int(v) >= plugin.IntArg(args, 0, 1)
		}
	}

	return &plugin.Plugin{
		Game:     Game,
		Helpers:  helpers,
		Prefixes: prefixes,
		Wrap:     wrap,
	}
}

// wrap injects <faction>_power_rating for every faction.
func wrap(ctx plugin.Context) map[string]any {
	out := make(map[string]any, len(Factions))
	for _, name := range Factions {
		out[name+"_power_rating"] = powerRating(ctx, factions[name])
	}
	return out
}

// powerRating scores an army: a point per unit type held, another per
// anti-air type, plus upgrade levels and the "power_rating_bonus" setting.
func powerRating(ctx plugin.Context, f faction) int {
	rating := countHeld(ctx, f.units) + countHeld(ctx, f.antiAir)
	for _, u := range f.upgrades {
		rating += ctx.Count(u)
	}
	if v, ok := ctx.Setting("power_rating_bonus"); ok {
		rating += plugin.Int(v)
	}
	return rating
}

func countHeld(ctx plugin.Context, items []string) int {
	n := 0
	for _, it := range items {
		if ctx.Has(it) {
			n++
		}
	}
	return n
}
