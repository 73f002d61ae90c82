// Package oot provides Ocarina of Time helpers. Its rules files carry
// Python-style rule strings; the parse package converts them with the
// "oot" dialect before they reach these helpers.
package oot

import (
	"strings"

	"github.com/mxkacsa/worldsync/plugin"
)

const (
	Game    = "oot"
	Dialect = "oot"
)

var (
	adultItems = map[string]bool{
		"Bow": true, "Megaton Hammer": true, "Iron Boots": true, "Hover Boots": true,
		"Hookshot": true, "Longshot": true, "Goron Tunic": true, "Zora Tunic": true,
		"Scarecrow": true, "Distant Scarecrow": true, "Mirror Shield": true,
		"Fire Arrows": true, "Ice Arrows": true, "Light Arrows": true, "Golden Gauntlets": true,
		"Silver Gauntlets": true, "Biggoron Sword": true,
	}
	childItems = map[string]bool{
		"Slingshot": true, "Boomerang": true, "Kokiri Sword": true, "Sticks": true,
		"Deku Shield": true,
	}
	magicItems = map[string]bool{
		"Dins Fire": true, "Farores Wind": true, "Nayrus Love": true, "Lens of Truth": true,
		"Fire Arrows": true, "Ice Arrows": true, "Light Arrows": true,
	}
	// progressive lists items that are tiers of a progressive base, with level.
	progressive = map[string]struct {
		base  string
		level int
	}{
		"Hookshot":         {"Progressive Hookshot", 1},
		"Longshot":         {"Progressive Hookshot", 2},
		"Silver Gauntlets": {"Progressive Strength Upgrade", 2},
		"Golden Gauntlets": {"Progressive Strength Upgrade", 3},
		"Goron Bracelet":   {"Progressive Strength Upgrade", 1},
		"Magic Meter":      {"Magic Meter", 1},
	}
)

// Plugin returns the oot helper table.
func Plugin() *plugin.Plugin {
	return &plugin.Plugin{
		Game:    Game,
		Dialect: Dialect,
		Helpers: map[string]plugin.HelperFunc{
			"is_adult":           pred(isAdult),
			"is_child":           pred(isChild),
			"has_explosives":     pred(hasExplosives),
			"can_blast_or_smash": pred(canBlastOrSmash),
			"has_bottle":         pred(hasBottle),
			"has_fire_source":    pred(hasFireSource),
			"can_leave_forest":   pred(canLeaveForest),
			"at_night":           pred(atNight),
			"at_day":             func(plugin.Context, []any) any { return true },
			"can_use": func(ctx plugin.Context, args []any) any {
				return canUse(ctx, itemName(plugin.Arg(args, 0)))
			},
			"can_play": func(ctx plugin.Context, args []any) any {
				return ctx.Has("Ocarina") && has(ctx, itemName(plugin.Arg(args, 0)))
			},
			"has_count": func(ctx plugin.Context, args []any) any {
				return ctx.Count(itemName(plugin.Arg(args, 0))) >= plugin.IntArg(args, 1, 1)
			},
		},
	}
}

func pred(fn func(plugin.Context) bool) plugin.HelperFunc {
	return func(ctx plugin.Context, _ []any) any { return fn(ctx) }
}

// itemName accepts the underscore spelling used by rule strings.
func itemName(v any) string { return strings.ReplaceAll(plugin.String(v), "_", " ") }

// has understands progressive tiers even when the world declares no
// progression mapping for them.
func has(ctx plugin.Context, item string) bool {
	if ctx.Has(item) {
		return true
	}
	if p, ok := progressive[item]; ok {
		return ctx.Count(p.base) >= p.level
	}
	return false
}

func isAdult(ctx plugin.Context) bool {
	return plugin.SettingIs(ctx, "starting_age", "adult") || ctx.Has("Time Travel")
}

func isChild(ctx plugin.Context) bool {
	return !plugin.SettingIs(ctx, "starting_age", "adult") || ctx.Has("Time Travel")
}

func canUse(ctx plugin.Context, item string) bool {
	if !has(ctx, item) {
		return false
	}
	if magicItems[item] && !has(ctx, "Magic Meter") {
		return false
	}
	if strings.HasSuffix(item, "Arrows") && !has(ctx, "Bow") {
		return false
	}
	switch {
	case adultItems[item]:
		return isAdult(ctx)
	case childItems[item]:
		return isChild(ctx)
	}
	return true
}

func hasExplosives(ctx plugin.Context) bool { return plugin.HasAny(ctx, "Bomb Bag", "Bombchus") }

func canBlastOrSmash(ctx plugin.Context) bool {
	return hasExplosives(ctx) || canUse(ctx, "Megaton Hammer")
}

func hasBottle(ctx plugin.Context) bool {
	if ctx.Has("Bottle") {
		return true
	}
	for _, item := range ctx.World().ItemsInGroup("Bottles") {
		if ctx.Has(item) {
			return true
		}
	}
	return false
}

func hasFireSource(ctx plugin.Context) bool {
	return canUse(ctx, "Dins Fire") || canUse(ctx, "Fire Arrows")
}

func canLeaveForest(ctx plugin.Context) bool {
	v, ok := ctx.Setting("open_forest")
	return (ok && plugin.String(v) != "closed") || isAdult(ctx) || ctx.Has("Deku Tree Clear")
}

// atNight holds when the Sun's Song can skip the clock; otherwise the
// tracker assumes waiting is always possible.
func atNight(ctx plugin.Context) bool {
	if plugin.SettingBool(ctx, "require_suns_song") {
		return ctx.Has("Ocarina") && has(ctx, "Suns Song")
	}
	return true
}
