// Package alttp provides A Link to the Past logic helpers.
package alttp

import "github.com/mxkacsa/worldsync/plugin"

// Game is the game name used in rules files.
const Game = "alttp"

var swords = []string{"Fighter Sword", "Master Sword", "Tempered Sword", "Golden Sword"}

// Plugin returns the alttp helper table.
func Plugin() *plugin.Plugin {
	return &plugin.Plugin{
		Game: Game,
		Helpers: map[string]plugin.HelperFunc{
			"can_lift_rocks":              pred(canLiftRocks),
			"can_lift_heavy_rocks":        pred(canLiftHeavyRocks),
			"has_sword":                   pred(hasSword),
			"has_beam_sword":              pred(hasBeamSword),
			"has_melee_weapon":            pred(hasMeleeWeapon),
			"has_fire_source":             pred(hasFireSource),
			"can_melt_things":             pred(canMeltThings),
			"can_shoot_arrows":            pred(canShootArrows),
			"can_use_bombs":               pred(canUseBombs),
			"can_bomb_or_bonk":            pred(canBombOrBonk),
			"can_activate_crystal_switch": pred(canActivateCrystalSwitch),
			"can_retrieve_tablet":         pred(canRetrieveTablet),
			"can_extend_magic": func(ctx plugin.Context, args []any) any {
				return canExtendMagic(ctx, plugin.IntArg(args, 0, 16))
			},
			"can_kill_most_things": func(ctx plugin.Context, args []any) any {
				return canKillMostThings(ctx, plugin.IntArg(args, 0, 5))
			},
			"has_hearts": func(ctx plugin.Context, args []any) any {
				return heartCount(ctx) >= plugin.IntArg(args, 0, 2)
			},
			"has_crystals": func(ctx plugin.Context, args []any) any {
				need := plugin.IntArg(args, 0, 7)
				return crystalCount(ctx) >= need
			},
			"is_not_bunny": func(ctx plugin.Context, args []any) any {
				return isNotBunny(ctx, plugin.String(plugin.Arg(args, 0)))
			},
		},
	}
}

func pred(fn func(plugin.Context) bool) plugin.HelperFunc {
	return func(ctx plugin.Context, _ []any) any { return fn(ctx) }
}

// tier reports whether the progressive base has reached level or the
// named tier is held outright.
func tier(ctx plugin.Context, base, name string, level int) bool {
	return ctx.Count(base) >= level || ctx.Has(name)
}

func canLiftRocks(ctx plugin.Context) bool {
	return tier(ctx, "Progressive Glove", "Power Glove", 1) || canLiftHeavyRocks(ctx)
}

func canLiftHeavyRocks(ctx plugin.Context) bool {
	return tier(ctx, "Progressive Glove", "Titans Mitts", 2)
}

func hasSword(ctx plugin.Context) bool {
	return ctx.Count("Progressive Sword") >= 1 || plugin.HasAny(ctx, swords...)
}

func hasBeamSword(ctx plugin.Context) bool {
	return ctx.Count("Progressive Sword") >= 2 || plugin.HasAny(ctx, swords[1:]...)
}

func hasMeleeWeapon(ctx plugin.Context) bool {
	return hasSword(ctx) || ctx.Has("Hammer")
}

func hasFireSource(ctx plugin.Context) bool {
	return plugin.HasAny(ctx, "Fire Rod", "Lamp")
}

func canMeltThings(ctx plugin.Context) bool {
	return ctx.Has("Fire Rod") || (ctx.Has("Bombos") && (hasSword(ctx) || plugin.SettingBool(ctx, "swordless")))
}

func canShootArrows(ctx plugin.Context) bool {
	if plugin.SettingBool(ctx, "retro_bow") {
		return (ctx.Has("Bow") || ctx.Count("Progressive Bow") >= 1) && ctx.Has("Single Arrow")
	}
	return plugin.HasAny(ctx, "Bow", "Silver Bow", "Progressive Bow")
}

// canUseBombs is always true unless the world starts bombless.
func canUseBombs(ctx plugin.Context) bool {
	if !plugin.SettingBool(ctx, "bombless_start") {
		return true
	}
	return plugin.HasAny(ctx, "Bomb Upgrade (+5)", "Bomb Upgrade (+10)", "Bomb Upgrade (50)")
}

func canBombOrBonk(ctx plugin.Context) bool {
	return canUseBombs(ctx) || ctx.Has("Pegasus Boots")
}

// canExtendMagic counts magic in eighths of a bar: the base meter holds 8,
// upgrades double or quadruple it, and each bottle adds a refill.
func canExtendMagic(ctx plugin.Context, need int) bool {
	magic := 8
	switch {
	case ctx.Has("Magic Upgrade (1/4)"):
		magic = 32
	case ctx.Has("Magic Upgrade (1/2)"):
		magic = 16
	}
	magic += magic * ctx.Count("Bottle")
	return magic >= need
}

func canKillMostThings(ctx plugin.Context, enemies int) bool {
	if hasMeleeWeapon(ctx) || ctx.Has("Cane of Somaria") || canShootArrows(ctx) || ctx.Has("Fire Rod") {
		return true
	}
	if ctx.Has("Cane of Byrna") && (enemies < 6 || canExtendMagic(ctx, 16)) {
		return true
	}
	return canUseBombs(ctx) && enemies < 6
}

func heartCount(ctx plugin.Context) int {
	return 3 + ctx.Count("Boss Heart Container") + ctx.Count("Sanctuary Heart Container") +
		ctx.Count("Piece of Heart")/4
}

func crystalCount(ctx plugin.Context) int {
	n := 0
	for _, item := range ctx.World().ItemsInGroup("Crystals") {
		if ctx.Has(item) {
			n++
		}
	}
	return n
}

// isNotBunny reports whether Link keeps his form in region. Dark World
// regions need the Moon Pearl; inverted worlds flip the rule.
func isNotBunny(ctx plugin.Context, region string) bool {
	if ctx.Has("Moon Pearl") {
		return true
	}
	r, ok := ctx.World().Region(region)
	if !ok {
		return true
	}
	dark := r.HasTag("dark_world")
	if plugin.SettingIs(ctx, "mode", "inverted") {
		return dark
	}
	return !dark
}

func canActivateCrystalSwitch(ctx plugin.Context) bool {
	return hasMeleeWeapon(ctx) || canUseBombs(ctx) || canShootArrows(ctx) ||
		plugin.HasAny(ctx, "Hookshot", "Cane of Somaria", "Cane of Byrna", "Fire Rod", "Ice Rod",
			"Blue Boomerang", "Red Boomerang")
}

func canRetrieveTablet(ctx plugin.Context) bool {
	if !ctx.Has("Book of Mudora") {
		return false
	}
	return hasBeamSword(ctx) || (plugin.SettingBool(ctx, "swordless") && ctx.Has("Hammer"))
}
