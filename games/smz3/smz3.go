// Package smz3 provides Super Metroid & A Link to the Past Crossover helpers.
//
// Helpers are registered with the smz3_ prefix, so rules may call them
// either as "smz3_CanLiftLight" or as plain "CanLiftLight".
package smz3

import (
	"github.com/mxkacsa/worldsync/plugin"
)

const (
	Game   = "smz3"
	Prefix = "smz3_"
)

// bossLocations is the location whose accessibility grants a region's
// reward. It fills in regions that do not name a boss_location themselves.
var bossLocations = map[string]string{
	"Eastern Palace":      "Eastern Palace - Armos Knights",
	"Desert Palace":       "Desert Palace - Lanmolas",
	"Tower of Hera":       "Tower of Hera - Moldorm",
	"Palace of Darkness":  "Palace of Darkness - Helmasaur King",
	"Swamp Palace":        "Swamp Palace - Arrghus",
	"Skull Woods":         "Skull Woods - Mothula",
	"Thieves' Town":       "Thieves' Town - Blind",
	"Ice Palace":          "Ice Palace - Kholdstare",
	"Misery Mire":         "Misery Mire - Vitreous",
	"Turtle Rock":         "Turtle Rock - Trinexx",
	"Brinstar Kraid":      "Energy Tank, Kraid",
	"Wrecked Ship":        "Energy Tank, Wrecked Ship",
	"Inner Maridia":       "Space Jump",
	"Lower Norfair, East": "Energy Tank, Ridley",
}

// Plugin returns the smz3 helper table.
func Plugin() *plugin.Plugin {
	helpers := map[string]plugin.HelperFunc{
		"CanLiftLight":                 pred(canLiftLight),
		"CanLiftHeavy":                 pred(canLiftHeavy),
		"CanLightTorches":              pred(canLightTorches),
		"CanMeltFreezors":              pred(canMeltFreezors),
		"CanKillManyEnemies":           pred(canKillManyEnemies),
		"CanPassBombPassages":          pred(canPassBombPassages),
		"CanUsePowerBombs":             pred(canUsePowerBombs),
		"CanDestroyBombWalls":          pred(canDestroyBombWalls),
		"CanSpringBallJump":            pred(canSpringBallJump),
		"CanIbj":                       pred(canIbj),
		"CanFly":                       pred(canFly),
		"CanHellRun":                   pred(canHellRun),
		"CanAccessDeathMountainPortal": pred(canAccessDeathMountainPortal),
		"CanAccessDarkWorldPortal":     pred(canAccessDarkWorldPortal),
		"CanExtendMagic": func(ctx plugin.Context, args []any) any {
			return canExtendMagic(ctx, plugin.IntArg(args, 0, 2))
		},
		"HasEnergyReserves": func(ctx plugin.Context, args []any) any {
			return energyReserves(ctx) >= plugin.IntArg(args, 0, 1)
		},
		"CanAcquire":        plugin.CanAcquire(bossLocations),
		"CanAcquireAtLeast": plugin.CanAcquireAtLeast(bossLocations),
	}

	prefixed := make(map[string]plugin.HelperFunc, len(helpers))
	for name, fn := range helpers {
		prefixed[Prefix+name] = fn
	}
	return &plugin.Plugin{Game: Game, Prefixes: []string{Prefix}, Helpers: prefixed}
}

func pred(fn func(plugin.Context) bool) plugin.HelperFunc {
	return func(ctx plugin.Context, _ []any) any { return fn(ctx) }
}

func canLiftLight(ctx plugin.Context) bool { return ctx.Count("ProgressiveGlove") >= 1 }

func canLiftHeavy(ctx plugin.Context) bool { return ctx.Count("ProgressiveGlove") >= 2 }

func hasSword(ctx plugin.Context) bool { return ctx.Count("ProgressiveSword") >= 1 }

func canLightTorches(ctx plugin.Context) bool { return plugin.HasAny(ctx, "Firerod", "Lamp") }

func canMeltFreezors(ctx plugin.Context) bool {
	return ctx.Has("Firerod") || (ctx.Has("Bombos") && hasSword(ctx))
}

// canExtendMagic doubles the meter for Half Magic and again for a bottle.
func canExtendMagic(ctx plugin.Context, bars int) bool {
	magic := 1
	if ctx.Has("HalfMagic") {
		magic *= 2
	}
	if ctx.Has("Bottle") {
		magic *= 2
	}
	return magic >= bars
}

func canKillManyEnemies(ctx plugin.Context) bool {
	return hasSword(ctx) || plugin.HasAny(ctx, "Hammer", "Bow", "Firerod", "Somaria") ||
		(ctx.Has("Byrna") && canExtendMagic(ctx, 2))
}

func canIbj(ctx plugin.Context) bool { return plugin.HasAll(ctx, "Morph", "Bombs") }

func canPassBombPassages(ctx plugin.Context) bool {
	return ctx.Has("Morph") && plugin.HasAny(ctx, "Bombs", "PowerBomb")
}

func canUsePowerBombs(ctx plugin.Context) bool { return plugin.HasAll(ctx, "Morph", "PowerBomb") }

func canDestroyBombWalls(ctx plugin.Context) bool {
	return canPassBombPassages(ctx) || ctx.Has("ScrewAttack")
}

func canSpringBallJump(ctx plugin.Context) bool { return plugin.HasAll(ctx, "Morph", "SpringBall") }

func canFly(ctx plugin.Context) bool { return ctx.Has("SpaceJump") || canIbj(ctx) }

func energyReserves(ctx plugin.Context) int { return ctx.Count("ETank") + ctx.Count("ReserveTank") }

func canHellRun(ctx plugin.Context) bool { return ctx.Has("Varia") || energyReserves(ctx) >= 5 }

func canAccessDeathMountainPortal(ctx plugin.Context) bool {
	return (canDestroyBombWalls(ctx) || ctx.Has("SpeedBooster")) && plugin.HasAll(ctx, "Super", "Morph")
}

func canAccessDarkWorldPortal(ctx plugin.Context) bool {
	return canUsePowerBombs(ctx) && plugin.HasAll(ctx, "Super", "Gravity", "SpeedBooster")
}
