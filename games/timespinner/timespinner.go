// Package timespinner provides Timespinner helpers.
package timespinner

import "github.com/mxkacsa/worldsync/plugin"

const Game = "timespinner"

var keycards = []string{"Security Keycard A", "Security Keycard B", "Security Keycard C", "Security Keycard D"}

// Plugin returns the timespinner helper table.
func Plugin() *plugin.Plugin {
	helpers := map[string]plugin.HelperFunc{
		"has_timestop":                    pred(hasTimestop),
		"has_doublejump":                  pred(hasDoubleJump),
		"has_forwarddash_doublejump":      pred(hasForwardDashDoubleJump),
		"has_fastjump_on_npc":             pred(hasFastJumpOnNPC),
		"has_multiple_small_jumps_of_npc": pred(hasMultipleSmallJumpsOfNPC),
		"has_upwarddash":                  pred(hasUpwardDash),
		"has_fire":                        pred(hasFire),
		"has_pink":                        pred(hasPink),
		"can_break_walls":                 pred(canBreakWalls),
		"can_kill_all_3_bosses":           pred(canKillAll3Bosses),
	}
	for i, card := range []string{"A", "B", "C", "D"} {
		helpers["has_keycard_"+card] = pred(keycard(i))
	}
	return &plugin.Plugin{Game: Game, Helpers: helpers}
}

func pred(fn func(plugin.Context) bool) plugin.HelperFunc {
	return func(ctx plugin.Context, _ []any) any { return fn(ctx) }
}

func hasTimestop(ctx plugin.Context) bool {
	return plugin.HasAny(ctx, "Timespinner Wheel", "Succubus Hairpin", "Lightwall", "Celestial Sash")
}

func hasDoubleJump(ctx plugin.Context) bool {
	return plugin.HasAny(ctx, "Succubus Hairpin", "Lightwall", "Celestial Sash")
}

func hasUpwardDash(ctx plugin.Context) bool {
	return plugin.HasAny(ctx, "Lightwall", "Celestial Sash")
}

func hasForwardDashDoubleJump(ctx plugin.Context) bool {
	return hasUpwardDash(ctx) || (ctx.Has("Talaria Attachment") && hasDoubleJump(ctx))
}

func hasFastJumpOnNPC(ctx plugin.Context) bool {
	return plugin.HasAll(ctx, "Timespinner Wheel", "Talaria Attachment")
}

func hasMultipleSmallJumpsOfNPC(ctx plugin.Context) bool {
	return ctx.Has("Timespinner Wheel") || hasDoubleJump(ctx)
}

func hasFire(ctx plugin.Context) bool {
	return plugin.HasAny(ctx, "Fire Orb", "Infernal Flames", "Pyro Ring", "Djinn Inferno")
}

func hasPink(ctx plugin.Context) bool {
	return plugin.HasAny(ctx, "Plasma Orb", "Plasma Geyser", "Royal Ring")
}

// keycard returns the check for keycard level i. Without the
// specific_keycards setting a higher keycard opens every lower door.
func keycard(i int) func(plugin.Context) bool {
	return func(ctx plugin.Context) bool {
		if plugin.SettingBool(ctx, "specific_keycards") {
			return ctx.Has(keycards[i])
		}
		return plugin.HasAny(ctx, keycards[i:]...)
	}
}

// canBreakWalls needs the Oculus Ring only when eye_spy is on.
func canBreakWalls(ctx plugin.Context) bool {
	if plugin.SettingBool(ctx, "eye_spy") {
		return ctx.Has("Oculus Ring")
	}
	return true
}

func canKillAll3Bosses(ctx plugin.Context) bool {
	return plugin.HasAll(ctx, "Killed Maw", "Killed Twins", "Killed Aelana")
}
