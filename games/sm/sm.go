// Package sm provides Super Metroid helpers under the sm_ prefix.
//
// The "logic" setting selects casual (default) or tournament difficulty;
// tournament logic admits techniques such as infinite bomb jumps and
// tighter hell runs.
package sm

import "github.com/mxkacsa/worldsync/plugin"

const (
	Game   = "sm"
	Prefix = "sm_"

	LogicCasual     = "casual"
	LogicTournament = "tournament"
)

// Plugin returns the sm helper table.
func Plugin() *plugin.Plugin {
	helpers := map[string]plugin.HelperFunc{
		"can_morph":              pred(canMorph),
		"can_use_bombs":          pred(canUseBombs),
		"can_use_power_bombs":    pred(canUsePowerBombs),
		"can_pass_bomb_passages": pred(canPassBombPassages),
		"can_destroy_bomb_walls": pred(canDestroyBombWalls),
		"can_ibj":                pred(canIbj),
		"can_fly":                pred(canFly),
		"can_hell_run":           pred(canHellRun),
		"heat_proof":             pred(func(ctx plugin.Context) bool { return ctx.Has("Varia Suit") }),
		"can_open_red_doors":     pred(canOpenRedDoors),
		"can_open_green_doors":   pred(func(ctx plugin.Context) bool { return ctx.Has("Super Missile") }),
		"can_open_yellow_doors":  pred(canUsePowerBombs),
		"can_access_lower_norfair": pred(func(ctx plugin.Context) bool {
			return canHellRun(ctx) && canUsePowerBombs(ctx) && (ctx.Has("Gravity Suit") || tournament(ctx))
		}),
		"energy_reserves": func(ctx plugin.Context, args []any) any {
			return energy(ctx) >= plugin.IntArg(args, 0, 1)
		},
		"is_tournament": pred(tournament),
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

func tournament(ctx plugin.Context) bool { return plugin.SettingIs(ctx, "logic", LogicTournament) }

func canMorph(ctx plugin.Context) bool { return ctx.Has("Morph Ball") }

func canUseBombs(ctx plugin.Context) bool { return canMorph(ctx) && ctx.Has("Bomb") }

func canUsePowerBombs(ctx plugin.Context) bool { return canMorph(ctx) && ctx.Has("Power Bomb") }

func canPassBombPassages(ctx plugin.Context) bool { return canUseBombs(ctx) || canUsePowerBombs(ctx) }

func canDestroyBombWalls(ctx plugin.Context) bool {
	return canPassBombPassages(ctx) || ctx.Has("Screw Attack")
}

func canIbj(ctx plugin.Context) bool { return tournament(ctx) && canUseBombs(ctx) }

func canFly(ctx plugin.Context) bool { return ctx.Has("Space Jump") || canIbj(ctx) }

func canOpenRedDoors(ctx plugin.Context) bool { return plugin.HasAny(ctx, "Missile", "Super Missile") }

func energy(ctx plugin.Context) int { return ctx.Count("Energy Tank") + ctx.Count("Reserve Tank") }

// canHellRun needs the Varia Suit, or enough tanks: five on casual logic,
// three on tournament.
func canHellRun(ctx plugin.Context) bool {
	if ctx.Has("Varia Suit") {
		return true
	}
	if tournament(ctx) {
		return energy(ctx) >= 3
	}
	return energy(ctx) >= 5
}
