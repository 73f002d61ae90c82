package plugin

import "github.com/mxkacsa/worldsync/world"

// builtinHelpers are available to every game after its own helpers and
// prefixes have been tried.
var builtinHelpers = map[string]HelperFunc{
	"has":                  helperHas,
	"count":                helperCount,
	"has_all":              helperHasAll,
	"has_any":              helperHasAny,
	"has_group":            helperHasGroup,
	"can_acquire":          CanAcquire(nil),
	"CanAcquire":           CanAcquire(nil),
	"can_acquire_at_least": CanAcquireAtLeast(nil),
	"CanAcquireAtLeast":    CanAcquireAtLeast(nil),
	"location_item_name":   helperLocationItemName,
	"location_item_is":     helperLocationItemIs,
	"int":                  helperInt,
	"min":                  helperMin,
	"max":                  helperMax,
	"setting":              helperSetting,
	"setting_is":           helperSettingIs,
}

// BuiltinNames returns the names of the built-in helpers.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtinHelpers))
	for name := range builtinHelpers {
		names = append(names, name)
	}
	return names
}

// has(item) or has(item, n)
func helperHas(ctx Context, args []any) any {
	item := String(Arg(args, 0))
	if len(args) > 1 {
		return ctx.Count(item) >= Int(args[1])
	}
	return ctx.Has(item)
}

func helperCount(ctx Context, args []any) any {
	return ctx.Count(String(Arg(args, 0)))
}

func helperHasAll(ctx Context, args []any) any {
	return HasAll(ctx, Strings(args)...)
}

func helperHasAny(ctx Context, args []any) any {
	return HasAny(ctx, Strings(args)...)
}

// has_group(group) or has_group(group, n): total count across the group's items.
func helperHasGroup(ctx Context, args []any) any {
	need := 1
	if len(args) > 1 {
		need = Int(args[1])
	}
	total := 0
	for _, item := range ctx.World().ItemsInGroup(String(Arg(args, 0))) {
		total += ctx.Count(item)
		if total >= need {
			return true
		}
	}
	return total >= need
}

func helperLocationItemName(ctx Context, args []any) any {
	name, _ := ctx.LocationItem(String(Arg(args, 0)))
	return name
}

func helperLocationItemIs(ctx Context, args []any) any {
	name, ok := ctx.LocationItem(String(Arg(args, 0)))
	return ok && name == String(Arg(args, 1))
}

func helperInt(_ Context, args []any) any {
	return Int(Arg(args, 0))
}

func helperMin(_ Context, args []any) any {
	if len(args) == 0 {
		return 0
	}
	m := Int(args[0])
	for _, a := range args[1:] {
		if n := Int(a); n < m {
			m = n
		}
	}
	return m
}

func helperMax(_ Context, args []any) any {
	if len(args) == 0 {
		return 0
	}
	m := Int(args[0])
	for _, a := range args[1:] {
		if n := Int(a); n > m {
			m = n
		}
	}
	return m
}

func helperSetting(ctx Context, args []any) any {
	v, _ := ctx.Setting(String(Arg(args, 0)))
	return v
}

func helperSettingIs(ctx Context, args []any) any {
	v, ok := ctx.Setting(String(Arg(args, 0)))
	return ok && Equal(v, Arg(args, 1))
}

// =============================================================================
// Reward aggregation
// =============================================================================

// CanAcquire builds the can_acquire(reward) helper. defaultBoss names the
// boss location of regions that do not declare one.
func CanAcquire(defaultBoss map[string]string) HelperFunc {
	return func(ctx Context, args []any) any {
		reward, _ := AcquireArgs(args)
		return AcquiredRewards(ctx, reward, defaultBoss) > 0
	}
}

// CanAcquireAtLeast builds the can_acquire_at_least helper. It takes the
// reward and the amount in either order.
func CanAcquireAtLeast(defaultBoss map[string]string) HelperFunc {
	return func(ctx Context, args []any) any {
		reward, amount := AcquireArgs(args)
		return AcquiredRewards(ctx, reward, defaultBoss) >= amount
	}
}

// AcquireArgs splits reward helper arguments into the reward and the amount.
// A numeric first argument is the amount, as in CanAcquireAtLeast(7,
// "Crystal"); otherwise the reward comes first. A missing amount is 1.
func AcquireArgs(args []any) (string, int) {
	first, second := Arg(args, 0), Arg(args, 1)
	reward, amount := first, second
	if isNumeric(first) {
		reward, amount = second, first
	}
	if amount == nil {
		return String(reward), 1
	}
	return String(reward), Int(amount)
}

func isNumeric(v any) bool {
	switch v.(type) {
	case int, int64, float64:
		return true
	}
	return false
}

// AcquiredRewards counts regions granting reward whose boss location is
// accessible. A region matches when its reward equals reward or its reward
// item belongs to the item group named reward. A region without a boss
// location takes one from defaultBoss; with neither, reaching the region
// counts.
func AcquiredRewards(ctx Context, reward string, defaultBoss map[string]string) int {
	if reward == "" {
		return 0
	}
	d := ctx.World()
	n := 0
	for _, region := range d.Regions() {
		if region.Reward == "" || !RewardMatches(d, region.Reward, reward) {
			continue
		}
		boss := region.BossLocation
		if boss == "" {
			boss = defaultBoss[region.Name]
		}
		if boss == "" {
			if ctx.IsRegionReachable(region.Name) {
				n++
			}
			continue
		}
		if ctx.IsLocationAccessible(boss) {
			n++
		}
	}
	return n
}

// RewardMatches reports whether a region's reward satisfies the wanted reward.
func RewardMatches(d *world.Data, regionReward, want string) bool {
	if regionReward == want {
		return true
	}
	item, ok := d.Item(regionReward)
	if !ok {
		return false
	}
	for _, g := range item.Groups {
		if g == want {
			return true
		}
	}
	return false
}
