package plugin

// HasAny reports whether ctx holds at least one of items.
func HasAny(ctx Context, items ...string) bool {
	for _, it := range items {
		if ctx.Has(it) {
			return true
		}
	}
	return false
}

// HasAll reports whether ctx holds every one of items.
func HasAll(ctx Context, items ...string) bool {
	for _, it := range items {
		if !ctx.Has(it) {
			return false
		}
	}
	return true
}

// IntArg returns args[i] as an int, or def when absent.
func IntArg(args []any, i, def int) int {
	if i >= len(args) || args[i] == nil {
		return def
	}
	return Int(args[i])
}

// SettingIs reports whether setting key equals value.
func SettingIs(ctx Context, key string, value any) bool {
	v, ok := ctx.Setting(key)
	return ok && Equal(v, value)
}

// SettingBool reads a boolean-ish setting; absent settings are false.
func SettingBool(ctx Context, key string) bool {
	v, _ := ctx.Setting(key)
	return Bool(v)
}
