package parse

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mxkacsa/worldsync/ast"
	"github.com/mxkacsa/worldsync/games"
	"github.com/mxkacsa/worldsync/plugin"
)

func newLoader(opts ...LoaderOption) *Loader {
	reg := plugin.NewRegistry()
	games.Register(reg)
	reg.Seal()
	return NewLoader(reg, opts...)
}

const caveWorld = `{
  "game": "alttp",
  "regions": [
    {
      "name": "Menu",
      "exits": [{"name": "Menu -> Cave", "connected_region": "Cave", "access_rule": {"type": "helper", "name": "can_lift_rocks"}}]
    },
    {
      "name": "Cave",
      "locations": [{"name": "Cave Chest", "id": 7, "item": {"name": "Lamp"}}]
    }
  ]
}`

func TestLoader_Load(t *testing.T) {
	d, err := newLoader().Load([]byte(caveWorld), "cave.json")
	require.NoError(t, err)

	assert.Equal(t, "alttp", d.Game)
	assert.Equal(t, []string{"Menu"}, d.StartRegions())
	assert.Equal(t, 2, d.NumRegions())

	chest, ok := d.Location("Cave Chest")
	require.True(t, ok)
	assert.Equal(t, "Cave", chest.Region)
	assert.False(t, chest.IsEvent())
}

func TestLoader_StartRegionsOption(t *testing.T) {
	d, err := newLoader(WithStartRegions("Cave")).Load([]byte(caveWorld), "cave.json")
	require.NoError(t, err)
	assert.Equal(t, []string{"Cave"}, d.StartRegions())
}

func TestLoader_DecodeError(t *testing.T) {
	_, err := newLoader().Load([]byte(`{"game": "alttp", "regions": [`), "broken.json")

	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "broken.json", perr.Source)
	assert.NotEmpty(t, perr.Message)
}

func TestLoader_AggregatesValidationErrors(t *testing.T) {
	src := `{
  "game": "alttp",
  "regions": [
    {
      "name": "Menu",
      "exits": [{"name": "Menu -> Sky", "connected_region": "Sky"}],
      "locations": [{"name": "Ledge", "id": 1, "access_rule": {"type": "region_check", "region": "Sky"}}]
    }
  ]
}`
	_, err := newLoader().Load([]byte(src), "bad.json")
	assert.ElementsMatch(t, []string{
		"regions[0].exits[0].connected_region",
		"regions[0].locations[0].access_rule",
	}, paths(t, err))
}

func TestLoader_StrictHelpers(t *testing.T) {
	src := `{
  "game": "alttp",
  "regions": [
    {"name": "Menu", "locations": [{"name": "Ledge", "id": 1, "access_rule": {"type": "helper", "name": "can_teleport"}}]}
  ]
}`
	_, err := newLoader().Load([]byte(src), "lenient.json")
	require.NoError(t, err, "unknown helpers only warn by default")

	_, err = newLoader(WithStrictHelpers(true)).Load([]byte(src), "strict.json")
	assert.Equal(t, []string{"regions[0].locations[0].access_rule"}, paths(t, err))
}

func TestLoader_DialectStrings(t *testing.T) {
	src := `{
  "game": "oot",
  "items": [{"name": "Bow"}, {"name": "Hookshot"}],
  "settings": {"open_forest": "closed"},
  "regions": [
    {
      "name": "Menu",
      "exits": [{"name": "Menu -> Forest", "connected_region": "Forest", "access_rule": "open_forest != 'closed' or can_leave_forest"}],
      "locations": [
        {"name": "Target", "id": 1, "access_rule": "can_use(Hookshot) and Bow"},
        {"name": "Chest", "id": 2, "access_rule": {"type": "constant", "value": true}}
      ]
    },
    {"name": "Forest"}
  ]
}`
	d, err := newLoader(WithStrictHelpers(true)).Load([]byte(src), "oot.json")
	require.NoError(t, err)

	target, ok := d.Location("Target")
	require.True(t, ok)
	want := ast.And(ast.Helper("can_use", "Hookshot"), ast.Item("Bow"))
	if diff := cmp.Diff(want, target.Rule, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("Target rule mismatch (-want +got):\n%s", diff)
	}

	menu, ok := d.Region("Menu")
	require.True(t, ok)
	require.Len(t, menu.Exits, 1)
	assert.Equal(t, ast.TypeOr, menu.Exits[0].Rule.Type)
}

func TestLoader_DialectErrors(t *testing.T) {
	noDialect := `{
  "game": "alttp",
  "regions": [{"name": "Menu", "locations": [{"name": "Ledge", "id": 1, "access_rule": "Hookshot"}]}]
}`
	_, err := newLoader().Load([]byte(noDialect), "alttp.json")
	assert.Equal(t, []string{"regions[0].locations[0].access_rule"}, paths(t, err))
	assert.Contains(t, err.Error(), "declares no rule dialect")

	broken := `{
  "game": "oot",
  "regions": [{"name": "Menu", "locations": [{"name": "Ledge", "id": 1, "access_rule": "is_adult and"}]}]
}`
	_, err = newLoader().Load([]byte(broken), "oot.json")
	var perr *ParseError
	assert.ErrorAs(t, err, &perr)
}

func TestLoader_LoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cave.json")
	require.NoError(t, os.WriteFile(path, []byte(caveWorld), 0o644))

	d, err := newLoader().LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "alttp", d.Game)

	_, err = newLoader().LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.json")
}
