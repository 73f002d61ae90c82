// Package games registers the built-in game-logic plugins.
package games

import (
	"github.com/mxkacsa/worldsync/games/alttp"
	"github.com/mxkacsa/worldsync/games/oot"
	"github.com/mxkacsa/worldsync/games/sc2"
	"github.com/mxkacsa/worldsync/games/sm"
	"github.com/mxkacsa/worldsync/games/smz3"
	"github.com/mxkacsa/worldsync/games/timespinner"
	"github.com/mxkacsa/worldsync/plugin"
)

// Plugins returns a fresh plugin for every built-in game.
func Plugins() []*plugin.Plugin {
	return []*plugin.Plugin{
		alttp.Plugin(),
		smz3.Plugin(),
		sc2.Plugin(),
		oot.Plugin(),
		sm.Plugin(),
		timespinner.Plugin(),
	}
}

// Register adds every built-in game to reg. It panics when a game is
// already registered or reg is sealed; call it once at startup.
func Register(reg *plugin.Registry) {
	for _, p := range Plugins() {
		reg.MustRegister(p)
	}
}
