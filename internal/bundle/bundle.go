// Package bundle cross-references the save's inventory with Community
// Center bundle requirements. Definitions ship embedded with the
// binary; they are standard game data and never change at runtime.
package bundle

import (
	_ "embed"
	"sync"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

//go:embed bundles.yaml
var rawDefinitions []byte

// Item is one slot requirement inside a bundle. Quality is the game's
// scale: 0 normal, 1 silver, 2 gold, 4 iridium. The special ID "gold"
// marks a Vault bundle paid in money instead of items.
type Item struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Quantity int    `yaml:"quantity"`
	Quality  int    `yaml:"quality"`
}

// Bundle lists the items a Community Center bundle accepts and how
// many of them must be turned in. Some bundles accept any Required of
// their items; AllRequired bundles need every listed item.
type Bundle struct {
	Name        string `yaml:"name"`
	Required    int    `yaml:"required"`
	AllRequired bool   `yaml:"allRequired"`
	Items       []Item `yaml:"items"`
}

// Room groups bundles by Community Center room.
type Room struct {
	Name    string   `yaml:"name"`
	Bundles []Bundle `yaml:"bundles"`
}

var (
	loadOnce sync.Once
	loaded   []Room
	loadErr  error
)

// Definitions returns the embedded bundle catalog. The parse happens
// once; subsequent calls return the cached slice.
func Definitions() ([]Room, error) {
	loadOnce.Do(func() {
		var doc struct {
			Rooms []Room `yaml:"rooms"`
		}
		if err := yaml.Unmarshal(rawDefinitions, &doc); err != nil {
			loadErr = errors.Wrap(err, "parse bundle definitions")
			return
		}
		loaded = doc.Rooms
	})
	return loaded, loadErr
}
