package subtitle

import (
	"github.com/pkg/errors"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/dmarier/shortreel/pkg/types"
)

// ErrUnknownStyle marks a style name with no registered preset.
var ErrUnknownStyle = errors.New("unknown subtitle style")

// StyleSpec is a fully resolved bundle of subtitle visual options.
type StyleSpec struct {
	Name            types.StyleName
	Font            string
	FontSize        int
	Bold            bool
	FillColor       string // #RRGGBB
	OutlineColor    string // #RRGGBB
	OutlineWidth    int
	MaxCharsPerLine int
	Anchor          types.Anchor
	Animation       types.Animation
}

var styles = make(map[types.StyleName]StyleSpec)

// Register adds a style preset to the registry.
func Register(spec StyleSpec) {
	styles[spec.Name] = spec
}

// Resolve returns the preset for name. Resolution happens once per run, before
// any chunk is rendered.
func Resolve(name string) (StyleSpec, error) {
	spec, ok := styles[types.StyleName(name)]
	if !ok {
		return StyleSpec{}, errors.Wrap(ErrUnknownStyle, name)
	}
	return spec, nil
}

// Names returns the registered preset names in sorted order.
func Names() []string {
	names := make([]string, 0, len(styles))
	for _, name := range maps.Keys(styles) {
		names = append(names, string(name))
	}
	slices.Sort(names)
	return names
}
