package subtitle

import "github.com/dmarier/shortreel/pkg/types"

func init() {
	Register(StyleSpec{
		Name:            types.StyleUltraVibrant,
		Font:            "DejaVu Sans",
		FontSize:        75,
		Bold:            true,
		FillColor:       "#FFFF00",
		OutlineColor:    "#000000",
		OutlineWidth:    8,
		MaxCharsPerLine: 28,
		Anchor:          types.AnchorCenter,
		Animation:       types.AnimationPopIn,
	})

	Register(StyleSpec{
		Name:            types.StyleNeonPop,
		Font:            "DejaVu Sans",
		FontSize:        78,
		Bold:            true,
		FillColor:       "#00FFFF",
		OutlineColor:    "#FF00FF",
		OutlineWidth:    7,
		MaxCharsPerLine: 26,
		Anchor:          types.AnchorLowerThird,
		Animation:       types.AnimationPopIn,
	})

	Register(StyleSpec{
		Name:            types.StyleFireText,
		Font:            "DejaVu Sans",
		FontSize:        80,
		Bold:            true,
		FillColor:       "#FF4500",
		OutlineColor:    "#FFFFFF",
		OutlineWidth:    9,
		MaxCharsPerLine: 25,
		Anchor:          types.AnchorLowerThird,
		Animation:       types.AnimationNone,
	})
}
