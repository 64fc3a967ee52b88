package types

// StyleName identifies a subtitle style preset.
type StyleName string

const (
	StyleUltraVibrant StyleName = "ultra_vibrant"
	StyleNeonPop      StyleName = "neon_pop"
	StyleFireText     StyleName = "fire_text"
)

// Anchor identifies where subtitle text sits inside the output frame.
type Anchor string

const (
	AnchorCenter     Anchor = "center"
	AnchorLowerThird Anchor = "lower-third"
)

// Animation identifies the intra-chunk transition applied to subtitle text.
type Animation string

const (
	AnimationNone  Animation = "none"
	AnimationPopIn Animation = "pop-in"
)
