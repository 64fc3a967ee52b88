package subtitle

import (
	"fmt"
	"strings"

	"github.com/dmarier/shortreel/internal/timeline"
	"github.com/dmarier/shortreel/pkg/types"
)

// Geometry is the fixed output frame the overlay is positioned against.
type Geometry struct {
	Width  int
	Height int
}

// popInMillis is how long the pop-in scale ramp runs at the start of a
// chunk's window. It never extends the window itself.
const popInMillis = 120

// RenderOverlay renders the timed subtitle chunks as an ASS document styled by
// spec. The output is deterministic: identical inputs yield identical bytes.
func RenderOverlay(chunks []timeline.Chunk, spec StyleSpec, geo Geometry) string {
	var b strings.Builder

	writeHeader(&b, spec, geo)

	b.WriteString("\n[Events]\n")
	b.WriteString("Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")
	for _, chunk := range chunks {
		text := sanitize(chunk.Text)
		if text == "" {
			continue
		}
		b.WriteString("Dialogue: 0,")
		b.WriteString(assTime(chunk.Start))
		b.WriteString(",")
		b.WriteString(assTime(chunk.End))
		b.WriteString(",Reel,,0,0,0,,")
		b.WriteString(animationTag(spec.Animation, chunk))
		b.WriteString(wrap(text, spec.MaxCharsPerLine))
		b.WriteString("\n")
	}

	return b.String()
}

func writeHeader(b *strings.Builder, spec StyleSpec, geo Geometry) {
	fmt.Fprintf(b, "[Script Info]\nScriptType: v4.00+\nPlayResX: %d\nPlayResY: %d\nScaledBorderAndShadow: yes\n", geo.Width, geo.Height)

	bold := 0
	if spec.Bold {
		bold = -1
	}

	b.WriteString("\n[V4+ Styles]\n")
	b.WriteString("Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding\n")
	fmt.Fprintf(b, "Style: Reel, %s, %d, %s, %s, %s, &H64000000, %d, 0, 0, 0, 100, 100, 0, 0, 1, %d, 2, %d, %d, %d, %d, 1\n",
		spec.Font,
		spec.FontSize,
		assColor(spec.FillColor),
		assColor(spec.FillColor),
		assColor(spec.OutlineColor),
		bold,
		spec.OutlineWidth,
		alignment(spec.Anchor),
		geo.Width/14,
		geo.Width/14,
		marginV(spec.Anchor, geo),
	)
}

// alignment maps an anchor to the ASS numpad alignment code.
func alignment(anchor types.Anchor) int {
	if anchor == types.AnchorCenter {
		return 5
	}
	return 2
}

// marginV keeps lower-third text clear of platform UI at the frame bottom.
func marginV(anchor types.Anchor, geo Geometry) int {
	if anchor == types.AnchorCenter {
		return 0
	}
	return geo.Height / 5
}

func animationTag(anim types.Animation, chunk timeline.Chunk) string {
	if anim != types.AnimationPopIn {
		return ""
	}
	ramp := popInMillis
	if window := int(chunk.Duration() * 1000); window < ramp {
		ramp = window
	}
	return fmt.Sprintf(`{\fscx30\fscy30\t(0,%d,\fscx100\fscy100)}`, ramp)
}

// wrap breaks text into lines of at most maxChars characters without breaking
// words. Words longer than the budget stay on their own line.
func wrap(text string, maxChars int) string {
	if maxChars <= 0 {
		return text
	}

	var lines []string
	var current string
	for _, word := range strings.Fields(text) {
		switch {
		case current == "":
			current = word
		case len(current)+1+len(word) <= maxChars:
			current += " " + word
		default:
			lines = append(lines, current)
			current = word
		}
	}
	if current != "" {
		lines = append(lines, current)
	}

	return strings.Join(lines, `\N`)
}

// assColor converts #RRGGBB to the ASS &HAABBGGRR form.
func assColor(hex string) string {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return "&H00FFFFFF"
	}
	rr, gg, bb := hex[0:2], hex[2:4], hex[4:6]
	return strings.ToUpper("&H00" + bb + gg + rr)
}

func assTime(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	centis := int(seconds*100 + 0.5)
	h := centis / 360000
	centis -= h * 360000
	m := centis / 6000
	centis -= m * 6000
	s := centis / 100
	cs := centis % 100
	return fmt.Sprintf("%d:%02d:%02d.%02d", h, m, s, cs)
}

func sanitize(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "{", "(")
	s = strings.ReplaceAll(s, "}", ")")
	return strings.TrimSpace(s)
}
