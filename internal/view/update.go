package view

import "time"

// Op is the kind of a [Mutation].
type Op int

const (
	OpSetText Op = iota
	OpAppend
	OpClear
	OpShow
	OpHide
	OpFlash
)

func (o Op) String() string {
	switch o {
	case OpSetText:
		return "set_text"
	case OpAppend:
		return "append"
	case OpClear:
		return "clear"
	case OpShow:
		return "show"
	case OpHide:
		return "hide"
	case OpFlash:
		return "flash"
	default:
		return ""
	}
}

// Mutation changes one region.
type Mutation struct {
	Region string
	Op     Op
	Text   string
}

// ViewUpdate is an ordered list of mutations.
type ViewUpdate []Mutation

// Then concatenates updates.
func (u ViewUpdate) Then(next ...ViewUpdate) ViewUpdate {
	out := append(ViewUpdate{}, u...)
	for _, n := range next {
		out = append(out, n...)
	}
	return out
}

// Regions returns the distinct region names touched, in first-touch order.
func (u ViewUpdate) Regions() []string {
	seen := make(map[string]bool, len(u))
	var names []string
	for _, m := range u {
		if !seen[m.Region] {
			seen[m.Region] = true
			names = append(names, m.Region)
		}
	}
	return names
}

// SetText replaces the text of a region without changing its visibility.
func SetText(region, text string) ViewUpdate {
	return ViewUpdate{{Region: region, Op: OpSetText, Text: text}}
}

// Append adds text after the current content, like injecting an HTML fragment.
func Append(region, text string) ViewUpdate {
	return ViewUpdate{{Region: region, Op: OpAppend, Text: text}}
}

// Clear empties regions.
func Clear(regions ...string) ViewUpdate {
	u := make(ViewUpdate, 0, len(regions))
	for _, r := range regions {
		u = append(u, Mutation{Region: r, Op: OpClear})
	}
	return u
}

// Show makes regions visible.
func Show(regions ...string) ViewUpdate {
	u := make(ViewUpdate, 0, len(regions))
	for _, r := range regions {
		u = append(u, Mutation{Region: r, Op: OpShow})
	}
	return u
}

// Hide makes regions invisible; their text is kept.
func Hide(regions ...string) ViewUpdate {
	u := make(ViewUpdate, 0, len(regions))
	for _, r := range regions {
		u = append(u, Mutation{Region: r, Op: OpHide})
	}
	return u
}

// Flash shows text in region and lets it fade out after the registry's flash delay.
func Flash(region, text string) ViewUpdate {
	return ViewUpdate{{Region: region, Op: OpFlash, Text: text}}
}

// Timing of transient messages.
const (
	DefaultFlashDelay = 5000 * time.Millisecond
	// DefaultFade matches a "slow" fade of the web front-end.
	DefaultFade = 600 * time.Millisecond
)
