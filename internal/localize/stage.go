package localize

import (
	"fmt"
	"slices"
)

// Stage is the progress of one run.
type Stage int

const (
	Idle Stage = iota
	Uploaded
	Extracted
	Translating
	Translated
	Rendered
)

func (s Stage) String() string {
	switch s {
	case Idle:
		return "idle"
	case Uploaded:
		return "uploaded"
	case Extracted:
		return "extracted"
	case Translating:
		return "translating"
	case Translated:
		return "translated"
	case Rendered:
		return "rendered"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

var transitions = map[Stage][]Stage{
	Idle:        {Uploaded},
	Uploaded:    {Extracted},
	Extracted:   {Translating, Rendered},
	Translating: {Translated},
	Translated:  {Rendered},
}

// CanAdvance reports whether a run in stage from may move to to.
func CanAdvance(from, to Stage) bool {
	return slices.Contains(transitions[from], to)
}
