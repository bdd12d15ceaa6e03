package model

type Tempo struct {
	BPM    float64 `json:"bpm"`
	Offset Ticks   `json:"offset"`
}

type TimeSignature struct {
	Numerator   uint8 `json:"numerator"`
	Denominator uint8 `json:"denominator"`
	Offset      Ticks `json:"offset"`
}

// MeasureLength is the length of one bar in ticks at the given resolution.
func (ts TimeSignature) MeasureLength(resolution Ticks) Ticks {
	if ts.Numerator == 0 || ts.Denominator == 0 {
		return 4 * resolution
	}
	return Ticks(ts.Numerator) * 4 * resolution / Ticks(ts.Denominator)
}

type Dynamic struct {
	Value  string `json:"value"`
	Offset Ticks  `json:"offset"`
}

type Score struct {
	Title         string         `json:"title,omitempty"`
	Resolution    Ticks          `json:"resolution"`
	Tempo         *Tempo         `json:"tempo,omitempty"`
	TimeSignature *TimeSignature `json:"time_signature,omitempty"`
	Dynamics      []Dynamic      `json:"dynamics,omitempty"`
	Events        []Event        `json:"events"`
}

// WithEvents returns a Score carrying a copy of s's metadata and the given
// events. Dynamics are not copied.
func (s Score) WithEvents(events []Event) Score {
	res := Score{
		Title:      s.Title,
		Resolution: s.Resolution,
		Events:     events,
	}
	if s.Tempo != nil {
		t := *s.Tempo
		res.Tempo = &t
	}
	if s.TimeSignature != nil {
		ts := *s.TimeSignature
		res.TimeSignature = &ts
	}
	return res
}

// Beats converts ticks to quarter-note beats.
func (s Score) Beats(t Ticks) float64 {
	if s.Resolution == 0 {
		return 0
	}
	return float64(t) / float64(s.Resolution)
}

func (s Score) End() Ticks {
	var end Ticks
	for _, e := range s.Events {
		if e.End() > end {
			end = e.End()
		}
	}
	return end
}

type ReductionResult struct {
	Reduced Score `json:"reduced"`
	Dropped Score `json:"dropped"`
}

// PatternTable maps a pattern key (note names joined by "-") to the number
// of times the pattern occurs. Only repeated patterns are stored.
type PatternTable = map[string]int

var dynamicMarks = map[string]bool{
	"pppp": true, "ppp": true, "pp": true, "p": true, "mp": true,
	"mf": true, "f": true, "ff": true, "fff": true, "ffff": true,
	"sf": true, "sfz": true, "sffz": true, "fp": true, "rf": true, "rfz": true, "fz": true,
}

// IsDynamic reports whether s is a dynamics marking such as "mf" or "sfz".
func IsDynamic(s string) bool {
	return dynamicMarks[s]
}
