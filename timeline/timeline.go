package timeline

import (
	"sort"

	"github.com/jsphweid/voicecut/model"
)

// NoteSpan is one sounding note as read from a file, before chordify.
type NoteSpan struct {
	Pitch model.Pitch
	Start model.Ticks
	End   model.Ticks
}

type edge struct {
	at    model.Ticks
	off   bool
	pitch model.Pitch
}

func snapshot(pressed map[model.Pitch]int) []model.Pitch {
	pitches := make([]model.Pitch, 0, len(pressed))
	for p := range pressed {
		pitches = append(pitches, p)
	}
	sort.Slice(pitches, func(i, j int) bool {
		if pitches[i].MIDI() != pitches[j].MIDI() {
			return pitches[i].MIDI() < pitches[j].MIDI()
		}
		return pitches[i].Name() < pitches[j].Name()
	})
	return pitches
}

// Build collapses overlapping notes into one timeline. Every time a note
// starts or stops a new event begins: a chord of the notes sounding over it
// (lowest first, unisons merged) or a rest when nothing sounds. Silence
// before the first note is a rest from 0.
func Build(spans []NoteSpan) []model.Event {
	edges := make([]edge, 0, 2*len(spans))
	for _, s := range spans {
		if s.End <= s.Start {
			continue
		}
		edges = append(edges, edge{at: s.Start, pitch: s.Pitch})
		edges = append(edges, edge{at: s.End, off: true, pitch: s.Pitch})
	}

	// prioritize smaller offset values then note off
	sort.SliceStable(edges, func(i, j int) bool {
		if edges[i].at != edges[j].at {
			return edges[i].at < edges[j].at
		}
		return edges[i].off && !edges[j].off
	})

	var events []model.Event
	pressed := make(map[model.Pitch]int)
	var cursor model.Ticks
	for i := 0; i < len(edges); {
		at := edges[i].at
		if at > cursor {
			if len(pressed) == 0 {
				events = append(events, model.NewRest(cursor, at-cursor))
			} else {
				events = append(events, model.NewChord(cursor, at-cursor, snapshot(pressed)...))
			}
		}
		for ; i < len(edges) && edges[i].at == at; i++ {
			e := edges[i]
			if e.off {
				pressed[e.pitch]--
				if pressed[e.pitch] <= 0 {
					delete(pressed, e.pitch)
				}
			} else {
				pressed[e.pitch]++
			}
		}
		cursor = at
	}
	return events
}
