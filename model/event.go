package model

import "fmt"

type EventKind uint8

const (
	KindInvalid EventKind = iota
	KindChord
	KindRest
	KindNote
)

var kindNames = map[EventKind]string{
	KindChord: "chord",
	KindRest:  "rest",
	KindNote:  "note",
}

func (k EventKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("invalid(%d)", uint8(k))
}

func (k EventKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText never fails: unknown names decode to KindInvalid so the
// reducer can report the offending event.
func (k *EventKind) UnmarshalText(text []byte) error {
	for kind, name := range kindNames {
		if name == string(text) {
			*k = kind
			return nil
		}
	}
	*k = KindInvalid
	return nil
}

// Event is one entry of a Score timeline. Kind is fixed at construction;
// a chord holds at least one note, a note event exactly one, a rest none.
// Marked flags events of a dropped-notes timeline.
type Event struct {
	Kind     EventKind `json:"kind"`
	Offset   Ticks     `json:"offset"`
	Duration Ticks     `json:"duration"`
	Notes    []Note    `json:"notes,omitempty"`
	Marked   bool      `json:"marked,omitempty"`
}

func NewChord(offset, duration Ticks, pitches ...Pitch) Event {
	notes := make([]Note, len(pitches))
	for i, p := range pitches {
		notes[i] = Note{Pitch: p, Duration: duration}
	}
	return Event{Kind: KindChord, Offset: offset, Duration: duration, Notes: notes}
}

func NewRest(offset, duration Ticks) Event {
	return Event{Kind: KindRest, Offset: offset, Duration: duration}
}

func NewNote(offset Ticks, n Note) Event {
	return Event{Kind: KindNote, Offset: offset, Duration: n.Duration, Notes: []Note{n}}
}

func (e Event) IsChord() bool { return e.Kind == KindChord }
func (e Event) IsRest() bool  { return e.Kind == KindRest }

func (e Event) End() Ticks {
	return e.Offset + e.Duration
}

// Clone returns a copy that shares no backing array with e.
func (e Event) Clone() Event {
	if e.Notes != nil {
		notes := make([]Note, len(e.Notes))
		copy(notes, e.Notes)
		e.Notes = notes
	}
	return e
}

func (e Event) String() string {
	switch e.Kind {
	case KindChord, KindNote:
		return fmt.Sprintf("%v@%d+%d%v", e.Kind, e.Offset, e.Duration, e.Notes)
	}
	return fmt.Sprintf("%v@%d+%d", e.Kind, e.Offset, e.Duration)
}
