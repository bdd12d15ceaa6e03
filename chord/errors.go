package chord

import (
	"fmt"

	"github.com/jsphweid/voicecut/model"
)

type InvalidBudgetError struct {
	MaxVoices int
}

func (e *InvalidBudgetError) Error() string {
	return fmt.Sprintf("invalid voice budget %d: must not be negative", e.MaxVoices)
}

// EmptyChordError means a chord event reached the reducer without notes,
// which a well-formed Score never contains.
type EmptyChordError struct {
	Offset model.Ticks
}

func (e *EmptyChordError) Error() string {
	return fmt.Sprintf("chord at offset %d has no notes", e.Offset)
}

type MalformedEventError struct {
	Kind   model.EventKind
	Offset model.Ticks
}

func (e *MalformedEventError) Error() string {
	return fmt.Sprintf("event at offset %d has unsupported kind %v", e.Offset, e.Kind)
}

// InvalidPitchError reports a note whose step is not a letter A to G or
// whose alteration is beyond a double sharp or flat.
type InvalidPitchError struct {
	Pitch  model.Pitch
	Offset model.Ticks
}

func (e *InvalidPitchError) Error() string {
	return fmt.Sprintf("event at offset %d has invalid pitch step %q alter %d", e.Offset, e.Pitch.Step, e.Pitch.Alter)
}

// CheckPitches returns an *InvalidPitchError for the first invalid note of e.
func CheckPitches(e model.Event) error {
	for _, n := range e.Notes {
		if !n.Pitch.Valid() {
			return &InvalidPitchError{Pitch: n.Pitch, Offset: e.Offset}
		}
	}
	return nil
}
