package chord

import (
	"sort"
	"strings"

	"github.com/jsphweid/voicecut/model"
)

// CreateChordKey names a set of notes independently of their order, lowest
// pitch first, e.g. "C4-E4-G4".
func CreateChordKey(notes []model.Note) string {
	sorted := make([]model.Note, len(notes))
	copy(sorted, notes)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Pitch.MIDI() < sorted[j].Pitch.MIDI()
	})
	keys := make([]string, len(sorted))
	for i, n := range sorted {
		keys[i] = n.String()
	}
	return strings.Join(keys, "-")
}

// Reduce cuts a chord down to at most maxVoices notes. It returns the reduced
// event and the dropped notes in chord order; together they account for
// every input note exactly once. A chord left with no notes becomes a rest.
// Rests and single notes come back unchanged.
//
// Budgets above one rank notes by pattern membership. A budget of one (or
// zero) keeps the most important harmonic role instead.
func (r *Ranker) Reduce(e model.Event, maxVoices int) (model.Event, []model.Note, error) {
	if maxVoices < 0 {
		return model.Event{}, nil, &InvalidBudgetError{MaxVoices: maxVoices}
	}

	switch e.Kind {
	case model.KindRest, model.KindNote:
		return e.Clone(), nil, nil
	case model.KindChord:
	default:
		return model.Event{}, nil, &MalformedEventError{Kind: e.Kind, Offset: e.Offset}
	}

	if len(e.Notes) == 0 {
		return model.Event{}, nil, &EmptyChordError{Offset: e.Offset}
	}
	if err := CheckPitches(e); err != nil {
		return model.Event{}, nil, err
	}

	var keep []int
	if maxVoices <= 1 {
		keep = rankByHarmony(e.Notes, maxVoices)
	} else {
		keep = r.rank(e.Notes, maxVoices)
	}

	kept := make([]bool, len(e.Notes))
	notes := make([]model.Note, 0, len(keep))
	for _, i := range keep {
		kept[i] = true
		notes = append(notes, e.Notes[i])
	}
	var dropped []model.Note
	for i, n := range e.Notes {
		if !kept[i] {
			dropped = append(dropped, n)
		}
	}

	if len(notes) == 0 {
		return model.NewRest(e.Offset, e.Duration), dropped, nil
	}
	reduced := model.Event{
		Kind:     model.KindChord,
		Offset:   e.Offset,
		Duration: e.Duration,
		Notes:    notes,
	}
	return reduced, dropped, nil
}

// Reduce is the one-off form of (*Ranker).Reduce.
func Reduce(e model.Event, maxVoices int, table model.PatternTable) (model.Event, []model.Note, error) {
	return NewRanker(table).Reduce(e, maxVoices)
}
