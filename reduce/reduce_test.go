package reduce

import (
	"errors"
	"math"
	"math/rand"
	"sync/atomic"
	"testing"

	"github.com/jsphweid/voicecut/model"
	"github.com/jsphweid/voicecut/pattern"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func p(s string) model.Pitch {
	return model.MustParsePitch(s)
}

func TestRestThenTriadToOneVoice(t *testing.T) {
	s := model.Score{
		Resolution: 1,
		Events: []model.Event{
			model.NewRest(0, 1),
			model.NewChord(1, 1, p("C4"), p("E4"), p("G4")),
		},
	}
	res, err := Score(s, Options{MaxVoices: 1})
	require.NoError(t, err)

	assert := assert.New(t)
	assert.Equal([]model.Event{
		model.NewRest(0, 1),
		model.NewChord(1, 1, p("E4")),
	}, res.Reduced.Events)

	marked := model.NewChord(1, 1, p("C4"), p("G4"))
	marked.Marked = true
	assert.Equal([]model.Event{model.NewRest(0, 1), marked}, res.Dropped.Events)
}

func TestMetadataIsCarriedToBothTimelines(t *testing.T) {
	s := model.Score{
		Title:         "Etude",
		Resolution:    480,
		Tempo:         &model.Tempo{BPM: 96, Offset: 0},
		TimeSignature: &model.TimeSignature{Numerator: 3, Denominator: 4},
		Dynamics:      []model.Dynamic{{Value: "p", Offset: 0}, {Value: "ff", Offset: 960}},
		Events: []model.Event{
			model.NewChord(0, 480, p("C4"), p("E4"), p("G4"), p("C5")),
			model.NewChord(480, 480, p("D4"), p("F4"), p("A4")),
		},
	}
	res, err := Score(s, Options{MaxVoices: 2})
	require.NoError(t, err)

	for _, out := range []model.Score{res.Reduced, res.Dropped} {
		assert.Equal(t, s.Title, out.Title)
		assert.Equal(t, s.Resolution, out.Resolution)
		assert.Equal(t, *s.Tempo, *out.Tempo)
		assert.Equal(t, *s.TimeSignature, *out.TimeSignature)
		assert.Equal(t, s.Dynamics, out.Dynamics)
		assert.NotSame(t, s.Tempo, out.Tempo)
	}
}

func TestNothingDroppedCopiesOriginal(t *testing.T) {
	c := model.NewChord(0, 2, p("C4"), p("G4"))
	res, err := Score(model.Score{Events: []model.Event{c}}, Options{MaxVoices: 3})
	require.NoError(t, err)
	assert.Equal(t, c, res.Reduced.Events[0])
	assert.Equal(t, c, res.Dropped.Events[0])
	assert.False(t, res.Dropped.Events[0].Marked)
}

func TestZeroVoicesLeavesRests(t *testing.T) {
	c := model.NewChord(4, 2, p("C4"), p("G4"))
	res, err := Score(model.Score{Events: []model.Event{c}}, Options{MaxVoices: 0})
	require.NoError(t, err)
	assert.Equal(t, model.NewRest(4, 2), res.Reduced.Events[0])
	assert.True(t, res.Dropped.Events[0].Marked)
	assert.Len(t, res.Dropped.Events[0].Notes, 2)
}

func TestRepeatedMelodyIsKept(t *testing.T) {
	var events []model.Event
	for i, m := range []string{"E5", "F5", "G5", "A5", "B5", "E5", "F5", "G5", "A5", "B5"} {
		events = append(events, model.NewNote(model.Ticks(i), model.Note{Pitch: p(m), Duration: 1}))
	}
	events = append(events,
		model.NewChord(10, 1, p("C3"), p("D3"), p("E5")),
		model.NewChord(11, 1, p("C3"), p("D3"), p("G5")),
	)
	out, err := Run(model.Score{Events: events}, Options{MaxVoices: 2})
	require.NoError(t, err)

	assert := assert.New(t)
	assert.Equal(model.PatternTable{"E-F-G-A-B": 2}, out.Patterns)
	assert.Equal([]model.Note{{Pitch: p("E5"), Duration: 1}, {Pitch: p("C3"), Duration: 1}}, out.Result.Reduced.Events[10].Notes)
	assert.Equal([]model.Note{{Pitch: p("G5"), Duration: 1}, {Pitch: p("C3"), Duration: 1}}, out.Result.Reduced.Events[11].Notes)
	assert.Equal(2, out.Chords)
	assert.Equal(2, out.DroppedNotes)
}

func TestTimelinesStayAligned(t *testing.T) {
	s := randomScore(rand.New(rand.NewSource(1)), 300)
	res, err := Score(s, Options{MaxVoices: 2})
	require.NoError(t, err)

	require.Len(t, res.Reduced.Events, len(s.Events))
	require.Len(t, res.Dropped.Events, len(s.Events))
	for i, e := range s.Events {
		assert.Equal(t, e.Offset, res.Reduced.Events[i].Offset)
		assert.Equal(t, e.Offset, res.Dropped.Events[i].Offset)
		if !e.IsChord() {
			assert.Equal(t, e, res.Reduced.Events[i])
			assert.Equal(t, e, res.Dropped.Events[i])
			continue
		}
		kept := res.Reduced.Events[i].Notes
		assert.LessOrEqual(t, len(kept), 2)
		if res.Dropped.Events[i].Marked {
			assert.Equal(t, len(e.Notes), len(kept)+len(res.Dropped.Events[i].Notes))
		} else {
			assert.ElementsMatch(t, e.Notes, kept)
		}
	}
}

func TestParallelMatchesSequential(t *testing.T) {
	s := randomScore(rand.New(rand.NewSource(9)), 500)
	seq, err := Score(s, Options{MaxVoices: 2})
	require.NoError(t, err)
	par, err := Score(s, Options{MaxVoices: 2, Workers: 8})
	require.NoError(t, err)
	assert.Equal(t, seq, par)
}

func TestProgressCountsChords(t *testing.T) {
	s := randomScore(rand.New(rand.NewSource(3)), 100)
	var chords int
	for _, e := range s.Events {
		if e.IsChord() {
			chords++
		}
	}

	var calls, last int
	_, err := Score(s, Options{MaxVoices: 1, OnProgress: func(done, total int) {
		calls++
		last = done
		assert.Equal(t, chords, total)
	}})
	require.NoError(t, err)
	assert.Equal(t, chords, calls)
	assert.Equal(t, chords, last)

	var parallelCalls int64
	_, err = Score(s, Options{MaxVoices: 1, Workers: 4, OnProgress: func(done, total int) {
		atomic.AddInt64(&parallelCalls, 1)
	}})
	require.NoError(t, err)
	assert.Equal(t, int64(chords), parallelCalls)
}

func TestErrorsSurface(t *testing.T) {
	_, err := Score(model.Score{}, Options{MaxVoices: -2})
	var budgetErr *InvalidBudgetError
	assert.True(t, errors.As(err, &budgetErr))

	bad := model.Score{Events: []model.Event{model.NewRest(0, 1), {Offset: 1, Duration: 1}}}
	_, err = Score(bad, Options{MaxVoices: 2})
	var malformed *MalformedEventError
	require.True(t, errors.As(err, &malformed))
	assert.Equal(t, model.Ticks(1), malformed.Offset)

	empty := model.Score{Events: []model.Event{{Kind: model.KindChord, Offset: 7, Duration: 1}}}
	_, err = Score(empty, Options{MaxVoices: 2, Workers: 2})
	var emptyErr *EmptyChordError
	assert.True(t, errors.As(err, &emptyErr))
}

func TestInvalidPitchesAreRejected(t *testing.T) {
	cases := map[string]model.Event{
		"unknown step": model.NewChord(0, 1, model.Pitch{Step: "H", Octave: 4}, model.Pitch{Step: "C", Alter: 9, Octave: 4}),
		"huge flat":    model.NewNote(0, model.Note{Pitch: model.Pitch{Step: "C", Alter: math.MinInt, Octave: 4}, Duration: 1}),
		"dash in step": model.NewChord(0, 1, p("C4"), model.Pitch{Step: "C-D", Octave: 4}),
	}
	for name, e := range cases {
		t.Run(name, func(t *testing.T) {
			s := model.Score{Resolution: 1, Events: []model.Event{model.NewRest(0, 1)}}
			for i := 0; i < 5; i++ {
				e.Offset = model.Ticks(i + 1)
				s.Events = append(s.Events, e.Clone())
			}
			_, err := Score(s, Options{MaxVoices: 1})
			var pitchErr *InvalidPitchError
			require.True(t, errors.As(err, &pitchErr))
			assert.Equal(t, model.Ticks(1), pitchErr.Offset)
		})
	}
}

func TestRepeatedSectionUnderDefaultOptions(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	pool := []string{"C4", "D4", "E4", "F4", "G4", "A4", "B4"}
	var sec []model.Event
	for i := 0; i < 1000; i++ {
		sec = append(sec, model.NewChord(0, 1, p(pool[r.Intn(len(pool))]), p("C3")))
	}
	s := model.Score{Resolution: 1}
	for i, e := range append(sec, sec...) {
		e = e.Clone()
		e.Offset = model.Ticks(i)
		s.Events = append(s.Events, e)
	}

	out, err := Run(s, DefaultOptions(1))
	require.NoError(t, err)
	assert.Len(t, out.Result.Reduced.Events, 2000)
	assert.LessOrEqual(t, len(out.Patterns), 4000)
	for key := range out.Patterns {
		assert.Len(t, pattern.Names(key), DefaultOptions(1).MinPatternLength)
	}
}

func randomScore(r *rand.Rand, n int) model.Score {
	pool := []string{"C3", "G3", "C4", "D4", "E4", "F4", "G4", "A4", "B4", "C5"}
	s := model.Score{Resolution: 4}
	for i := 0; i < n; i++ {
		offset := model.Ticks(i * 4)
		switch r.Intn(6) {
		case 0:
			s.Events = append(s.Events, model.NewRest(offset, 4))
		case 1:
			s.Events = append(s.Events, model.NewNote(offset, model.Note{Pitch: p(pool[r.Intn(len(pool))]), Duration: 4}))
		default:
			var pitches []model.Pitch
			for k := 0; k < 1+r.Intn(5); k++ {
				pitches = append(pitches, p(pool[r.Intn(len(pool))]))
			}
			s.Events = append(s.Events, model.NewChord(offset, 4, pitches...))
		}
	}
	return s
}
