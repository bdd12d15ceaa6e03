package reduce

import (
	"sync"
	"sync/atomic"

	"github.com/jsphweid/voicecut/chord"
	"github.com/jsphweid/voicecut/constants"
	"github.com/jsphweid/voicecut/model"
	"github.com/jsphweid/voicecut/pattern"
	"github.com/pkg/errors"
)

type (
	InvalidBudgetError  = chord.InvalidBudgetError
	MalformedEventError = chord.MalformedEventError
	EmptyChordError     = chord.EmptyChordError
	InvalidPitchError   = chord.InvalidPitchError
)

type Options struct {
	MaxVoices        int
	MinPatternLength int
	// MaxPatternLength of 0 searches runs of MinPatternLength only, which is
	// enough to know every pattern member. Negative means no cap.
	MaxPatternLength int
	MaxPatternNotes  int

	// Workers > 1 reduces chords concurrently once patterns are known.
	Workers int

	// OnProgress is called after each chord. With Workers > 1 it is called
	// from several goroutines.
	OnProgress func(done, total int)
}

func DefaultOptions(maxVoices int) Options {
	return Options{
		MaxVoices:        maxVoices,
		MinPatternLength: constants.GetMinPatternLength(),
		MaxPatternNotes:  constants.DefaultMaxPatternNotes,
		Workers:          1,
	}
}

type Outcome struct {
	Result       model.ReductionResult
	Patterns     model.PatternTable
	Chords       int
	DroppedNotes int
}

// Score reduces every chord of s to at most opts.MaxVoices notes.
func Score(s model.Score, opts Options) (model.ReductionResult, error) {
	out, err := Run(s, opts)
	if err != nil {
		return model.ReductionResult{}, err
	}
	return out.Result, nil
}

// Run is Score plus the pattern table and counts gathered on the way.
//
// Both output timelines have one event per input event at the same offset.
// Rests and single notes are copied to both. A reduced chord goes to the
// reduced timeline and its dropped notes, marked, to the dropped timeline;
// a chord that lost nothing is copied to the dropped timeline as is.
func Run(s model.Score, opts Options) (Outcome, error) {
	if opts.MaxVoices < 0 {
		return Outcome{}, &InvalidBudgetError{MaxVoices: opts.MaxVoices}
	}
	if opts.MinPatternLength == 0 {
		opts.MinPatternLength = constants.DefaultMinPatternLength
	}

	var chordIdx []int
	for i, e := range s.Events {
		switch e.Kind {
		case model.KindChord:
			chordIdx = append(chordIdx, i)
		case model.KindRest, model.KindNote:
		default:
			err := &MalformedEventError{Kind: e.Kind, Offset: e.Offset}
			return Outcome{}, errors.Wrapf(err, "event %d", i)
		}
		if err := chord.CheckPitches(e); err != nil {
			return Outcome{}, errors.Wrapf(err, "event %d", i)
		}
	}

	maxLength := opts.MaxPatternLength
	switch {
	case maxLength == 0:
		maxLength = opts.MinPatternLength
	case maxLength < 0:
		maxLength = 0
	}
	table, err := pattern.FindRepeated(s.Events, pattern.Options{
		MinLength: opts.MinPatternLength,
		MaxLength: maxLength,
		MaxNotes:  opts.MaxPatternNotes,
	})
	if err != nil {
		return Outcome{}, errors.Wrap(err, "pattern search failed")
	}
	ranker := chord.NewRanker(table)

	reduced := make([]model.Event, len(s.Events))
	dropped := make([]model.Event, len(s.Events))
	droppedCounts := make([]int, len(s.Events))
	for i, e := range s.Events {
		if !e.IsChord() {
			reduced[i] = e.Clone()
			dropped[i] = e.Clone()
		}
	}

	var done int64
	total := len(chordIdx)
	reduceAt := func(i int) error {
		e := s.Events[i]
		r, d, err := ranker.Reduce(e, opts.MaxVoices)
		if err != nil {
			return errors.Wrapf(err, "event %d", i)
		}
		reduced[i] = r
		if len(d) == 0 {
			dropped[i] = e.Clone()
		} else {
			dropped[i] = markDropped(e, d)
		}
		droppedCounts[i] = len(d)
		if opts.OnProgress != nil {
			opts.OnProgress(int(atomic.AddInt64(&done, 1)), total)
		}
		return nil
	}

	if opts.Workers > 1 {
		err = parallel(chordIdx, opts.Workers, reduceAt)
	} else {
		for _, i := range chordIdx {
			if err = reduceAt(i); err != nil {
				break
			}
		}
	}
	if err != nil {
		return Outcome{}, err
	}

	out := Outcome{
		Result: model.ReductionResult{
			Reduced: s.WithEvents(reduced),
			Dropped: s.WithEvents(dropped),
		},
		Patterns: table,
		Chords:   total,
	}
	for _, n := range droppedCounts {
		out.DroppedNotes += n
	}
	out.Result.Reduced.Dynamics = copyDynamics(s.Dynamics)
	out.Result.Dropped.Dynamics = copyDynamics(s.Dynamics)
	return out, nil
}

func markDropped(e model.Event, notes []model.Note) model.Event {
	marked := make([]model.Note, len(notes))
	for i, n := range notes {
		marked[i] = model.Note{Pitch: n.Pitch, Duration: e.Duration}
	}
	return model.Event{
		Kind:     model.KindChord,
		Offset:   e.Offset,
		Duration: e.Duration,
		Notes:    marked,
		Marked:   true,
	}
}

func copyDynamics(d []model.Dynamic) []model.Dynamic {
	if d == nil {
		return nil
	}
	res := make([]model.Dynamic, len(d))
	copy(res, d)
	return res
}

// parallel runs fn over indexes on a fixed pool. Every index is attempted;
// the error of the lowest failing index is returned.
func parallel(indexes []int, workers int, fn func(int) error) error {
	errs := make([]error, len(indexes))
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				errs[j] = fn(indexes[j])
			}
		}()
	}
	for j := range indexes {
		jobs <- j
	}
	close(jobs)
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
