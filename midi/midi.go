package midi

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jsphweid/voicecut/constants"
	"github.com/jsphweid/voicecut/model"
	"github.com/jsphweid/voicecut/timeline"
	"github.com/pkg/errors"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

func ReadMidiFile(filepath string) (s *smf.SMF, e error) {
	// handle panics
	// https://github.com/gomidi/midi/issues/20
	defer func() {
		if r := recover(); r != nil {
			s, e = nil, errors.Errorf("panic while parsing midi file: %v", r)
		}
	}()

	dat, err := os.ReadFile(filepath)
	if err != nil {
		return nil, errors.Wrap(err, "error reading midi file")
	}
	res, err := smf.ReadFrom(bytes.NewReader(dat))
	if err != nil {
		return nil, errors.Wrap(err, "error parsing midi file")
	}
	return res, nil
}

type Source struct{}

func (Source) Load(identifier string) (model.Score, error) {
	parsed, err := ReadMidiFile(identifier)
	if err != nil {
		return model.Score{}, &model.ParseError{Identifier: identifier, Cause: err}
	}
	score, err := ToScore(parsed)
	if err != nil {
		return model.Score{}, &model.ParseError{Identifier: identifier, Cause: err}
	}
	if score.Title == "" {
		score.Title = strings.TrimSuffix(filepath.Base(identifier), filepath.Ext(identifier))
	}
	return score, nil
}

type noteKey struct {
	channel uint8
	key     uint8
}

// ToScore chordifies every track of s into a single timeline. The first
// tempo, meter and track name become the score metadata; text events that
// spell a dynamics marking become dynamics.
func ToScore(s *smf.SMF) (model.Score, error) {
	ticks, ok := s.TimeFormat.(smf.MetricTicks)
	if !ok {
		return model.Score{}, errors.New("only metric time formats are supported")
	}
	score := model.Score{Resolution: model.Ticks(ticks.Resolution())}

	var spans []timeline.NoteSpan
	for _, track := range s.Tracks {
		var absTicks int64
		open := make(map[noteKey][]int64)
		for _, event := range track {
			absTicks += int64(event.Delta)
			msg := midi.Message(event.Message)

			var channel, key, velocity uint8
			var bpm float64
			var num, denom uint8
			var text string
			switch {
			case msg.GetNoteStart(&channel, &key, &velocity):
				k := noteKey{channel, key}
				open[k] = append(open[k], absTicks)
			case msg.GetNoteEnd(&channel, &key):
				k := noteKey{channel, key}
				starts := open[k]
				if len(starts) == 0 {
					continue
				}
				spans = append(spans, timeline.NoteSpan{
					Pitch: model.PitchFromMIDI(key),
					Start: starts[0],
					End:   absTicks,
				})
				open[k] = starts[1:]
			case event.Message.GetMetaTempo(&bpm):
				if score.Tempo == nil {
					score.Tempo = &model.Tempo{BPM: bpm, Offset: absTicks}
				}
			case event.Message.GetMetaMeter(&num, &denom):
				if score.TimeSignature == nil {
					score.TimeSignature = &model.TimeSignature{Numerator: num, Denominator: denom, Offset: absTicks}
				}
			case event.Message.GetMetaTrackName(&text):
				if score.Title == "" {
					score.Title = text
				}
			case event.Message.GetMetaText(&text):
				if v := strings.TrimSpace(text); model.IsDynamic(v) {
					score.Dynamics = append(score.Dynamics, model.Dynamic{Value: v, Offset: absTicks})
				}
			}
		}

		// notes still held when the track ends stop there
		for k, starts := range open {
			for _, start := range starts {
				spans = append(spans, timeline.NoteSpan{Pitch: model.PitchFromMIDI(k.key), Start: start, End: absTicks})
			}
		}
	}

	sort.SliceStable(score.Dynamics, func(i, j int) bool {
		return score.Dynamics[i].Offset < score.Dynamics[j].Offset
	})
	score.Events = timeline.Build(spans)
	return score, nil
}

const (
	noteVelocity  = 100
	markedChannel = 1
)

type timed struct {
	at    int64
	order int
	msg   []byte
}

// FromScore writes s as a single-track SMF. Marked notes go to channel 2 so
// they can be told apart from kept material.
func FromScore(s model.Score) (*smf.SMF, error) {
	resolution := s.Resolution
	if resolution <= 0 {
		resolution = constants.DefaultResolution
	}
	if resolution > 0xFFFF {
		return nil, errors.Errorf("resolution %d does not fit a midi file", resolution)
	}

	var msgs []timed
	if s.Title != "" {
		msgs = append(msgs, timed{at: 0, order: 0, msg: smf.MetaTrackSequenceName(s.Title)})
	}
	if s.TimeSignature != nil {
		ts := s.TimeSignature
		msgs = append(msgs, timed{at: ts.Offset, order: 1, msg: smf.MetaMeter(ts.Numerator, ts.Denominator)})
	}
	if s.Tempo != nil {
		msgs = append(msgs, timed{at: s.Tempo.Offset, order: 1, msg: smf.MetaTempo(s.Tempo.BPM)})
	}
	for _, d := range s.Dynamics {
		msgs = append(msgs, timed{at: d.Offset, order: 1, msg: smf.MetaText(d.Value)})
	}

	for _, e := range s.Events {
		if e.Kind != model.KindChord && e.Kind != model.KindNote {
			continue
		}
		var channel uint8
		if e.Marked {
			channel = markedChannel
		}
		for _, n := range e.Notes {
			key := n.Pitch.MIDI()
			if key < 0 || key > 127 {
				return nil, errors.Errorf("pitch %v at offset %d is outside the midi range", n.Pitch, e.Offset)
			}
			duration := n.Duration
			if duration <= 0 {
				duration = e.Duration
			}
			msgs = append(msgs,
				timed{at: e.Offset, order: 3, msg: midi.NoteOn(channel, uint8(key), noteVelocity)},
				timed{at: e.Offset + duration, order: 2, msg: midi.NoteOff(channel, uint8(key))},
			)
		}
	}

	sort.SliceStable(msgs, func(i, j int) bool {
		if msgs[i].at != msgs[j].at {
			return msgs[i].at < msgs[j].at
		}
		return msgs[i].order < msgs[j].order
	})

	var track smf.Track
	var last int64
	for _, m := range msgs {
		track.Add(uint32(m.at-last), m.msg)
		last = m.at
	}
	track.Close(0)

	res := smf.New()
	res.TimeFormat = smf.MetricTicks(uint16(resolution))
	if err := res.Add(track); err != nil {
		return nil, errors.Wrap(err, "could not add track")
	}
	return res, nil
}

// Sink writes <base>.mid and <base>_dropped.mid into Dir.
type Sink struct {
	Dir string
}

func (sink Sink) Save(reduced, dropped model.Score, baseName string) error {
	if err := sink.write(reduced, baseName); err != nil {
		return err
	}
	return sink.write(dropped, baseName+constants.DroppedSuffix)
}

func (sink Sink) write(s model.Score, name string) error {
	path := filepath.Join(sink.Dir, fmt.Sprintf("%s.mid", name))
	mf, err := FromScore(s)
	if err != nil {
		return &model.WriteError{Target: path, Cause: err}
	}
	if err := mf.WriteFile(path); err != nil {
		return &model.WriteError{Target: path, Cause: err}
	}
	return nil
}
