package model

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Ticks is the time unit of a Score. A Score's Resolution says how many
// ticks make a quarter note.
type Ticks = int64

type Pitch struct {
	Step   string `json:"step"`
	Alter  int    `json:"alter,omitempty"`
	Octave int    `json:"octave"`
}

var stepSemitones = map[string]int{"C": 0, "D": 2, "E": 4, "F": 5, "G": 7, "A": 9, "B": 11}
var stepIndexes = map[string]int{"C": 0, "D": 1, "E": 2, "F": 3, "G": 4, "A": 5, "B": 6}

var sharpSpellings = [12]Pitch{
	{Step: "C"}, {Step: "C", Alter: 1}, {Step: "D"}, {Step: "D", Alter: 1},
	{Step: "E"}, {Step: "F"}, {Step: "F", Alter: 1}, {Step: "G"},
	{Step: "G", Alter: 1}, {Step: "A"}, {Step: "A", Alter: 1}, {Step: "B"},
}

// PitchFromMIDI spells a key number with sharps. Middle C (60) is C4.
func PitchFromMIDI(key uint8) Pitch {
	p := sharpSpellings[key%12]
	p.Octave = int(key)/12 - 1
	return p
}

func (p Pitch) Valid() bool {
	_, ok := stepSemitones[p.Step]
	return ok && p.Alter >= -2 && p.Alter <= 2
}

func (p Pitch) MIDI() int {
	return (p.Octave+1)*12 + stepSemitones[p.Step] + p.Alter
}

// PitchClass is 0 for C through 11 for B.
func (p Pitch) PitchClass() int {
	return ((p.MIDI() % 12) + 12) % 12
}

// StepIndex is the diatonic position of the letter name, 0 for C through 6
// for B.
func (p Pitch) StepIndex() int {
	return stepIndexes[p.Step]
}

// Name is the octave-free spelling, e.g. "C#" or "Bb".
func (p Pitch) Name() string {
	switch {
	case p.Alter > 0:
		return p.Step + strings.Repeat("#", p.Alter)
	case p.Alter < 0:
		return p.Step + strings.Repeat("b", -p.Alter)
	}
	return p.Step
}

func (p Pitch) String() string {
	return p.Name() + strconv.Itoa(p.Octave)
}

// ParsePitch reads the String form of a Pitch ("C#4", "Eb3", "G"). A missing
// octave means octave 4.
func ParsePitch(s string) (Pitch, error) {
	if s == "" {
		return Pitch{}, errors.New("empty pitch")
	}
	p := Pitch{Step: strings.ToUpper(s[:1]), Octave: 4}
	if _, ok := stepSemitones[p.Step]; !ok {
		return Pitch{}, errors.Errorf("invalid step in pitch %q", s)
	}
	rest := s[1:]
	for len(rest) > 0 && (rest[0] == '#' || rest[0] == 'b') {
		if rest[0] == '#' {
			p.Alter++
		} else {
			p.Alter--
		}
		rest = rest[1:]
	}
	if rest != "" {
		octave, err := strconv.Atoi(rest)
		if err != nil {
			return Pitch{}, errors.Wrapf(err, "invalid octave in pitch %q", s)
		}
		p.Octave = octave
	}
	if !p.Valid() {
		return Pitch{}, errors.Errorf("pitch %q out of range", s)
	}
	return p, nil
}

func MustParsePitch(s string) Pitch {
	p, err := ParsePitch(s)
	if err != nil {
		panic(err)
	}
	return p
}

type Note struct {
	Pitch    Pitch `json:"pitch"`
	Duration Ticks `json:"duration"`
}

func (n Note) Name() string {
	return n.Pitch.Name()
}

func (n Note) String() string {
	return n.Pitch.String()
}
