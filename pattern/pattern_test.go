package pattern

import (
	"math/rand"
	"testing"

	"github.com/jsphweid/voicecut/constants"
	"github.com/jsphweid/voicecut/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func melody(pitches ...string) []model.Event {
	var events []model.Event
	for i, p := range pitches {
		events = append(events, model.NewChord(model.Ticks(i), 1, model.MustParsePitch(p)))
	}
	return events
}

func opts(min int) Options {
	return Options{MinLength: min}
}

// bruteForce tallies every (start, end) pair directly.
func bruteForce(events []model.Event, min int) model.PatternTable {
	names := NoteNames(events)
	counts := make(map[string]int)
	for i := range names {
		for j := i + min; j <= len(names); j++ {
			counts[Key(names[i:j])]++
		}
	}
	res := make(model.PatternTable)
	for k, v := range counts {
		if v > 1 {
			res[k] = v
		}
	}
	return res
}

func TestFindsRepeatedScale(t *testing.T) {
	events := melody("C4", "D4", "E4", "F4", "G4", "C5", "D5", "E5", "F5", "G5")
	table, err := FindRepeated(events, opts(5))
	require.NoError(t, err)

	assert := assert.New(t)
	assert.Equal(model.PatternTable{"C-D-E-F-G": 2}, table)
	for key := range table {
		assert.GreaterOrEqual(len(Names(key)), 5)
	}
}

func TestShortInputHasNoPatterns(t *testing.T) {
	table, err := FindRepeated(melody("C4", "D4", "C4", "D4"), opts(5))
	require.NoError(t, err)
	assert.Empty(t, table)
}

func TestRestsAreSkipped(t *testing.T) {
	events := melody("C4", "D4", "E4")
	events = append(events, model.NewRest(3, 1))
	events = append(events, melody("C4", "D4", "E4")...)
	table, err := FindRepeated(events, opts(3))
	require.NoError(t, err)
	assert.Equal(t, 2, table["C-D-E"])
}

func TestChordNotesAreFlattenedInOrder(t *testing.T) {
	events := []model.Event{
		model.NewChord(0, 1, model.MustParsePitch("C4"), model.MustParsePitch("E4")),
		model.NewChord(1, 1, model.MustParsePitch("C4"), model.MustParsePitch("E4")),
	}
	table, err := FindRepeated(events, opts(2))
	require.NoError(t, err)
	assert.Equal(t, model.PatternTable{"C-E": 2}, table)
}

func TestIdenticalAdjacentNotesOverlap(t *testing.T) {
	table, err := FindRepeated(melody("A4", "A4", "A4", "A4", "A4", "A4"), opts(5))
	require.NoError(t, err)
	assert.Equal(t, model.PatternTable{"A-A-A-A-A": 2}, table)
}

func TestMatchesBruteForce(t *testing.T) {
	pool := []string{"C4", "D4", "E4", "G4"}
	r := rand.New(rand.NewSource(7))
	for round := 0; round < 20; round++ {
		var pitches []string
		for i := 0; i < 40; i++ {
			pitches = append(pitches, pool[r.Intn(len(pool))])
		}
		events := melody(pitches...)
		for _, min := range []int{1, 3, 5} {
			table, err := FindRepeated(events, opts(min))
			require.NoError(t, err)
			assert.Equal(t, bruteForce(events, min), table)
		}
	}
}

func TestIncreasingMinLengthNeverGrowsTable(t *testing.T) {
	events := melody("C4", "E4", "G4", "C4", "E4", "G4", "C4", "E4", "G4", "A4", "C4", "E4")
	prev := -1
	for min := 1; min <= 8; min++ {
		table, err := FindRepeated(events, opts(min))
		require.NoError(t, err)
		if prev >= 0 {
			assert.LessOrEqual(t, len(table), prev)
		}
		prev = len(table)
	}
}

func TestMaxLengthBoundsPatterns(t *testing.T) {
	phrase := []string{"C4", "D4", "E4", "F4", "G4", "A4", "B4", "C5"}
	events := melody(append(phrase, phrase...)...)
	table, err := FindRepeated(events, Options{MinLength: 5, MaxLength: 6})
	require.NoError(t, err)

	full := bruteForce(events, 5)
	for key, count := range full {
		if len(Names(key)) <= 6 {
			assert.Equal(t, count, table[key], key)
		} else {
			assert.NotContains(t, table, key)
		}
	}
}

func TestGuards(t *testing.T) {
	_, err := FindRepeated(melody("C4"), opts(0))
	assert.ErrorIs(t, err, ErrInvalidLength)

	_, err = FindRepeated(melody("C4", "D4", "E4", "F4", "G4", "A4"), Options{MinLength: 5, MaxNotes: 5})
	assert.ErrorIs(t, err, ErrTooManyNotes)
}

func TestMembersAndSorted(t *testing.T) {
	table := model.PatternTable{"C-D-E": 2, "G-A-B-C": 2, "F#-G-A": 3}
	assert.Equal(t, map[string]bool{"C": true, "D": true, "E": true, "F#": true, "G": true, "A": true, "B": true}, Members(table))

	sorted := Sorted(table)
	assert.Equal(t, "F#-G-A", sorted[0].Key)
	assert.Equal(t, "G-A-B-C", sorted[1].Key)
	assert.Equal(t, "C-D-E", sorted[2].Key)
}

// section returns n random notes drawn from seven names.
func section(r *rand.Rand, n int) []string {
	pool := []string{"C4", "D4", "E4", "F4", "G4", "A4", "B4"}
	res := make([]string, n)
	for i := range res {
		res[i] = pool[r.Intn(len(pool))]
	}
	return res
}

func TestMinLengthCapKeepsMembers(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	sec := section(r, 150)
	events := melody(append(append(sec, section(r, 40)...), sec...)...)

	full, err := FindRepeated(events, opts(5))
	require.NoError(t, err)
	capped, err := FindRepeated(events, Options{MinLength: 5, MaxLength: 5})
	require.NoError(t, err)

	assert.Equal(t, Members(full), Members(capped))
	assert.Less(t, len(capped), len(full))
	for key, count := range capped {
		assert.Len(t, Names(key), 5)
		assert.Equal(t, full[key], count, key)
	}
}

func TestRepeatedSectionStaysBounded(t *testing.T) {
	sec := section(rand.New(rand.NewSource(1)), 2000)
	events := melody(append(sec, sec...)...)

	table, err := FindRepeated(events, Options{
		MinLength: 5,
		MaxLength: 5,
		MaxNotes:  constants.DefaultMaxPatternNotes,
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(table), len(events)-4)
	assert.Equal(t, 7, len(Members(table)))

	table, err = FindRepeated(events, DefaultOptions())
	require.NoError(t, err)
	for key := range table {
		assert.LessOrEqual(t, len(Names(key)), constants.DefaultMaxPatternLength)
	}
}

func TestDefaultGuardRefusesLargeScores(t *testing.T) {
	events := melody(section(rand.New(rand.NewSource(2)), constants.DefaultMaxPatternNotes+1)...)
	_, err := FindRepeated(events, DefaultOptions())
	assert.ErrorIs(t, err, ErrTooManyNotes)
}
