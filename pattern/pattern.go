package pattern

import (
	"sort"
	"strings"

	"github.com/jsphweid/voicecut/constants"
	"github.com/jsphweid/voicecut/model"
	"github.com/pkg/errors"
)

var (
	ErrInvalidLength = errors.New("minimum pattern length must be at least 1")
	ErrTooManyNotes  = errors.New("too many notes for pattern search")
)

type Options struct {
	MinLength int
	// MaxLength caps the pattern length, 0 means no cap.
	MaxLength int
	// MaxNotes refuses scores with more notes than this, 0 means no limit.
	MaxNotes int
}

func DefaultOptions() Options {
	return Options{
		MinLength: constants.DefaultMinPatternLength,
		MaxLength: constants.DefaultMaxPatternLength,
		MaxNotes:  constants.DefaultMaxPatternNotes,
	}
}

func Key(names []string) string {
	return strings.Join(names, "-")
}

func Names(key string) []string {
	if key == "" {
		return nil
	}
	return strings.Split(key, "-")
}

// NoteNames flattens the chords and single notes of a timeline into the
// ordered list of note names. Rests contribute nothing.
func NoteNames(events []model.Event) []string {
	var names []string
	for _, e := range events {
		if e.Kind != model.KindChord && e.Kind != model.KindNote {
			continue
		}
		for _, n := range e.Notes {
			names = append(names, n.Name())
		}
	}
	return names
}

type group struct {
	key       string
	positions []int
}

// FindRepeated counts every contiguous run of at least MinLength note names
// that occurs more than once. Occurrences may overlap.
//
// Runs are grown one note at a time from the positions that already share a
// repeated prefix, so a run is only ever extended while it is still repeated.
// The counts are the same as tallying every (start, end) pair.
func FindRepeated(events []model.Event, opts Options) (model.PatternTable, error) {
	if opts.MinLength < 1 {
		return nil, ErrInvalidLength
	}

	names := NoteNames(events)
	n := len(names)
	table := make(model.PatternTable)
	if n < opts.MinLength {
		return table, nil
	}
	if opts.MaxNotes > 0 && n > opts.MaxNotes {
		return nil, errors.Wrapf(ErrTooManyNotes, "%d notes, limit %d", n, opts.MaxNotes)
	}

	length := opts.MinLength
	byKey := make(map[string][]int)
	for i := 0; i+length <= n; i++ {
		key := Key(names[i : i+length])
		byKey[key] = append(byKey[key], i)
	}
	groups := repeated(byKey)

	for len(groups) > 0 {
		for _, g := range groups {
			table[g.key] = len(g.positions)
		}
		if opts.MaxLength > 0 && length >= opts.MaxLength {
			break
		}

		var next []group
		for _, g := range groups {
			extended := make(map[string][]int)
			for _, i := range g.positions {
				if i+length >= n {
					continue
				}
				key := g.key + "-" + names[i+length]
				extended[key] = append(extended[key], i)
			}
			next = append(next, repeated(extended)...)
		}
		groups = next
		length++
	}

	return table, nil
}

func repeated(m map[string][]int) []group {
	var res []group
	for key, positions := range m {
		if len(positions) > 1 {
			res = append(res, group{key: key, positions: positions})
		}
	}
	return res
}

// Members is the set of note names that appear in any repeated pattern.
// Every repeated run longer than the minimum contains repeated runs of
// exactly the minimum length, so a table searched with MaxLength equal to
// MinLength has the same members.
func Members(table model.PatternTable) map[string]bool {
	res := make(map[string]bool)
	for key := range table {
		for _, name := range Names(key) {
			res[name] = true
		}
	}
	return res
}

type Entry struct {
	Key   string
	Names []string
	Count int
}

// Sorted lists the table by count, then length, both descending, then key.
func Sorted(table model.PatternTable) []Entry {
	res := make([]Entry, 0, len(table))
	for key, count := range table {
		res = append(res, Entry{Key: key, Names: Names(key), Count: count})
	}
	sort.Slice(res, func(i, j int) bool {
		if res[i].Count != res[j].Count {
			return res[i].Count > res[j].Count
		}
		if len(res[i].Names) != len(res[j].Names) {
			return len(res[i].Names) > len(res[j].Names)
		}
		return res[i].Key < res[j].Key
	})
	return res
}
