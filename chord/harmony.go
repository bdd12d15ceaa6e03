package chord

import (
	"sort"

	"github.com/jsphweid/voicecut/model"
)

// Harmony describes a chord in tertian terms. Root, Third, Fifth and Seventh
// index into the classified notes and are -1 when the chord lacks the role.
type Harmony struct {
	IsTriad                bool
	IsIncompleteMajorTriad bool
	IsIncompleteMinorTriad bool
	IsSeventh              bool
	IsDominantSeventh      bool
	ContainsTriad          bool
	ContainsSeventh        bool

	Root    int
	Third   int
	Fifth   int
	Seventh int
}

// generic intervals, counted in letter names above the root
const (
	genericThird   = 2
	genericFifth   = 4
	genericSeventh = 6
)

// chord tones stacked in thirds weigh more than upper extensions
var stackWeights = map[int]int{
	genericThird: 2, genericFifth: 2, genericSeventh: 2,
	1: 1, 3: 1, 5: 1,
}

func generic(root, p model.Pitch) int {
	return (p.StepIndex() - root.StepIndex() + 7) % 7
}

func semitones(root, p model.Pitch) int {
	return (p.PitchClass() - root.PitchClass() + 12) % 12
}

// byPitch returns note indexes from lowest to highest sounding pitch.
func byPitch(notes []model.Note) []int {
	idx := make([]int, len(notes))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return notes[idx[a]].Pitch.MIDI() < notes[idx[b]].Pitch.MIDI()
	})
	return idx
}

func findRoot(notes []model.Note, order []int) int {
	best, bestScore := -1, -1
	seen := make(map[string]bool)
	for _, i := range order {
		candidate := notes[i].Pitch
		if seen[candidate.Step] {
			continue
		}
		seen[candidate.Step] = true

		others := make(map[string]bool)
		score := 0
		for _, n := range notes {
			if n.Pitch.Step == candidate.Step || others[n.Pitch.Step] {
				continue
			}
			others[n.Pitch.Step] = true
			score += stackWeights[generic(candidate, n.Pitch)]
		}
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	return best
}

func findRole(notes []model.Note, order []int, root model.Pitch, interval int) int {
	for _, i := range order {
		if generic(root, notes[i].Pitch) == interval {
			return i
		}
	}
	return -1
}

func Classify(notes []model.Note) Harmony {
	h := Harmony{Root: -1, Third: -1, Fifth: -1, Seventh: -1}
	if len(notes) == 0 {
		return h
	}

	order := byPitch(notes)
	h.Root = findRoot(notes, order)
	root := notes[h.Root].Pitch
	h.Third = findRole(notes, order, root, genericThird)
	h.Fifth = findRole(notes, order, root, genericFifth)
	h.Seventh = findRole(notes, order, root, genericSeventh)

	pitchClasses := make(map[int]bool)
	onlyTriadTones, onlySeventhTones := true, true
	for _, n := range notes {
		pitchClasses[n.Pitch.PitchClass()] = true
		switch generic(root, n.Pitch) {
		case 0, genericThird, genericFifth:
		case genericSeventh:
			onlyTriadTones = false
		default:
			onlyTriadTones = false
			onlySeventhTones = false
		}
	}

	h.ContainsTriad = h.Third >= 0 && h.Fifth >= 0
	h.ContainsSeventh = h.ContainsTriad && h.Seventh >= 0
	h.IsTriad = h.ContainsTriad && onlyTriadTones && len(pitchClasses) == 3
	h.IsSeventh = h.ContainsSeventh && onlySeventhTones && len(pitchClasses) == 4

	if h.IsSeventh {
		h.IsDominantSeventh = semitones(root, notes[h.Third].Pitch) == 4 &&
			semitones(root, notes[h.Fifth].Pitch) == 7 &&
			semitones(root, notes[h.Seventh].Pitch) == 10
	}

	if len(pitchClasses) == 2 && h.Third >= 0 {
		switch semitones(root, notes[h.Third].Pitch) {
		case 4:
			h.IsIncompleteMajorTriad = true
		case 3:
			h.IsIncompleteMinorTriad = true
		}
	}

	return h
}

// rankByHarmony picks at most limit notes by harmonic role: third, seventh,
// root, fifth, and the root again for chords with no triad content.
func rankByHarmony(notes []model.Note, limit int) []int {
	h := Classify(notes)
	triadic := h.ContainsTriad || h.IsIncompleteMajorTriad || h.IsIncompleteMinorTriad
	rules := []struct {
		applies bool
		index   int
	}{
		{triadic || h.IsSeventh, h.Third},
		{h.ContainsSeventh || h.IsDominantSeventh || h.IsSeventh, h.Seventh},
		{triadic, h.Root},
		{h.ContainsTriad, h.Fifth},
		{!triadic, h.Root},
	}

	var res []int
	taken := make(map[int]bool)
	for _, rule := range rules {
		if len(res) >= limit {
			break
		}
		if rule.applies && rule.index >= 0 && !taken[rule.index] {
			taken[rule.index] = true
			res = append(res, rule.index)
		}
	}
	return res
}
