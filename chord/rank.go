package chord

import (
	"github.com/jsphweid/voicecut/model"
	"github.com/jsphweid/voicecut/pattern"
	"github.com/jsphweid/voicecut/util"
)

// Ranker orders chord notes by melodic salience: a note whose name appears in
// any repeated pattern outranks one that does not. Build it once per score.
type Ranker struct {
	members map[string]bool
}

func NewRanker(table model.PatternTable) *Ranker {
	return &Ranker{members: pattern.Members(table)}
}

func (r *Ranker) IsPrioritized(n model.Note) bool {
	return r.members[n.Name()]
}

// Prioritize returns at most maxVoices notes: prioritized notes in chord
// order, then the rest in chord order.
func (r *Ranker) Prioritize(notes []model.Note, maxVoices int) []model.Note {
	idx := r.rank(notes, maxVoices)
	res := make([]model.Note, len(idx))
	for i, j := range idx {
		res[i] = notes[j]
	}
	return res
}

func (r *Ranker) rank(notes []model.Note, maxVoices int) []int {
	if maxVoices <= 0 {
		return nil
	}
	res := make([]int, 0, util.Min(len(notes), maxVoices))
	for i, n := range notes {
		if r.IsPrioritized(n) {
			res = append(res, i)
		}
	}
	for i, n := range notes {
		if len(res) >= maxVoices {
			break
		}
		if !r.IsPrioritized(n) {
			res = append(res, i)
		}
	}
	if len(res) > maxVoices {
		res = res[:maxVoices]
	}
	return res
}
