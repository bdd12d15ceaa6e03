package musicxml

import (
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/jsphweid/voicecut/model"
	"github.com/jsphweid/voicecut/timeline"
	"github.com/pkg/errors"
	xml "github.com/subchen/go-xmldom"
)

type Source struct{}

func (Source) Load(identifier string) (model.Score, error) {
	f, err := os.Open(identifier)
	if err != nil {
		return model.Score{}, &model.ParseError{Identifier: identifier, Cause: err}
	}
	defer f.Close()

	score, err := Parse(f)
	if err != nil {
		return model.Score{}, &model.ParseError{Identifier: identifier, Cause: err}
	}
	if score.Title == "" {
		score.Title = strings.TrimSuffix(filepath.Base(identifier), filepath.Ext(identifier))
	}
	return score, nil
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func childInt(n *xml.Node, name string) (int64, bool) {
	c := n.GetChild(name)
	if c == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(c.Text), 64)
	if err != nil {
		return 0, false
	}
	return int64(math.Round(v)), true
}

func childText(n *xml.Node, name string) string {
	if c := n.GetChild(name); c != nil {
		return strings.TrimSpace(c.Text)
	}
	return ""
}

// partReader walks the measures of one part keeping a time cursor in
// score ticks.
type partReader struct {
	score     *model.Score
	scale     int64
	cursor    model.Ticks
	lastStart model.Ticks
	spans     []timeline.NoteSpan
	tied      map[model.Pitch]int
}

func (r *partReader) ticks(d int64) model.Ticks {
	return d * r.scale
}

func (r *partReader) attributes(n *xml.Node) {
	if div, ok := childInt(n, "divisions"); ok && div > 0 {
		r.scale = r.score.Resolution / div
	}
	if t := n.GetChild("time"); t != nil && r.score.TimeSignature == nil {
		beats, okBeats := childInt(t, "beats")
		beatType, okType := childInt(t, "beat-type")
		if okBeats && okType {
			r.score.TimeSignature = &model.TimeSignature{
				Numerator:   uint8(beats),
				Denominator: uint8(beatType),
				Offset:      r.cursor,
			}
		}
	}
}

func (r *partReader) sound(n *xml.Node) {
	if n == nil || r.score.Tempo != nil {
		return
	}
	if bpm, err := strconv.ParseFloat(n.GetAttributeValue("tempo"), 64); err == nil && bpm > 0 {
		r.score.Tempo = &model.Tempo{BPM: bpm, Offset: r.cursor}
	}
}

func (r *partReader) direction(n *xml.Node) {
	for _, dt := range n.GetChildren("direction-type") {
		if d := dt.GetChild("dynamics"); d != nil {
			for _, mark := range d.Children {
				r.score.Dynamics = append(r.score.Dynamics, model.Dynamic{Value: mark.Name, Offset: r.cursor})
			}
		}
	}
	r.sound(n.GetChild("sound"))
}

func parsePitch(n *xml.Node) (model.Pitch, error) {
	p := model.Pitch{Step: childText(n, "step")}
	if alter, ok := childInt(n, "alter"); ok {
		p.Alter = int(alter)
	}
	octave, err := strconv.Atoi(childText(n, "octave"))
	if err != nil {
		return model.Pitch{}, errors.Wrap(err, "invalid octave")
	}
	p.Octave = octave
	if !p.Valid() {
		return model.Pitch{}, errors.Errorf("invalid pitch %+v", p)
	}
	return p, nil
}

func hasTie(n *xml.Node, kind string) bool {
	for _, t := range n.GetChildren("tie") {
		if t.GetAttributeValue("type") == kind {
			return true
		}
	}
	return false
}

func (r *partReader) note(n *xml.Node) error {
	if n.GetChild("grace") != nil || n.GetChild("cue") != nil {
		return nil
	}
	d, ok := childInt(n, "duration")
	if !ok {
		return errors.New("note without duration")
	}
	dur := r.ticks(d)

	start := r.cursor
	if n.GetChild("chord") != nil {
		start = r.lastStart
	} else {
		r.lastStart = start
		r.cursor += dur
	}

	p := n.GetChild("pitch")
	if n.GetChild("rest") != nil || p == nil {
		return nil
	}
	pitch, err := parsePitch(p)
	if err != nil {
		return errors.Wrapf(err, "note at tick %d", start)
	}

	if idx, ok := r.tied[pitch]; ok && hasTie(n, "stop") && r.spans[idx].End == start {
		r.spans[idx].End = start + dur
		if !hasTie(n, "start") {
			delete(r.tied, pitch)
		}
		return nil
	}
	r.spans = append(r.spans, timeline.NoteSpan{Pitch: pitch, Start: start, End: start + dur})
	if hasTie(n, "start") {
		r.tied[pitch] = len(r.spans) - 1
	}
	return nil
}

func (r *partReader) measure(m *xml.Node) error {
	for _, c := range m.Children {
		switch c.Name {
		case "attributes":
			r.attributes(c)
		case "direction":
			r.direction(c)
		case "sound":
			r.sound(c)
		case "backup":
			if d, ok := childInt(c, "duration"); ok {
				r.cursor -= r.ticks(d)
			}
		case "forward":
			if d, ok := childInt(c, "duration"); ok {
				r.cursor += r.ticks(d)
			}
		case "note":
			if err := r.note(c); err != nil {
				return err
			}
		}
	}
	return nil
}

// Parse reads a partwise MusicXML document and chordifies all of its parts
// into one timeline. The resolution is the least common multiple of every
// divisions value in the file, so durations convert exactly.
func Parse(r io.Reader) (model.Score, error) {
	doc, err := xml.Parse(r)
	if err != nil {
		return model.Score{}, errors.Wrap(err, "invalid xml")
	}
	root := doc.Root
	if root == nil || root.Name != "score-partwise" {
		return model.Score{}, errors.New("not a partwise musicxml score")
	}

	var score model.Score
	if w := root.GetChild("work"); w != nil {
		score.Title = childText(w, "work-title")
	}
	if score.Title == "" {
		score.Title = childText(root, "movement-title")
	}

	score.Resolution = 1
	for _, d := range root.Query("//divisions") {
		div, err := strconv.ParseInt(strings.TrimSpace(d.Text), 10, 64)
		if err != nil || div <= 0 {
			return model.Score{}, errors.Errorf("invalid divisions %q", d.Text)
		}
		score.Resolution = score.Resolution / gcd(score.Resolution, div) * div
	}

	var spans []timeline.NoteSpan
	for _, part := range root.GetChildren("part") {
		pr := &partReader{score: &score, scale: score.Resolution, tied: make(map[model.Pitch]int)}
		for _, m := range part.GetChildren("measure") {
			if err := pr.measure(m); err != nil {
				return model.Score{}, errors.Wrapf(err, "part %s measure %s",
					part.GetAttributeValue("id"), m.GetAttributeValue("number"))
			}
		}
		spans = append(spans, pr.spans...)
	}

	sort.SliceStable(score.Dynamics, func(i, j int) bool {
		return score.Dynamics[i].Offset < score.Dynamics[j].Offset
	})
	score.Dynamics = dedupe(score.Dynamics)
	score.Events = timeline.Build(spans)
	return score, nil
}

// parts often repeat the same marking
func dedupe(dynamics []model.Dynamic) []model.Dynamic {
	seen := make(map[model.Dynamic]bool)
	var res []model.Dynamic
	for _, d := range dynamics {
		if !seen[d] {
			seen[d] = true
			res = append(res, d)
		}
	}
	return res
}
