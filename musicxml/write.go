package musicxml

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/jsphweid/voicecut/constants"
	"github.com/jsphweid/voicecut/model"
	xml "github.com/subchen/go-xmldom"
)

const pi = `<!DOCTYPE score-partwise PUBLIC "-//Recordare//DTD MusicXML 3.1 Partwise//EN" "http://www.musicxml.org/dtds/partwise.dtd">`

const partID = "P1"

func addPartList(n *xml.Node, name string) {
	pl := n.CreateNode("part-list")
	sp := pl.CreateNode("score-part").SetAttributeValue("id", partID)
	pn := sp.CreateNode("part-name")
	pn.Text = name
}

func setTitle(n *xml.Node, title string) {
	w := n.CreateNode("work")
	t := w.CreateNode("work-title")
	t.Text = title
}

func addText(n *xml.Node, name string, v any) *xml.Node {
	c := n.CreateNode(name)
	c.Text = fmt.Sprint(v)
	return c
}

// direction is a tempo or dynamics marking waiting for its offset.
type direction struct {
	offset  model.Ticks
	tempo   float64
	dynamic string
}

func (d direction) Gen(x *xml.Node) {
	dn := x.CreateNode("direction")
	dt := dn.CreateNode("direction-type")
	if d.dynamic != "" {
		dn.SetAttributeValue("placement", "below")
		dt.CreateNode("dynamics").CreateNode(d.dynamic)
		return
	}
	dn.SetAttributeValue("placement", "above")
	m := dt.CreateNode("metronome")
	addText(m, "beat-unit", "quarter")
	addText(m, "per-minute", strconv.FormatFloat(d.tempo, 'f', -1, 64))
	dn.CreateNode("sound").SetAttributeValue("tempo", strconv.FormatFloat(d.tempo, 'f', -1, 64))
}

func directions(s model.Score) []direction {
	var res []direction
	if s.Tempo != nil {
		res = append(res, direction{offset: s.Tempo.Offset, tempo: s.Tempo.BPM})
	}
	for _, d := range s.Dynamics {
		res = append(res, direction{offset: d.Offset, dynamic: d.Value})
	}
	sort.SliceStable(res, func(i, j int) bool {
		return res[i].offset < res[j].offset
	})
	return res
}

// piece is the part of an event that falls inside one measure.
type piece struct {
	event    model.Event
	duration model.Ticks
	tieStart bool
	tieStop  bool
}

func (p piece) Gen(x *xml.Node) {
	if p.event.Kind == model.KindRest || len(p.event.Notes) == 0 {
		noteNode := x.CreateNode("note")
		noteNode.CreateNode("rest")
		addText(noteNode, "duration", p.duration)
		addText(noteNode, "voice", 1)
		return
	}

	for i, n := range p.event.Notes {
		noteNode := x.CreateNode("note")
		if p.event.Marked {
			noteNode.SetAttributeValue("color", constants.DroppedNoteColor)
		}
		if i > 0 {
			noteNode.CreateNode("chord")
		}
		pitch := noteNode.CreateNode("pitch")
		addText(pitch, "step", n.Pitch.Step)
		if n.Pitch.Alter != 0 {
			addText(pitch, "alter", n.Pitch.Alter)
		}
		addText(pitch, "octave", n.Pitch.Octave)
		addText(noteNode, "duration", p.duration)
		if p.tieStop {
			noteNode.CreateNode("tie").SetAttributeValue("type", "stop")
		}
		if p.tieStart {
			noteNode.CreateNode("tie").SetAttributeValue("type", "start")
		}
		addText(noteNode, "voice", 1)
		if p.tieStart || p.tieStop {
			notations := noteNode.CreateNode("notations")
			if p.tieStop {
				notations.CreateNode("tied").SetAttributeValue("type", "stop")
			}
			if p.tieStart {
				notations.CreateNode("tied").SetAttributeValue("type", "start")
			}
		}
	}
}

func addAttributes(m *xml.Node, resolution model.Ticks, ts model.TimeSignature) {
	a := m.CreateNode("attributes")
	addText(a, "divisions", resolution)
	k := a.CreateNode("key")
	addText(k, "fifths", 0)
	t := a.CreateNode("time")
	addText(t, "beats", ts.Numerator)
	addText(t, "beat-type", ts.Denominator)
	c := a.CreateNode("clef")
	addText(c, "sign", "G")
	addText(c, "line", 2)
}

// Generate renders s as a single-part MusicXML document. Events are cut at
// barlines and tied across them. Marked events are colored.
func Generate(s model.Score) string {
	resolution := s.Resolution
	if resolution <= 0 {
		resolution = constants.DefaultResolution
	}
	ts := model.TimeSignature{Numerator: 4, Denominator: 4}
	if s.TimeSignature != nil {
		ts = *s.TimeSignature
	}
	measureLength := ts.MeasureLength(resolution)

	doc := xml.NewDocument("score-partwise")
	doc.Root.SetAttributeValue("version", "3.1")
	doc.Directives = append(doc.Directives, pi)
	setTitle(doc.Root, s.Title)

	id := doc.Root.CreateNode("identification")
	encoding := id.CreateNode("encoding")
	addText(encoding, "software", "voicecut")
	addText(encoding, "encoding-date", time.Now().Format("2006-01-02"))
	addPartList(doc.Root, s.Title)
	part := doc.Root.CreateNode("part").SetAttributeValue("id", partID)

	events := s.Events
	pending := directions(s)
	numMeasures := (s.End() + measureLength - 1) / measureLength
	if numMeasures == 0 {
		numMeasures = 1
	}

	var from int
	for m := model.Ticks(0); m < numMeasures; m++ {
		start, end := m*measureLength, (m+1)*measureLength
		mn := part.CreateNode("measure").SetAttributeValue("number", fmt.Sprint(m+1))
		if m == 0 {
			addAttributes(mn, resolution, ts)
		}

		for from < len(events) && events[from].End() <= start {
			from++
		}
		cursor := start
		// directions sitting in a gap get a rest up to their own offset
		emitDirection := func() {
			if at := pending[0].offset; at > cursor {
				piece{event: model.NewRest(cursor, at-cursor), duration: at - cursor}.Gen(mn)
				cursor = at
			}
			pending[0].Gen(mn)
			pending = pending[1:]
		}
		for i := from; i < len(events); i++ {
			e := events[i]
			if e.Offset >= end {
				break
			}
			if e.End() <= start || e.Duration <= 0 {
				continue
			}
			pieceStart := max(e.Offset, start)
			pieceEnd := min(e.End(), end)
			for len(pending) > 0 && pending[0].offset <= pieceStart {
				emitDirection()
			}
			switch {
			case pieceStart > cursor:
				piece{event: model.NewRest(cursor, pieceStart-cursor), duration: pieceStart - cursor}.Gen(mn)
			case pieceStart < cursor:
				addText(mn.CreateNode("backup"), "duration", cursor-pieceStart)
			}
			piece{
				event:    e,
				duration: pieceEnd - pieceStart,
				tieStart: e.End() > end,
				tieStop:  e.Offset < start,
			}.Gen(mn)
			cursor = pieceEnd
		}

		for len(pending) > 0 && pending[0].offset < end {
			emitDirection()
		}
		if cursor < end {
			piece{event: model.NewRest(cursor, end-cursor), duration: end - cursor}.Gen(mn)
		}
	}

	return doc.XMLPretty()
}

// Sink writes <base>.xml and <base>_dropped.xml into Dir.
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
	path := filepath.Join(sink.Dir, name+".xml")
	if err := os.WriteFile(path, []byte(Generate(s)), 0666); err != nil {
		return &model.WriteError{Target: path, Cause: err}
	}
	return nil
}
