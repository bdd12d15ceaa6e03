package cmd

import (
	"testing"

	"github.com/jsphweid/voicecut/model"
	"github.com/stretchr/testify/assert"
)

func TestTotals(t *testing.T) {
	reports := []model.ReductionReport{
		{Events: 10, Chords: 8, DroppedNotes: 12},
		{Events: 5, Chords: 5, DroppedNotes: 0},
	}
	assert.Equal(t, reportTotals{events: 15, chords: 13, dropped: 12}, totals(reports))
	assert.Equal(t, reportTotals{}, totals(nil))
}

func TestSinksFor(t *testing.T) {
	sinks, err := sinksFor("both", "out")
	assert.NoError(t, err)
	assert.Len(t, sinks, 2)

	_, err = sinksFor("pdf", "out")
	assert.Error(t, err)
}

func TestSourceFor(t *testing.T) {
	_, err := sourceFor("a/b.MID")
	assert.NoError(t, err)
	_, err = sourceFor("a/b.musicxml")
	assert.NoError(t, err)
	_, err = sourceFor("a/b.abc")
	assert.Error(t, err)
}
