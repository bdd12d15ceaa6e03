package db

import (
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/jsphweid/voicecut/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportItemConversion(t *testing.T) {
	r := NewReport("bach/chorale.xml", 2)
	r.Events, r.Chords, r.DroppedNotes, r.Patterns = 120, 100, 87, 14

	item := reportToItem(r)
	assert.Equal(t, r.ID, *item["PK"].S)
	assert.Equal(t, "87", *item["DroppedNotes"].N)

	back, err := itemToReport(item)
	require.NoError(t, err)
	assert.Equal(t, r.ID, back.ID)
	assert.Equal(t, r.Source, back.Source)
	assert.Equal(t, r.MaxVoices, back.MaxVoices)
	assert.Equal(t, r.DroppedNotes, back.DroppedNotes)
	assert.True(t, r.CreatedAt.Equal(back.CreatedAt))
}

func TestNewReportsGetDistinctIDs(t *testing.T) {
	assert.NotEqual(t, NewReport("a", 1).ID, NewReport("a", 1).ID)
}

func TestBadItems(t *testing.T) {
	_, err := itemToReport(Item{})
	assert.Error(t, err)

	_, err = itemToReport(Item{
		"PK":     {S: aws.String("x")},
		"Chords": {N: aws.String("many")},
	})
	assert.Error(t, err)

	r, err := itemToReport(Item{"PK": {S: aws.String("x")}, "CreatedAt": &dynamodb.AttributeValue{S: aws.String(time.Unix(0, 0).UTC().Format(time.RFC3339Nano))}})
	require.NoError(t, err)
	assert.Equal(t, model.ReductionReport{ID: "x", CreatedAt: time.Unix(0, 0).UTC()}, r)
}

func TestNewestReports(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	var items []Item
	for _, hours := range []int{2, 5, 1, 4, 3} {
		r := NewReport("x", 1)
		r.CreatedAt = base.Add(time.Duration(hours) * time.Hour)
		items = append(items, reportToItem(r))
	}

	got, err := newestReports(items, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, base.Add(5*time.Hour), got[0].CreatedAt)
	assert.Equal(t, base.Add(4*time.Hour), got[1].CreatedAt)

	got, err = newestReports(items, 0)
	require.NoError(t, err)
	assert.Len(t, got, 5)
	assert.Equal(t, base.Add(time.Hour), got[4].CreatedAt)

	_, err = newestReports(append(items, Item{}), 0)
	assert.Error(t, err)
}
