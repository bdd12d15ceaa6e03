package db

import (
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jsphweid/voicecut/constants"
	"github.com/jsphweid/voicecut/model"
	"github.com/pkg/errors"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
)

type Item = map[string]*dynamodb.AttributeValue

func newClient() (*dynamodb.DynamoDB, error) {
	endpoint := constants.GetDynamoEndpoint()
	sess, err := session.NewSession(&aws.Config{
		Region:   aws.String("localhost"),
		Endpoint: &endpoint,
	})
	if err != nil {
		return nil, errors.Wrap(err, "could not create a new DynamoDB session")
	}
	return dynamodb.New(sess), nil
}

func NewReport(source string, maxVoices int) model.ReductionReport {
	return model.ReductionReport{
		ID:        uuid.New().String(),
		Source:    source,
		MaxVoices: maxVoices,
		CreatedAt: time.Now().UTC(),
	}
}

func number(v int) *dynamodb.AttributeValue {
	return &dynamodb.AttributeValue{N: aws.String(strconv.Itoa(v))}
}

func reportToItem(r model.ReductionReport) Item {
	return Item{
		"PK":           {S: aws.String(r.ID)},
		"Source":       {S: aws.String(r.Source)},
		"MaxVoices":    number(r.MaxVoices),
		"Events":       number(r.Events),
		"Chords":       number(r.Chords),
		"DroppedNotes": number(r.DroppedNotes),
		"Patterns":     number(r.Patterns),
		"CreatedAt":    {S: aws.String(r.CreatedAt.UTC().Format(time.RFC3339Nano))},
	}
}

func itemToReport(item Item) (model.ReductionReport, error) {
	var r model.ReductionReport
	if item["PK"] == nil || item["PK"].S == nil {
		return r, errors.New("report item has no PK")
	}
	r.ID = *item["PK"].S
	if v := item["Source"]; v != nil && v.S != nil {
		r.Source = *v.S
	}

	ints := map[string]*int{
		"MaxVoices":    &r.MaxVoices,
		"Events":       &r.Events,
		"Chords":       &r.Chords,
		"DroppedNotes": &r.DroppedNotes,
		"Patterns":     &r.Patterns,
	}
	for name, dst := range ints {
		v := item[name]
		if v == nil || v.N == nil {
			continue
		}
		n, err := strconv.Atoi(*v.N)
		if err != nil {
			return r, errors.Wrapf(err, "report %s has invalid %s", r.ID, name)
		}
		*dst = n
	}

	if v := item["CreatedAt"]; v != nil && v.S != nil {
		t, err := time.Parse(time.RFC3339Nano, *v.S)
		if err != nil {
			return r, errors.Wrapf(err, "report %s has invalid CreatedAt", r.ID)
		}
		r.CreatedAt = t
	}
	return r, nil
}

func PutReport(r model.ReductionReport) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	_, err = client.PutItem(&dynamodb.PutItemInput{
		TableName: aws.String(constants.ReportsTable),
		Item:      reportToItem(r),
	})
	return errors.Wrap(err, "error from DynamoDB")
}

// GetReports returns the limit newest reports, newest first. limit of 0
// returns every report. DynamoDB scans in no particular order, so every page
// is read before sorting.
func GetReports(limit int) ([]model.ReductionReport, error) {
	client, err := newClient()
	if err != nil {
		return nil, err
	}

	var items []Item
	input := &dynamodb.ScanInput{TableName: aws.String(constants.ReportsTable)}
	err = client.ScanPages(input, func(page *dynamodb.ScanOutput, lastPage bool) bool {
		items = append(items, page.Items...)
		return true
	})
	if err != nil {
		return nil, errors.Wrap(err, "error from DynamoDB")
	}
	return newestReports(items, limit)
}

func newestReports(items []Item, limit int) ([]model.ReductionReport, error) {
	res := make([]model.ReductionReport, 0, len(items))
	for _, item := range items {
		r, err := itemToReport(item)
		if err != nil {
			return nil, err
		}
		res = append(res, r)
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].CreatedAt.After(res[j].CreatedAt)
	})
	if limit > 0 && len(res) > limit {
		res = res[:limit]
	}
	return res, nil
}
