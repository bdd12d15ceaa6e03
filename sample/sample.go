package sample

import (
	"github.com/jsphweid/voicecut/model"
)

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// Create returns the first n events that start at or after from, keeping
// s's metadata and the dynamics that fall inside the excerpt. n of 0 means
// every remaining event.
func Create(s model.Score, from model.Ticks, n int) model.Score {
	start := len(s.Events)
	for i, e := range s.Events {
		if e.Offset >= from {
			start = i
			break
		}
	}
	end := len(s.Events)
	if n > 0 {
		end = min(start+n, end)
	}

	events := make([]model.Event, 0, end-start)
	for _, e := range s.Events[start:end] {
		events = append(events, e.Clone())
	}
	res := s.WithEvents(events)

	if len(events) > 0 {
		last := events[len(events)-1].End()
		for _, d := range s.Dynamics {
			if d.Offset >= events[0].Offset && d.Offset < last {
				res.Dynamics = append(res.Dynamics, d)
			}
		}
	}
	return res
}
