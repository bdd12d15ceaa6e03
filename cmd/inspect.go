package cmd

import (
	"fmt"
	"strings"

	"github.com/jsphweid/voicecut/chord"
	"github.com/jsphweid/voicecut/constants"
	"github.com/jsphweid/voicecut/model"
	"github.com/jsphweid/voicecut/pattern"
	"github.com/jsphweid/voicecut/sample"
	"github.com/spf13/cobra"
)

var (
	inspectFrom  int64
	inspectCount int
	inspectTop   int
)

func init() {
	inspectCmd.Flags().Int64Var(&inspectFrom, "from", 0, "first tick of the classified excerpt")
	inspectCmd.Flags().IntVar(&inspectCount, "count", 8, "events in the classified excerpt")
	inspectCmd.Flags().IntVar(&inspectTop, "top", 10, "repeated patterns to show")
	rootCmd.AddCommand(inspectCmd)
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <path>",
	Short: "Inspects a score",
	Long: `Prints a score's metadata, its most repeated melodic patterns and the
harmonic classification of the chords in an excerpt.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return inspect(args[0])
	},
}

func inspect(path string) error {
	s, err := loadScore(path)
	if err != nil {
		return err
	}

	fmt.Printf("title: %v\n", s.Title)
	fmt.Printf("resolution: %v\n", s.Resolution)
	if s.Tempo != nil {
		fmt.Printf("tempo: %v\n", s.Tempo.BPM)
	}
	if s.TimeSignature != nil {
		fmt.Printf("time signature: %d/%d\n", s.TimeSignature.Numerator, s.TimeSignature.Denominator)
	}
	fmt.Printf("events: %v\n", len(s.Events))
	fmt.Printf("beats: %v\n", s.Beats(s.End()))

	opts := pattern.DefaultOptions()
	opts.MinLength = constants.GetMinPatternLength()
	opts.MaxLength = max(opts.MaxLength, opts.MinLength)
	table, err := pattern.FindRepeated(s.Events, opts)
	if err != nil {
		return err
	}
	entries := pattern.Sorted(table)
	fmt.Printf("repeated patterns: %v\n", len(entries))
	for i, e := range entries {
		if i == inspectTop {
			break
		}
		fmt.Printf("  %3dx %v\n", e.Count, strings.Join(e.Names, " "))
	}

	excerpt := sample.Create(s, model.Ticks(inspectFrom), inspectCount)
	for _, e := range excerpt.Events {
		if !e.IsChord() {
			fmt.Printf("%8d %v\n", e.Offset, e.Kind)
			continue
		}
		fmt.Printf("%8d %-20s %v\n", e.Offset, chord.CreateChordKey(e.Notes), describe(e.Notes, chord.Classify(e.Notes)))
	}
	return nil
}

func describe(notes []model.Note, h chord.Harmony) string {
	var parts []string
	role := func(name string, i int) {
		if i >= 0 {
			parts = append(parts, name+"="+notes[i].Name())
		}
	}
	role("root", h.Root)
	role("third", h.Third)
	role("fifth", h.Fifth)
	role("seventh", h.Seventh)

	switch {
	case h.IsDominantSeventh:
		parts = append(parts, "dominant seventh")
	case h.IsSeventh:
		parts = append(parts, "seventh")
	case h.IsTriad:
		parts = append(parts, "triad")
	case h.IsIncompleteMajorTriad:
		parts = append(parts, "incomplete major")
	case h.IsIncompleteMinorTriad:
		parts = append(parts, "incomplete minor")
	}
	return strings.Join(parts, " ")
}
