package cmd

import (
	"fmt"

	"github.com/jsphweid/voicecut/db"
	"github.com/jsphweid/voicecut/model"
	"github.com/jsphweid/voicecut/util"
	"github.com/spf13/cobra"
)

var reportLimit int

func init() {
	reportCmd.Flags().IntVar(&reportLimit, "limit", 20, "reports to list, 0 for all")
	rootCmd.AddCommand(reportCmd)
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Lists stored run reports",
	Long:  `Lists the run reports stored by reduce --record and serve --record.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		reports, err := db.GetReports(reportLimit)
		if err != nil {
			return err
		}
		printReports(reports)
		return nil
	},
}

type reportTotals struct {
	chords  uint64
	dropped uint64
	events  uint64
}

func totals(reports []model.ReductionReport) reportTotals {
	chords := make([]int, len(reports))
	dropped := make([]int, len(reports))
	events := make([]int, len(reports))
	for i, r := range reports {
		chords[i] = r.Chords
		dropped[i] = r.DroppedNotes
		events[i] = r.Events
	}
	return reportTotals{
		chords:  util.Sum(chords),
		dropped: util.Sum(dropped),
		events:  util.Sum(events),
	}
}

func printReports(reports []model.ReductionReport) {
	for _, r := range reports {
		fmt.Printf("%v %v %v voices=%d chords=%d dropped=%d patterns=%d\n",
			r.CreatedAt.Format("2006-01-02 15:04:05"), r.ID, r.Source, r.MaxVoices, r.Chords, r.DroppedNotes, r.Patterns)
	}
	t := totals(reports)
	fmt.Printf("reports: %v\n", len(reports))
	fmt.Printf("events: %v\n", t.events)
	fmt.Printf("chords: %v\n", t.chords)
	fmt.Printf("dropped notes: %v\n", t.dropped)
}
