package cmd

import (
	"log/slog"
	"time"

	"github.com/bep/debounce"
	"github.com/jsphweid/voicecut/constants"
	"github.com/jsphweid/voicecut/db"
	"github.com/jsphweid/voicecut/file"
	"github.com/jsphweid/voicecut/model"
	"github.com/jsphweid/voicecut/reduce"
	"github.com/jsphweid/voicecut/util"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type reduceFlags struct {
	voices     int
	minPattern int
	maxPattern int
	workers    int
	format     string
	out        string
	record     bool
	limit      int
}

var reduceArgs reduceFlags

func init() {
	addReduceFlags(reduceCmd.Flags(), &reduceArgs)
	rootCmd.AddCommand(reduceCmd)
}

func addReduceFlags(fs *pflag.FlagSet, f *reduceFlags) {
	fs.IntVar(&f.voices, "voices", 1, "maximum notes kept per chord")
	fs.IntVar(&f.minPattern, "min-pattern", constants.GetMinPatternLength(), "shortest repeated pattern that is protected")
	fs.IntVar(&f.maxPattern, "max-pattern", 0, "longest pattern searched, 0 for --min-pattern, -1 for no cap")
	fs.IntVar(&f.workers, "workers", 1, "chords reduced concurrently")
	fs.StringVar(&f.format, "format", "musicxml", "output format: musicxml, midi or both")
	fs.StringVar(&f.out, "out", constants.GetOutDir(), "output directory")
	fs.BoolVar(&f.record, "record", false, "store a run report in DynamoDB")
	fs.IntVar(&f.limit, "limit", 0, "maximum files taken from each directory, 0 for all")
}

var reduceCmd = &cobra.Command{
	Use:   "reduce [path]...",
	Short: "Reduces scores to a voice budget",
	Long: `Reduces each score (or every score under each directory) and writes
the reduced and dropped timelines to the output directory. With no paths
the media directory (MEDIA_PATH) is reduced.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReduce(args, reduceArgs)
	},
}

func runReduce(args []string, f reduceFlags) error {
	if len(args) == 0 {
		args = []string{constants.GetMediaDir()}
	}
	var paths []string
	for _, arg := range args {
		found, err := util.GatherScorePaths(arg, f.limit)
		if err != nil {
			return err
		}
		paths = append(paths, found...)
	}
	if len(paths) == 0 {
		return errors.New("no score files found")
	}

	sinks, err := sinksFor(f.format, f.out)
	if err != nil {
		return err
	}
	if err := util.EnsureOutputDir(f.out); err != nil {
		return err
	}

	fileNums := file.CreateFileNumMap(paths)
	names := file.OutputNames(fileNums)
	var skipped int
	for _, num := range util.GetKeys(fileNums) {
		path := fileNums[num]
		log := logger.With("file", num, "path", path)
		err := reduceFile(path, names[num], f, sinks, log)
		var parseErr *model.ParseError
		if errors.As(err, &parseErr) {
			log.Warn("skipping", "err", parseErr.Cause)
			skipped++
			continue
		}
		if err != nil {
			return errors.Wrapf(err, "file %d", num)
		}
	}
	logger.Info("done", "files", len(fileNums)-skipped, "skipped", skipped, "out", f.out)
	return nil
}

func reduceFile(path, name string, f reduceFlags, sinks []model.Sink, log *slog.Logger) error {
	s, err := loadScore(path)
	if err != nil {
		return err
	}

	opts := reduce.DefaultOptions(f.voices)
	opts.MinPatternLength = f.minPattern
	opts.MaxPatternLength = f.maxPattern
	opts.Workers = f.workers

	debounced := debounce.New(200 * time.Millisecond)
	opts.OnProgress = func(done, total int) {
		debounced(func() {
			log.Debug("reducing", "done", done, "total", total)
		})
	}

	start := time.Now()
	out, err := reduce.Run(s, opts)
	if err != nil {
		return err
	}

	for _, sink := range sinks {
		if err := sink.Save(out.Result.Reduced, out.Result.Dropped, name); err != nil {
			return err
		}
	}
	log.Info("reduced",
		"events", len(s.Events),
		"chords", out.Chords,
		"dropped", out.DroppedNotes,
		"patterns", len(out.Patterns),
		"took", time.Since(start))

	if !f.record {
		return nil
	}
	report := db.NewReport(path, f.voices)
	report.Events = len(s.Events)
	report.Chords = out.Chords
	report.DroppedNotes = out.DroppedNotes
	report.Patterns = len(out.Patterns)
	if err := db.PutReport(report); err != nil {
		return err
	}
	log.Debug("recorded", "report", report.ID)
	return nil
}
