package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"sort"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/jsphweid/voicecut/chord"
	"github.com/jsphweid/voicecut/constants"
	"github.com/jsphweid/voicecut/model"
	"github.com/jsphweid/voicecut/pattern"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // autoregisters driver
)

var (
	listenPort         int
	listenVoices       int
	listenPatternsFrom string
)

func init() {
	listenCmd.Flags().IntVar(&listenPort, "port", 0, "MIDI input port number")
	listenCmd.Flags().IntVar(&listenVoices, "voices", 1, "maximum notes kept per chord")
	listenCmd.Flags().StringVar(&listenPatternsFrom, "patterns-from", "", "score whose repeated patterns are protected")
	rootCmd.AddCommand(listenCmd)
}

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Reduces chords played on a MIDI input",
	Long: `Listens to a MIDI input port and prints the kept and dropped notes of
the held chord whenever it settles.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return listen(listenPort, listenVoices, listenPatternsFrom)
	},
}

type heldNotes struct {
	mu   sync.Mutex
	keys map[uint8]bool
}

func newHeldNotes() *heldNotes {
	return &heldNotes{keys: make(map[uint8]bool)}
}

func (h *heldNotes) press(key uint8) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.keys[key] = true
}

func (h *heldNotes) release(key uint8) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.keys, key)
}

// chord returns the held notes as a chord from low to high, and false when
// nothing is held.
func (h *heldNotes) chord() (model.Event, bool) {
	h.mu.Lock()
	keys := make([]int, 0, len(h.keys))
	for k := range h.keys {
		keys = append(keys, int(k))
	}
	h.mu.Unlock()

	if len(keys) == 0 {
		return model.Event{}, false
	}
	sort.Ints(keys)
	pitches := make([]model.Pitch, len(keys))
	for i, k := range keys {
		pitches[i] = model.PitchFromMIDI(uint8(k))
	}
	return model.NewChord(0, constants.DefaultResolution, pitches...), true
}

func loadPatterns(path string) (model.PatternTable, error) {
	if path == "" {
		return nil, nil
	}
	s, err := loadScore(path)
	if err != nil {
		return nil, err
	}
	opts := pattern.DefaultOptions()
	opts.MinLength = constants.GetMinPatternLength()
	opts.MaxLength = opts.MinLength
	return pattern.FindRepeated(s.Events, opts)
}

func describeHeld(ranker *chord.Ranker, e model.Event, voices int) (string, error) {
	kept, dropped, err := ranker.Reduce(e, voices)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%v -> kept %v dropped %v", chord.CreateChordKey(e.Notes), chord.CreateChordKey(kept.Notes), chord.CreateChordKey(dropped)), nil
}

func listen(port, voices int, patternsFrom string) error {
	if voices < 0 {
		return &chord.InvalidBudgetError{MaxVoices: voices}
	}
	table, err := loadPatterns(patternsFrom)
	if err != nil {
		return err
	}
	ranker := chord.NewRanker(table)

	defer midi.CloseDriver()
	in, err := midi.InPort(port)
	if err != nil {
		return errors.Wrapf(err, "can't open MIDI input port %d", port)
	}

	held := newHeldNotes()
	debounced := debounce.New(50 * time.Millisecond)
	report := func() {
		e, ok := held.chord()
		if !ok {
			return
		}
		line, err := describeHeld(ranker, e, voices)
		if err != nil {
			logger.Error("could not reduce held chord", "err", err)
			return
		}
		fmt.Println(line)
	}

	stop, err := midi.ListenTo(in, func(msg midi.Message, timestampms int32) {
		var ch, key, vel uint8
		switch {
		case msg.GetNoteStart(&ch, &key, &vel):
			held.press(key)
		case msg.GetNoteEnd(&ch, &key):
			held.release(key)
		default:
			return
		}
		debounced(report)
	})
	if err != nil {
		return errors.Wrap(err, "could not listen")
	}
	logger.Info("listening", "port", in.String(), "voices", voices, "patterns", len(table))

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	<-sig
	stop()
	return nil
}
