package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/jsphweid/voicecut/db"
	"github.com/jsphweid/voicecut/model"
	"github.com/jsphweid/voicecut/pattern"
	"github.com/jsphweid/voicecut/reduce"
	"github.com/pkg/errors"
	"github.com/rs/cors"
	"github.com/spf13/cobra"
)

const maxRequestBytes = 32 << 20

var (
	servePort   int
	serveRecord bool
)

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "port to listen on")
	serveCmd.Flags().BoolVar(&serveRecord, "record", false, "store a run report per request")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves reductions over HTTP",
	Long:  `Serves POST /reduce, which reduces a JSON score to a voice budget.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(servePort)
	},
}

func NewRouter() http.Handler {
	router := mux.NewRouter().StrictSlash(true)
	router.HandleFunc("/reduce", HandleReduce).Methods("POST")
	return cors.Default().Handler(router)
}

func serve(port int) error {
	addr := fmt.Sprintf(":%d", port)
	logger.Info("serving", "addr", addr)
	return http.ListenAndServe(addr, NewRouter())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("could not encode response", "err", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error("reduce failed", "err", err)
	}
	writeJSON(w, status, model.ErrorResponse{Error: err.Error()})
}

// statusFor maps errors caused by the request to 400, anything else to 500.
func statusFor(err error) int {
	var (
		budget    *reduce.InvalidBudgetError
		malformed *reduce.MalformedEventError
		empty     *reduce.EmptyChordError
		pitch     *reduce.InvalidPitchError
		syntax    *json.SyntaxError
		typ       *json.UnmarshalTypeError
		tooLarge  *http.MaxBytesError
	)
	switch {
	case errors.As(err, &budget),
		errors.As(err, &malformed),
		errors.As(err, &empty),
		errors.As(err, &pitch),
		errors.As(err, &syntax),
		errors.As(err, &typ),
		errors.As(err, &tooLarge),
		errors.Is(err, pattern.ErrInvalidLength),
		errors.Is(err, pattern.ErrTooManyNotes),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, io.EOF):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func HandleReduce(w http.ResponseWriter, r *http.Request) {
	var input model.ReduceRequestBody
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err := decoder.Decode(&input); err != nil {
		writeError(w, errors.Wrap(err, "could not decode request body"))
		return
	}

	opts := reduce.DefaultOptions(input.MaxVoices)
	if input.MinPatternLength != 0 {
		opts.MinPatternLength = input.MinPatternLength
	}
	out, err := reduce.Run(input.Score, opts)
	if err != nil {
		writeError(w, err)
		return
	}

	res := model.ReduceResponse{
		ID:           uuid.New().String(),
		Reduced:      out.Result.Reduced,
		Dropped:      out.Result.Dropped,
		Patterns:     len(out.Patterns),
		DroppedNotes: out.DroppedNotes,
	}
	logger.Debug("reduced", "id", res.ID, "chords", out.Chords, "dropped", out.DroppedNotes)

	if serveRecord {
		report := db.NewReport("http", input.MaxVoices)
		report.ID = res.ID
		report.Events = len(input.Score.Events)
		report.Chords = out.Chords
		report.DroppedNotes = out.DroppedNotes
		report.Patterns = res.Patterns
		if err := db.PutReport(report); err != nil {
			logger.Error("could not record report", "id", res.ID, "err", err)
		}
	}

	writeJSON(w, http.StatusOK, res)
}
