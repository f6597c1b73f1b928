package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/randalmurphal/junction/pkg/junction"
	"github.com/randalmurphal/junction/pkg/junction/faults"
	"github.com/randalmurphal/junction/pkg/junction/observability"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Push synthetic events through a stream junction",
	Long: `Build the junction of one declared stream, subscribe counting receivers,
and send events from concurrent producers. Receiver failures are journaled.

Prints per-receiver delivery counts and the number of journaled faults.`,
	RunE: runRun,
}

var (
	runStream    string // Stream to drive; defaults to the first declared stream
	runFailEvery int64  // Make receivers fail on every Nth timestamp
	runAbortAt   int    // Abort once one receiver faults this many times
)

func init() {
	runCmd.Flags().StringVar(&runStream, "stream", "", "stream id to drive (default: first declared stream)")
	runCmd.Flags().Int("producers", 4, "number of concurrent producers")
	runCmd.Flags().Int("events", 1000, "events sent by each producer")
	runCmd.Flags().Int("receivers", 2, "number of counting receivers")
	runCmd.Flags().Int64Var(&runFailEvery, "fail-every", 0, "fail receivers on every Nth event (0 disables)")
	runCmd.Flags().IntVar(&runAbortAt, "abort-after", 0, "abort the pipeline after N faults of one receiver (0 never aborts)")
	_ = viper.BindPFlag("run.producers", runCmd.Flags().Lookup("producers"))
	_ = viper.BindPFlag("run.events", runCmd.Flags().Lookup("events"))
	_ = viper.BindPFlag("run.receivers", runCmd.Flags().Lookup("receivers"))
	rootCmd.AddCommand(runCmd)
}

// runSettings is the resolved load shape of one run.
type runSettings struct {
	producers int
	events    int
	receivers int
	failEvery int64
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadDefinitions()
	if err != nil {
		return err
	}
	logger := newLogger()

	defs, err := junction.DefinitionsFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("invalid stream definitions: %w", err)
	}
	def, err := pickStream(defs, runStream)
	if err != nil {
		return err
	}

	store, err := openJournal()
	if err != nil {
		return err
	}
	defer store.Close()

	app := junction.ContextFromConfig(cfg, logger)
	policy := app.ExceptionPolicy
	if runAbortAt > 0 {
		policy = faults.NewThresholdPolicy(faults.ThresholdConfig{FailureThreshold: runAbortAt}, policy, logger)
	}
	j, err := junction.New(def, app,
		junction.WithExceptionPolicy(faults.NewJournalPolicy(store, policy, logger)),
		junction.WithMetrics(observability.NewMetricsRecorder()),
		junction.WithSpanManager(observability.NewSpanManager()),
	)
	if err != nil {
		return fmt.Errorf("build junction: %w", err)
	}

	settings := runSettings{
		producers: viper.GetInt("run.producers"),
		events:    viper.GetInt("run.events"),
		receivers: viper.GetInt("run.receivers"),
		failEvery: runFailEvery,
	}
	receivers, elapsed, err := drive(j, settings)
	if err != nil {
		return err
	}

	faultCount, err := store.Count(def.ID)
	if err != nil {
		return fmt.Errorf("count faults: %w", err)
	}
	printRunSummary(os.Stdout, j, receivers, elapsed, faultCount)
	return j.Err()
}

// drive subscribes counting receivers, runs the producers and stops the junction.
func drive(j *junction.Junction, s runSettings) ([]*countingReceiver, time.Duration, error) {
	receivers := make([]*countingReceiver, s.receivers)
	for i := range receivers {
		receivers[i] = &countingReceiver{id: fmt.Sprintf("%s-r%d", j.StreamID(), i), failEvery: s.failEvery}
		j.Subscribe(receivers[i])
	}

	elapsed := observability.TimedOperation()
	j.StartProcessing()

	arity := j.Definition().Arity()
	p := pool.New().WithErrors().WithMaxGoroutines(max(s.producers, 1))
	for producer := range s.producers {
		pub := j.ConstructPublisher()
		p.Go(func() error {
			for i := range s.events {
				ts := int64(producer*s.events + i + 1)
				if err := pub.SendData(ts, syntheticRow(arity, producer, i)); err != nil {
					return fmt.Errorf("producer %d: %w", producer, err)
				}
			}
			return nil
		})
	}
	sendErr := p.Wait()
	j.StopProcessing()

	return receivers, elapsed(), sendErr
}

// syntheticRow fills arity attributes with deterministic values.
func syntheticRow(arity, producer, i int) []any {
	row := make([]any, arity)
	for k := range row {
		switch k {
		case 0:
			row[k] = fmt.Sprintf("p%d", producer)
		default:
			row[k] = float64(i * k)
		}
	}
	return row
}

func pickStream(defs []*junction.StreamDefinition, id string) (*junction.StreamDefinition, error) {
	if len(defs) == 0 {
		return nil, fmt.Errorf("no streams declared")
	}
	if id == "" {
		return defs[0], nil
	}
	for _, def := range defs {
		if def.ID == id {
			return def, nil
		}
	}
	return nil, fmt.Errorf("stream %q is not declared", id)
}

func openJournal() (faults.Store, error) {
	path := viper.GetString("journal")
	if path == "" {
		path = ":memory:"
	}
	store, err := faults.NewSQLiteStore(path)
	if err != nil {
		return nil, fmt.Errorf("open fault journal: %w", err)
	}
	return store, nil
}

func printRunSummary(w io.Writer, j *junction.Junction, receivers []*countingReceiver, elapsed time.Duration, faultCount int) {
	mode := "sync"
	if j.Async() && len(receivers) > 0 {
		mode = fmt.Sprintf("async (buffer %d)", j.BufferSize())
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "STREAM %s\n", j.StreamID())
	fmt.Fprintln(w, strings.Repeat("─", 50))
	fmt.Fprintf(w, "Mode:       %s\n", mode)
	fmt.Fprintf(w, "Publishers: %d\n", len(j.Publishers()))
	fmt.Fprintf(w, "Elapsed:    %s\n", elapsed.Round(time.Microsecond))
	fmt.Fprintf(w, "Faults:     %d\n", faultCount)
	fmt.Fprintln(w)
	for _, r := range receivers {
		fmt.Fprintf(w, "  %-20s %8d delivered %6d failed\n", r.id, r.delivered.Load(), r.failed.Load())
	}
}
