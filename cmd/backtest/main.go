// Command backtest runs the pipeline once and prints, per evaluated season,
// the predicted champion against the actual one, followed by a summary.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"

	app "github.com/okian/titlerace/internal/app"
	"github.com/okian/titlerace/internal/config"
	"github.com/okian/titlerace/internal/domain/types"
	"github.com/okian/titlerace/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		os.Stderr.WriteString("backtest failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}

type report struct {
	Stats      types.RunStats           `json:"stats"`
	Historical []types.HistoricalRecord `json:"historical"`
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("backtest", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		asJSON      = fs.Bool("json", false, "Print the report as JSON")
		artifactDir = fs.String("artifacts", "", "Write scaler.json and metadata.json here (default: none)")
		verbose     = fs.Bool("v", false, "Log pipeline progress to stderr")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	// Results are printed, not served.
	cfg.StoreDSN = ""
	cfg.RedisURL = ""
	cfg.RefreshIntervalSeconds = 0
	cfg.ArtifactDir = *artifactDir

	logOut := io.Discard
	if *verbose {
		logOut = stderr
	}
	if err := logger.Init(logger.WithOutput(logOut), logger.WithFormat(cfg.LogFormat)); err != nil {
		return err
	}
	_ = logger.SetLevelString(cfg.LogLevel)

	svc := app.New(app.WithConfig(cfg))
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer svc.Stop(context.WithoutCancel(ctx))

	var rep report
	if rep.Stats, err = svc.Store().Stats(ctx); err != nil {
		return err
	}
	if rep.Historical, err = svc.Store().Historical(ctx); err != nil {
		return err
	}

	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}
	return writeTable(stdout, rep)
}

func writeTable(out io.Writer, rep report) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SEASON\tPREDICTED\tPROB\tACTUAL\tACTUAL RANK\tACTUAL PROB\tCORRECT")
	for _, h := range rep.Historical {
		rank, prob := "-", "-"
		if h.ActualChampionRank != nil {
			rank = strconv.Itoa(*h.ActualChampionRank)
		}
		if h.ActualChampionProbability != nil {
			prob = fmt.Sprintf("%.3f", *h.ActualChampionProbability)
		}
		mark := "no"
		if h.Correct {
			mark = "yes"
		}
		fmt.Fprintf(tw, "%d\t%s\t%.3f\t%s\t%s\t%s\t%s\n",
			h.Season, h.PredictedChampion, h.PredictedProbability, h.ActualChampion, rank, prob, mark)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	st := rep.Stats
	_, err := fmt.Fprintf(out, "\nrun %s: %d seasons, %d evaluated\n"+
		"accuracy %.1f%% (%d/%d), mean champion rank %.2f, top-3 hit rate %.1f%%\n",
		st.RunID, st.Seasons, st.SeasonsEvaluated,
		st.Accuracy*100, st.CorrectPredictions, st.SeasonsEvaluated,
		st.MeanChampionRank, st.Top3HitRate*100)
	return err
}
