package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"paramsheet/internal"
	"paramsheet/internal/config"
	"paramsheet/internal/listener"
	"paramsheet/internal/logging"
	"paramsheet/internal/metrics"
	"paramsheet/internal/pipeline"
	"paramsheet/internal/storage"
	"paramsheet/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	must(err)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	log := logging.New(cfg.LogLevel, cfg.LogFormat)
	rec := metrics.NewRecorder()

	profile, err := config.LoadProfile(cfg.ProfilePath)
	must(err)

	var db *storage.DB
	if cfg.JournalEnabled {
		db, err = storage.Open(cfg.DBPath)
		must(err)
		defer db.Close()
	}

	conv := pipeline.NewConverter(profile, log, rec)
	processor := pipeline.NewProcessingService(db, cfg, conv, log, rec)

	cmd := os.Args[1]
	switch cmd {
	case "convert":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		input := fs.String("input", "", "input file path")
		dialect := fs.String("dialect", "", "macro|ini|attrset|tabular|source (detected when empty)")
		output := fs.String("output", "", "output xlsx path")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*input) == "" {
			must(fmt.Errorf("--input is required"))
		}

		req := pipeline.ProcessRequest{InputPath: *input, OutputPath: *output}
		if strings.TrimSpace(*dialect) != "" {
			d, ok := internal.ParseDialect(*dialect)
			if !ok {
				must(fmt.Errorf("unknown dialect: %s", *dialect))
			}
			req.Dialect = d
		}

		res, err := processor.ProcessFile(req)
		must(err)
		must(rec.WriteTextfile(cfg.MetricsFile))
		s := res.Summary
		fmt.Printf("convert done dialect=%s input=%d skipped=%d headers=%d dropped=%d records=%d fallbacks=%d output=%s\n",
			res.Dialect, s.Input, s.Skipped, s.Headers, s.Dropped, s.Output, s.FallbackCount(), res.OutputPath)
	case "detect":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		input := fs.String("input", "", "input file path")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*input) == "" {
			must(fmt.Errorf("--input is required"))
		}
		blob, err := os.ReadFile(*input)
		must(err)
		res := pipeline.DetectDialect(*input, blob)
		if !res.OK() {
			must(fmt.Errorf("no dialect detected score=%.2f", res.Score))
		}
		fmt.Printf("dialect=%s score=%.2f reason=%s\n", res.Dialect, res.Score, res.Reason)
	case "runs":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		limit := fs.Int("limit", 20, "max runs")
		runID := fs.Int("runId", 0, "show one run in detail")
		_ = fs.Parse(os.Args[2:])
		requireJournal(db)
		if *runID != 0 {
			run, err := db.MustRun(*runID)
			must(err)
			summary, err := db.GetRunSummary(*runID)
			must(err)
			fmt.Printf("run=%d trace=%s dialect=%s status=%s input=%s output=%s\n",
				run.ID, run.TraceID, run.Dialect, run.Status, run.InputPath, run.OutputPath)
			fmt.Printf("input=%d extracted=%d skipped=%d headers=%d dropped=%d records=%d\n",
				summary.Input, summary.Extracted, summary.Skipped, summary.Headers, summary.Dropped, summary.Output)
			if summary.FallbackCount() > 0 {
				fmt.Printf("type fallbacks: %s\n", pipeline.FormatFallbacks(summary.TypeFallbacks))
			}
			if run.Error != "" {
				fmt.Printf("error: %s\n", run.Error)
			}
			return
		}
		runs, err := db.ListRuns(*limit)
		must(err)
		for _, r := range runs {
			fmt.Printf("%d\t%s\t%s\t%s\trecords=%d\tfallbacks=%d\t%s\t%s\n",
				r.ID, r.CreatedAt, r.Dialect, r.Status, r.Records, r.Fallbacks, r.InputPath, r.Error)
		}
	case "export:xlsx":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		runID := fs.Int("runId", 0, "journaled run id")
		out := fs.String("out", "", "output xlsx path")
		_ = fs.Parse(os.Args[2:])
		if *runID == 0 {
			must(fmt.Errorf("--runId is required"))
		}
		requireJournal(db)
		path, err := processor.ExportRun(*runID, *out)
		must(err)
		fmt.Printf("exported run %d to %s\n", *runID, path)
	case "telemetry":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		input := fs.String("input", "", "CAN trace path")
		output := fs.String("output", "", "output xlsx path")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*input) == "" {
			must(fmt.Errorf("--input is required"))
		}
		f, err := os.Open(*input)
		must(err)
		lines, err := pipeline.ReadLines(f, cfg.SourceEncoding)
		_ = f.Close()
		must(err)

		res := telemetry.Decode(lines)
		out := *output
		if out == "" {
			out = pipeline.DefaultOutputPath(cfg.OutputDir, *input)
		}
		must(telemetry.ExportXLSX(res.Samples, out))
		fmt.Printf("telemetry done frames=%d samples=%d orphans=%d malformed=%d output=%s\n",
			res.Frames, len(res.Samples), res.Orphans, res.Malformed, out)
	case "watch":
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		svc := listener.NewService(db, cfg, processor, log, rec)
		must(svc.Run(ctx))
	default:
		usage()
		os.Exit(1)
	}
}

func requireJournal(db *storage.DB) {
	if db == nil {
		must(fmt.Errorf("journal is disabled (JOURNAL_ENABLED=false)"))
	}
}

func usage() {
	fmt.Println("usage: paramsheet <command>")
	fmt.Println("commands:")
	fmt.Println("  convert --input=... [--dialect=macro|ini|attrset|tabular|source] [--output=...xlsx]")
	fmt.Println("  detect --input=...")
	fmt.Println("  runs [--limit=20] [--runId=1]")
	fmt.Println("  export:xlsx --runId=1 [--out=./out/run_1.xlsx]")
	fmt.Println("  telemetry --input=trace.log [--output=...xlsx]")
	fmt.Println("  watch")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
