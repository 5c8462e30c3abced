// Package main provides the rngkit CLI: timed entropy capture, offline
// Z-score analysis, capture-log concatenation, device status and the
// session history.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/cobra"

	"github.com/Thiagojm/rngkit-go/catalog"
	"github.com/Thiagojm/rngkit-go/collect"
	"github.com/Thiagojm/rngkit-go/device"
	"github.com/Thiagojm/rngkit-go/naming"
	"github.com/Thiagojm/rngkit-go/report"
	"github.com/Thiagojm/rngkit-go/zscore"
)

const catalogFile = "rngkit.db"

// envDefaults are environment-derived defaults; flags take precedence.
type envDefaults struct {
	DataDir string `env:"RNGKIT_DATA_DIR" envDefault:"data"`
	Device  string `env:"RNGKIT_DEVICE" envDefault:"auto"`
}

var (
	collectBits     int
	collectInterval int
	collectDuration int
	collectFolds    int
	collectDevice   string
	collectOutDir   string

	analyzeBits     int
	analyzeInterval int

	concatOut string

	sessionsLast int
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	defaults := envDefaults{}
	if err := env.Parse(&defaults); err != nil {
		log.Fatalf("parse environment: %v", err)
	}

	rootCmd := &cobra.Command{
		Use:           "rngkit",
		Short:         "Collect and analyze random number generator data",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.AddCommand(
		newCollectCmd(defaults),
		newAnalyzeCmd(),
		newConcatCmd(),
		newDevicesCmd(),
		newSessionsCmd(defaults),
	)
	return rootCmd
}

func newCollectCmd(defaults envDefaults) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Capture entropy samples at a fixed interval",
		RunE:  runCollect,
	}
	cmd.Flags().IntVar(&collectBits, "bits", 2048, "bits per sample (positive multiple of 8)")
	cmd.Flags().IntVar(&collectInterval, "interval", 1, "seconds between samples (>= 1)")
	cmd.Flags().IntVar(&collectDuration, "duration", 0, "total capture seconds (0 = until interrupted)")
	cmd.Flags().IntVar(&collectFolds, "folds", 0, "BitBabbler XOR folds (0 = RAW, 1-4)")
	cmd.Flags().StringVar(&collectDevice, "device", defaults.Device, "device: auto|trng|bitb|pseudo")
	cmd.Flags().StringVar(&collectOutDir, "outdir", defaults.DataDir, "output directory for capture files")
	return cmd
}

func runCollect(cmd *cobra.Command, args []string) error {
	cfg := collect.Config{
		SampleBits:      collectBits,
		IntervalSeconds: collectInterval,
		DurationSeconds: collectDuration,
		Folds:           collectFolds,
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(collectOutDir, 0o755); err != nil {
		return fmt.Errorf("creating outdir: %w", err)
	}

	src, err := resolveSource(collectDevice, collectFolds)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	log.Printf("collecting %d bits every %ds from %s", cfg.SampleBits, cfg.IntervalSeconds, src.Kind())
	res, err := collect.Run(ctx, cfg, src, collectOutDir, func(s collect.Sample, rec zscore.Record) {
		fmt.Printf("Row %4d | Time: %s | Ones: %4d | Z: %+.3f\n",
			s.Seq, s.Timestamp.Format("15:04:05"), s.Ones, rec.Z)
	})
	if res.Samples > 0 {
		rate := float64(res.Samples) / res.Elapsed.Seconds()
		log.Printf("session %s: %d samples in %s (%.2f samples/s)", res.State, res.Samples, res.Elapsed.Round(10*time.Millisecond), rate)
		log.Printf("files saved: %s, %s", res.BinPath, res.CSVPath)
	}
	recordSession(src.Kind(), cfg, res)
	return err
}

// resolveSource maps the device flag to a concrete source. "auto" picks the
// first present hardware device and falls back to the software source,
// loudly, when none is found.
func resolveSource(name string, folds int) (device.Source, error) {
	if name == "auto" {
		sel, err := device.Auto(folds)
		if err != nil {
			return nil, err
		}
		if sel.Fallback {
			log.Printf("no hardware RNG found, using software pseudo source")
		}
		return sel.Source, nil
	}
	kind := naming.Device(name)
	if err := kind.Validate(); err != nil {
		return nil, err
	}
	if kind == naming.DevicePseudo {
		return device.New(kind, folds)
	}
	return device.Require(kind, folds)
}

// recordSession stores the run in the session catalog. Catalog trouble only
// warns: the capture files are already safe on disk.
func recordSession(kind naming.Device, cfg collect.Config, res collect.Result) {
	// Start-up failures never created capture files; nothing to index.
	if res.BinPath == "" {
		return
	}
	cat, err := catalog.Open(filepath.Join(collectOutDir, catalogFile))
	if err != nil {
		log.Printf("session catalog: %v", err)
		return
	}
	defer cat.Close()

	_, err = cat.Insert(context.Background(), catalog.Session{
		StartedAt:       res.Started,
		Device:          string(kind),
		Bits:            cfg.SampleBits,
		IntervalSeconds: cfg.IntervalSeconds,
		Folds:           cfg.Folds,
		Samples:         int64(res.Samples),
		FinalZ:          res.FinalZ,
		BinPath:         res.BinPath,
		CSVPath:         res.CSVPath,
		Outcome:         res.State.String(),
		ElapsedMs:       res.Elapsed.Milliseconds(),
	})
	if err != nil {
		log.Printf("session catalog: %v", err)
	}
}

func newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <file.bin|file.csv>",
		Short: "Compute the running Z-score over a capture log and export an Excel report",
		Args:  cobra.ExactArgs(1),
		RunE:  runAnalyze,
	}
	cmd.Flags().IntVar(&analyzeBits, "bits", 0, "bits per sample (default: parsed from the filename)")
	cmd.Flags().IntVar(&analyzeInterval, "interval", 0, "seconds between samples (default: parsed from the filename)")
	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	path := args[0]
	bits := analyzeBits
	if bits == 0 {
		parsed, err := naming.ParseBits(path)
		if err != nil {
			return fmt.Errorf("%w (pass --bits)", err)
		}
		bits = parsed
	}
	interval := analyzeInterval
	if interval == 0 {
		parsed, err := naming.ParseInterval(path)
		if err != nil {
			return fmt.Errorf("%w (pass --interval)", err)
		}
		interval = parsed
	}

	out, n, err := report.Analyze(path, bits, interval)
	if err != nil {
		return err
	}
	log.Printf("analyzed %d samples of %d bits", n, bits)
	log.Printf("report written to %s", out)
	return nil
}

func newConcatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "concat -o <out.csv> <in.csv> <in.csv> [...]",
		Short: "Concatenate tabular capture logs with matching parameters",
		Args:  cobra.MinimumNArgs(2),
		RunE:  runConcat,
	}
	cmd.Flags().StringVarP(&concatOut, "out", "o", "", "output csv path (required)")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

func runConcat(cmd *cobra.Command, args []string) error {
	// All inputs must describe the same capture shape, or the merged
	// Z sequence would be meaningless.
	bits, err := naming.ParseBits(args[0])
	if err != nil {
		return err
	}
	interval, err := naming.ParseInterval(args[0])
	if err != nil {
		return err
	}
	for _, in := range args[1:] {
		b, err := naming.ParseBits(in)
		if err != nil {
			return err
		}
		i, err := naming.ParseInterval(in)
		if err != nil {
			return err
		}
		if b != bits || i != interval {
			return fmt.Errorf("%s: parameters s%d/i%d do not match %s (s%d/i%d)", in, b, i, args[0], bits, interval)
		}
	}
	if err := report.ConcatCSV(concatOut, args); err != nil {
		return err
	}
	log.Printf("concatenated %d files into %s", len(args), concatOut)
	return nil
}

func newDevicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "Show which entropy sources are present",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, kind := range []naming.Device{naming.DeviceTrueRNG, naming.DeviceBitBabbler, naming.DevicePseudo} {
				src, err := device.New(kind, 0)
				if err != nil {
					return err
				}
				present, derr := src.Detect()
				switch {
				case derr != nil:
					fmt.Printf("%-8s error: %v\n", kind, derr)
				case present:
					fmt.Printf("%-8s present\n", kind)
				default:
					fmt.Printf("%-8s not found\n", kind)
				}
			}
			return nil
		},
	}
}

func newSessionsCmd(defaults envDefaults) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List past capture sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := catalog.Open(filepath.Join(defaults.DataDir, catalogFile))
			if err != nil {
				return err
			}
			defer cat.Close()

			sessions, err := cat.List(context.Background(), sessionsLast)
			if err != nil {
				return err
			}
			if len(sessions) == 0 {
				fmt.Println("no sessions recorded")
				return nil
			}
			for _, s := range sessions {
				fold := ""
				if s.Folds > 0 {
					fold = fmt.Sprintf(" f%d", s.Folds)
				}
				fmt.Printf("%s  %-6s s%d i%d%s  %6d samples  z=%+.3f  %s\n",
					s.StartedAt.Format("2006-01-02 15:04:05"), s.Device,
					s.Bits, s.IntervalSeconds, fold, s.Samples, s.FinalZ, s.Outcome)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&sessionsLast, "last", 20, "number of sessions to show (0 = all)")
	return cmd
}
