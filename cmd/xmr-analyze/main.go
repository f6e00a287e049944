// Command xmr-analyze runs the XMR engine over a stored series and
// prints control limits, rule violations, and trend/seasonality
// summaries, optionally writing the chart-ready snapshot to a file.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/spcwise/xmr/internal/chart"
	"github.com/spcwise/xmr/internal/log"
	"github.com/spcwise/xmr/internal/seasonal"
	"github.com/spcwise/xmr/internal/series"
	"github.com/spcwise/xmr/internal/store"
	"github.com/spcwise/xmr/internal/xmr"
	"github.com/spcwise/xmr/pkg/config"
)

const version = "1.0-" + runtime.GOOS + "/" + runtime.GOARCH

func main() {
	var (
		input         = flag.String("input", "", "JSON file of raw points [{timestamp, value, confidence}]")
		dbPath        = flag.String("db", "", "SQLite series database (alternative to -input)")
		metric        = flag.String("metric", "", "Metric name to load from the database")
		cfgFile       = flag.String("config", "", "Optional YAML engine parameter file")
		trend         = flag.Bool("trend", false, "Fit a linear trend baseline and evaluate violations against it")
		deseasonalize = flag.Bool("deseasonalize", false, "Detect periodicity and remove seasonal factors before limit calculation")
		grouping      = flag.String("grouping", "multiplicative", "Seasonal factor mode: multiplicative or additive")
		autoLock      = flag.Bool("auto-lock", false, "Take the auto-lock decision for outlier-excluded limits")
		output        = flag.String("output", "", "Write the snapshot to a file (.json or .msgpack)")
		debug         = flag.Bool("debug", false, "Turn on debugging output")
		showVersion   = flag.Bool("version", false, "Show version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("xmr-analyze %s\n", version)
		os.Exit(0)
	}

	if err := log.Init(*debug); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if *trend && *deseasonalize {
		log.Fatalf("-trend and -deseasonalize are mutually exclusive transforms")
	}

	params, err := loadParams(*cfgFile)
	if err != nil {
		log.Fatalf("Failed to load engine parameters: %v", err)
	}

	raw, err := loadPoints(*input, *dbPath, *metric)
	if err != nil {
		log.Fatalf("Failed to load points: %v", err)
	}
	log.Debugf("Loaded %d raw points", len(raw))

	opts := chart.Options{
		Params:   params,
		AutoLock: *autoLock,
	}
	switch {
	case *trend:
		opts.Transform = xmr.TransformTrended
	case *deseasonalize:
		opts.Transform = xmr.TransformDeseasonalized
	}
	switch strings.ToLower(*grouping) {
	case "multiplicative":
		opts.Grouping = seasonal.Multiplicative
	case "additive":
		opts.Grouping = seasonal.Additive
	default:
		log.Fatalf("Unknown grouping %q", *grouping)
	}

	snap := chart.Build(raw, opts, nil)
	displaySnapshot(snap)

	if *output != "" {
		if err := writeSnapshot(snap, *output); err != nil {
			log.Fatalf("Failed to write snapshot: %v", err)
		}
		fmt.Printf("\nSnapshot written to %s\n", *output)
	}
}

func loadParams(cfgFile string) (config.Params, error) {
	if cfgFile == "" {
		return config.DefaultParams(), nil
	}
	provider := config.NewYAMLProvider(cfgFile)
	defer provider.Close()

	params, err := provider.LoadParams()
	if err != nil {
		return config.Params{}, err
	}
	return *params, nil
}

func loadPoints(input, dbPath, metric string) ([]series.RawPoint, error) {
	switch {
	case input != "" && dbPath != "":
		return nil, fmt.Errorf("-input and -db are mutually exclusive")
	case input != "":
		data, err := os.ReadFile(input)
		if err != nil {
			return nil, err
		}
		var raw []series.RawPoint
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", input, err)
		}
		return raw, nil
	case dbPath != "":
		if metric == "" {
			return nil, fmt.Errorf("-metric is required with -db")
		}
		db, err := store.Open(dbPath)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		return db.LoadPoints(context.Background(), metric)
	default:
		return nil, fmt.Errorf("one of -input or -db is required")
	}
}

func displaySnapshot(snap chart.Snapshot) {
	fmt.Printf("XMR Analysis\n")
	fmt.Printf("============\n\n")
	fmt.Printf("Session:    %s\n", snap.SessionID)
	fmt.Printf("Transform:  %s\n", snap.Transform)
	fmt.Printf("Lock state: %s\n\n", snap.LockState)

	if snap.InsufficientData {
		fmt.Printf("Insufficient data for charting.\n")
		return
	}

	if snap.Limits != nil {
		l := snap.Limits
		fmt.Printf("Limits:\n")
		fmt.Printf("  Centre (avg X):      %12.4f\n", l.AvgX)
		fmt.Printf("  Avg moving range:    %12.4f\n", l.AvgMovement)
		fmt.Printf("  UNPL / LNPL:         %12.4f / %.4f\n", l.UNPL, l.LNPL)
		fmt.Printf("  Quartile band:       %12.4f / %.4f\n", l.UpperQuartile, l.LowerQuartile)
		fmt.Printf("  Range chart URL:     %12.4f\n\n", l.URL)
	}

	if snap.Trend != nil {
		fmt.Printf("Trend baseline:\n")
		fmt.Printf("  Gradient:  %12.6f per point\n", snap.Trend.Gradient)
		fmt.Printf("  Intercept: %12.4f\n\n", snap.Trend.Intercept)
	}

	if snap.Seasonal != nil {
		fmt.Printf("Seasonal factors (%s, %s):\n", snap.Seasonal.Period, snap.Seasonal.Grouping)
		for phase, f := range snap.Seasonal.Factors {
			fmt.Printf("  phase %2d: %8.4f\n", phase, f)
		}
		fmt.Printf("\n")
	}

	if len(snap.ExcludedIndices) > 0 {
		fmt.Printf("Excluded indices: %v\n\n", snap.ExcludedIndices)
	}

	counts := make(map[string]int)
	for _, pt := range snap.Points {
		if pt.PrimaryRule != "" {
			counts[pt.PrimaryRule]++
		}
	}
	fmt.Printf("Points: %d, flagged: %d\n", len(snap.Points), flaggedCount(snap.Points))
	for _, rule := range []string{
		"outside-limits",
		"two-of-three-beyond-two-sigma",
		"four-near-limit",
		"running-points",
		"fifteen-within-one-sigma",
	} {
		if counts[rule] > 0 {
			fmt.Printf("  %-30s %d\n", rule, counts[rule])
		}
	}
}

func flaggedCount(points []chart.PointView) int {
	n := 0
	for _, pt := range points {
		if pt.PrimaryRule != "" {
			n++
		}
	}
	return n
}

func writeSnapshot(snap chart.Snapshot, path string) error {
	var data []byte
	var err error
	if strings.HasSuffix(path, ".msgpack") {
		data, err = chart.EncodeSnapshot(snap)
	} else {
		data, err = chart.EncodeSnapshotJSON(snap)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
