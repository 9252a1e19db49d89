// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2025.10.18
//

package main

import (
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	m "github.com/Bancroft427269616e/SensorFilters"
)

func main() {

	// Parse command line arguments
	args, err := parseArgs()
	if err != nil {
		flag.Usage()
		os.Exit(1)
	}

	// Run the main application
	if err := runApplication(args); err != nil {
		m.PrintE(err)
		os.Exit(1)
	}
}

// Main application processing
func runApplication(args cmdOpt) error {

	// Load the scenario
	scn, err := loadScenario(args)
	if err != nil {
		return fmt.Errorf("failed to load scenario: %w", err)
	}

	// Build the measurement series (recorded file or simulation)
	s, err := buildSeries(args, scn)
	if err != nil {
		return fmt.Errorf("failed to build measurement series: %w", err)
	}

	if m.DBG_ >= 1 {
		m.PrintA("--- series ---\n%s\n", s)
	}

	// Build the filter
	kf, err := buildFilter(args, scn, s)
	if err != nil {
		return fmt.Errorf("failed to build filter: %w", err)
	}

	// Prepare output file
	out, err := prepareOutput(args)
	if err != nil {
		return fmt.Errorf("failed to prepare output: %w", err)
	}
	defer closeOutput(out)

	// Print header
	if !args.noHeader {
		printSolHeader(out, args, scn, s, kf)
	}

	// Run the filter over the series
	topt := m.NewTrackOpt()
	topt.RecordCov = true
	sol, err := m.CalcTrack(kf, s, topt)
	if err != nil {
		return fmt.Errorf("tracking failed: %w", err)
	}

	// Output results
	printSol(out, s, sol)
	printSummary(out, sol)

	return nil
}

// Load the scenario file, or fall back to the built-in falling body scenario
func loadScenario(args cmdOpt) (*m.Scenario, error) {
	if len(args.scnFn) == 0 {
		return m.NewScenario(), nil
	}
	return m.LoadScenario(args.scnFn)
}

// Build the measurement series from a recorded file or from the simulator
func buildSeries(args cmdOpt, scn *m.Scenario) (*m.Series, error) {

	// Recorded series file takes precedence over simulation
	if len(args.seriesFn) > 0 {
		f, err := os.Open(args.seriesFn)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return m.ReadSeries(f)
	}

	// Simulation with command line overrides
	sopt := scn.SimOpt()
	if args.noiseStd >= 0 {
		sopt.NoiseStd = args.noiseStd
	}
	if args.steps > 0 {
		sopt.Steps = args.steps
	}
	if args.seed > 0 {
		sopt.Seed = args.seed
	}
	return m.GenSeries(sopt)
}

// Build the filter from the scenario model and apply command line overrides
func buildFilter(args cmdOpt, scn *m.Scenario, s *m.Series) (*m.KalmanFilter, error) {

	// Initial state override
	if len(args.x0) > 0 {
		scn.Model.X0 = []float64(args.x0)
	}

	kf, err := scn.BuildFilter()
	if err != nil {
		return nil, err
	}

	// Measurement noise override (runtime reconfiguration of R)
	if args.rVar > 0 {
		R := m.Eye(kf.MeasurementDim())
		R.Scale(args.rVar, R)
		if err := kf.SetMeasurementNoise(R); err != nil {
			return nil, err
		}
	}

	// Initialize the state by least squares over the leading measurements
	if args.fitN > 0 {
		x0, err := m.FitInitialState(s, args.fitN)
		if err != nil {
			return nil, fmt.Errorf("initial state fit failed: %w", err)
		}
		if err := kf.Reset(x0, m.Eye(kf.StateDim())); err != nil {
			return nil, fmt.Errorf("reset failed: %w", err)
		}
		if m.DBG_ >= 1 {
			m.PrintA("--- fitted x0 (k=%d) ---\n", args.fitN)
			m.PrintMat(x0)
		}
	}

	return kf, nil
}

// Prepare output file
func prepareOutput(args cmdOpt) (io.WriteCloser, error) {

	// Use stdout if no output file is specified
	if len(args.outFn) == 0 {
		return &nopCloser{os.Stdout}, nil
	}

	// Create output file
	f, err := os.Create(args.outFn)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, nil
}

// Close output file
func closeOutput(out io.WriteCloser) {
	if out != nil {
		out.Close()
	}
}

// nopCloser - WriteCloser that ignores close operations
type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

// Structure to hold command line argument information
type cmdOpt struct {
	scnFn    string   // Scenario file path
	seriesFn string   // Recorded measurement series file path
	outFn    string   // Output file path
	noiseStd float64  // Simulated noise override (negative keeps the scenario value)
	rVar     float64  // Measurement noise variance override (0 keeps the scenario value)
	steps    int      // Epoch count override (0 keeps the scenario value)
	seed     uint64   // Random seed override (0 keeps the scenario value)
	fitN     int      // Leading epochs for least squares state initialization (0 for off)
	x0       m.VecVar // Initial state override
	noHeader bool     // Do not output the header section
}

// Parse command line arguments
func parseArgs() (a cmdOpt, err error) {
	flag.Usage = func() {
		m.PrintA(`
[Usage]
	%s [Options]                    run the built-in falling body scenario
	%s [Options] -c scenario.yaml   run a scenario file
	%s [Options] -i series.txt      filter a recorded measurement series

[Options]
`, filepath.Base(os.Args[0]), filepath.Base(os.Args[0]), filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.StringVar(&a.scnFn, "c", "", "Scenario file path (YAML). If not specified, the built-in falling body scenario is used.")
	flag.StringVar(&a.seriesFn, "i", "", "Recorded measurement series file path. If specified, the scenario's simulation block is ignored.")
	flag.StringVar(&a.outFn, "o", "", "Output file path. If not specified, output to stdout.")
	flag.Float64Var(&a.noiseStd, "n", -1, "Simulated measurement noise standard deviation. Overrides the scenario value. Set to 0 for a noiseless source.")
	flag.Float64Var(&a.rVar, "r", 0, "Measurement noise variance for the filter. Overrides the scenario's R with rI at runtime.")
	flag.IntVar(&a.steps, "steps", 0, "Number of epochs to simulate. Overrides the scenario value.")
	flag.Uint64Var(&a.seed, "seed", 0, "Random seed for the simulated noise. Overrides the scenario value.")
	flag.IntVar(&a.fitN, "fit", 0, "Initialize the state by quadratic least squares over the first N measurements instead of the scenario's x0.")
	flag.Var(&a.x0, "x0", "Initial state override. Comma-separated without spaces like -x0 2000,0,9.81")
	flag.BoolVar(&a.noHeader, "nh", false, "Do not output the header section.")
	var dbg int
	flag.IntVar(&dbg, "x", 0, "Debug information display. Specify level value. 0(OFF), 1(display), 2(detailed display), 3(more detailed), 4(most detailed)")
	flag.Parse()
	if flag.NArg() > 0 {
		return a, fmt.Errorf("too many arguments")
	}
	m.DBG_ = dbg
	return
}

// Print output header
func printSolHeader(out io.Writer, args cmdOpt, scn *m.Scenario, s *m.Series, kf *m.KalmanFilter) {
	fmt.Fprintf(out, "%% program   : %s\n", filepath.Base(os.Args[0]))
	fmt.Fprintf(out, "%% scenario  : %s\n", scn.Name)
	if len(args.seriesFn) > 0 {
		fmt.Fprintf(out, "%% inp file  : %s\n", args.seriesFn)
	}
	fmt.Fprintf(out, "%% model     : n=%d, m=%d\n", kf.StateDim(), kf.MeasurementDim())
	fmt.Fprintf(out, "%% series    : %s\n", s)
	if len(args.seriesFn) == 0 {
		std := scn.Sim.NoiseStd
		if args.noiseStd >= 0 {
			std = args.noiseStd
		}
		fmt.Fprintf(out, "%% noise     : sim std= %.4f\n", std)
	}
	if args.rVar > 0 {
		fmt.Fprintf(out, "%% r override: %.4f\n", args.rVar)
	}
	fmt.Fprintf(out, "%%%11s", "t(s)")
	for j := range kf.MeasurementDim() {
		fmt.Fprintf(out, " %16s", fmt.Sprintf("z%d", j+1))
	}
	for j := range kf.MeasurementDim() {
		fmt.Fprintf(out, " %16s", fmt.Sprintf("zhat%d", j+1))
	}
	for j := range kf.StateDim() {
		fmt.Fprintf(out, " %16s", fmt.Sprintf("x%d", j+1))
	}
	for j := range kf.StateDim() {
		fmt.Fprintf(out, " %12s", fmt.Sprintf("sd%d", j+1))
	}
	fmt.Fprintf(out, "\n")
}

// Output one line per epoch: time, measurement, predicted measurement,
// corrected state and its standard deviations
func printSol(out io.Writer, s *m.Series, sol *m.TrackSol) {
	for i, t := range sol.T {
		fmt.Fprintf(out, "%12.6f", t)
		z := s.DatE[i].Z
		for j := range z.Len() {
			fmt.Fprintf(out, " %16.6f", z.AtVec(j))
		}
		pz := sol.PredZ[i]
		for j := range pz.Len() {
			fmt.Fprintf(out, " %16.6f", pz.AtVec(j))
		}
		est := sol.Est[i]
		for j := range est.Len() {
			fmt.Fprintf(out, " %16.6f", est.AtVec(j))
		}
		if i < len(sol.Cov) {
			cov := sol.Cov[i]
			for j := range est.Len() {
				fmt.Fprintf(out, " %12.6f", math.Sqrt(math.Max(cov.At(j, j), 0)))
			}
		}
		fmt.Fprintf(out, "\n")
	}
}

// Output summary lines after the table
func printSummary(out io.Writer, sol *m.TrackSol) {
	fmt.Fprintf(out, "%% epochs    : %d, skipped updates: %d\n", len(sol.T), sol.Skipped)
	if !math.IsNaN(sol.MeasMAE) {
		fmt.Fprintf(out, "%% meas mae  : %.4f (raw measurements vs truth)\n", sol.MeasMAE)
		fmt.Fprintf(out, "%% pred mae  : %.4f (filter predictions vs truth)\n", sol.PredMAE)
	}
}
