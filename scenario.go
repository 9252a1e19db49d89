// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2025.10.18
//

// Implements YAML scenario configuration: the filter model, the simulated
// measurement source and the run length in one file.

package sensorfilters

import (
	"fmt"
	"io"
	"os"

	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"
)

// ModelConfig holds the filter model matrices in row-major form
// Omitted optional matrices take the construction defaults
type ModelConfig struct {
	F       [][]float64 `yaml:"f"`        // State transition matrix (n x n), mandatory
	B       [][]float64 `yaml:"b"`        // Control input matrix (n x p), optional
	H       [][]float64 `yaml:"h"`        // Observation matrix (m x n), mandatory
	Q       [][]float64 `yaml:"q"`        // Process noise covariance (n x n), optional
	R       [][]float64 `yaml:"r"`        // Measurement noise covariance (m x m), optional
	P0      [][]float64 `yaml:"p0"`       // Initial estimate covariance (n x n), optional
	X0      []float64   `yaml:"x0"`       // Initial state (n x 1), optional
	CondTol float64     `yaml:"cond_tol"` // Condition number limit for the innovation covariance, optional
}

// SimConfig holds the simulated measurement source parameters
// A zero or omitted noise_std means a noiseless source
type SimConfig struct {
	Poly     []float64 `yaml:"poly"`      // Truth polynomial, low order first
	NoiseStd float64   `yaml:"noise_std"` // Measurement noise standard deviation
	Seed     uint64    `yaml:"seed"`      // Random seed
}

// Scenario ties a filter model and a measurement source to a run length
// Dt and Steps describe the series timing; the model matrices are taken
// literally (changing dt does not rebuild F)
type Scenario struct {
	Name  string      `yaml:"name"`
	Dt    float64     `yaml:"dt"`    // Sampling interval [s]
	Steps int         `yaml:"steps"` // Number of epochs
	Model ModelConfig `yaml:"model"`
	Sim   SimConfig   `yaml:"sim"`
}

// NewScenario creates a scenario with the falling body defaults: a constant
// acceleration model at 60 Hz observing h(t) = 2000 - 9.81 t^2 through
// sigma = 50 noise
func NewScenario() *Scenario {
	dt := DEF_DT
	return &Scenario{
		Name:  "falling body",
		Dt:    dt,
		Steps: DEF_STEPS,
		Model: ModelConfig{
			F:  [][]float64{{1, dt, 0}, {0, 1, dt}, {0, 0, 1}},
			H:  [][]float64{{1, 0, 0}},
			Q:  [][]float64{{0.05, 0.05, 0}, {0.05, 0.05, 0}, {0, 0, 0}},
			R:  [][]float64{{0.5}},
			X0: []float64{2000, 0, GRAVITY},
		},
		Sim: SimConfig{
			Poly:     []float64{2000, 0, -GRAVITY},
			NoiseStd: DEF_NOISE_STD,
			Seed:     1,
		},
	}
}

// ReadScenario reads a YAML scenario from r
// Omitted dt and steps take the defaults; negative values are rejected
func ReadScenario(r io.Reader) (*Scenario, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	s := &Scenario{}
	if err := yaml.Unmarshal(b, s); err != nil {
		return nil, fmt.Errorf("yaml parse failed, err= %s", err.Error())
	}
	if s.Dt < 0 {
		return nil, fmt.Errorf("invalid sampling interval. dt=%f", s.Dt)
	}
	if s.Dt == 0 {
		s.Dt = DEF_DT
	}
	if s.Steps < 0 {
		return nil, fmt.Errorf("invalid number of steps. steps=%d", s.Steps)
	}
	if s.Steps == 0 {
		s.Steps = DEF_STEPS
	}
	return s, nil
}

// LoadScenario reads a YAML scenario file
func LoadScenario(fn string) (*Scenario, error) {
	f, err := os.Open(fn)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadScenario(f)
}

// BuildFilter constructs the Kalman filter described by the model block
// File mistakes surface as the construction's typed errors
func (p *Scenario) BuildFilter() (*KalmanFilter, error) {

	F, err := denseFromRows(p.Model.F)
	if err != nil {
		return nil, newInvalidModelErrorf("model.f: %s", err.Error())
	}
	H, err := denseFromRows(p.Model.H)
	if err != nil {
		return nil, newInvalidModelErrorf("model.h: %s", err.Error())
	}

	opt := NewKalmanOpt()
	if opt.Q, err = denseFromRows(p.Model.Q); err != nil {
		return nil, newInvalidModelErrorf("model.q: %s", err.Error())
	}
	if opt.R, err = denseFromRows(p.Model.R); err != nil {
		return nil, newInvalidModelErrorf("model.r: %s", err.Error())
	}
	if opt.P0, err = denseFromRows(p.Model.P0); err != nil {
		return nil, newInvalidModelErrorf("model.p0: %s", err.Error())
	}
	if opt.B, err = denseFromRows(p.Model.B); err != nil {
		return nil, newInvalidModelErrorf("model.b: %s", err.Error())
	}
	if len(p.Model.X0) > 0 {
		v := make([]float64, len(p.Model.X0))
		copy(v, p.Model.X0)
		opt.X0 = mat.NewVecDense(len(v), v)
	}
	if p.Model.CondTol > 0 {
		opt.CondTol = p.Model.CondTol
	}

	return NewKalmanFilter(F, H, opt)
}

// SimOpt maps the scenario's sim block onto simulation options
func (p *Scenario) SimOpt() *SimOpt {
	opt := NewSimOpt()
	if len(p.Sim.Poly) > 0 {
		opt.Poly = append([]float64{}, p.Sim.Poly...)
	}
	opt.NoiseStd = p.Sim.NoiseStd
	opt.Seed = p.Sim.Seed
	if p.Dt > 0 {
		opt.Dt = p.Dt
	}
	if p.Steps > 0 {
		opt.Steps = p.Steps
	}
	return opt
}

// denseFromRows converts a row-major [][]float64 into a matrix
// nil input yields a nil matrix so optional blocks fall through to the
// construction defaults
func denseFromRows(rows [][]float64) (*mat.Dense, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	c := len(rows[0])
	if c == 0 {
		return nil, fmt.Errorf("empty row")
	}
	d := mat.NewDense(len(rows), c, nil)
	for i, row := range rows {
		if len(row) != c {
			return nil, fmt.Errorf("ragged rows. row 0 has %d columns, row %d has %d", c, i, len(row))
		}
		for j, v := range row {
			d.Set(i, j, v)
		}
	}
	return d, nil
}
