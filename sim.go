// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2025.10.11
//

// Implements a simulated measurement source: a polynomial truth signal
// observed through gaussian noise. Stands in for a live sensor when testing
// or demonstrating the filter.

package sensorfilters

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// SimOpt contains options for simulated measurement generation
type SimOpt struct {
	Poly     []float64 // Truth signal polynomial, low order first: h(t) = c0 + c1 t + c2 t^2 + ...
	NoiseStd float64   // Measurement noise standard deviation (0 for a noiseless source)
	Seed     uint64    // Random seed (same seed, same series)
	Dt       float64   // Sampling interval [s]
	Steps    int       // Number of epochs to generate
}

// NewSimOpt creates a new SimOpt with default values
// The defaults reproduce the falling body fixture: h(t) = 2000 - 9.81 t^2
// observed with sigma = 50 noise at 60 Hz for 100 epochs
func NewSimOpt() *SimOpt {
	return &SimOpt{
		Poly:     []float64{2000, 0, -GRAVITY}, // Falling body height [m]
		NoiseStd: DEF_NOISE_STD,                // Measurement noise [m]
		Seed:     1,                            // Fixed seed for reproducible runs
		Dt:       DEF_DT,                       // Sampling interval [s]
		Steps:    DEF_STEPS,                    // Number of epochs
	}
}

// GenSeries generates a simulated scalar measurement series
// Every epoch carries the noisy measurement and the noiseless truth state
// [h, dh/dt, d2h/dt2], so a tracking run over the series can be scored
// against the truth
func GenSeries(opt *SimOpt) (*Series, error) {

	if opt == nil {
		opt = NewSimOpt()
	}
	if len(opt.Poly) == 0 {
		return nil, fmt.Errorf("the truth polynomial is empty")
	}
	if opt.Dt <= 0 {
		return nil, fmt.Errorf("invalid sampling interval. dt=%f", opt.Dt)
	}
	if opt.Steps <= 0 {
		return nil, fmt.Errorf("invalid number of steps. steps=%d", opt.Steps)
	}
	if opt.NoiseStd < 0 {
		return nil, fmt.Errorf("invalid noise standard deviation. std=%f", opt.NoiseStd)
	}

	noise := distuv.Normal{Mu: 0, Sigma: opt.NoiseStd, Src: rand.NewSource(opt.Seed)}
	s := &Series{Dt: opt.Dt, DatE: make([]*MeasE, 0, opt.Steps)}
	for i := range opt.Steps {
		t := float64(i) * opt.Dt
		h := polyVal(opt.Poly, t)
		z := h
		if opt.NoiseStd > 0 {
			z += noise.Rand()
		}
		s.DatE = append(s.DatE, &MeasE{
			T:     t,
			Z:     mat.NewVecDense(1, []float64{z}),
			Truth: mat.NewVecDense(3, []float64{h, polyDer1(opt.Poly, t), polyDer2(opt.Poly, t)}),
		})
	}
	return s, nil
}

// Evaluate the polynomial at t (Horner)
func polyVal(c []float64, t float64) float64 {
	v := 0.0
	for i := len(c) - 1; i >= 0; i-- {
		v = v*t + c[i]
	}
	return v
}

// Evaluate the first derivative of the polynomial at t
func polyDer1(c []float64, t float64) float64 {
	v := 0.0
	for i := len(c) - 1; i >= 1; i-- {
		v = v*t + float64(i)*c[i]
	}
	return v
}

// Evaluate the second derivative of the polynomial at t
func polyDer2(c []float64, t float64) float64 {
	v := 0.0
	for i := len(c) - 1; i >= 2; i-- {
		v = v*t + float64(i)*float64(i-1)*c[i]
	}
	return v
}

// FitInitialState estimates an initial state [h, dh/dt, d2h/dt2] for a
// constant acceleration model by quadratic least squares over the first k
// scalar measurements of the series (track initiation without prior
// knowledge of x0)
//
// Parameters:
//   - s: Measurement series with scalar measurements
//   - k: Number of leading epochs to fit (at least 3)
//
// Returns:
//   - Initial state vector (3 x 1) referenced to the first epoch time
//   - error: Any error encountered during the fit
func FitInitialState(s *Series, k int) (*mat.VecDense, error) {

	if s == nil || s.Len() == 0 {
		return nil, fmt.Errorf("the series is empty")
	}
	if s.Dim() != 1 {
		return nil, fmt.Errorf("quadratic initialization needs scalar measurements. dim=%d", s.Dim())
	}
	if k < 3 || k > s.Len() {
		return nil, fmt.Errorf("invalid sample count. k=%d, len=%d (3 <= k <= len)", k, s.Len())
	}

	// h(t0+dt) = h + (dh/dt) dt + (d2h/dt2) dt^2/2
	t0 := s.DatE[0].T
	G := mat.NewDense(k, 3, nil)
	dr := mat.NewVecDense(k, nil)
	for i := range k {
		dt := s.DatE[i].T - t0
		G.Set(i, 0, 1)
		G.Set(i, 1, dt)
		G.Set(i, 2, dt*dt/2)
		dr.SetVec(i, s.DatE[i].Z.AtVec(0))
	}
	W := Eye(k) // Equal weights

	dx, _, err := SolveLS(G, dr, W)
	if err != nil {
		return nil, fmt.Errorf("SolveLS() failed, err= %s", err.Error())
	}
	return mat.NewVecDense(3, []float64{dx.AtVec(0), dx.AtVec(1), dx.AtVec(2)}), nil
}
