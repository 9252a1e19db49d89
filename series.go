// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2025.10.11
//

package sensorfilters

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Structure to store measurement data for one epoch
type MeasE struct {
	T     float64       // Epoch time [s]
	Z     *mat.VecDense // Measurement vector (m x 1)
	U     *mat.VecDense // Control vector (p x 1), nil when the epoch has no control input
	Truth *mat.VecDense // Noiseless reference state, nil when unknown (set by the simulator)
}

// Structure to store measurement data for all epochs
type Series struct {
	Dt   float64  // Sampling interval [s]
	DatE []*MeasE // Measurement data for each epoch (ascending in time)
}

// Number of epochs
func (p *Series) Len() int {
	return len(p.DatE)
}

// Measurement dimension, taken from the first epoch (0 when empty)
func (p *Series) Dim() int {
	if len(p.DatE) == 0 {
		return 0
	}
	return p.DatE[0].Z.Len()
}

// Report whether every epoch carries a noiseless reference state
func (p *Series) HasTruth() bool {
	if len(p.DatE) == 0 {
		return false
	}
	for _, e := range p.DatE {
		if e.Truth == nil {
			return false
		}
	}
	return true
}

// Display measurement series overview
func (p *Series) String() string {
	if len(p.DatE) == 0 {
		return "NO DATA"
	}
	return fmt.Sprintf("epochs: %d, span: %.3f - %.3f [s], dt: %.6f [s], dim: %d, truth: %t",
		len(p.DatE), p.DatE[0].T, p.DatE[len(p.DatE)-1].T, p.Dt, p.Dim(), p.HasTruth())
}

// ReadSeries reads a measurement series from r
//
// Format: one epoch per line, whitespace separated columns "t z1 ... zm".
// Lines starting with '#' and blank lines are skipped. The measurement
// dimension m is fixed by the first data line; Dt is derived from the first
// two epochs.
func ReadSeries(r io.Reader) (*Series, error) {

	s := &Series{DatE: []*MeasE{}}
	sc := bufio.NewScanner(r)
	m := 0
	ln := 0
	for sc.Scan() {
		ln++
		line := strings.TrimSpace(sc.Text())
		if len(line) == 0 || strings.HasPrefix(line, "#") {
			continue
		}
		fs := strings.Fields(line)
		if len(fs) < 2 {
			return nil, fmt.Errorf("line %d: expected \"t z1 ... zm\", got %d columns", ln, len(fs))
		}
		if m == 0 {
			m = len(fs) - 1
		}
		if len(fs)-1 != m {
			return nil, fmt.Errorf("line %d: expected %d measurement columns, got %d", ln, m, len(fs)-1)
		}
		t, err := strconv.ParseFloat(fs[0], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid epoch time %q", ln, fs[0])
		}
		z := mat.NewVecDense(m, nil)
		for i, f := range fs[1:] {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid measurement %q", ln, f)
			}
			z.SetVec(i, v)
		}
		s.DatE = append(s.DatE, &MeasE{T: t, Z: z})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(s.DatE) >= 2 {
		s.Dt = s.DatE[1].T - s.DatE[0].T
	}
	return s, nil
}

// WriteSeries writes the series to w in the format ReadSeries accepts
// (epoch time and measurement columns; control and truth are not persisted)
func WriteSeries(w io.Writer, s *Series) error {
	if s == nil {
		return fmt.Errorf("the series is empty")
	}
	for _, e := range s.DatE {
		var sb strings.Builder
		fmt.Fprintf(&sb, "%12.6f", e.T)
		for i := range e.Z.Len() {
			fmt.Fprintf(&sb, " %16.6f", e.Z.AtVec(i))
		}
		if _, err := fmt.Fprintln(w, sb.String()); err != nil {
			return err
		}
	}
	return nil
}
