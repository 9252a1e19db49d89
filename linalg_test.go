// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2025.10.4
//

package sensorfilters

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// ---------------------------------------------------------------------------
// Eye
// ---------------------------------------------------------------------------

func TestEye(t *testing.T) {
	t.Parallel()

	I := Eye(3)
	r, c := I.Dims()
	assert.Equal(t, 3, r)
	assert.Equal(t, 3, c)
	for i := range 3 {
		for j := range 3 {
			if i == j {
				assert.Equal(t, 1.0, I.At(i, j))
			} else {
				assert.Equal(t, 0.0, I.At(i, j))
			}
		}
	}
}

// ---------------------------------------------------------------------------
// Symmetrize
// ---------------------------------------------------------------------------

func TestSymmetrize(t *testing.T) {
	t.Parallel()

	t.Run("averages the off-diagonal pairs", func(t *testing.T) {
		t.Parallel()
		A := mat.NewDense(2, 2, []float64{
			1, 2,
			4, 3,
		})
		Symmetrize(A)
		requireMatApprox(t, mat.NewDense(2, 2, []float64{1, 3, 3, 3}), A, 0)
	})

	t.Run("panics on a non square matrix", func(t *testing.T) {
		t.Parallel()
		assert.Panics(t, func() { Symmetrize(mat.NewDense(2, 3, nil)) })
	})
}

// ---------------------------------------------------------------------------
// MinEigSym
// ---------------------------------------------------------------------------

func TestMinEigSym(t *testing.T) {
	t.Parallel()

	t.Run("positive definite matrix", func(t *testing.T) {
		t.Parallel()
		min, err := MinEigSym(mat.NewDense(2, 2, []float64{2, 0, 0, 3}))
		require.NoError(t, err)
		assert.InDelta(t, 2, min, 1e-12)
	})

	t.Run("indefinite matrix", func(t *testing.T) {
		t.Parallel()
		min, err := MinEigSym(mat.NewDense(2, 2, []float64{0, 1, 1, 0}))
		require.NoError(t, err)
		assert.InDelta(t, -1, min, 1e-12)
	})

	t.Run("non square matrix", func(t *testing.T) {
		t.Parallel()
		_, err := MinEigSym(mat.NewDense(2, 3, nil))
		assert.Error(t, err)
	})
}

// ---------------------------------------------------------------------------
// SolveLS
// ---------------------------------------------------------------------------

func TestSolveLS(t *testing.T) {
	t.Parallel()

	t.Run("recovers the exact solution of a consistent system", func(t *testing.T) {
		t.Parallel()
		G := mat.NewDense(3, 2, []float64{
			1, 0,
			0, 1,
			1, 1,
		})
		// dr = G x for x = [2, -1]
		dr := mat.NewVecDense(3, []float64{2, -1, 1})
		W := Eye(3)

		dx, cov, err := SolveLS(G, dr, W)
		require.NoError(t, err)
		requireMatApprox(t, mat.NewVecDense(2, []float64{2, -1}), dx, 1e-12)

		// cov = (G^t G)^-1 = [[2,1],[1,2]]^-1
		want := mat.NewDense(2, 2, []float64{2.0 / 3, -1.0 / 3, -1.0 / 3, 2.0 / 3})
		requireMatApprox(t, want, cov, 1e-12)
	})

	t.Run("rejects mismatched weight matrix", func(t *testing.T) {
		t.Parallel()
		G := mat.NewDense(3, 2, nil)
		dr := mat.NewVecDense(3, nil)
		_, _, err := SolveLS(G, dr, Eye(2))
		assert.Error(t, err)
	})
}
