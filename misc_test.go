// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2025.10.18
//

package sensorfilters

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// SQ / MAE
// ---------------------------------------------------------------------------

func TestSQ(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 9.0, SQ(3))
	assert.Equal(t, 9.0, SQ(-3))
}

func TestMAE(t *testing.T) {
	t.Parallel()

	t.Run("mean absolute error", func(t *testing.T) {
		t.Parallel()
		got := MAE([]float64{1, 2, 3}, []float64{2, 2, 1})
		assert.InDelta(t, 1, got, 1e-15)
	})

	t.Run("mismatched or empty input is NaN", func(t *testing.T) {
		t.Parallel()
		assert.True(t, math.IsNaN(MAE([]float64{1}, []float64{1, 2})))
		assert.True(t, math.IsNaN(MAE(nil, nil)))
	})
}

// ---------------------------------------------------------------------------
// VecVar
// ---------------------------------------------------------------------------

func TestVecVar(t *testing.T) {
	t.Parallel()

	t.Run("parses comma separated floats", func(t *testing.T) {
		t.Parallel()
		v := VecVar{}
		require.NoError(t, v.Set("2000, 0,9.81"))
		assert.Equal(t, VecVar{2000, 0, 9.81}, v)
	})

	t.Run("rejects a malformed element", func(t *testing.T) {
		t.Parallel()
		v := VecVar{}
		assert.Error(t, v.Set("1,x,3"))
	})

	t.Run("flag default display is empty", func(t *testing.T) {
		t.Parallel()
		v := VecVar{}
		assert.Equal(t, "", v.String())
	})
}
