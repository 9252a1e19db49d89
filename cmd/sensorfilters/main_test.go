// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2025.10.18
//

package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "github.com/Bancroft427269616e/SensorFilters"
)

// ---------------------------------------------------------------------------
// printSolHeader
// ---------------------------------------------------------------------------

func TestPrintSolHeader(t *testing.T) {
	t.Parallel()

	header := func(t *testing.T, args cmdOpt) string {
		t.Helper()
		scn := m.NewScenario()
		kf, err := scn.BuildFilter()
		require.NoError(t, err)
		sopt := scn.SimOpt()
		sopt.Steps = 3
		s, err := m.GenSeries(sopt)
		require.NoError(t, err)

		var sb strings.Builder
		printSolHeader(&sb, args, scn, s, kf)
		return sb.String()
	}

	t.Run("reports the simulated noise", func(t *testing.T) {
		t.Parallel()
		out := header(t, cmdOpt{noiseStd: -1})
		assert.Contains(t, out, "% scenario  : falling body")
		assert.Contains(t, out, "% noise     : sim std= 50.0000")
		assert.NotContains(t, out, "% r override")
	})

	t.Run("reports the overrides", func(t *testing.T) {
		t.Parallel()
		out := header(t, cmdOpt{noiseStd: 5, rVar: 2})
		assert.Contains(t, out, "% noise     : sim std= 5.0000")
		assert.Contains(t, out, "% r override: 2.0000")
	})

	t.Run("omits the sim noise for a recorded series", func(t *testing.T) {
		t.Parallel()
		out := header(t, cmdOpt{seriesFn: "series.txt", noiseStd: -1})
		assert.Contains(t, out, "% inp file  : series.txt")
		assert.NotContains(t, out, "sim std")
	})
}
