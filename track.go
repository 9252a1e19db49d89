// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2025.10.12
//

// Implements the tracking driver that runs a Kalman filter over a
// measurement series, one predict / update cycle per epoch.

package sensorfilters

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// TrackOpt contains options for the tracking driver
type TrackOpt struct {
	HoldOnSingular bool // If true, keep the predicted state for the epoch when the innovation covariance is ill-conditioned instead of failing the run
	RecordCov      bool // If true, record a covariance snapshot for every epoch
}

// NewTrackOpt creates a new TrackOpt with default values
func NewTrackOpt() *TrackOpt {
	return &TrackOpt{
		HoldOnSingular: true,  // Hold the prediction rather than abort the run
		RecordCov:      false, // No covariance snapshots
	}
}

// TrackSol contains the results of a tracking run
type TrackSol struct {
	T       []float64       // Epoch times [s]
	PredZ   []*mat.VecDense // Predicted measurement (H x) per epoch, taken before the correction
	Est     []*mat.VecDense // State estimate per epoch, taken after the correction
	Cov     []*mat.Dense    // Covariance snapshots per epoch (only with TrackOpt.RecordCov)
	Skipped int             // Number of epochs whose update was skipped
	MeasMAE float64         // Mean absolute error of the raw measurements against the truth (NaN without truth)
	PredMAE float64         // Mean absolute error of the predicted measurements against the truth (NaN without truth)
}

// NewTrackSol creates an empty TrackSol with capacity for n epochs
func NewTrackSol(n int) *TrackSol {
	return &TrackSol{
		T:       make([]float64, 0, n),
		PredZ:   make([]*mat.VecDense, 0, n),
		Est:     make([]*mat.VecDense, 0, n),
		MeasMAE: math.NaN(),
		PredMAE: math.NaN(),
	}
}

// CalcTrack runs the filter over the measurement series
// For each epoch it predicts (applying the epoch's control input when
// present), records the measurement the prediction implies, then corrects
// with the epoch's measurement. An ill-conditioned innovation covariance
// skips the correction and holds the prediction when
// TrackOpt.HoldOnSingular is set.
//
// Parameters:
//   - kf: Filter to advance (mutated by the run)
//   - s: Measurement series, one epoch per predict / update cycle
//   - opt: Driver options. Pass nil for defaults
//
// Returns:
//   - TrackSol: Per epoch estimates, skip count and error scores
//   - error: Any error encountered during processing
func CalcTrack(kf *KalmanFilter, s *Series, opt *TrackOpt) (*TrackSol, error) {

	if kf == nil {
		return nil, fmt.Errorf("the filter is mandatory")
	}
	if s == nil || s.Len() == 0 {
		return nil, fmt.Errorf("the series is empty")
	}
	if s.Dim() != kf.MeasurementDim() {
		return nil, newDimensionMismatchErrorf("invalid series dimension. z(%d x 1), expected (%d x 1)", s.Dim(), kf.MeasurementDim())
	}
	if opt == nil {
		opt = NewTrackOpt()
	}

	rslt := NewTrackSol(s.Len())
	for i, e := range s.DatE {
		if err := trackEpoch(kf, e, opt, rslt); err != nil {
			return nil, fmt.Errorf("trackEpoch() failed at epoch %d, err= %w", i, err)
		}
	}

	scoreTrack(s, rslt)
	return rslt, nil
}

// trackEpoch advances the filter by one predict / update cycle and records
// the epoch results
func trackEpoch(kf *KalmanFilter, e *MeasE, opt *TrackOpt, rslt *TrackSol) error {

	// Predict, then take the measurement the prediction implies
	if _, err := kf.Predict(e.U); err != nil {
		return fmt.Errorf("Predict() failed, err= %w", err)
	}
	predZ := kf.MeasurementEstimate()

	// Correct with the epoch measurement
	if err := kf.Update(e.Z); err != nil {
		if opt.HoldOnSingular && IsSingularInnovationCovarianceError(err) {
			rslt.Skipped++
			PrintD(2, "t=%.3f: update skipped, err= %s\n", e.T, err.Error())
		} else {
			return fmt.Errorf("Update() failed, err= %w", err)
		}
	}

	rslt.T = append(rslt.T, e.T)
	rslt.PredZ = append(rslt.PredZ, predZ)
	rslt.Est = append(rslt.Est, kf.State())
	if opt.RecordCov {
		rslt.Cov = append(rslt.Cov, kf.Covariance())
	}
	return nil
}

// scoreTrack computes the mean absolute errors against the truth
// Scoring needs scalar measurements and a truth state whose first element is
// the measured quantity; otherwise the scores stay NaN
func scoreTrack(s *Series, rslt *TrackSol) {

	if !s.HasTruth() || s.Dim() != 1 {
		return
	}
	n := s.Len()
	truth := make([]float64, n)
	meas := make([]float64, n)
	pred := make([]float64, n)
	for i, e := range s.DatE {
		truth[i] = e.Truth.AtVec(0)
		meas[i] = e.Z.AtVec(0)
		pred[i] = rslt.PredZ[i].AtVec(0)
	}
	rslt.MeasMAE = MAE(meas, truth)
	rslt.PredMAE = MAE(pred, truth)
}
