// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2025.10.12
//

// Implements the discrete-time linear Kalman filter (predict / update cycle).

package sensorfilters

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// KalmanFilter owns the model matrices and the evolving state estimate of a
// discrete-time linear system
//
//	x[k+1] = F x[k] + B u[k] + w,  w ~ N(0, Q)
//	z[k]   = H x[k] + v,          v ~ N(0, R)
//
// The state x and its covariance P are owned exclusively by the filter: they
// are mutated only by Predict, Update and Reset, and the accessors hand out
// copies. One goroutine per instance; independent instances may be advanced
// in parallel.
type KalmanFilter struct {
	f       *mat.Dense    // State transition matrix (n x n)
	b       *mat.Dense    // Control input matrix (n x p), nil when no control is modeled
	h       *mat.Dense    // Observation matrix (m x n)
	q       *mat.Dense    // Process noise covariance (n x n)
	r       *mat.Dense    // Measurement noise covariance (m x m)
	x       *mat.VecDense // State estimate (n x 1)
	p       *mat.Dense    // Estimate covariance (n x n)
	n       int           // State dimension
	m       int           // Measurement dimension
	condTol float64       // Condition number limit for the innovation covariance
}

// KalmanOpt contains the optional model matrices for filter construction
// Nil fields fall back to the documented defaults
type KalmanOpt struct {
	Q       *mat.Dense    // Process noise covariance (n x n). Default: identity
	R       *mat.Dense    // Measurement noise covariance (m x m). Default: identity
	P0      *mat.Dense    // Initial estimate covariance (n x n). Default: identity
	X0      *mat.VecDense // Initial state (n x 1). Default: zero vector
	B       *mat.Dense    // Control input matrix (n x p). Default: no control contribution
	CondTol float64       // Condition number limit for the innovation covariance. Default: DEF_COND_TOL
}

// NewKalmanOpt creates a new KalmanOpt with default values
func NewKalmanOpt() *KalmanOpt {
	return &KalmanOpt{
		Q:       nil,          // Identity (n x n)
		R:       nil,          // Identity (m x m)
		P0:      nil,          // Identity (n x n)
		X0:      nil,          // Zero vector (n x 1)
		B:       nil,          // No control contribution
		CondTol: DEF_COND_TOL, // Condition number limit
	}
}

// NewKalmanFilter creates a filter from the state transition matrix F and the
// observation matrix H. All caller matrices are copied, never aliased.
//
// Note that the default measurement noise covariance is sized by the
// measurement dimension m, not the state dimension n, and a caller supplied
// R of any other shape is rejected.
//
// Parameters:
//   - F: State transition matrix (n x n), mandatory
//   - H: Observation matrix (m x n), mandatory
//   - opt: Optional model matrices and tolerances. Pass nil for all defaults
//
// Returns:
//   - KalmanFilter: Ready to use filter holding x = x0 and P = P0
//   - error: InvalidModelError when a matrix is missing or inconsistently sized
func NewKalmanFilter(F, H *mat.Dense, opt *KalmanOpt) (*KalmanFilter, error) {

	if F == nil || H == nil {
		return nil, newInvalidModelErrorf("F and H are mandatory")
	}
	n, nc := F.Dims()
	if n != nc {
		return nil, newInvalidModelErrorf("invalid matrix size. F(%d x %d) must be square", n, nc)
	}
	m, hc := H.Dims()
	if hc != n {
		return nil, newInvalidModelErrorf("invalid matrix size. H(%d x %d), F(%d x %d)", m, hc, n, n)
	}
	if opt == nil {
		opt = NewKalmanOpt()
	}

	kf := &KalmanFilter{
		f:       mat.DenseCopyOf(F),
		h:       mat.DenseCopyOf(H),
		n:       n,
		m:       m,
		condTol: opt.CondTol,
	}
	if kf.condTol <= 0 {
		kf.condTol = DEF_COND_TOL
	}

	// Process noise covariance
	if opt.Q != nil {
		if r, c := opt.Q.Dims(); r != n || c != n {
			return nil, newInvalidModelErrorf("invalid matrix size. Q(%d x %d), expected (%d x %d)", r, c, n, n)
		}
		kf.q = mat.DenseCopyOf(opt.Q)
	} else {
		kf.q = Eye(n)
	}

	// Measurement noise covariance, sized by m
	if opt.R != nil {
		if r, c := opt.R.Dims(); r != m || c != m {
			return nil, newInvalidModelErrorf("invalid matrix size. R(%d x %d), expected (%d x %d)", r, c, m, m)
		}
		kf.r = mat.DenseCopyOf(opt.R)
	} else {
		kf.r = Eye(m)
	}

	// Initial estimate covariance
	if opt.P0 != nil {
		if r, c := opt.P0.Dims(); r != n || c != n {
			return nil, newInvalidModelErrorf("invalid matrix size. P0(%d x %d), expected (%d x %d)", r, c, n, n)
		}
		kf.p = mat.DenseCopyOf(opt.P0)
		Symmetrize(kf.p)
	} else {
		kf.p = Eye(n)
	}

	// Initial state
	if opt.X0 != nil {
		if opt.X0.Len() != n {
			return nil, newInvalidModelErrorf("invalid vector size. x0(%d x 1), expected (%d x 1)", opt.X0.Len(), n)
		}
		kf.x = mat.VecDenseCopyOf(opt.X0)
	} else {
		kf.x = mat.NewVecDense(n, nil)
	}

	// Control input matrix
	if opt.B != nil {
		br, _ := opt.B.Dims()
		if br != n {
			return nil, newInvalidModelErrorf("invalid matrix size. B(%d x %d), expected (%d x p)", br, colsOf(opt.B), n)
		}
		kf.b = mat.DenseCopyOf(opt.B)
	}

	return kf, nil
}

func colsOf(a mat.Matrix) int {
	_, c := a.Dims()
	return c
}

//------------------------------------------------------------
// Predict / update cycle
//------------------------------------------------------------

// Predict advances the state and covariance one time step under the dynamic
// model, optionally incorporating a control input
//
//	x' = F x + B u
//	P' = F P F^t + Q
//
// Pass u = nil for no control. The full step is computed into temporaries
// and committed only on success, so a failed call leaves x and P unchanged.
//
// Parameters:
//   - u: Control vector (p x 1), or nil when the step has no control input
//
// Returns:
//   - Copy of the predicted state (mutating it does not affect the filter)
//   - error: DimensionMismatchError when u does not fit the control model
func (kf *KalmanFilter) Predict(u *mat.VecDense) (*mat.VecDense, error) {

	// State propagation x' = F x + B u
	x2 := mat.NewVecDense(kf.n, nil)
	x2.MulVec(kf.f, kf.x)
	if u != nil {
		if kf.b == nil {
			return nil, newDimensionMismatchErrorf("control vector u(%d x 1) supplied but no control matrix B is modeled", u.Len())
		}
		if p := colsOf(kf.b); u.Len() != p {
			return nil, newDimensionMismatchErrorf("invalid vector size. u(%d x 1), B(%d x %d)", u.Len(), kf.n, p)
		}
		var bu mat.VecDense
		bu.MulVec(kf.b, u)
		x2.AddVec(x2, &bu)
	}

	// Covariance propagation P' = F P F^t + Q
	var p2 mat.Dense
	p2.Product(kf.f, kf.p, kf.f.T())
	p2.Add(&p2, kf.q)
	Symmetrize(&p2)

	// Commit
	kf.x = x2
	kf.p = &p2

	if DBG_ >= 4 {
		PrintA("--- x (predicted) ---\n")
		PrintMat(kf.x)
		PrintA("--- P (predicted) ---\n")
		PrintMat(kf.p)
	}

	return mat.VecDenseCopyOf(kf.x), nil
}

// Update corrects the predicted state with the measurement z, completing one
// filter cycle
//
//	y  = z - H x
//	S  = R + H P H^t
//	K  = P H^t S^-1
//	x' = x + K y
//	P' = (I - K H) P (I - K H)^t + K R K^t
//
// The covariance update uses the Joseph form: unlike P' = (I - K H) P it
// stays symmetric and positive semi-definite under floating point rounding
// over long call sequences. The conditioning of S is checked before the
// inversion; an ill-conditioned S fails the call without touching x or P, so
// the caller can hold the prediction for this cycle.
//
// Parameters:
//   - z: Measurement vector (m x 1)
//
// Returns:
//   - error: DimensionMismatchError when z has the wrong length,
//     SingularInnovationCovarianceError when S cannot be inverted reliably
func (kf *KalmanFilter) Update(z *mat.VecDense) error {

	if z == nil {
		return newDimensionMismatchErrorf("invalid vector size. z is nil, expected (%d x 1)", kf.m)
	}
	if z.Len() != kf.m {
		return newDimensionMismatchErrorf("invalid vector size. z(%d x 1), expected (%d x 1)", z.Len(), kf.m)
	}

	// Innovation y = z - H x
	var hx, y mat.VecDense
	hx.MulVec(kf.h, kf.x)
	y.SubVec(z, &hx)

	// Innovation covariance S = R + H P H^t
	var S mat.Dense
	S.Product(kf.h, kf.p, kf.h.T())
	S.Add(&S, kf.r)
	Symmetrize(&S)

	// Conditioning check before the inversion
	cond := mat.Cond(&S, 1)
	if math.IsNaN(cond) || math.IsInf(cond, 0) || cond > kf.condTol {
		return newSingularInnovationCovarianceError(cond, kf.condTol)
	}
	PrintD(4, "S cond: %e\n", cond)

	// Kalman gain K = P H^t S^-1
	var Si, K mat.Dense
	if err := Si.Inverse(&S); err != nil {
		return newSingularInnovationCovarianceError(cond, kf.condTol)
	}
	K.Product(kf.p, kf.h.T(), &Si)

	if DBG_ >= 4 {
		PrintA("--- K ---\n")
		PrintMat(&K)
	}

	// State update x' = x + K y
	var ky mat.VecDense
	ky.MulVec(&K, &y)
	x2 := mat.NewVecDense(kf.n, nil)
	x2.AddVec(kf.x, &ky)

	// Joseph form covariance update P' = (I - K H) P (I - K H)^t + K R K^t
	var kh mat.Dense
	kh.Mul(&K, kf.h)
	ikh := Eye(kf.n)
	ikh.Sub(ikh, &kh)
	var p2, krk mat.Dense
	p2.Product(ikh, kf.p, ikh.T())
	krk.Product(&K, kf.r, K.T())
	p2.Add(&p2, &krk)
	Symmetrize(&p2)

	// Commit only after the full sequence succeeded
	kf.x = x2
	kf.p = &p2

	if DBG_ >= 4 {
		PrintA("--- x (corrected) ---\n")
		PrintMat(kf.x)
		PrintA("--- P (corrected) ---\n")
		PrintMat(kf.p)
	}

	return nil
}

//------------------------------------------------------------
// Reinitialization and reconfiguration
//------------------------------------------------------------

// Reset reinitializes the state estimate and its covariance, keeping the
// model matrices. This is the supported way to restart a filter; x and P are
// not assignable from outside.
func (kf *KalmanFilter) Reset(x0 *mat.VecDense, p0 *mat.Dense) error {
	if x0 == nil || p0 == nil {
		return newDimensionMismatchErrorf("x0 and P0 are mandatory")
	}
	if x0.Len() != kf.n {
		return newDimensionMismatchErrorf("invalid vector size. x0(%d x 1), expected (%d x 1)", x0.Len(), kf.n)
	}
	if r, c := p0.Dims(); r != kf.n || c != kf.n {
		return newDimensionMismatchErrorf("invalid matrix size. P0(%d x %d), expected (%d x %d)", r, c, kf.n, kf.n)
	}
	kf.x = mat.VecDenseCopyOf(x0)
	kf.p = mat.DenseCopyOf(p0)
	Symmetrize(kf.p)
	return nil
}

// SetMeasurementNoise replaces the measurement noise covariance R at
// runtime. Reconfiguration counts as construction, so a wrong shape fails
// with InvalidModelError.
func (kf *KalmanFilter) SetMeasurementNoise(R *mat.Dense) error {
	if R == nil {
		return newInvalidModelErrorf("R is mandatory")
	}
	if r, c := R.Dims(); r != kf.m || c != kf.m {
		return newInvalidModelErrorf("invalid matrix size. R(%d x %d), expected (%d x %d)", r, c, kf.m, kf.m)
	}
	kf.r = mat.DenseCopyOf(R)
	Symmetrize(kf.r)
	return nil
}

//------------------------------------------------------------
// Read access
//------------------------------------------------------------

// State returns a copy of the current state estimate
func (kf *KalmanFilter) State() *mat.VecDense {
	return mat.VecDenseCopyOf(kf.x)
}

// Covariance returns a copy of the current estimate covariance
func (kf *KalmanFilter) Covariance() *mat.Dense {
	return mat.DenseCopyOf(kf.p)
}

// MeasurementEstimate returns H x, the measurement implied by the current
// state estimate
func (kf *KalmanFilter) MeasurementEstimate() *mat.VecDense {
	z := mat.NewVecDense(kf.m, nil)
	z.MulVec(kf.h, kf.x)
	return z
}

// StateDim returns the state dimension n
func (kf *KalmanFilter) StateDim() int {
	return kf.n
}

// MeasurementDim returns the measurement dimension m
func (kf *KalmanFilter) MeasurementDim() int {
	return kf.m
}
