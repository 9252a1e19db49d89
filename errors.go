// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2025.10.4
//

// Typed errors of the filter boundary. Construction failures, per call shape
// failures and numerical failures are distinct types so that a caller can
// decide between fixing the model, fixing the call and skipping a cycle.

package sensorfilters

import (
	"errors"
	"fmt"
)

// InvalidModelError reports that mandatory model matrices are missing or
// dimensionally inconsistent. Construction (and reconfiguration) fails with
// this error; it is not recoverable without fixing the inputs.
type InvalidModelError struct {
	msg string
}

func (e *InvalidModelError) Error() string {
	return e.msg
}

func IsInvalidModelError(err error) bool {
	var e *InvalidModelError
	return errors.As(err, &e)
}

func newInvalidModelErrorf(format string, args ...any) error {
	return &InvalidModelError{msg: fmt.Sprintf(format, args...)}
}

// DimensionMismatchError reports that a per call input (u, z, x0, P0) does
// not match the model's expected shape. Local to the call; the caller may
// retry with a corrected input.
type DimensionMismatchError struct {
	msg string
}

func (e *DimensionMismatchError) Error() string {
	return e.msg
}

func IsDimensionMismatchError(err error) bool {
	var e *DimensionMismatchError
	return errors.As(err, &e)
}

func newDimensionMismatchErrorf(format string, args ...any) error {
	return &DimensionMismatchError{msg: fmt.Sprintf(format, args...)}
}

// SingularInnovationCovarianceError reports that the innovation covariance S
// is singular or conditioned beyond the configured limit, so the observation
// update cannot be applied. Recoverable: the caller may hold the prediction
// for this cycle or enlarge R.
type SingularInnovationCovarianceError struct {
	msg  string
	cond float64
}

func (e *SingularInnovationCovarianceError) Error() string {
	return e.msg
}

// Cond returns the estimated condition number that triggered the error.
func (e *SingularInnovationCovarianceError) Cond() float64 {
	return e.cond
}

func IsSingularInnovationCovarianceError(err error) bool {
	var e *SingularInnovationCovarianceError
	return errors.As(err, &e)
}

func newSingularInnovationCovarianceError(cond, limit float64) error {
	return &SingularInnovationCovarianceError{
		msg:  fmt.Sprintf("innovation covariance is singular or ill-conditioned. cond= %e, limit= %e", cond, limit),
		cond: cond,
	}
}
