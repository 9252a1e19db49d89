// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2025.10.4
//

package sensorfilters

const (
	GRAVITY       = 9.81       // Gravitational acceleration [m/s^2]
	DEF_DT        = 1.0 / 60.0 // Default sampling interval [s]
	DEF_STEPS     = 100        // Default number of epochs per run
	DEF_NOISE_STD = 50.0       // Default simulated measurement noise standard deviation
	DEF_COND_TOL  = 1.0e12     // Default condition number limit for the innovation covariance
)
