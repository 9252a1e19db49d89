// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2025.10.4
//

package sensorfilters

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Return an n x n identity matrix
func Eye(n int) *mat.Dense {
	I := mat.NewDense(n, n, nil)
	for i := range n {
		I.Set(i, i, 1)
	}
	return I
}

// Force exact symmetry as A = (A + A^t)/2
// Congruence transforms keep covariance matrices symmetric only up to
// rounding, so every covariance shaped product is re-symmetrized after
// the fact
func Symmetrize(A *mat.Dense) {
	r, c := A.Dims()
	if r != c {
		panic(mat.ErrShape)
	}
	for i := range r {
		for j := i + 1; j < c; j++ {
			v := (A.At(i, j) + A.At(j, i)) / 2
			A.Set(i, j, v)
			A.Set(j, i, v)
		}
	}
}

// Return the smallest eigenvalue of the symmetric matrix A
// Off-symmetric parts below rounding level are averaged away before the
// factorization
func MinEigSym(A *mat.Dense) (float64, error) {
	r, c := A.Dims()
	if r != c {
		return 0, fmt.Errorf("invalid matrix size. A(%d x %d)", r, c)
	}
	sym := mat.NewSymDense(r, nil)
	for i := range r {
		for j := i; j < c; j++ {
			sym.SetSym(i, j, (A.At(i, j)+A.At(j, i))/2)
		}
	}
	var eig mat.EigenSym
	if ok := eig.Factorize(sym, false); !ok {
		return 0, fmt.Errorf("eigenvalue factorization did not converge")
	}
	ev := eig.Values(nil)
	min := ev[0]
	for _, v := range ev[1:] {
		if v < min {
			min = v
		}
	}
	return min, nil
}

// Solve the observation equation using weighted least squares
// - dx = (G^t W G)^-1 G^t W dr
// - Return the error covariance matrix (G^t W G)^-1 as cov
func SolveLS(G mat.Matrix, dr mat.Vector, W mat.Matrix) (dx mat.Vector, cov mat.Matrix, err error) {

	n1, m1 := G.Dims()
	n2, m2 := W.Dims()
	if n1 != n2 {
		return nil, nil, fmt.Errorf("invalid matrix size. G^T(%d x %d), W(%d x %d)", m1, n1, n2, m2)
	}
	l1 := dr.Len()
	if l1 != m2 {
		return nil, nil, fmt.Errorf("invalid matrix size. W(%d x %d), dr(%d x 1)", n2, m2, l1)
	}

	// A（G^t W G)
	var WG mat.Dense
	WG.Mul(W, G)
	var A mat.Dense
	A.Mul(G.T(), &WG)

	// b（G^t W dr）
	var GtW mat.Dense
	GtW.Mul(G.T(), W)
	var b mat.VecDense
	b.MulVec(&GtW, dr)

	// Solve for x (x = A^-1 b)
	var x mat.VecDense
	err = x.SolveVec(&A, &b)
	if err != nil {
		return nil, nil, err
	}
	dx = &x

	// Set (G^T W G)^-1 as the covariance matrix
	var c mat.Dense
	err = c.Inverse(&A)
	if err != nil {
		return nil, nil, err
	}
	cov = &c

	return
}
