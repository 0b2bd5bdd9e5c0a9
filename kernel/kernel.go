// Copyright 2025 go-highway Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package kernel computes the bilinear reduction y^T·A·x over pluggable
// execution backends.
//
// # Reduction
//
// For an N×M matrix A, x of length M and y of length N:
//
//	result = Σ_j y[j] · (Σ_i A[j,i]·x[i])
//
// Backends are free to split both sums across goroutines. They never share
// an accumulator between goroutines: every chunk produces a partial sum and
// the partials are combined after the fork/join barrier. The summation
// order therefore differs between backends and the last bits of the result
// may too.
//
// # Backends
//
//   - serial: nested loops on the calling goroutine
//   - threads: goroutines spawned per call with errgroup
//   - pool: persistent worker pool, rows and (for short matrices) columns tiled
//   - gonum: gonum's mat.Inner over a view of the matrix buffer
//
// # Example Usage
//
//	b, err := kernel.New("pool", kernel.Options{})
//	if err != nil {
//	    return err
//	}
//	if err := b.Setup(); err != nil {
//	    return err
//	}
//	defer b.Close()
//
//	a := kernel.NewMatrix(n, m, kernel.RowMajor)
//	x, y := kernel.NewVector(m), kernel.NewVector(n)
//	a.Fill(1); x.Fill(1); y.Fill(1)
//	result, err := kernel.ComputeYtAx(b, a, x, y) // n*m
package kernel

import (
	"errors"
	"fmt"
)

var (
	// ErrShape is returned when buffer lengths do not match the matrix.
	ErrShape = errors.New("kernel: shape mismatch")

	// ErrUnknownBackend is returned by New for unregistered names.
	ErrUnknownBackend = errors.New("kernel: unknown backend")
)

// Backend runs one blocking y^T·A·x reduction per call.
type Backend interface {
	// Name returns the registry name of the backend.
	Name() string

	// Setup acquires the execution resources (workers, views).
	Setup() error

	// YtAx returns y^T·A·x. Shapes are checked by ComputeYtAx.
	YtAx(a *Matrix, x, y Vector) float64

	// Close releases what Setup acquired.
	Close() error
}

// Options configures backend construction.
type Options struct {
	// Workers is the parallelism of threaded backends. 0 means GOMAXPROCS.
	Workers int
}

// CheckShapes verifies that x has one element per column and y one per row.
func CheckShapes(a *Matrix, x, y Vector) error {
	if a == nil {
		return fmt.Errorf("%w: nil matrix", ErrShape)
	}
	rows, cols := a.Dims()
	if x.Len() != cols {
		return fmt.Errorf("%w: len(x) = %d, matrix has %d columns", ErrShape, x.Len(), cols)
	}
	if y.Len() != rows {
		return fmt.Errorf("%w: len(y) = %d, matrix has %d rows", ErrShape, y.Len(), rows)
	}
	return nil
}

// ComputeYtAx validates the shapes and returns b.YtAx(a, x, y).
func ComputeYtAx(b Backend, a *Matrix, x, y Vector) (float64, error) {
	if err := CheckShapes(a, x, y); err != nil {
		return 0, err
	}
	return b.YtAx(a, x, y), nil
}
