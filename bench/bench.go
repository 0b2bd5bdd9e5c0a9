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

// Package bench runs the timed y^T·A·x repetition loop and formats its
// report.
//
// All buffers are seeded with 1.0 by default, so every repetition must
// produce exactly N·M: each partial sum is an integer representable in a
// float64, and the check uses exact equality. A result that differs is
// reported as a mismatch and the run continues.
package bench

import (
	"errors"
	"fmt"
	"io"
	"time"
	"unsafe"

	"github.com/ajroetker/ytax/kernel"
	"github.com/ajroetker/ytax/sizes"
)

// ErrNoBackend is returned by Run when Config.Backend is nil.
var ErrNoBackend = errors.New("bench: no backend")

// Seeds are the constant fill values of the three buffers.
type Seeds struct {
	A, X, Y float64
}

// DefaultSeeds fills every buffer with 1.0.
var DefaultSeeds = Seeds{A: 1, X: 1, Y: 1}

// withDefaults replaces each zero field with its DefaultSeeds value, so a
// partial override such as Seeds{X: 2} keeps A and Y at 1.0.
func (s Seeds) withDefaults() Seeds {
	if s.A == 0 {
		s.A = DefaultSeeds.A
	}
	if s.X == 0 {
		s.X = DefaultSeeds.X
	}
	if s.Y == 0 {
		s.Y = DefaultSeeds.Y
	}
	return s
}

// Config describes one benchmark run.
type Config struct {
	// Dims must already be resolved by sizes.Resolve.
	Dims sizes.Dims

	// Backend executes the reduction. Run calls Setup and Close.
	Backend kernel.Backend

	Layout kernel.Layout

	// Seeds defaults field by field to DefaultSeeds; a zero fill value
	// cannot be requested.
	Seeds Seeds

	// Out receives the per-run result and mismatch lines. Nil discards them.
	Out io.Writer

	// Clock defaults to time.Now.
	Clock func() time.Time
}

// Result summarizes a run.
type Result struct {
	Dims sizes.Dims

	// Value is the reduction computed by the final repetition.
	Value float64

	// Solution is the closed-form value checked against every repetition.
	Solution float64

	// Mismatches counts repetitions whose result differed from Solution.
	Mismatches int

	// Time spans all repetitions.
	Time time.Duration
}

// Run allocates and seeds A, x and y, then computes y^T·A·x Dims.NRepeat
// times under a single timer.
func Run(cfg Config) (res Result, err error) {
	d := cfg.Dims
	if d.N < 0 || d.M < 0 || d.NRepeat < 0 {
		return res, fmt.Errorf("%w: N=%d M=%d nrepeat=%d", sizes.ErrNegativeSize, d.N, d.M, d.NRepeat)
	}
	if cfg.Backend == nil {
		return res, ErrNoBackend
	}
	seeds := cfg.Seeds.withDefaults()
	out := cfg.Out
	if out == nil {
		out = io.Discard
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	a := kernel.NewMatrix(d.N, d.M, cfg.Layout)
	x := kernel.NewVector(d.M)
	y := kernel.NewVector(d.N)
	a.Fill(seeds.A)
	x.Fill(seeds.X)
	y.Fill(seeds.Y)

	if err := kernel.CheckShapes(a, x, y); err != nil {
		return res, err
	}
	if err := cfg.Backend.Setup(); err != nil {
		return res, fmt.Errorf("bench: setting up %s backend: %w", cfg.Backend.Name(), err)
	}
	defer func() {
		if cerr := cfg.Backend.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("bench: closing %s backend: %w", cfg.Backend.Name(), cerr)
		}
	}()

	res.Dims = d
	res.Solution = float64(d.N) * float64(d.M)

	start := clock()
	for repeat := range d.NRepeat {
		result := cfg.Backend.YtAx(a, x, y)

		if repeat == d.NRepeat-1 {
			res.Value = result
			fmt.Fprintf(out, "  Computed result for %d x %d is %f\n", d.N, d.M, result)
		}

		if result != res.Solution {
			res.Mismatches++
			fmt.Fprintf(out, "  Error: result( %f ) != solution( %f )\n", result, res.Solution)
		}
	}
	res.Time = clock().Sub(start)

	return res, nil
}

// Gigabytes returns the data touched by one repetition in GB: each row of
// A once, x once and y once.
func Gigabytes(d sizes.Dims) float64 {
	var f float64
	return 1.0e-9 * float64(unsafe.Sizeof(f)) * float64(d.M+d.M*d.N+d.N)
}

// Bandwidth returns the achieved bandwidth in GB/s.
func (r Result) Bandwidth() float64 {
	return Gigabytes(r.Dims) * float64(r.Dims.NRepeat) / r.Time.Seconds()
}

// Report writes the summary line for r.
func Report(w io.Writer, r Result) {
	gb := Gigabytes(r.Dims)
	fmt.Fprintf(w, "  N( %d ) M( %d ) nrepeat ( %d ) problem( %.6g MB ) time( %.6g s ) bandwidth( %.6g GB/s )\n",
		r.Dims.N, r.Dims.M, r.Dims.NRepeat, gb*1000, r.Time.Seconds(), r.Bandwidth())
}
