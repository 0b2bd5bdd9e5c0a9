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

// Package sizes derives a consistent problem shape (rows N, columns M,
// total size S) from a partially specified set of command-line values.
//
// Any of N, M and S may be left as Unspecified. The missing values are
// derived with the following rules, applied in order:
//
//  1. If S and at least one of N, M are unspecified, S defaults to 2^22,
//     raised to N or M when a specified one is larger.
//  2. If S is still unspecified, S = N*M.
//  3. If both N and M are unspecified, M = min(S, 1024).
//  4. If M is unspecified, M = S / N.
//  5. If N is unspecified, N = S / M.
//
// The integer divisions in rules 4 and 5 can truncate, in which case the
// final N*M == S check fails with ErrSizeMismatch rather than adjusting S.
// An N*M that overflows int also fails with ErrSizeMismatch.
package sizes

import (
	"errors"
	"fmt"
	"io"
	"math"
)

// Unspecified marks a dimension the user did not set.
const Unspecified = -1

const (
	// DefaultSize is the total size used when S cannot be derived from N*M.
	DefaultSize = 1 << 22

	// MaxRowLength caps M when neither N nor M is given.
	MaxRowLength = 1024

	// DefaultRepeat is the number of benchmark repetitions.
	DefaultRepeat = 100
)

var (
	// ErrNegativeSize is returned when any of S, N, M or nrepeat is negative.
	ErrNegativeSize = errors.New("sizes must be greater than 0")

	// ErrSizeMismatch is returned when the resolved N*M differs from S.
	ErrSizeMismatch = errors.New("N * M != S")

	// ErrExponentRange is returned by FromExponent for exponents whose power
	// of two does not fit in an int.
	ErrExponentRange = errors.New("size exponent out of range")
)

// Dims holds the problem dimensions and the repetition count.
type Dims struct {
	N       int // rows
	M       int // columns
	S       int // total size, N*M once resolved
	NRepeat int
}

// Unresolved returns Dims with every size Unspecified and the default
// repetition count.
func Unresolved() Dims {
	return Dims{N: Unspecified, M: Unspecified, S: Unspecified, NRepeat: DefaultRepeat}
}

// Resolve fills in the unspecified sizes of d and validates the result.
func Resolve(d Dims) (Dims, error) {
	return ResolveTo(nil, d)
}

// ResolveTo is Resolve, additionally writing the derived sizes to w before
// validation. A nil w disables the report.
func ResolveTo(w io.Writer, d Dims) (Dims, error) {
	if d.S == Unspecified && (d.N == Unspecified || d.M == Unspecified) {
		d.S = DefaultSize
		if d.S < d.N {
			d.S = d.N
		}
		if d.S < d.M {
			d.S = d.M
		}
	}

	if d.S == Unspecified {
		p, ok := product(d.N, d.M)
		if !ok {
			if w != nil {
				fmt.Fprintf(w, "  Total size S = %d N = %d M = %d\n", d.S, d.N, d.M)
			}
			return d, fmt.Errorf("%w: %d * %d overflows int", ErrSizeMismatch, d.N, d.M)
		}
		d.S = p
	}

	if d.N == Unspecified && d.M == Unspecified {
		if d.S > MaxRowLength {
			d.M = MaxRowLength
		} else {
			d.M = d.S
		}
	}

	if d.M == Unspecified {
		d.M = quotient(d.S, d.N)
	}

	if d.N == Unspecified {
		d.N = quotient(d.S, d.M)
	}

	if w != nil {
		fmt.Fprintf(w, "  Total size S = %d N = %d M = %d\n", d.S, d.N, d.M)
	}

	if d.S < 0 || d.N < 0 || d.M < 0 || d.NRepeat < 0 {
		return d, fmt.Errorf("%w: S=%d N=%d M=%d nrepeat=%d", ErrNegativeSize, d.S, d.N, d.M, d.NRepeat)
	}

	p, ok := product(d.N, d.M)
	if !ok {
		return d, fmt.Errorf("%w: %d * %d overflows int, S = %d", ErrSizeMismatch, d.N, d.M, d.S)
	}
	if p != d.S {
		return d, fmt.Errorf("%w: %d * %d = %d, S = %d", ErrSizeMismatch, d.N, d.M, p, d.S)
	}

	return d, nil
}

// product returns n*m and whether it fits in an int. Negative operands are
// multiplied unchecked; they fail the negative size check.
func product(n, m int) (int, bool) {
	if n > 0 && m > 0 && n > math.MaxInt/m {
		return 0, false
	}
	return n * m, true
}

// quotient is s / by, with a zero divisor yielding zero. A zero row or
// column count with a nonzero S then fails the N*M == S check.
func quotient(s, by int) int {
	if by == 0 {
		return 0
	}
	return s / by
}

// FromExponent returns int(2^exp). Negative exponents truncate to 0 and
// fractional exponents are allowed.
func FromExponent(exp float64) (int, error) {
	if math.IsNaN(exp) || exp >= 63 {
		return 0, fmt.Errorf("%w: 2^%g", ErrExponentRange, exp)
	}
	return int(math.Pow(2, exp)), nil
}
