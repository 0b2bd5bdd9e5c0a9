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

package kernel

// lanes is the number of independent accumulators in dotLanes.
const lanes = 4

// dotLanes returns sum(a[i]*b[i]) for i in [0, len(a)) using four
// accumulators and a scalar tail. len(b) must be >= len(a).
func dotLanes(a, b []float64) float64 {
	n := len(a)
	b = b[:n]

	var s0, s1, s2, s3 float64
	var i int
	for i = 0; i+lanes <= n; i += lanes {
		s0 += a[i] * b[i]
		s1 += a[i+1] * b[i+1]
		s2 += a[i+2] * b[i+2]
		s3 += a[i+3] * b[i+3]
	}

	acc := (s0 + s1) + (s2 + s3)
	for ; i < n; i++ {
		acc += a[i] * b[i]
	}
	return acc
}

// dotStrided returns sum(data[off+i*stride]*x[i]) for i in [lo, hi).
func dotStrided(data []float64, off, stride int, x []float64, lo, hi int) float64 {
	var acc float64
	p := off + lo*stride
	for i := lo; i < hi; i++ {
		acc += data[p] * x[i]
		p += stride
	}
	return acc
}

// rowDot returns A[r, lo:hi] · x[lo:hi], dispatching on the layout.
func rowDot(a *Matrix, r int, x Vector, lo, hi int) float64 {
	if a.layout == RowMajor {
		return dotLanes(a.Row(r)[lo:hi], x[lo:hi])
	}
	off, stride := a.RowStride(r)
	return dotStrided(a.data, off, stride, x, lo, hi)
}

// rowsYtAx returns sum over r in [r0, r1) of y[r] * (A[r, :] · x).
func rowsYtAx(a *Matrix, x, y Vector, r0, r1 int) float64 {
	var result float64
	for r := r0; r < r1; r++ {
		result += y[r] * rowDot(a, r, x, 0, a.cols)
	}
	return result
}
