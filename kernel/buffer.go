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

import "fmt"

// Layout is the linear storage order of a Matrix.
type Layout int

const (
	// RowMajor stores element (r, c) at r*cols + c.
	RowMajor Layout = iota

	// ColMajor stores element (r, c) at c*rows + r.
	ColMajor
)

// String returns "row" or "col".
func (l Layout) String() string {
	switch l {
	case RowMajor:
		return "row"
	case ColMajor:
		return "col"
	default:
		return "unknown"
	}
}

// ParseLayout parses the names returned by Layout.String.
func ParseLayout(s string) (Layout, error) {
	switch s {
	case "row", "right":
		return RowMajor, nil
	case "col", "left":
		return ColMajor, nil
	}
	return 0, fmt.Errorf("%w: layout %q", ErrShape, s)
}

// Vector is an owned, contiguous buffer of float64.
type Vector []float64

// NewVector allocates a zeroed vector of length n.
func NewVector(n int) Vector {
	return make(Vector, n)
}

// Len returns the number of elements.
func (v Vector) Len() int { return len(v) }

// Fill sets every element to val.
func (v Vector) Fill(val float64) {
	for i := range v {
		v[i] = val
	}
}

// Matrix is an owned rows×cols buffer of float64 in a fixed Layout.
type Matrix struct {
	data   []float64
	rows   int
	cols   int
	layout Layout
}

// NewMatrix allocates a zeroed rows×cols matrix.
func NewMatrix(rows, cols int, layout Layout) *Matrix {
	if rows < 0 || cols < 0 {
		panic("kernel: negative matrix dimension")
	}
	return &Matrix{
		data:   make([]float64, rows*cols),
		rows:   rows,
		cols:   cols,
		layout: layout,
	}
}

// Dims returns the number of rows and columns.
func (m *Matrix) Dims() (rows, cols int) { return m.rows, m.cols }

// Layout returns the storage order.
func (m *Matrix) Layout() Layout { return m.layout }

// Data returns the backing slice in storage order.
func (m *Matrix) Data() []float64 { return m.data }

func (m *Matrix) index(r, c int) int {
	if m.layout == ColMajor {
		return c*m.rows + r
	}
	return r*m.cols + c
}

// At returns element (r, c).
func (m *Matrix) At(r, c int) float64 { return m.data[m.index(r, c)] }

// Set stores v at (r, c).
func (m *Matrix) Set(r, c int, v float64) { m.data[m.index(r, c)] = v }

// Fill sets every element to val.
func (m *Matrix) Fill(val float64) {
	for i := range m.data {
		m.data[i] = val
	}
}

// Row returns row r as a contiguous slice. It panics for ColMajor matrices,
// whose rows are strided; use RowStride instead.
func (m *Matrix) Row(r int) []float64 {
	if m.layout != RowMajor {
		panic("kernel: Row on column-major matrix")
	}
	return m.data[r*m.cols : (r+1)*m.cols]
}

// RowStride returns the offset of element (r, 0) and the distance between
// consecutive elements of a row.
func (m *Matrix) RowStride(r int) (offset, stride int) {
	if m.layout == ColMajor {
		return r, m.rows
	}
	return r * m.cols, 1
}
