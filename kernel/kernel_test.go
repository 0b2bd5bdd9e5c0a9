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

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

// allBackends returns one set-up instance of each registered backend, with
// the pooled one forced onto its parallel paths.
func allBackends(t *testing.T) []Backend {
	t.Helper()
	var bs []Backend
	for _, name := range Names() {
		b, err := New(name, Options{Workers: 4})
		require.NoError(t, err)
		if p, ok := b.(*Pooled); ok {
			p.Threshold = -1
			p.MinColumnTile = 4
		}
		require.NoError(t, b.Setup())
		t.Cleanup(func() { require.NoError(t, b.Close()) })
		bs = append(bs, b)
	}
	return bs
}

func seeded(rows, cols int, layout Layout, seed float64) (*Matrix, Vector, Vector) {
	a := NewMatrix(rows, cols, layout)
	x := NewVector(cols)
	y := NewVector(rows)
	a.Fill(seed)
	x.Fill(seed)
	y.Fill(seed)
	return a, x, y
}

func TestNames(t *testing.T) {
	require.Equal(t, []string{"gonum", "pool", "serial", "threads"}, Names())
}

func TestNewUnknown(t *testing.T) {
	_, err := New("opencl", Options{})
	require.ErrorIs(t, err, ErrUnknownBackend)
}

func TestAllOnesExact(t *testing.T) {
	shapes := []struct{ rows, cols int }{
		{1, 1}, {1, 1024}, {1024, 1}, {2, 3}, {3, 17}, {4, 4}, {7, 4096}, {64, 64}, {4096, 16},
	}
	for _, b := range allBackends(t) {
		for _, layout := range []Layout{RowMajor, ColMajor} {
			for _, s := range shapes {
				t.Run(fmt.Sprintf("%s/%s/%dx%d", b.Name(), layout, s.rows, s.cols), func(t *testing.T) {
					a, x, y := seeded(s.rows, s.cols, layout, 1)
					got, err := ComputeYtAx(b, a, x, y)
					require.NoError(t, err)
					if want := float64(s.rows * s.cols); got != want {
						t.Errorf("YtAx() = %v, want %v", got, want)
					}
				})
			}
		}
	}
}

func TestKnownValues(t *testing.T) {
	// A = [1 2 3; 4 5 6], x = [1 0 1], y = [1 2]
	// Ax = [4 10], y^T(Ax) = 24
	for _, b := range allBackends(t) {
		for _, layout := range []Layout{RowMajor, ColMajor} {
			a := NewMatrix(2, 3, layout)
			for r := range 2 {
				for c := range 3 {
					a.Set(r, c, float64(r*3+c+1))
				}
			}
			x := Vector{1, 0, 1}
			y := Vector{1, 2}
			got, err := ComputeYtAx(b, a, x, y)
			require.NoError(t, err)
			require.Equal(t, 24.0, got, "%s/%s", b.Name(), layout)
		}
	}
}

func TestBackendsAgree(t *testing.T) {
	rows, cols := 37, 513
	a := NewMatrix(rows, cols, RowMajor)
	x := NewVector(cols)
	y := NewVector(rows)
	for r := range rows {
		y[r] = 1 / float64(r+1)
		for c := range cols {
			a.Set(r, c, math.Sin(float64(r*cols+c)))
		}
	}
	for c := range cols {
		x[c] = math.Cos(float64(c))
	}

	want := (&Serial{}).YtAx(a, x, y)
	for _, b := range allBackends(t) {
		got, err := ComputeYtAx(b, a, x, y)
		require.NoError(t, err)
		require.InDelta(t, want, got, 1e-9, b.Name())
	}
}

func TestEmptyMatrix(t *testing.T) {
	for _, b := range allBackends(t) {
		for _, s := range []struct{ rows, cols int }{{0, 0}, {0, 5}, {5, 0}} {
			a, x, y := seeded(s.rows, s.cols, RowMajor, 1)
			got, err := ComputeYtAx(b, a, x, y)
			require.NoError(t, err)
			require.Zero(t, got, "%s %dx%d", b.Name(), s.rows, s.cols)
		}
	}
}

func TestComputeYtAxShapes(t *testing.T) {
	a := NewMatrix(2, 3, RowMajor)
	_, err := ComputeYtAx(&Serial{}, a, NewVector(2), NewVector(2))
	require.ErrorIs(t, err, ErrShape)
	_, err = ComputeYtAx(&Serial{}, a, NewVector(3), NewVector(3))
	require.ErrorIs(t, err, ErrShape)
	_, err = ComputeYtAx(&Serial{}, nil, nil, nil)
	require.ErrorIs(t, err, ErrShape)
}

func TestPooledBeforeSetup(t *testing.T) {
	p := &Pooled{Threshold: -1}
	a, x, y := seeded(8, 8, RowMajor, 1)
	require.Equal(t, 64.0, p.YtAx(a, x, y))
}

func TestPooledColumnTiling(t *testing.T) {
	p := &Pooled{Workers: 8, Threshold: -1, MinColumnTile: 16}
	require.NoError(t, p.Setup())
	defer p.Close()

	// 2 rows on 8 workers: 4 tiles per row, uneven tail.
	for _, cols := range []int{64, 65, 127, 130} {
		a, x, y := seeded(2, cols, RowMajor, 1)
		require.Equal(t, float64(2*cols), p.YtAx(a, x, y), "cols=%d", cols)
	}
}

func TestPooledColumnTilingMatchesSerial(t *testing.T) {
	p := &Pooled{Workers: 8, Threshold: -1, MinColumnTile: 8}
	require.NoError(t, p.Setup())
	defer p.Close()

	for _, layout := range []Layout{RowMajor, ColMajor} {
		for _, rows := range []int{1, 3} {
			const cols = 67
			a, x, y := seeded(rows, cols, layout, 1)
			for r := range rows {
				y[r] = float64(r + 1)
				for c := range cols {
					a.Set(r, c, float64((r*cols+c)%7))
				}
			}
			for c := range cols {
				x[c] = float64(c % 5)
			}
			want := (&Serial{}).YtAx(a, x, y)
			require.Equal(t, want, p.YtAx(a, x, y), "%s rows=%d", layout, rows)
		}
	}
}

func TestThreadsChunkPanicReachesCaller(t *testing.T) {
	th := &Threads{Workers: 2}
	require.NoError(t, th.Setup())
	defer th.Close()

	a, _, y := seeded(4, 4, RowMajor, 1)
	short := NewVector(2)
	defer func() {
		r := recover()
		require.NotNil(t, r, "YtAx with a short x did not panic")
		err, ok := r.(error)
		require.True(t, ok, "panic value %v is not an error", r)
		require.Contains(t, err.Error(), "kernel: threads chunk [")
		require.Contains(t, err.Error(), "slice bounds out of range")
	}()
	th.YtAx(a, short, y)
}

func TestGonumViewFollowsMatrix(t *testing.T) {
	g := &Gonum{}
	a1, x1, y1 := seeded(3, 4, RowMajor, 1)
	a2, x2, y2 := seeded(4, 3, ColMajor, 2)
	require.Equal(t, 12.0, g.YtAx(a1, x1, y1))
	require.Equal(t, 96.0, g.YtAx(a2, x2, y2))
	require.Equal(t, 12.0, g.YtAx(a1, x1, y1))
}

func TestLayout(t *testing.T) {
	row := NewMatrix(2, 3, RowMajor)
	col := NewMatrix(2, 3, ColMajor)
	for r := range 2 {
		for c := range 3 {
			row.Set(r, c, float64(10*r+c))
			col.Set(r, c, float64(10*r+c))
		}
	}
	require.Equal(t, []float64{0, 1, 2, 10, 11, 12}, row.Data())
	require.Equal(t, []float64{0, 10, 1, 11, 2, 12}, col.Data())
	require.Equal(t, []float64{10, 11, 12}, row.Row(1))
	require.Panics(t, func() { col.Row(1) })

	off, stride := col.RowStride(1)
	require.Equal(t, 1, off)
	require.Equal(t, 2, stride)

	for _, s := range []string{"row", "col", "left", "right"} {
		_, err := ParseLayout(s)
		require.NoError(t, err)
	}
	_, err := ParseLayout("diagonal")
	require.ErrorIs(t, err, ErrShape)
}

func TestDotLanes(t *testing.T) {
	for n := range 11 {
		a := make([]float64, n)
		b := make([]float64, n+2)
		var want float64
		for i := range n {
			a[i] = float64(i + 1)
			b[i] = float64(2 * i)
			want += a[i] * b[i]
		}
		if got := dotLanes(a, b); got != want {
			t.Errorf("dotLanes(n=%d) = %v, want %v", n, got, want)
		}
	}
}

func BenchmarkYtAx(b *testing.B) {
	const rows, cols = 4096, 1024
	a, x, y := seeded(rows, cols, RowMajor, 1)
	for _, name := range Names() {
		b.Run(name, func(b *testing.B) {
			be, err := New(name, Options{})
			require.NoError(b, err)
			require.NoError(b, be.Setup())
			defer be.Close()
			b.SetBytes(8 * (rows + rows*cols + cols))
			for b.Loop() {
				be.YtAx(a, x, y)
			}
		})
	}
}
