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
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/ajroetker/ytax/kernel/workerpool"
)

const (
	// DefaultParallelThreshold is the matrix size below which Pooled runs
	// on the calling goroutine.
	DefaultParallelThreshold = 1 << 14

	// DefaultMinColumnTile is the smallest column range Pooled hands to a
	// worker when it splits rows.
	DefaultMinColumnTile = 1024
)

// Serial computes y^T·A·x with plain nested loops on the caller.
type Serial struct{}

var _ Backend = (*Serial)(nil)

func (*Serial) Name() string { return "serial" }
func (*Serial) Setup() error { return nil }
func (*Serial) Close() error { return nil }

func (*Serial) YtAx(a *Matrix, x, y Vector) float64 {
	rows, cols := a.Dims()
	var result float64
	for j := range rows {
		off, stride := a.RowStride(j)
		result += y[j] * dotStrided(a.data, off, stride, x, 0, cols)
	}
	return result
}

// Threads splits the rows into Workers contiguous ranges and runs each on
// its own goroutine per call.
type Threads struct {
	Workers int

	workers int
}

var _ Backend = (*Threads)(nil)

func (*Threads) Name() string { return "threads" }

func (t *Threads) Setup() error {
	t.workers = t.Workers
	if t.workers <= 0 {
		t.workers = runtime.GOMAXPROCS(0)
	}
	return nil
}

func (t *Threads) Close() error { return nil }

func (t *Threads) YtAx(a *Matrix, x, y Vector) float64 {
	rows, _ := a.Dims()
	chunks := min(max(t.workers, 1), rows)
	if chunks <= 1 {
		return rowsYtAx(a, x, y, 0, rows)
	}

	sum, err := t.reduceChunks(a, x, y, rows, chunks)
	if err != nil {
		panic(err)
	}
	return sum
}

// reduceChunks runs one goroutine per row chunk and tree-sums their
// partials. A panicking chunk is recovered and returned by Wait, so the
// failure surfaces on the calling goroutine.
func (t *Threads) reduceChunks(a *Matrix, x, y Vector, rows, chunks int) (float64, error) {
	chunkSize := (rows + chunks - 1) / chunks
	partials := make([]float64, chunks)

	var g errgroup.Group
	for c := range chunks {
		start := c * chunkSize
		end := min(start+chunkSize, rows)
		if start >= end {
			continue
		}
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("kernel: threads chunk [%d, %d): %v", start, end, r)
				}
			}()
			partials[c] = rowsYtAx(a, x, y, start, end)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return workerpool.TreeSum(partials), nil
}

// Pooled runs the reduction on a persistent worker pool created by Setup.
// Rows are distributed across the workers; when there are fewer rows than
// workers each row is also split into column tiles, so the inner product
// itself runs in parallel.
type Pooled struct {
	Workers int

	// Threshold is the element count below which the reduction runs on the
	// caller. Zero selects DefaultParallelThreshold; negative disables it.
	Threshold int

	// MinColumnTile bounds column tiling. Zero selects DefaultMinColumnTile.
	MinColumnTile int

	pool *workerpool.Pool
}

var _ Backend = (*Pooled)(nil)

func (*Pooled) Name() string { return "pool" }

func (p *Pooled) Setup() error {
	if p.pool == nil {
		p.pool = workerpool.New(p.Workers)
	}
	return nil
}

func (p *Pooled) Close() error {
	if p.pool != nil {
		p.pool.Close()
		p.pool = nil
	}
	return nil
}

func (p *Pooled) YtAx(a *Matrix, x, y Vector) float64 {
	rows, cols := a.Dims()

	threshold := p.Threshold
	if threshold == 0 {
		threshold = DefaultParallelThreshold
	}
	if p.pool == nil || rows*cols < threshold {
		return rowsYtAx(a, x, y, 0, rows)
	}

	minTile := p.MinColumnTile
	if minTile <= 0 {
		minTile = DefaultMinColumnTile
	}
	workers := p.pool.NumWorkers()
	tiles := 1
	if rows > 0 && rows < workers {
		tiles = min((workers+rows-1)/rows, max(cols/minTile, 1))
	}

	if tiles == 1 {
		return p.pool.ParallelReduce(rows, func(start, end int) float64 {
			return rowsYtAx(a, x, y, start, end)
		})
	}

	// Tiles are handed out one at a time; each keeps its own partial.
	tileSize := (cols + tiles - 1) / tiles
	return p.pool.ParallelReduceBatched(rows*tiles, 1, func(t, _ int) float64 {
		r := t / tiles
		lo := (t % tiles) * tileSize
		hi := min(lo+tileSize, cols)
		if lo >= hi {
			return 0
		}
		return y[r] * rowDot(a, r, x, lo, hi)
	})
}

// Gonum evaluates y^T·A·x with mat.Inner on a mat.Dense view of the matrix
// buffer. Column-major matrices are viewed through their transpose.
type Gonum struct {
	src  *Matrix
	view mat.Matrix
}

var _ Backend = (*Gonum)(nil)

func (*Gonum) Name() string { return "gonum" }
func (*Gonum) Setup() error { return nil }

func (g *Gonum) Close() error {
	g.src, g.view = nil, nil
	return nil
}

func (g *Gonum) YtAx(a *Matrix, x, y Vector) float64 {
	rows, cols := a.Dims()
	if rows == 0 || cols == 0 {
		return 0
	}
	if g.src != a {
		g.src = a
		if a.Layout() == ColMajor {
			g.view = mat.NewDense(cols, rows, a.data).T()
		} else {
			g.view = mat.NewDense(rows, cols, a.data)
		}
	}
	return mat.Inner(mat.NewVecDense(rows, y), g.view, mat.NewVecDense(cols, x))
}
