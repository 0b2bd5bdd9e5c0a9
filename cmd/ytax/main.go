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

// Command ytax measures the memory bandwidth of the bilinear reduction
// y^T·A·x on a dense N×M matrix.
//
// Usage:
//
//	ytax -N 12 -M 10 -nrepeat 100
//	ytax -S 24 -backend threads -workers 8
//	YTAX_BACKEND=gonum ytax -Rows 14 -Columns 8
//
// Sizes are given as base-2 exponents. The -N exponent is truncated to an
// integer; -M and -S accept fractional exponents. Unspecified sizes are derived as
// documented in package sizes. The process exits with status 1 after
// printing help, or when the sizes are inconsistent.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/ajroetker/ytax/bench"
	"github.com/ajroetker/ytax/dispatch"
	"github.com/ajroetker/ytax/kernel"
	"github.com/ajroetker/ytax/sizes"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

const usage = `  y^T*A*x Options:
  -Rows (-N) <int>:      exponent num, determines number of rows 2^num (default: 2^12 = 4096)
  -Columns (-M) <int>:   exponent num, determines number of columns 2^num (default: 2^10 = 1024)
  -Size (-S) <int>:      exponent num, determines total matrix size 2^num (default: 2^22 = 4096*1024 )
  -nrepeat <int>:        number of repetitions (default: 100)
  -backend <name>:       execution backend, one of %v (default: %s)
  -workers <int>:        worker count for parallel backends (default: GOMAXPROCS)
  -layout <row|col>:     matrix storage order (default: row)
  -help (-h):            print this message

`

// exponentFlag sets *size to 2^exp and echoes the resulting size. An integer
// flag drops the fractional part of exp before raising.
type exponentFlag struct {
	label   string
	size    *int
	out     io.Writer
	integer bool
}

func (f *exponentFlag) String() string {
	if f.size == nil || *f.size == sizes.Unspecified {
		return ""
	}
	return strconv.Itoa(*f.size)
}

func (f *exponentFlag) Set(s string) error {
	exp, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	if f.integer {
		exp = math.Trunc(exp)
	}
	v, err := sizes.FromExponent(exp)
	if err != nil {
		return err
	}
	*f.size = v
	fmt.Fprintf(f.out, "  User %s is %d\n", f.label, v)
	return nil
}

var errUnexpectedArgs = errors.New("unexpected arguments")

type options struct {
	dims    sizes.Dims
	backend string
	workers int
	layout  string
}

func parseArgs(args []string, stdout io.Writer) (options, error) {
	opts := options{
		dims:    sizes.Unresolved(),
		backend: dispatch.DefaultBackend(),
		layout:  kernel.RowMajor.String(),
	}

	fs := flag.NewFlagSet("ytax", flag.ContinueOnError)
	fs.SetOutput(stdout)
	fs.Usage = func() {
		fmt.Fprintf(stdout, usage, kernel.Names(), opts.backend)
	}

	rows := &exponentFlag{label: "N", size: &opts.dims.N, out: stdout, integer: true}
	cols := &exponentFlag{label: "M", size: &opts.dims.M, out: stdout}
	size := &exponentFlag{label: "S", size: &opts.dims.S, out: stdout}
	fs.Var(rows, "N", "rows exponent")
	fs.Var(rows, "Rows", "rows exponent")
	fs.Var(cols, "M", "columns exponent")
	fs.Var(cols, "Columns", "columns exponent")
	fs.Var(size, "S", "total size exponent")
	fs.Var(size, "Size", "total size exponent")
	fs.IntVar(&opts.dims.NRepeat, "nrepeat", sizes.DefaultRepeat, "number of repetitions")
	fs.StringVar(&opts.backend, "backend", opts.backend, "execution backend")
	fs.IntVar(&opts.workers, "workers", 0, "worker count for parallel backends")
	fs.StringVar(&opts.layout, "layout", opts.layout, "matrix storage order (row|col)")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if fs.NArg() > 0 {
		return opts, fmt.Errorf("%w: %v", errUnexpectedArgs, fs.Args())
	}
	return opts, nil
}

func run(args []string, stdout io.Writer) int {
	opts, err := parseArgs(args, stdout)
	if err != nil {
		// flag has already printed its own errors and the usage text.
		if errors.Is(err, errUnexpectedArgs) {
			fmt.Fprintf(stdout, "  Error: %v\n", err)
		}
		return 1
	}

	dims, err := sizes.ResolveTo(stdout, opts.dims)
	switch {
	case errors.Is(err, sizes.ErrNegativeSize):
		fmt.Fprintf(stdout, "  Sizes must be greater than 0.\n")
		return 1
	case errors.Is(err, sizes.ErrSizeMismatch):
		fmt.Fprintf(stdout, "  N * M != S\n")
		return 1
	case err != nil:
		fmt.Fprintf(stdout, "  Error: %v\n", err)
		return 1
	}

	layout, err := kernel.ParseLayout(opts.layout)
	if err != nil {
		fmt.Fprintf(stdout, "  Error: %v\n", err)
		return 1
	}
	backend, err := kernel.New(opts.backend, kernel.Options{Workers: opts.workers})
	if err != nil {
		fmt.Fprintf(stdout, "  Error: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "  Backend %s (%s, %d CPUs, %s layout)\n",
		backend.Name(), dispatch.CurrentLevel(), dispatch.NumCPU(), layout)

	res, err := bench.Run(bench.Config{
		Dims:    dims,
		Backend: backend,
		Layout:  layout,
		Out:     stdout,
	})
	if err != nil {
		fmt.Fprintf(stdout, "  Error: %v\n", err)
		return 1
	}

	bench.Report(stdout, res)
	return 0
}
