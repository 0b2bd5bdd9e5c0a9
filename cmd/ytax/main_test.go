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

package main

import (
	"bytes"
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ajroetker/ytax/sizes"
)

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want sizes.Dims
		echo string
	}{
		{
			name: "defaults",
			want: sizes.Dims{N: -1, M: -1, S: -1, NRepeat: 100},
		},
		{
			name: "short names",
			args: []string{"-N", "2", "-M", "3", "-S", "5", "-nrepeat", "7"},
			want: sizes.Dims{N: 4, M: 8, S: 32, NRepeat: 7},
			echo: "  User N is 4\n  User M is 8\n  User S is 32\n",
		},
		{
			name: "long names",
			args: []string{"-Rows", "1", "-Columns", "0", "-Size", "10"},
			want: sizes.Dims{N: 2, M: 1, S: 1024, NRepeat: 100},
			echo: "  User N is 2\n  User M is 1\n  User S is 1024\n",
		},
		{
			name: "fractional exponent",
			args: []string{"-M", "10.5"},
			want: sizes.Dims{N: -1, M: 1448, S: -1, NRepeat: 100},
			echo: "  User M is 1448\n",
		},
		{
			name: "fractional row exponent truncates",
			args: []string{"-N", "2.5", "-S", "10.5"},
			want: sizes.Dims{N: 4, M: -1, S: 1448, NRepeat: 100},
			echo: "  User N is 4\n  User S is 1448\n",
		},
		{
			name: "negative fractional row exponent",
			args: []string{"-Rows", "-0.5"},
			want: sizes.Dims{N: 1, M: -1, S: -1, NRepeat: 100},
			echo: "  User N is 1\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			opts, err := parseArgs(tt.args, &out)
			require.NoError(t, err)
			require.Equal(t, tt.want, opts.dims)
			require.Equal(t, tt.echo, out.String())
		})
	}
}

func TestRunHelp(t *testing.T) {
	for _, arg := range []string{"-h", "-help"} {
		var out bytes.Buffer
		require.Equal(t, 1, run([]string{arg}, &out))
		require.Contains(t, out.String(), "  y^T*A*x Options:\n")
		require.Contains(t, out.String(), "-nrepeat <int>")
	}
}

func TestRunSizeErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"mismatch", []string{"-N", "2", "-M", "2", "-S", "5"}, "  N * M != S\n"},
		{"negative repeat", []string{"-N", "1", "-M", "1", "-nrepeat", "-3"}, "  Sizes must be greater than 0.\n"},
		{"exponent overflow", []string{"-N", "70"}, ""},
		{"product overflow", []string{"-N", "62", "-M", "2"}, "  N * M != S\n"},
		{"bad exponent", []string{"-N", "many"}, ""},
		{"stray argument", []string{"-N", "2", "extra"}, "  Error: unexpected arguments: [extra]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			require.Equal(t, 1, run(tt.args, &out))
			require.Contains(t, out.String(), tt.want)
		})
	}
}

func TestRunUnknownBackend(t *testing.T) {
	var out bytes.Buffer
	require.Equal(t, 1, run([]string{"-S", "4", "-backend", "cuda"}, &out))
	require.Contains(t, out.String(), "unknown backend")

	out.Reset()
	require.Equal(t, 1, run([]string{"-S", "4", "-layout", "diagonal"}, &out))
	require.Contains(t, out.String(), "layout")
}

var reportLine = regexp.MustCompile(`(?m)^  N\( 4 \) M\( 4 \) nrepeat \( 3 \) problem\( \S+ MB \) time\( \S+ s \) bandwidth\( \S+ GB/s \)$`)

func TestRun(t *testing.T) {
	for _, backend := range []string{"serial", "threads", "pool", "gonum"} {
		for _, layout := range []string{"row", "col"} {
			t.Run(backend+"/"+layout, func(t *testing.T) {
				var out bytes.Buffer
				code := run([]string{"-N", "2", "-M", "2", "-nrepeat", "3", "-backend", backend, "-layout", layout, "-workers", "2"}, &out)
				require.Equal(t, 0, code, out.String())

				got := out.String()
				require.Contains(t, got, "  Total size S = 16 N = 4 M = 4\n")
				require.Contains(t, got, "  Computed result for 4 x 4 is 16.000000\n")
				require.NotContains(t, got, "Error")
				require.Regexp(t, reportLine, got)
			})
		}
	}
}

func TestRunSizeOnly(t *testing.T) {
	var out bytes.Buffer
	require.Equal(t, 0, run([]string{"-S", "10", "-nrepeat", "1", "-backend", "serial"}, &out))
	require.Contains(t, out.String(), "  Total size S = 1024 N = 1 M = 1024\n")
	require.Contains(t, out.String(), "  Computed result for 1 x 1024 is 1024.000000\n")
}
