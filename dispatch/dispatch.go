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

// Package dispatch reports the host's vector instruction level and CPU
// count, and picks the default execution backend for the benchmark.
//
// The default backend can be overridden with environment variables:
//
//	YTAX_BACKEND=<name>      use the named backend
//	YTAX_NO_PARALLEL=1       use the serial backend
package dispatch

import (
	"os"
	"runtime"
	"strconv"
)

// Level is the widest vector instruction set detected on the host.
type Level int

const (
	// LevelScalar indicates no usable vector extension was detected.
	LevelScalar Level = iota

	// LevelAVX2 indicates AVX2 with FMA (256-bit).
	LevelAVX2

	// LevelAVX512 indicates AVX-512F (512-bit).
	LevelAVX512

	// LevelNEON indicates ARM NEON (128-bit).
	LevelNEON

	// LevelSVE indicates ARM SVE (scalable).
	LevelSVE
)

// String returns a human-readable name for the level.
func (l Level) String() string {
	switch l {
	case LevelScalar:
		return "scalar"
	case LevelAVX2:
		return "avx2"
	case LevelAVX512:
		return "avx512"
	case LevelNEON:
		return "neon"
	case LevelSVE:
		return "sve"
	default:
		return "unknown"
	}
}

const (
	// BackendEnv names the environment variable selecting the backend.
	BackendEnv = "YTAX_BACKEND"

	// NoParallelEnv names the environment variable forcing the serial backend.
	NoParallelEnv = "YTAX_NO_PARALLEL"
)

// currentLevel is set by detectCPUFeatures in the dispatch_*.go files.
var currentLevel Level

func init() {
	detectCPUFeatures()
}

// CurrentLevel returns the detected vector instruction level.
func CurrentLevel() Level {
	return currentLevel
}

// NumCPU returns the parallelism available to the benchmark.
func NumCPU() int {
	return runtime.GOMAXPROCS(0)
}

// NoParallel reports whether YTAX_NO_PARALLEL is set. Any non-empty value
// that does not parse as false counts as set.
func NoParallel() bool {
	val := os.Getenv(NoParallelEnv)
	if val == "" {
		return false
	}
	if b, err := strconv.ParseBool(val); err == nil {
		return b
	}
	return true
}

// DefaultBackend returns the backend name to use when none was requested:
// $YTAX_BACKEND if set, "serial" under YTAX_NO_PARALLEL or on a single CPU,
// and "pool" otherwise.
func DefaultBackend() string {
	if name := os.Getenv(BackendEnv); name != "" {
		return name
	}
	if NoParallel() || NumCPU() < 2 {
		return "serial"
	}
	return "pool"
}
