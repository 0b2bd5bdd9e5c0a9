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
	"slices"
	"sync"

	"github.com/samber/lo"
)

// Factory builds an unconfigured Backend.
type Factory func(opts Options) Backend

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

// Register makes a backend available to New under name. Registering the
// same name twice replaces the earlier factory.
func Register(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = f
}

// New returns the backend registered under name. Setup must be called
// before use.
func New(name string, opts Options) (Backend, error) {
	registryMu.RLock()
	f, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q (have %v)", ErrUnknownBackend, name, Names())
	}
	return f(opts), nil
}

// Names returns the registered backend names in sorted order.
func Names() []string {
	registryMu.RLock()
	names := lo.Keys(registry)
	registryMu.RUnlock()
	slices.Sort(names)
	return names
}

func init() {
	Register("serial", func(Options) Backend { return &Serial{} })
	Register("threads", func(o Options) Backend { return &Threads{Workers: o.Workers} })
	Register("pool", func(o Options) Backend { return &Pooled{Workers: o.Workers} })
	Register("gonum", func(Options) Backend { return &Gonum{} })
}
