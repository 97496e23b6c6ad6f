// Copyright 2025 Zintix Labs
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

package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeComp struct {
	name  string
	stop  chan struct{}
	fail  error
	mu    *sync.Mutex
	order *[]string
}

func newFake(name string, mu *sync.Mutex, order *[]string) *fakeComp {
	return &fakeComp{name: name, stop: make(chan struct{}), mu: mu, order: order}
}

func (f *fakeComp) Run() error {
	if f.fail != nil {
		return f.fail
	}
	<-f.stop
	return nil
}

func (f *fakeComp) Shutdown(ctx context.Context) error {
	f.mu.Lock()
	*f.order = append(*f.order, f.name)
	f.mu.Unlock()
	select {
	case <-f.stop:
	default:
		close(f.stop)
	}
	return nil
}

func TestRunContextShutdownOrder(t *testing.T) {
	var mu sync.Mutex
	var order []string
	a := NewWith(newFake("http", &mu, &order), newFake("poller", &mu, &order))
	a.Register(nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.RunContext(ctx) }()
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("app did not stop")
	}
	assert.Equal(t, []string{"poller", "http"}, order)
}

func TestRunContextComponentError(t *testing.T) {
	var mu sync.Mutex
	var order []string
	bad := newFake("bad", &mu, &order)
	bad.fail = errors.New("boom")
	a := NewWith(newFake("http", &mu, &order), bad).WithShutdownTimeout(time.Second)

	err := a.RunContext(context.Background())
	assert.EqualError(t, err, "boom")
	assert.Len(t, order, 2)
}
