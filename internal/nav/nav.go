// Package nav carries navigation side effects. Components that need to send
// the user somewhere else receive a Navigator instead of touching a browsing
// context or writing a redirect themselves.
package nav

import (
	"context"
	"sync"
)

type Navigator interface {
	Navigate(ctx context.Context, path string)
}

type Func func(ctx context.Context, path string)

func (f Func) Navigate(ctx context.Context, path string) {
	f(ctx, path)
}

// Recorder remembers every navigation it is asked to perform.
type Recorder struct {
	mu    sync.Mutex
	paths []string
}

func (r *Recorder) Navigate(_ context.Context, path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
}

// Last returns the most recent navigation target.
func (r *Recorder) Last() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.paths) == 0 {
		return "", false
	}
	return r.paths[len(r.paths)-1], true
}

func (r *Recorder) Paths() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}
