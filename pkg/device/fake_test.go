package device

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// fakeRunner answers adb invocations by matching the joined argument list
// against registered prefixes.
type fakeRunner struct {
	mu        sync.Mutex
	calls     []string
	responses []fakeResponse
}

type fakeResponse struct {
	prefix string
	out    []byte
	err    error
	times  int // 0 means unlimited
}

func (f *fakeRunner) on(prefix string, out string, err error) *fakeRunner {
	f.responses = append(f.responses, fakeResponse{prefix: prefix, out: []byte(out), err: err})
	return f
}

func (f *fakeRunner) onceOn(prefix string, out string, err error) *fakeRunner {
	f.responses = append(f.responses, fakeResponse{prefix: prefix, out: []byte(out), err: err, times: 1})
	return f
}

func (f *fakeRunner) Run(_ context.Context, _ string, args ...string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	joined := strings.Join(args, " ")
	f.calls = append(f.calls, joined)

	for i, r := range f.responses {
		if !strings.HasPrefix(joined, r.prefix) {
			continue
		}
		if r.times == 1 {
			f.responses = append(f.responses[:i:i], f.responses[i+1:]...)
		}
		return r.out, r.err
	}
	return nil, errors.New("unexpected command: " + joined)
}

func (f *fakeRunner) called(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, c := range f.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}
