// package stubs provides backend doubles for controller and catalog tests.
package stubs

import (
	"context"
	"net/http"
	"net/url"
	"sync"

	"github.com/desertthunder/ridex/internal/models"
	"github.com/desertthunder/ridex/internal/services"
)

// Reply is a scripted answer for one endpoint.
type Reply struct {
	Status int
	Body   string
	Err    error
	// Block makes Get wait until the request context is done.
	Block bool
}

// Call is one recorded request.
type Call struct {
	Endpoint string
	Params   url.Values
}

// Fetcher is a scripted [services.Fetcher] that records its calls.
type Fetcher struct {
	mu      sync.Mutex
	replies map[string]Reply
	calls   []Call
	release chan struct{}
}

// NewFetcher returns a fetcher answering 200 "null" to unknown endpoints.
func NewFetcher() *Fetcher {
	return &Fetcher{replies: make(map[string]Reply)}
}

// On scripts the reply for endpoint.
func (f *Fetcher) On(endpoint string, r Reply) *Fetcher {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies[endpoint] = r
	return f
}

// JSON scripts a 200 response with body.
func (f *Fetcher) JSON(endpoint, body string) *Fetcher {
	return f.On(endpoint, Reply{Status: http.StatusOK, Body: body})
}

// Hold makes every request wait until [Fetcher.Release] is called.
func (f *Fetcher) Hold() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.release = make(chan struct{})
}

// Release unblocks held requests.
func (f *Fetcher) Release() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.release != nil {
		close(f.release)
		f.release = nil
	}
}

// URL renders endpoint with its encoded query.
func (f *Fetcher) URL(endpoint string, params url.Values) string {
	u := "http://stub" + endpoint
	if q := params.Encode(); q != "" {
		u += "?" + q
	}
	return u
}

// Get records the call and returns the scripted reply.
func (f *Fetcher) Get(ctx context.Context, endpoint string, params url.Values) (*services.APIResponse, error) {
	f.mu.Lock()
	f.calls = append(f.calls, Call{Endpoint: endpoint, Params: params})
	r, ok := f.replies[endpoint]
	release := f.release
	f.mu.Unlock()

	if !ok {
		r = Reply{Status: http.StatusOK, Body: "null"}
	}

	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if r.Block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if r.Err != nil {
		return nil, r.Err
	}
	return &services.APIResponse{
		StatusCode: r.Status,
		Body:       []byte(r.Body),
		IsJSON:     true,
	}, nil
}

// Calls returns the recorded requests.
func (f *Fetcher) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// Count returns how many requests hit endpoint; all requests when endpoint is empty.
func (f *Fetcher) Count(endpoint string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if endpoint == "" {
		return len(f.calls)
	}
	n := 0
	for _, c := range f.calls {
		if c.Endpoint == endpoint {
			n++
		}
	}
	return n
}

// Recorder collects runs in memory.
type Recorder struct {
	mu   sync.Mutex
	Runs []*models.Run
	Err  error
}

// Record stores run.
func (r *Recorder) Record(_ context.Context, run *models.Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.Runs = append(r.Runs, run)
	return nil
}

// Outcomes returns recorded outcomes in order.
func (r *Recorder) Outcomes() []models.Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Outcome, 0, len(r.Runs))
	for _, run := range r.Runs {
		out = append(out, run.Outcome)
	}
	return out
}
