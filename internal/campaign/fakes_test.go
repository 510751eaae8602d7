package campaign

import (
	"context"
	"sync"
	"time"

	"github.com/jonathan/campaign-runner/internal/transcripts"
	"github.com/jonathan/campaign-runner/internal/types"
)

type fakeCaller struct {
	mu       sync.Mutex
	requests []types.CallRequest
	respond  func(req types.CallRequest) types.CallResponse
}

func (f *fakeCaller) Initiate(_ context.Context, req types.CallRequest) types.CallResponse {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	if f.respond == nil {
		return types.CallResponse{Success: true, CallID: "c-" + req.PhoneNumber}
	}
	return f.respond(req)
}

func (f *fakeCaller) Requests() []types.CallRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]types.CallRequest(nil), f.requests...)
}

type fakeWaiter struct {
	mu     sync.Mutex
	calls  []transcripts.CallIdentity
	result transcripts.PollResult
}

func (f *fakeWaiter) Wait(_ context.Context, call transcripts.CallIdentity) transcripts.PollResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	return f.result
}

func (f *fakeWaiter) Calls() []transcripts.CallIdentity {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]transcripts.CallIdentity(nil), f.calls...)
}

type countingLister struct {
	mu      sync.Mutex
	calls   int
	appears int
	records []types.TranscriptRecord
}

// List returns nothing until the appears-th call.
func (l *countingLister) List(context.Context) []types.TranscriptRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	if l.calls < l.appears {
		return nil
	}
	return l.records
}

func (l *countingLister) Calls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

type fakeContent struct {
	mu   sync.Mutex
	urls []string
	text string
}

func (f *fakeContent) Conversation(_ context.Context, url string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.urls = append(f.urls, url)
	return f.text
}

// stepClock advances by one second on every reading.
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(time.Second)
	return t
}

func (c *stepClock) Peek() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

type processorFunc func(ctx context.Context, c types.Contact) types.ResultRecord

func (f processorFunc) Process(ctx context.Context, c types.Contact) types.ResultRecord {
	return f(ctx, c)
}
