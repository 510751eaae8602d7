package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jonathan/campaign-runner/internal/config"
	"github.com/jonathan/campaign-runner/internal/transcripts"
	"github.com/jonathan/campaign-runner/internal/types"
)

const testUserUID = "user-1"
const testAPIKey = "monade_test-key-123"

// fakeProvider serves the call-creation, transcript-listing and
// transcript-content endpoints.
type fakeProvider struct {
	server *httptest.Server

	mu        sync.Mutex
	requests  []types.CallRequest
	callIDs   map[string]string // call id -> phone number
	listCalls int

	// transcriptsAppearOn is the listing call from which transcripts exist.
	transcriptsAppearOn int
	failNumbers         map[string]bool
}

func newFakeProvider(t *testing.T) *fakeProvider {
	t.Helper()
	p := &fakeProvider{
		callIDs:             map[string]string{},
		transcriptsAppearOn: 1,
		failNumbers:         map[string]bool{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/calling", p.handleCall)
	mux.HandleFunc("GET /api/users/"+testUserUID+"/transcripts", p.handleList)
	mux.HandleFunc("GET /content/{id}", p.handleContent)

	p.server = httptest.NewServer(mux)
	t.Cleanup(p.server.Close)
	return p
}

func (p *fakeProvider) handleCall(w http.ResponseWriter, r *http.Request) {
	var req types.CallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	p.mu.Lock()
	p.requests = append(p.requests, req)
	id := fmt.Sprintf("c%d", len(p.requests))
	fail := p.failNumbers[req.PhoneNumber]
	if !fail {
		p.callIDs[id] = req.PhoneNumber
	}
	p.mu.Unlock()

	if fail {
		http.Error(w, `{"error":"trunk unavailable"}`, http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = fmt.Fprintf(w, `{"call_id": %q, "status": "queued"}`, id)
}

func (p *fakeProvider) handleList(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get(transcripts.APIKeyHeader) != testAPIKey {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	p.mu.Lock()
	p.listCalls++
	var records []map[string]any
	if p.listCalls >= p.transcriptsAppearOn {
		for id, number := range p.callIDs {
			records = append(records, map[string]any{
				"call_id":        id,
				"phone_number":   number,
				"created_at":     time.Now().UTC().Format(time.RFC3339Nano),
				"transcript_url": p.server.URL + "/content/" + id,
			})
		}
	}
	p.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"transcripts": records})
}

func (p *fakeProvider) handleContent(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	lines := []string{
		`{"metadata": {"call_id": "` + id + `", "duration": 31}}`,
		`{"sender": "agent", "text": "Hello, this is Campaign Assistant"}`,
		`not json`,
		`{"sender": "user", "text": ["Hi,", "who is this?"]}`,
	}
	_, _ = w.Write([]byte(strings.Join(lines, "\n")))
}

func (p *fakeProvider) Requests() []types.CallRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]types.CallRequest(nil), p.requests...)
}

func (p *fakeProvider) ListCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.listCalls
}

func setProviderEnv(t *testing.T, p *fakeProvider) {
	t.Helper()
	t.Setenv(config.EnvAPIKey, testAPIKey)
	t.Setenv(config.EnvUserUID, testUserUID)
	t.Setenv(config.EnvTranscriptAPIURL, p.server.URL)
	t.Setenv(config.EnvDatabaseURL, "")
}

func clearProviderEnv(t *testing.T) {
	t.Helper()
	t.Setenv(config.EnvAPIKey, "")
	t.Setenv(config.EnvUserUID, "")
	t.Setenv(config.EnvTranscriptAPIURL, "")
	t.Setenv(config.EnvDatabaseURL, "")
}

func writeContacts(t *testing.T, rows ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "contacts.csv")
	content := "name,number\n" + strings.Join(rows, "\n") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func executeCommand(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	root := newRootCommand()

	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)

	err = root.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}
