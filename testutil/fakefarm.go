// Package testutil provides an in-process fake of the device farm session API.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"github.com/ethereum-optimism/infra/farmsync/provider"
)

const (
	FakeUsername = "fake-user"
	FakeKey      = "fake-key"
)

// FakeFarm serves the status and job endpoints for any session id.
// Exported fields may be changed between calls; access is serialized.
type FakeFarm struct {
	Server *httptest.Server

	mu         sync.Mutex
	Status     string  // returned by GET status and updated by PUT
	BrowserURL string  // returned by GET status
	VideoURL   *string // returned by GET job, nil encodes as null

	StatusGetCode int // 0 means 200
	StatusPutCode int
	JobCode       int
	StatusBody    string        // raw body override for GET status
	JobBody       string        // raw body override for GET job
	StatusDelay   time.Duration // delay before answering GET status

	puts     []string
	requests []string
	sessions []string
}

// NewFakeFarm starts a fake farm that is shut down with the test
func NewFakeFarm(t *testing.T) *FakeFarm {
	t.Helper()
	f := &FakeFarm{
		Status:     "running",
		BrowserURL: "https://automate.example.com/builds/b1/sessions/s1",
	}

	r := mux.NewRouter()
	r.HandleFunc("/automate/sessions/{session}.json", f.getStatus).Methods(http.MethodGet)
	r.HandleFunc("/automate/sessions/{session}.json", f.putStatus).Methods(http.MethodPut)
	r.HandleFunc("/api/automate/sessions/{session}", f.getJob).Methods(http.MethodGet)
	r.Use(f.record, f.basicAuth)

	f.Server = httptest.NewServer(r)
	t.Cleanup(f.Server.Close)
	return f
}

// Config returns a provider configuration pointing at the fake
func (f *FakeFarm) Config() provider.Config {
	cfg := provider.DefaultConfig()
	cfg.StatusURL = f.Server.URL + "/automate/sessions/{session}.json"
	cfg.JobURL = f.Server.URL + "/api/automate/sessions/{session}"
	return cfg
}

// Provider returns a provider for the fake with credentials already resolvable
func (f *FakeFarm) Provider() *provider.Provider {
	return provider.New(f.Config(), provider.MapSource{
		"BROWSERSTACK_USERNAME":   FakeUsername,
		"BROWSERSTACK_ACCESS_KEY": FakeKey,
	})
}

// Auth returns the credentials the fake accepts
func (f *FakeFarm) Auth() provider.Auth {
	return provider.Auth{Username: FakeUsername, Key: FakeKey}
}

// SetVideo sets the video URL returned by the job endpoint
func (f *FakeFarm) SetVideo(url string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.VideoURL = &url
}

// Set runs fn with the fake locked, for changing several fields at once
func (f *FakeFarm) Set(fn func(f *FakeFarm)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

// Puts returns the statuses written so far, in order
func (f *FakeFarm) Puts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.puts...)
}

// Requests returns "METHOD kind" entries for every request received, in order
func (f *FakeFarm) Requests() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

// Sessions returns the session id of every request received, in order
func (f *FakeFarm) Sessions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sessions...)
}

func (f *FakeFarm) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		kind := "status"
		if route := mux.CurrentRoute(r); route != nil {
			if tmpl, err := route.GetPathTemplate(); err == nil && tmpl == "/api/automate/sessions/{session}" {
				kind = "job"
			}
		}
		f.mu.Lock()
		f.requests = append(f.requests, r.Method+" "+kind)
		f.sessions = append(f.sessions, mux.Vars(r)["session"])
		f.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (f *FakeFarm) basicAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, key, ok := r.BasicAuth()
		if !ok || user != FakeUsername || key != FakeKey {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *FakeFarm) getStatus(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	delay, code, body := f.StatusDelay, f.StatusGetCode, f.StatusBody
	payload := map[string]any{
		"automation_session": map[string]any{
			"browser_url": f.BrowserURL,
			"status":      f.Status,
			"name":        mux.Vars(r)["session"],
		},
	}
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}
	writeResponse(w, code, body, payload)
}

func (f *FakeFarm) putStatus(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "content type must be application/json", http.StatusUnsupportedMediaType)
		return
	}
	status := r.URL.Query().Get("status")

	f.mu.Lock()
	code := f.StatusPutCode
	f.puts = append(f.puts, status)
	if code == 0 || code == http.StatusOK {
		f.Status = status
	}
	f.mu.Unlock()

	writeResponse(w, code, "", map[string]any{"automation_session": map[string]any{"status": status}})
}

func (f *FakeFarm) getJob(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	code, body := f.JobCode, f.JobBody
	var video any
	if f.VideoURL != nil {
		video = *f.VideoURL
	}
	f.mu.Unlock()

	writeResponse(w, code, body, map[string]any{
		"automation_session": map[string]any{
			"video_url": video,
		},
	})
}

func writeResponse(w http.ResponseWriter, code int, rawBody string, payload any) {
	if code == 0 {
		code = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if rawBody != "" {
		_, _ = w.Write([]byte(rawBody))
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}
