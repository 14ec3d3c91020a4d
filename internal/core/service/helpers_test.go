package service

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yndnr/catdesk-go/internal/cli/connection"
	"github.com/yndnr/catdesk-go/internal/storage"
	"github.com/yndnr/catdesk-go/internal/telemetry/logger"
)

// apiServer is a scripted catalog API. Handlers are keyed by "METHOD /path".
type apiServer struct {
	t        *testing.T
	srv      *httptest.Server
	mu       sync.Mutex
	handlers map[string]http.HandlerFunc
	requests []*http.Request
}

func newAPIServer(t *testing.T) *apiServer {
	t.Helper()
	a := &apiServer{t: t, handlers: map[string]http.HandlerFunc{}}
	a.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a.mu.Lock()
		a.requests = append(a.requests, r)
		h, ok := a.handlers[r.Method+" "+r.URL.Path]
		a.mu.Unlock()
		if !ok {
			jsonResponse(w, http.StatusNotFound, map[string]any{"message": "no handler for " + r.Method + " " + r.URL.Path})
			return
		}
		h(w, r)
	}))
	t.Cleanup(a.srv.Close)
	return a
}

func (a *apiServer) handle(pattern string, h http.HandlerFunc) {
	a.mu.Lock()
	a.handlers[pattern] = h
	a.mu.Unlock()
}

func (a *apiServer) reply(pattern string, status int, body any) {
	a.handle(pattern, func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, status, body)
	})
}

func (a *apiServer) lastRequest() *http.Request {
	a.mu.Lock()
	defer a.mu.Unlock()
	require.NotEmpty(a.t, a.requests, "no request reached the server")
	return a.requests[len(a.requests)-1]
}

func (a *apiServer) requestCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.requests)
}

func (a *apiServer) client() *connection.HTTPClient {
	return connection.NewHTTPClient(a.srv.URL, connection.Options{
		Timeout: 5 * time.Second,
		Logger:  logger.Discard(),
	})
}

func jsonResponse(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

func newMemoryStorage() *storage.LocalStorage {
	return storage.NewLocalStorage(storage.NewMemoryEngine())
}

// failingStorage fails every call with err.
type failingStorage struct{ err error }

func (f failingStorage) GetItem(string) (string, bool, error) { return "", false, f.err }
func (f failingStorage) SetItem(string, string) error         { return f.err }
func (f failingStorage) RemoveItem(string) error              { return f.err }

var errDiskFull = errors.New("disk full")

// flakyStorage fails the failAt-th SetItem call and passes everything else
// through to LocalStorage.
type flakyStorage struct {
	*storage.LocalStorage
	failAt int
	sets   int
}

func (f *flakyStorage) SetItem(key, value string) error {
	f.sets++
	if f.sets == f.failAt {
		return errDiskFull
	}
	return f.LocalStorage.SetItem(key, value)
}

// staticToken is a TokenSource with a fixed token.
type staticToken string

func (s staticToken) Token() string { return string(s) }

// recordingIndicator records Begin/End calls.
type recordingIndicator struct {
	mu     sync.Mutex
	events []string
	errs   []error
}

func (r *recordingIndicator) Begin(op string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, "begin:"+op)
}

func (r *recordingIndicator) End(op string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, "end:"+op)
	r.errs = append(r.errs, err)
}
