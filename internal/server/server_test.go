package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Rob--W/pdfjs-telemetry/internal/config"
	"github.com/Rob--W/pdfjs-telemetry/internal/response"
	"github.com/Rob--W/pdfjs-telemetry/internal/storage"
)

func TestRobots(t *testing.T) {
	srv := newTestServer(t, &sinkStub{})

	rec := doRequest(srv, http.MethodGet, "/robots.txt", nil, nil)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if got := rec.Body.String(); got != response.RobotsBody {
		t.Errorf("body = %q, want %q", got, response.RobotsBody)
	}
}

func TestUnknownPathsAnswer404(t *testing.T) {
	srv := newTestServer(t, &sinkStub{})

	cases := []struct {
		method string
		target string
		body   string
	}{
		{http.MethodGet, "/", ""},
		{http.MethodGet, "/favicon.ico", ""},
		{http.MethodPost, "/", "payload"},
		{http.MethodGet, "/logpdfjs/extra", ""},
		{http.MethodGet, "/.well-known/acme-challenge/token", ""},
	}
	for _, tc := range cases {
		name := tc.method + " " + tc.target
		rec := doRequest(srv, tc.method, tc.target, strings.NewReader(tc.body), nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s: status = %d, want %d", name, rec.Code, http.StatusNotFound)
		}
		if rec.Body.Len() != 0 {
			t.Errorf("%s: body = %q, want empty", name, rec.Body.String())
		}
	}
}

func TestRobotsMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, &sinkStub{})

	rec := doRequest(srv, http.MethodPost, "/robots.txt", nil, nil)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("body = %q, want empty", rec.Body.String())
	}
}

func TestChallengeDirServed(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "token123"), []byte("proof-abc"), 0o644); err != nil {
		t.Fatal(err)
	}
	srv := newTestServer(t, &sinkStub{}, func(cfg *config.Config) {
		cfg.Server.ACMEDir = dir
	})

	rec := doRequest(srv, http.MethodGet, "/.well-known/acme-challenge/token123", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if got := rec.Body.String(); got != "proof-abc" {
		t.Errorf("body = %q, want %q", got, "proof-abc")
	}

	rec = doRequest(srv, http.MethodGet, "/.well-known/acme-challenge/missing", nil, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing token: status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("missing token: body = %q, want empty", rec.Body.String())
	}
}

func TestListenerTimeouts(t *testing.T) {
	srv := newTestServer(t, &sinkStub{}, func(cfg *config.Config) {
		cfg.Server.ReadTimeout = 7
		cfg.Server.WriteTimeout = 8
		cfg.Server.IdleTimeout = 9
	})

	// StartTLS serves from TLSServer, so both listeners carry the timeouts.
	for name, hs := range map[string]*http.Server{
		"http": srv.Echo.Server,
		"tls":  srv.Echo.TLSServer,
	} {
		if hs.ReadTimeout != 7*time.Second {
			t.Errorf("%s read timeout = %v, want %v", name, hs.ReadTimeout, 7*time.Second)
		}
		if hs.WriteTimeout != 8*time.Second {
			t.Errorf("%s write timeout = %v, want %v", name, hs.WriteTimeout, 8*time.Second)
		}
		if hs.IdleTimeout != 9*time.Second {
			t.Errorf("%s idle timeout = %v, want %v", name, hs.IdleTimeout, 9*time.Second)
		}
	}
}

func TestStartStopsOnContextCancel(t *testing.T) {
	srv := newTestServer(t, &sinkStub{})

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- srv.Start(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			t.Fatalf("Start returned %v, want %v", err, http.ErrServerClosed)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop after cancel")
	}
}

func TestConcurrentPingsEndToEnd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pings.log")
	sink, err := storage.OpenFileLog(path)
	if err != nil {
		t.Fatal(err)
	}
	defer sink.Close()

	srv := newTestServer(t, sink)
	ts := httptest.NewServer(srv.Echo)
	defer ts.Close()

	const workers = 8
	const perWorker = 25

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			client := ts.Client()
			for i := 0; i < perWorker; i++ {
				req, err := http.NewRequest(http.MethodPost, ts.URL+ingestPath, nil)
				if err != nil {
					t.Errorf("worker %d: %v", w, err)
					return
				}
				req.Header.Set(headerDeduplicationID, fmt.Sprintf("%05x%05x", w, i))
				req.Header.Set(headerExtensionVersion, "1.2")
				req.Header.Set("User-Agent", testUA)
				resp, err := client.Do(req)
				if err != nil {
					t.Errorf("worker %d: %v", w, err)
					return
				}
				resp.Body.Close()
				if resp.StatusCode != http.StatusNoContent {
					t.Errorf("worker %d: status = %d, want %d", w, resp.StatusCode, http.StatusNoContent)
				}
			}
		}(w)
	}
	wg.Wait()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	if len(lines) != workers*perWorker {
		t.Fatalf("log lines = %d, want %d", len(lines), workers*perWorker)
	}

	want := make(map[string]bool, workers*perWorker)
	for w := 0; w < workers; w++ {
		for i := 0; i < perWorker; i++ {
			id := fmt.Sprintf("%05x%05x", w, i)
			want[id+" 1.2 \""+testUA+"\""] = true
		}
	}
	seen := make(map[string]bool, len(lines))
	for _, line := range lines {
		if !want[line] {
			t.Fatalf("unexpected log line %q", line)
		}
		if seen[line] {
			t.Fatalf("duplicate log line %q", line)
		}
		seen[line] = true
	}
}
