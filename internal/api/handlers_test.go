package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/undeadops/golinks/internal/keys"
	"github.com/undeadops/golinks/internal/store"
)

// setupServer starts a httptest.Server backed by a fresh file store and
// returns it along with a client that does not follow redirects, since
// the redirects are what we assert on.
func setupServer(t *testing.T) (*httptest.Server, *http.Client) {
	t.Helper()

	st, err := store.NewFileStore(filepath.Join(t.TempDir(), "config"), false)
	if err != nil {
		t.Fatalf("creating file store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	keygen, err := keys.NewSnowflakeGenerator(1)
	if err != nil {
		t.Fatalf("creating key generator: %v", err)
	}

	ts := httptest.NewServer(Router(context.Background(), st, keygen, zerolog.Nop()))
	t.Cleanup(ts.Close)

	client := &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	return ts, client
}

func get(t *testing.T, client *http.Client, rawURL string) (int, string, http.Header) {
	t.Helper()

	resp, err := client.Get(rawURL)
	if err != nil {
		t.Fatalf("GET %s: %v", rawURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading response body: %v", err)
	}

	return resp.StatusCode, string(body), resp.Header
}

func saveLink(t *testing.T, client *http.Client, base, key, target string) {
	t.Helper()

	params := url.Values{"p": {key}, "u": {target}}
	status, body, _ := get(t, client, base+"/save?"+params.Encode())
	if status != http.StatusOK {
		t.Fatalf("save %s -> %s returned %d: %s", key, target, status, body)
	}
	if body != "👍" {
		t.Fatalf("save confirmation = %q, want 👍", body)
	}
}

func TestResolveNotFound(t *testing.T) {
	ts, client := setupServer(t)

	status, body, _ := get(t, client, ts.URL+"/go/nonexistent")
	if status != http.StatusNotFound {
		t.Errorf("status = %d, want %d", status, http.StatusNotFound)
	}
	if strings.TrimSpace(body) != "URL not found" {
		t.Errorf("body = %q, want %q", body, "URL not found")
	}
}

func TestSaveAndResolve(t *testing.T) {
	ts, client := setupServer(t)

	saveLink(t, client, ts.URL, "test", "example.com")

	status, _, header := get(t, client, ts.URL+"/go/test")
	if status != http.StatusFound {
		t.Fatalf("status = %d, want %d", status, http.StatusFound)
	}
	if loc := header.Get("Location"); loc != "https://example.com" {
		t.Errorf("Location = %q, want %q", loc, "https://example.com")
	}
}

func TestResolveTargetWithColon(t *testing.T) {
	ts, client := setupServer(t)

	saveLink(t, client, ts.URL, "local", "localhost:8080/admin")

	status, _, header := get(t, client, ts.URL+"/go/local")
	if status != http.StatusFound {
		t.Fatalf("status = %d, want %d", status, http.StatusFound)
	}
	if loc := header.Get("Location"); loc != "https://localhost:8080/admin" {
		t.Errorf("Location = %q, want %q", loc, "https://localhost:8080/admin")
	}
}

func TestDump(t *testing.T) {
	ts, client := setupServer(t)

	status, body, header := get(t, client, ts.URL+"/go/👀")
	if status != http.StatusOK {
		t.Fatalf("status = %d, want %d", status, http.StatusOK)
	}
	if ct := header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var links map[string]string
	if err := json.Unmarshal([]byte(body), &links); err != nil {
		t.Fatalf("dump is not valid JSON: %v", err)
	}
	if len(links) != 0 {
		t.Errorf("dump of empty store = %v, want {}", links)
	}

	saveLink(t, client, ts.URL, "test", "example.com")

	_, body, _ = get(t, client, ts.URL+"/go/👀")
	if err := json.Unmarshal([]byte(body), &links); err != nil {
		t.Fatalf("dump is not valid JSON: %v", err)
	}
	if len(links) != 1 || links["test"] != "example.com" {
		t.Errorf("dump = %v, want {\"test\": \"example.com\"}", links)
	}
}

func TestSaveMissingParams(t *testing.T) {
	tests := []struct {
		name        string
		query       string
		wantMention []string
	}{
		{"missing key", "?u=example.com", []string{"'p'"}},
		{"missing url", "?p=test", []string{"'u'"}},
		{"missing both", "", []string{"'p'", "'u'"}},
		{"empty values", "?p=&u=", []string{"'p'", "'u'"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, client := setupServer(t)

			status, body, _ := get(t, client, ts.URL+"/save"+tt.query)
			if status != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", status, http.StatusBadRequest)
			}
			for _, mention := range tt.wantMention {
				if !strings.Contains(body, mention) {
					t.Errorf("body %q does not name parameter %s", body, mention)
				}
			}

			// A rejected save must leave the store untouched.
			_, dump, _ := get(t, client, ts.URL+"/go/👀")
			var links map[string]string
			if err := json.Unmarshal([]byte(dump), &links); err != nil {
				t.Fatalf("dump is not valid JSON: %v", err)
			}
			if len(links) != 0 {
				t.Errorf("store changed by rejected save: %v", links)
			}
		})
	}
}

func TestSaveOverwrite(t *testing.T) {
	ts, client := setupServer(t)

	saveLink(t, client, ts.URL, "gh", "github.com")
	saveLink(t, client, ts.URL, "gh", "github.com/undeadops")

	status, _, header := get(t, client, ts.URL+"/go/gh")
	if status != http.StatusFound {
		t.Fatalf("status = %d, want %d", status, http.StatusFound)
	}
	if loc := header.Get("Location"); loc != "https://github.com/undeadops" {
		t.Errorf("Location = %q, want the overwritten target", loc)
	}
}

func TestShorten(t *testing.T) {
	ts, client := setupServer(t)

	resp, err := client.Post(ts.URL+"/shorten", "application/json",
		strings.NewReader(`{"url": "https://example.com/docs"}`))
	if err != nil {
		t.Fatalf("POST /shorten: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}

	var shortened ShortenResponse
	if err := json.NewDecoder(resp.Body).Decode(&shortened); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if shortened.Key == "" {
		t.Fatal("shorten returned an empty key")
	}
	if !strings.HasSuffix(shortened.ShortURL, "/go/"+shortened.Key) {
		t.Errorf("short URL %q does not end in /go/%s", shortened.ShortURL, shortened.Key)
	}

	status, _, header := get(t, client, ts.URL+"/go/"+shortened.Key)
	if status != http.StatusFound {
		t.Fatalf("status = %d, want %d", status, http.StatusFound)
	}
	if loc := header.Get("Location"); loc != "https://example.com/docs" {
		t.Errorf("Location = %q, want %q", loc, "https://example.com/docs")
	}
}

func TestShortenRejectsBadURLs(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty body", `{}`},
		{"empty url", `{"url": ""}`},
		{"relative url", `{"url": "not-a-url"}`},
		{"unsupported scheme", `{"url": "ftp://example.com/file"}`},
		{"missing host", `{"url": "https://"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, client := setupServer(t)

			resp, err := client.Post(ts.URL+"/shorten", "application/json", strings.NewReader(tt.body))
			if err != nil {
				t.Fatalf("POST /shorten: %v", err)
			}
			defer resp.Body.Close()
			io.Copy(io.Discard, resp.Body)

			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
			}
		})
	}
}
