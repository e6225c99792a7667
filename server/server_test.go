package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"trackviz/core/dataset"
	"trackviz/model"
	"trackviz/storage"
)

type fakeCache struct {
	mu   sync.Mutex
	data map[string][]byte
	gets int
}

func (c *fakeCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	return c.data[key], nil
}

func (c *fakeCache) Set(_ context.Context, key string, svg []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.data == nil {
		c.data = make(map[string][]byte)
	}
	c.data[key] = svg
	return nil
}

type fakeSnapshots struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (s *fakeSnapshots) Put(_ context.Context, id, _ string, svg []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.objects == nil {
		s.objects = make(map[string][]byte)
	}
	s.objects[id] = svg
	return nil
}

func (s *fakeSnapshots) Get(_ context.Context, id string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	body, ok := s.objects[id]
	if !ok {
		return nil, storage.ErrSnapshotNotFound
	}
	return body, nil
}

func (s *fakeSnapshots) List(context.Context, string) ([]storage.ObjectInfo, error) {
	return nil, nil
}

func testTracks() []model.Track {
	return []model.Track{
		{ID: "a", Name: "One", Artist: "X", Energy: 0.1, Tempo: 95, Loudness: -12, Acousticness: 0.3, Key: 0, Mode: model.ModeMajor},
		{ID: "b", Name: "Two", Artist: "Y", Energy: 0.5, Tempo: 121, Loudness: -6.5, Acousticness: 0.05, Key: 7, Mode: model.ModeMinor},
		{ID: "c", Name: "Three", Artist: "Z", Energy: 0.9, Tempo: 172, Loudness: -3.2, Acousticness: 0.71, Key: 7, Mode: model.ModeMajor},
	}
}

func newTestServer(t *testing.T, opts Options) *Server {
	t.Helper()
	if opts.Store == nil {
		opts.Store = dataset.NewStaticStore(testTracks())
	}
	s := New(opts)
	t.Cleanup(s.Close)
	return s
}

// client replays the session cookie like a browser.
type client struct {
	t      *testing.T
	h      http.Handler
	cookie *http.Cookie
}

func (c *client) do(method, target, body string, header ...string) *httptest.ResponseRecorder {
	c.t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	rec := httptest.NewRecorder()
	c.h.ServeHTTP(rec, req)
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == sessionCookie {
			c.cookie = ck
		}
	}
	return rec
}

func TestHandleCommand(t *testing.T) {
	s := newTestServer(t, Options{})
	c := &client{t: t, h: s.Handler()}

	rec := c.do(http.MethodPost, "/api/charts/command", `{"command":"loudnessBar"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if c.cookie == nil {
		t.Fatal("no session cookie issued")
	}
	var got struct {
		Chart      string `json:"chart"`
		DurationMs int64  `json:"durationMs"`
		Command    struct {
			Name string `json:"name"`
		} `json:"command"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.Chart != "bar" || got.Command.Name != "loudnessBar" || got.DurationMs != 1000 {
		t.Errorf("transition = %+v", got)
	}

	// The same session now draws the loudness histogram.
	svg := c.do(http.MethodGet, "/api/charts/bar.svg", "")
	if !strings.Contains(svg.Body.String(), "Loudness (dB)") {
		t.Error("bar chart does not reflect the dispatched command")
	}
	// A fresh visitor still sees the first frame.
	other := &client{t: t, h: s.Handler()}
	if body := other.do(http.MethodGet, "/api/charts/bar.svg", "").Body.String(); !strings.Contains(body, "Tempo (BPM)") {
		t.Error("command leaked into another session")
	}
}

func TestHandleCommandErrors(t *testing.T) {
	s := newTestServer(t, Options{})
	tests := []struct {
		name string
		body string
		want int
	}{
		{"malformed", `{`, http.StatusBadRequest},
		{"unknown command", `{"command":"danceBar"}`, http.StatusBadRequest},
		{"static chart", `{"chart":"keys","field":"tempo"}`, http.StatusBadRequest},
		{"zero width", `{"chart":"bar","field":"tempo","width":0}`, http.StatusBadRequest},
		{"unknown field", `{"chart":"scatter","field":"danceability"}`, http.StatusBadRequest},
		{"subnormal width", `{"chart":"bar","field":"tempo","width":1e-300}`, http.StatusBadRequest},
		{"width just over bucket cap", `{"chart":"bar","field":"tempo","width":0.005}`, http.StatusBadRequest},
		{"custom bar", `{"chart":"bar","field":"tempo","width":10,"unit":"BPM","label":"Tempo"}`, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &client{t: t, h: s.Handler()}
			rec := c.do(http.MethodPost, "/api/charts/command", tt.body)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body)
			}
		})
	}
}

func TestHandleChartETag(t *testing.T) {
	s := newTestServer(t, Options{})
	c := &client{t: t, h: s.Handler()}

	rec := c.do(http.MethodGet, "/api/charts/scatter.svg", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("Content-Type = %q", ct)
	}
	tag := rec.Header().Get("ETag")
	if tag == "" {
		t.Fatal("missing ETag")
	}

	again := c.do(http.MethodGet, "/api/charts/scatter.svg", "", "If-None-Match", tag)
	if again.Code != http.StatusNotModified {
		t.Errorf("conditional GET status = %d, want 304", again.Code)
	}

	if rec := c.do(http.MethodGet, "/api/charts/pie.svg", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("unknown chart status = %d", rec.Code)
	}
}

func TestChartCacheOnlyHoldsFirstFrames(t *testing.T) {
	fc := &fakeCache{}
	s := newTestServer(t, Options{Cache: fc})
	c := &client{t: t, h: s.Handler()}

	first := c.do(http.MethodGet, "/api/charts/scatter.svg", "").Body.String()
	if len(fc.data) != 1 {
		t.Fatalf("cached %d frames, want 1", len(fc.data))
	}
	other := &client{t: t, h: s.Handler()}
	if got := other.do(http.MethodGet, "/api/charts/scatter.svg", "").Body.String(); got != first {
		t.Error("second visitor did not get the cached frame")
	}

	c.do(http.MethodPost, "/api/charts/command", `{"command":"loudnessScatter"}`)
	gets := fc.gets
	c.do(http.MethodGet, "/api/charts/scatter.svg", "")
	if fc.gets != gets {
		t.Error("dispatched frame was looked up in the cache")
	}
	if len(fc.data) != 1 {
		t.Errorf("dispatched frame was cached: %d entries", len(fc.data))
	}
}

func TestSnapshots(t *testing.T) {
	store := &fakeSnapshots{}
	s := newTestServer(t, Options{Snapshots: store, Tokens: NewTokenSigner("secret", time.Hour)})
	c := &client{t: t, h: s.Handler()}

	rec := c.do(http.MethodPost, "/api/charts/keys/snapshot", "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var created snapshotResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}
	if created.Chart != "keys" || !strings.HasPrefix(created.URL, "/snapshots/"+created.ID+"?token=") {
		t.Errorf("snapshot = %+v", created)
	}

	anon := &client{t: t, h: s.Handler()}
	got := anon.do(http.MethodGet, created.URL, "")
	if got.Code != http.StatusOK || !strings.Contains(got.Body.String(), "doubleBarChart") {
		t.Errorf("GET snapshot status = %d", got.Code)
	}

	if rec := anon.do(http.MethodGet, created.URL+"x", ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("tampered token status = %d", rec.Code)
	}

	token, _, err := s.tokens.Sign("missing", "keys")
	if err != nil {
		t.Fatal(err)
	}
	if rec := anon.do(http.MethodGet, "/snapshots/missing?token="+token, ""); rec.Code != http.StatusNotFound {
		t.Errorf("missing snapshot status = %d", rec.Code)
	}
}

func TestSnapshotsDisabled(t *testing.T) {
	s := newTestServer(t, Options{})
	c := &client{t: t, h: s.Handler()}
	if rec := c.do(http.MethodPost, "/api/charts/bar/snapshot", ""); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestHandleBuckets(t *testing.T) {
	s := newTestServer(t, Options{})
	c := &client{t: t, h: s.Handler()}

	rec := c.do(http.MethodGet, "/api/buckets?field=tempo&width=20", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var buckets []bucketResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &buckets); err != nil {
		t.Fatal(err)
	}
	total := 0
	for _, b := range buckets {
		total += b.Count
	}
	if total != 3 || buckets[0].Start != 80 {
		t.Errorf("buckets = %+v", buckets)
	}

	for _, q := range []string{"field=tempo&width=0", "field=tempo&width=abc", "field=danceability&width=1", "field=tempo&width=1e-300", "field=tempo&width=0.005"} {
		if rec := c.do(http.MethodGet, "/api/buckets?"+q, ""); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d", q, rec.Code)
		}
	}
}

func TestHandleTracksAndIndex(t *testing.T) {
	s := newTestServer(t, Options{})
	c := &client{t: t, h: s.Handler()}

	rec := c.do(http.MethodGet, "/api/tracks", "")
	var body struct {
		Version uint64                `json:"version"`
		Tracks  []model.TrackResponse `json:"tracks"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Version != 1 || len(body.Tracks) != 3 || body.Tracks[1].KeyName != "G" {
		t.Errorf("tracks = %+v", body)
	}

	page := c.do(http.MethodGet, "/", "")
	if page.Code != http.StatusOK {
		t.Fatalf("index status = %d", page.Code)
	}
	for _, want := range []string{`id="scatter-holder"`, `id="keys-holder"`, `data-command="acousticnessBar"`} {
		if !strings.Contains(page.Body.String(), want) {
			t.Errorf("index missing %s", want)
		}
	}
	if strings.Contains(page.Body.String(), "data-snapshot") {
		t.Error("snapshot buttons shown without a snapshot store")
	}
}

func TestIndexIssuesSessionCookie(t *testing.T) {
	s := newTestServer(t, Options{})
	c := &client{t: t, h: s.Handler()}

	if rec := c.do(http.MethodGet, "/", ""); rec.Code != http.StatusOK {
		t.Fatalf("index status = %d", rec.Code)
	}
	if c.cookie == nil {
		t.Fatal("index did not issue a session cookie")
	}
	id := c.cookie.Value
	for _, name := range []string{"scatter", "keys", "bar"} {
		rec := c.do(http.MethodGet, "/api/charts/"+name+".svg", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("%s status = %d", name, rec.Code)
		}
		if len(rec.Result().Cookies()) != 0 {
			t.Errorf("%s issued another cookie", name)
		}
	}
	if c.cookie.Value != id || s.sessions.Len() != 1 {
		t.Errorf("sessions = %d, want 1", s.sessions.Len())
	}
}

func TestNoDataset(t *testing.T) {
	s := newTestServer(t, Options{Store: dataset.NewStore(nil)})
	c := &client{t: t, h: s.Handler()}
	for _, target := range []string{"/api/tracks", "/api/charts/scatter.svg", "/"} {
		if rec := c.do(http.MethodGet, target, ""); rec.Code != http.StatusServiceUnavailable {
			t.Errorf("%s: status = %d", target, rec.Code)
		}
	}
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, Options{})
	c := &client{t: t, h: s.Handler()}
	rec := c.do(http.MethodOptions, "/api/charts/command", "")
	if rec.Code != http.StatusOK || rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("preflight = %d %v", rec.Code, rec.Header())
	}
}
