package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"trackviz/core/chart"
	"trackviz/core/dataset"
	"trackviz/model"
)

type sliceSource struct {
	tracks []model.Track
}

func (s *sliceSource) Load(context.Context) ([]model.Track, error) { return s.tracks, nil }
func (s *sliceSource) String() string                                { return "slice" }

func TestSessionID(t *testing.T) {
	m := NewSessionManager(dataset.NewStaticStore(testTracks()), time.Minute)

	rec := httptest.NewRecorder()
	id := m.ID(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Value != id || !cookies[0].HttpOnly {
		t.Fatalf("cookies = %+v", cookies)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	if got := m.ID(rec, req); got != id {
		t.Errorf("ID() = %q, want %q", got, id)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Error("cookie reissued for a known session")
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookie, Value: "../../etc"})
	if got := m.ID(httptest.NewRecorder(), req); got == "../../etc" {
		t.Error("malformed session id accepted")
	}
}

func TestSessionRebuiltAfterReload(t *testing.T) {
	src := &sliceSource{tracks: testTracks()}
	store := dataset.NewStore(src)
	if _, err := store.Reload(context.Background()); err != nil {
		t.Fatal(err)
	}
	m := NewSessionManager(store, time.Minute)

	err := m.With("s1", func(s *session) error {
		cmd, _ := chart.LookupCommand("loudnessBar")
		if _, err := s.board.Dispatch(cmd); err != nil {
			return err
		}
		s.dispatched[chart.ChartBar] = true
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	src.tracks = testTracks()[:2]
	if _, err := store.Reload(context.Background()); err != nil {
		t.Fatal(err)
	}
	err = m.With("s1", func(s *session) error {
		if s.version != 2 {
			t.Errorf("version = %d", s.version)
		}
		if cur, _ := s.board.Current(chart.ChartBar); cur.Name != "tempoBar" {
			t.Errorf("board not reset: %+v", cur)
		}
		if s.dispatched[chart.ChartBar] {
			t.Error("dispatched flags survived the reload")
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestSessionSweep(t *testing.T) {
	m := NewSessionManager(dataset.NewStaticStore(testTracks()), time.Minute)
	for _, id := range []string{"a", "b"} {
		if err := m.With(id, func(*session) error { return nil }); err != nil {
			t.Fatal(err)
		}
	}
	if n := m.Sweep(time.Now()); n != 0 {
		t.Errorf("Sweep(now) dropped %d", n)
	}
	if n := m.Sweep(time.Now().Add(2 * time.Minute)); n != 2 || m.Len() != 0 {
		t.Errorf("Sweep(later) dropped %d, %d left", n, m.Len())
	}
}
