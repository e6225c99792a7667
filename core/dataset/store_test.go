package dataset

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"trackviz/model"
)

type stubSource struct {
	tracks [][]model.Track
	err    error
	calls  int
}

func (s *stubSource) Load(ctx context.Context) ([]model.Track, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := s.tracks[s.calls%len(s.tracks)]
	s.calls++
	return out, nil
}

func (s *stubSource) String() string { return "stub" }

func TestStore_Reload(t *testing.T) {
	src := &stubSource{tracks: [][]model.Track{
		{{ID: "a"}},
		{{ID: "a"}, {ID: "b"}},
	}}
	s := NewStore(src)
	if s.Current() != nil {
		t.Fatalf("expected no snapshot before first load")
	}

	var seen []uint64
	s.OnReload(func(snap *Snapshot) { seen = append(seen, snap.Version) })

	first, err := s.Reload(context.Background())
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	second, err := s.Reload(context.Background())
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if first.Version != 1 || second.Version != 2 {
		t.Fatalf("versions = %d, %d", first.Version, second.Version)
	}
	if len(s.Current().Tracks) != 2 || s.Current().Source != "stub" {
		t.Fatalf("current = %+v", s.Current())
	}
	if len(seen) != 2 || seen[1] != 2 {
		t.Fatalf("listeners saw %v", seen)
	}
}

func TestStore_ReloadFailureKeepsSnapshot(t *testing.T) {
	src := &stubSource{tracks: [][]model.Track{{{ID: "a"}}}}
	s := NewStore(src)
	if _, err := s.Reload(context.Background()); err != nil {
		t.Fatalf("reload: %v", err)
	}
	boom := errors.New("boom")
	src.err = boom
	if _, err := s.Reload(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped boom, got %v", err)
	}
	if s.Current() == nil || s.Current().Version != 1 {
		t.Fatalf("previous snapshot should stay current, got %+v", s.Current())
	}
}

func TestCSVSource_Load(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	content := strings.Join(Columns, ",") + "\nid1,Name,Artist,100,-5,0.5,0.1,2,0\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	s := NewStore(CSVSource{Path: path})
	snap, err := s.Reload(context.Background())
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(snap.Tracks) != 1 || snap.Tracks[0].Key.Name() != "D" {
		t.Fatalf("tracks = %+v", snap.Tracks)
	}

	if _, err := NewStore(CSVSource{Path: filepath.Join(t.TempDir(), "missing.csv")}).Reload(context.Background()); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	header := strings.Join(Columns, ",") + "\n"
	if err := os.WriteFile(path, []byte(header+"a,A,X,100,-5,0.5,0.1,0,0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	s := NewStore(CSVSource{Path: path})
	if _, err := s.Reload(context.Background()); err != nil {
		t.Fatal(err)
	}

	reloaded := make(chan *Snapshot, 4)
	s.OnReload(func(snap *Snapshot) { reloaded <- snap })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w := NewWatcher(s, path, 20*time.Millisecond)
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(path, []byte(header+"a,A,X,100,-5,0.5,0.1,0,0\nb,B,Y,90,-4,0.4,0.2,1,1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case snap := <-reloaded:
		if len(snap.Tracks) != 2 {
			t.Fatalf("reloaded %d tracks, want 2", len(snap.Tracks))
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not reload")
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("run: %v", err)
	}
}
