package dataset

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"trackviz/logger"
	"trackviz/model"
)

// Source loads the full track list.
type Source interface {
	Load(ctx context.Context) ([]model.Track, error)
	String() string
}

// CSVSource reads tracks from a CSV file on disk.
type CSVSource struct {
	Path string
}

func (s CSVSource) Load(ctx context.Context) ([]model.Track, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ReadCSVFile(s.Path)
}

func (s CSVSource) String() string { return "csv:" + s.Path }

// TrackLister is implemented by the track repository.
type TrackLister interface {
	List(ctx context.Context) ([]model.Track, error)
}

// RepositorySource reads tracks from the database.
type RepositorySource struct {
	Repo TrackLister
}

func (s RepositorySource) Load(ctx context.Context) ([]model.Track, error) {
	return s.Repo.List(ctx)
}

func (s RepositorySource) String() string { return "db" }

// Snapshot is one loaded version of the dataset. It must not be modified.
type Snapshot struct {
	Tracks   []model.Track
	Version  uint64
	LoadedAt time.Time
	Source   string
}

// Store holds the current dataset snapshot and swaps it atomically on reload.
type Store struct {
	src       Source
	cur       atomic.Pointer[Snapshot]
	mu        sync.Mutex // serializes reloads
	listeners []func(*Snapshot)
}

// NewStore 创建数据集存储
func NewStore(src Source) *Store {
	return &Store{src: src}
}

// NewStaticStore returns a store already holding tracks, for offline rendering and tests.
func NewStaticStore(tracks []model.Track) *Store {
	s := &Store{}
	s.cur.Store(&Snapshot{Tracks: tracks, Version: 1, LoadedAt: time.Now(), Source: "static"})
	return s
}

// Current returns the latest snapshot, or nil before the first load.
func (s *Store) Current() *Snapshot {
	return s.cur.Load()
}

// OnReload registers fn to be called after every successful reload.
func (s *Store) OnReload(fn func(*Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Reload loads the source again. On failure the previous snapshot stays current.
func (s *Store) Reload(ctx context.Context) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.src == nil {
		return nil, fmt.Errorf("dataset store has no source")
	}
	start := time.Now()
	tracks, err := s.src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load dataset from %s: %w", s.src, err)
	}

	var version uint64 = 1
	if prev := s.cur.Load(); prev != nil {
		version = prev.Version + 1
	}
	snap := &Snapshot{Tracks: tracks, Version: version, LoadedAt: time.Now(), Source: s.src.String()}
	s.cur.Store(snap)

	logger.Info("dataset loaded",
		logger.String("source", snap.Source),
		logger.Int("tracks", len(tracks)),
		logger.Int64("version", int64(version)),
		logger.Duration("took", time.Since(start)))

	for _, fn := range s.listeners {
		fn(snap)
	}
	return snap, nil
}
