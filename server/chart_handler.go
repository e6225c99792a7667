package server

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/samber/lo"
	"golang.org/x/crypto/blake2b"

	"trackviz/cache"
	"trackviz/core/chart"
	"trackviz/core/histogram"
	"trackviz/logger"
	"trackviz/model"
	"trackviz/storage"
)

const maxCommandBody = 4 << 10

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("failed to encode response", logger.ErrorField(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, chart.ErrUnknownChart),
		errors.Is(err, chart.ErrUnknownCommand),
		errors.Is(err, chart.ErrInvalidWidth),
		errors.Is(err, chart.ErrStaticChart),
		errors.Is(err, histogram.ErrTooManyBuckets),
		errors.Is(err, model.ErrUnknownField):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrSnapshotNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, errNoDataset):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed",
			logger.String("path", r.URL.Path),
			logger.ErrorField(err))
		writeError(w, status, http.StatusText(status))
		return
	}
	writeError(w, status, err.Error())
}

// etag is the quoted BLAKE2b-256 hex digest of body.
func etag(body []byte) string {
	sum := blake2b.Sum256(body)
	return `"` + hex.EncodeToString(sum[:]) + `"`
}

func writeSVG(w http.ResponseWriter, r *http.Request, body []byte) {
	tag := etag(body)
	w.Header().Set("ETag", tag)
	w.Header().Set("Cache-Control", "no-cache")
	if r.Header.Get("If-None-Match") == tag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.Write(body)
}

// renderFrame returns the session's current frame of kind. First frames come
// from the chart cache when one is configured.
func (s *Server) renderFrame(ctx context.Context, sess *session, kind chart.ChartKind) ([]byte, error) {
	var key string
	if s.cache != nil && !sess.dispatched[kind] {
		cmd, _ := sess.board.Current(kind)
		encoded, err := json.Marshal(cmd)
		if err != nil {
			return nil, err
		}
		key = cache.ChartKey(string(kind), encoded, sess.version)
		data, err := s.cache.Get(ctx, key)
		if err != nil {
			logger.Warn("chart cache unavailable", logger.ErrorField(err))
		} else if data != nil {
			return data, nil
		}
	}

	var buf bytes.Buffer
	if err := sess.board.Render(kind, &buf); err != nil {
		return nil, err
	}
	if key != "" {
		if err := s.cache.Set(ctx, key, buf.Bytes()); err != nil {
			logger.Warn("failed to cache chart", logger.ErrorField(err))
		}
	}
	return buf.Bytes(), nil
}

// handleChart GET /api/charts/{chart}.svg
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	kind, err := chart.ParseChartKind(mux.Vars(r)["chart"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var body []byte
	err = s.sessions.With(s.sessions.ID(w, r), func(sess *session) error {
		body, err = s.renderFrame(r.Context(), sess, kind)
		return err
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeSVG(w, r, body)
}

// commandRequest names a built-in command or spells one out.
type commandRequest struct {
	Command string          `json:"command"`
	Chart   chart.ChartKind `json:"chart"`
	Field   model.Field     `json:"field"`
	Width   float64         `json:"width"`
	Unit    string          `json:"unit"`
	Label   string          `json:"label"`
}

func (req commandRequest) resolve() (chart.Command, error) {
	if req.Command != "" {
		return chart.LookupCommand(req.Command)
	}
	return chart.Command{
		Chart: req.Chart,
		Field: req.Field,
		Width: req.Width,
		Unit:  req.Unit,
		Label: req.Label,
	}, nil
}

// handleCommand POST /api/charts/command
func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	var req commandRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxCommandBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	cmd, err := req.resolve()
	if err != nil {
		s.fail(w, r, err)
		return
	}

	var tr chart.Transition
	err = s.sessions.With(s.sessions.ID(w, r), func(sess *session) error {
		tr, err = sess.board.Dispatch(cmd)
		if err == nil {
			sess.dispatched[cmd.Chart] = true
		}
		return err
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tr)
}

// handleCommands GET /api/commands
func (s *Server) handleCommands(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, chart.Commands())
}

// handleTracks GET /api/tracks
func (s *Server) handleTracks(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Current()
	if snap == nil {
		s.fail(w, r, errNoDataset)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"version": snap.Version,
		"tracks":  lo.Map(snap.Tracks, func(t model.Track, _ int) model.TrackResponse { return t.ToResponse() }),
	})
}

type bucketResponse struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Count int     `json:"count"`
}

// handleBuckets GET /api/buckets?field=&width=
func (s *Server) handleBuckets(w http.ResponseWriter, r *http.Request) {
	field, err := model.ParseField(r.URL.Query().Get("field"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	width, err := strconv.ParseFloat(r.URL.Query().Get("width"), 64)
	if err != nil {
		s.fail(w, r, chart.ErrInvalidWidth)
		return
	}
	cmd := chart.Command{Chart: chart.ChartBar, Field: field, Width: width}
	if err := cmd.Validate(); err != nil {
		s.fail(w, r, err)
		return
	}
	snap := s.store.Current()
	if snap == nil {
		s.fail(w, r, errNoDataset)
		return
	}
	if err := histogram.CheckWidth(snap.Tracks, field, width); err != nil {
		s.fail(w, r, err)
		return
	}
	buckets := histogram.GroupData(snap.Tracks, field, width)
	writeJSON(w, http.StatusOK, lo.Map(buckets, func(b histogram.Bucket, _ int) bucketResponse {
		return bucketResponse{Start: b.Start, End: b.End, Count: b.Count()}
	}))
}

type snapshotResponse struct {
	ID        string    `json:"id"`
	Chart     string    `json:"chart"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// handleCreateSnapshot POST /api/charts/{chart}/snapshot
func (s *Server) handleCreateSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.snapshots == nil || s.tokens == nil {
		writeError(w, http.StatusServiceUnavailable, "snapshots are disabled")
		return
	}
	kind, err := chart.ParseChartKind(mux.Vars(r)["chart"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var body []byte
	err = s.sessions.With(s.sessions.ID(w, r), func(sess *session) error {
		body, err = s.renderFrame(r.Context(), sess, kind)
		return err
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}

	id := uuid.NewString()
	if err := s.snapshots.Put(r.Context(), id, string(kind), body); err != nil {
		s.fail(w, r, err)
		return
	}
	token, expires, err := s.tokens.Sign(id, string(kind))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, snapshotResponse{
		ID:        id,
		Chart:     string(kind),
		URL:       "/snapshots/" + id + "?token=" + token,
		ExpiresAt: expires,
	})
}

// handleGetSnapshot GET /snapshots/{id}?token=
func (s *Server) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.snapshots == nil || s.tokens == nil {
		writeError(w, http.StatusServiceUnavailable, "snapshots are disabled")
		return
	}
	id := mux.Vars(r)["id"]
	if _, err := s.tokens.Verify(r.URL.Query().Get("token"), id); err != nil {
		s.fail(w, r, err)
		return
	}
	body, err := s.snapshots.Get(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeSVG(w, r, body)
}
