package server

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/scadkit/pkg/buildinfo"
	"github.com/matzehuels/scadkit/pkg/errors"
	scadio "github.com/matzehuels/scadkit/pkg/io"
	"github.com/matzehuels/scadkit/pkg/pipeline"
	"github.com/matzehuels/scadkit/pkg/scene"
	"github.com/matzehuels/scadkit/pkg/store"
)

// =============================================================================
// Response types
// =============================================================================

type healthResponse struct {
	Status string         `json:"status"`
	Build  buildinfo.Info `json:"build"`
}

type evaluateResponse struct {
	SceneHash string `json:"scene_hash"`
	Cached    bool   `json:"cached"`
	scadio.Document
}

type createModelRequest struct {
	Name  string      `json:"name,omitempty"`
	Scene scene.Scene `json:"scene"`
}

type listModelsResponse struct {
	Models []*store.Model `json:"models"`
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, healthResponse{Status: "ok", Build: buildinfo.Get()})
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	sc, err := s.decodeScene(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	pl, hit, err := s.runner.EvaluateWithCacheInfo(r.Context(), pipeline.Options{Scene: sc})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, evaluateResponse{
		SceneHash: pipeline.SceneHash(sc),
		Cached:    hit,
		Document:  scadio.NewDocument(sc, pl),
	})
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	format := chi.URLParam(r, "format")
	if err := pipeline.ValidateFormat(format); err != nil {
		s.writeError(w, r, err)
		return
	}
	opts, err := renderOptions(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sc, err := s.decodeScene(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	opts.Scene = sc
	opts.Formats = []string{format}
	opts.Engine = s.engine

	pl, _, err := s.runner.EvaluateWithCacheInfo(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	artifacts, hit, err := s.runner.RenderWithCacheInfo(r.Context(), pl, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", pipeline.ContentType(format))
	w.Header().Set("X-Cache", cacheHeader(hit))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(artifacts[format])
}

func (s *Server) handleCreateModel(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w, r) {
		return
	}
	var req createModelRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := req.Scene.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}
	pl, err := s.runner.Evaluate(r.Context(), pipeline.Options{Scene: req.Scene})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	m := store.NewModel(req.Scene, pl, pipeline.SceneHash(req.Scene))
	if req.Name != "" {
		m.Name = req.Name
	}
	if err := s.store.Save(r.Context(), m); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/v1/models/"+m.ID)
	writeJSON(w, r, http.StatusCreated, m)
}

func (s *Server) handleListModels(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w, r) {
		return
	}
	var opts store.ListOptions
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "invalid limit %q", v))
			return
		}
		opts.Limit = n
	}
	models, err := s.store.List(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if models == nil {
		models = []*store.Model{}
	}
	writeJSON(w, r, http.StatusOK, listModelsResponse{Models: models})
}

func (s *Server) handleGetModel(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w, r) {
		return
	}
	m, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, m)
}

func (s *Server) handleDeleteModel(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w, r) {
		return
	}
	if err := s.store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Request helpers
// =============================================================================

func (s *Server) requireStore(w http.ResponseWriter, r *http.Request) bool {
	if s.store != nil {
		return true
	}
	s.writeError(w, r, errors.New(errors.ErrCodeUnsupported, "model storage is not configured"))
	return false
}

func (s *Server) decodeScene(w http.ResponseWriter, r *http.Request) (scene.Scene, error) {
	data, err := s.readBody(w, r)
	if err != nil {
		return scene.Scene{}, err
	}
	return scene.Decode(bytes.NewReader(data), scene.FormatJSON)
}

func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return nil, errors.New(errors.ErrCodeInvalidInput, "request body exceeds %d bytes", tooLarge.Limit)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read request body")
	}
	return data, nil
}

func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	data, err := s.readBody(w, r)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request body")
	}
	return nil
}

// renderOptions reads the preview query parameters.
func renderOptions(r *http.Request) (pipeline.Options, error) {
	q := r.URL.Query()
	var opts pipeline.Options
	var err error
	if opts.Width, err = intParam(q.Get("width")); err != nil {
		return opts, err
	}
	if opts.Height, err = intParam(q.Get("height")); err != nil {
		return opts, err
	}
	if opts.ShowVertices, err = boolParam(q.Get("vertices")); err != nil {
		return opts, err
	}
	if opts.ShowOutline, err = boolParam(q.Get("outline")); err != nil {
		return opts, err
	}
	opts.Refresh = q.Has("refresh")
	return opts, nil
}

func intParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.New(errors.ErrCodeInvalidInput, "invalid integer %q", v)
	}
	return n, nil
}

func boolParam(v string) (bool, error) {
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, errors.New(errors.ErrCodeInvalidInput, "invalid boolean %q", v)
	}
	return b, nil
}

func cacheHeader(hit bool) string {
	if hit {
		return "HIT"
	}
	return "MISS"
}
