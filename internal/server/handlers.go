package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/hyperjump/kashi/internal/config"
	"github.com/hyperjump/kashi/internal/models"
	"github.com/hyperjump/kashi/internal/pipeline"
	"github.com/hyperjump/kashi/internal/storage"
	"go.uber.org/zap"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

type assignBody struct {
	models.AssignRequest
	// Format applies to Text: a lyric file extension such as "lrc". Empty means plain text.
	Format string `json:"format,omitempty"`
}

func (s *Server) handleAssign(w http.ResponseWriter, r *http.Request) {
	var body assignBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	maxTopN := 0
	if set := s.pipeline.Categories(); set != nil {
		maxTopN = set.Len()
	}
	if err := body.Validate(s.pipeline.Settings().TopN, maxTopN); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	req := &pipeline.Request{Tokens: body.Lines, TopN: body.TopN, Options: body.Options}
	if body.Text != "" {
		texts, err := s.pipeline.SplitText(body.Text, body.Format)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		req.Texts = texts
	}
	s.logger.Debug("assign request", zap.Int("lines", len(req.Tokens)+len(req.Texts)), zap.Int("top_n", req.TopN))
	resp, err := s.pipeline.Assign(r.Context(), req)
	if err != nil {
		s.respondPipelineError(w, "assign failed", err)
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateSong(w http.ResponseWriter, r *http.Request) {
	var input models.SongInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := input.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Debug("create song request", zap.String("id", input.ID), zap.String("title", input.Title))
	detail, err := s.pipeline.ProcessSong(r.Context(), &input)
	if err != nil {
		s.respondPipelineError(w, "song processing failed", err)
		return
	}
	s.respondJSON(w, http.StatusCreated, detail)
}

func (s *Server) handleListSongs(w http.ResponseWriter, r *http.Request) {
	offset, limit := pagination(r)
	songs, err := s.storage.ListSongs(r.Context(), offset, limit)
	if err != nil {
		s.logger.Error("list songs failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if songs == nil {
		songs = []*models.Song{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"songs":  songs,
		"offset": offset,
		"limit":  limit,
	})
}

func (s *Server) handleGetSong(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	song, err := s.storage.GetSong(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		s.respondError(w, http.StatusNotFound, "song not found")
		return
	}
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	lines, err := s.storage.GetSongLines(r.Context(), id)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if lines == nil {
		lines = []*models.SongLine{}
	}
	s.respondJSON(w, http.StatusOK, &models.SongDetail{Song: song, Lines: lines})
}

func (s *Server) handleDeleteSong(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.logger.Debug("delete song request", zap.String("id", id))
	if err := s.pipeline.DeleteSong(r.Context(), id); err != nil {
		s.logger.Error("deletion failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	set := s.pipeline.Categories()
	if set == nil {
		s.respondError(w, http.StatusServiceUnavailable, pipeline.ErrNoCategories.Error())
		return
	}
	offset, limit := pagination(r)
	all := set.Categories()
	if offset > len(all) {
		offset = len(all)
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"categories": all[offset:end],
		"total":      len(all),
		"offset":     offset,
		"limit":      limit,
	})
}

type nearestCategory struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

type categoryResponse struct {
	Category models.Category   `json:"category"`
	Nearest  []nearestCategory `json:"nearest,omitempty"`
}

// handleGetCategory returns one category. With ?nearest=k it also lists the
// k categories closest to it under the configured similarity.
func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	set := s.pipeline.Categories()
	if set == nil {
		s.respondError(w, http.StatusServiceUnavailable, pipeline.ErrNoCategories.Error())
		return
	}
	id := chi.URLParam(r, "id")
	c, ok := set.Get(id)
	if !ok {
		s.respondError(w, http.StatusNotFound, "category not found")
		return
	}
	resp := categoryResponse{Category: c}
	if k, err := strconv.Atoi(r.URL.Query().Get("nearest")); err == nil && k > 0 {
		vec, _ := set.Vector(id)
		hits, err := set.Nearest(r.Context(), vec, k+1, s.pipeline.Metric())
		if err != nil {
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		for _, h := range hits {
			if h.ID == id || len(resp.Nearest) == k {
				continue
			}
			other, _ := set.Get(h.ID)
			resp.Nearest = append(resp.Nearest, nearestCategory{ID: h.ID, Name: other.Name, Score: h.Score})
		}
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	songCount, err := s.storage.CountSongs(ctx)
	if err != nil {
		s.logger.Error("status: count songs failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	lineCount, err := s.storage.CountLines(ctx)
	if err != nil {
		s.logger.Error("status: count lines failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	categoryCount := 0
	if set := s.pipeline.Categories(); set != nil {
		categoryCount = set.Len()
	}
	settings := s.pipeline.Settings()
	resp := map[string]interface{}{
		"songs":      songCount,
		"lines":      lineCount,
		"categories": categoryCount,
	}
	configInfo := map[string]interface{}{
		"weighing":       settings.Options.Weighing,
		"similarity":     settings.Options.Similarity,
		"selection":      settings.Options.Selection,
		"top_n":          settings.TopN,
		"window":         settings.Window,
		"window_overlap": settings.WindowOverlap,
	}
	if s.appConfig != nil {
		configInfo["embedding_provider"] = s.appConfig.Embedding.Provider
		configInfo["embedding_dimensions"] = s.appConfig.Embedding.Dimensions
		configInfo["vector_cache"] = s.appConfig.Embedding.Cache.Backend
		configInfo["database_path"] = s.appConfig.Storage.DatabasePath
		configInfo["category_index_path"] = s.appConfig.Storage.CategoryIndexPath

		diskBytes, err := storage.DiskUsageBytes(
			s.appConfig.Storage.DatabasePath,
			s.appConfig.Storage.CategoryIndexPath,
			s.appConfig.Storage.VectorCachePath,
		)
		if err == nil {
			resp["disk_usage_bytes"] = diskBytes
		}
	}
	resp["config"] = configInfo
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleWatchDirectoriesList(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "watch not enabled")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"directories": s.watch.Directories()})
}

type watchAddRequest struct {
	Path string `json:"path"`
	Sync *bool  `json:"sync,omitempty"`
}

func (s *Server) handleWatchDirectoriesAdd(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "watch not enabled")
		return
	}
	var req watchAddRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Path == "" {
		s.respondError(w, http.StatusBadRequest, "path is required")
		return
	}
	abs, err := filepath.Abs(req.Path)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid path")
		return
	}
	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			s.respondError(w, http.StatusNotFound, "directory not found")
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !info.IsDir() {
		s.respondError(w, http.StatusBadRequest, "path is not a directory")
		return
	}
	syncExisting := true
	if req.Sync != nil {
		syncExisting = *req.Sync
	}
	s.logger.Debug("watch add directory request", zap.String("path", abs), zap.Bool("sync_existing", syncExisting))
	if err := s.watch.AddDirectory(abs, syncExisting); err != nil {
		s.logger.Error("watch add directory failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.persistWatchDirectories()
	s.respondJSON(w, http.StatusCreated, map[string]string{"path": abs, "status": "added"})
}

func (s *Server) handleWatchDirectoriesRemove(w http.ResponseWriter, r *http.Request) {
	if s.watch == nil {
		s.respondError(w, http.StatusNotImplemented, "watch not enabled")
		return
	}
	path := r.URL.Query().Get("path")
	if path == "" {
		var body struct {
			Path string `json:"path"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err == nil && body.Path != "" {
			path = body.Path
		}
	}
	if path == "" {
		s.respondError(w, http.StatusBadRequest, "path is required (query or body)")
		return
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid path")
		return
	}
	s.logger.Debug("watch remove directory request", zap.String("path", abs))
	if err := s.watch.RemoveDirectory(abs); err != nil {
		s.logger.Error("watch remove directory failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.persistWatchDirectories()
	s.respondJSON(w, http.StatusOK, map[string]string{"path": abs, "status": "removed"})
}

func (s *Server) persistWatchDirectories() {
	if s.configPath == "" || s.appConfig == nil {
		return
	}
	s.appConfigMu.Lock()
	defer s.appConfigMu.Unlock()
	s.appConfig.Watch.Directories = s.watch.Directories()
	if err := config.Save(s.configPath, s.appConfig); err != nil {
		s.logger.Warn("failed to persist watch config", zap.Error(err))
	}
}

func pagination(r *http.Request) (offset, limit int) {
	offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
	if offset < 0 {
		offset = 0
	}
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return offset, limit
}

// respondPipelineError maps pipeline errors to status codes.
func (s *Server) respondPipelineError(w http.ResponseWriter, msg string, err error) {
	switch {
	case errors.Is(err, pipeline.ErrNoCategories):
		s.respondError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, pipeline.ErrInvalidOptions):
		s.respondError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error(msg, zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
