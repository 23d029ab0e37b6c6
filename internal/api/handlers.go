package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/KaramelBytes/chartloom/internal/analysis"
	"github.com/KaramelBytes/chartloom/internal/cache"
	"github.com/KaramelBytes/chartloom/internal/share"
)

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

var filenameControlRe = regexp.MustCompile(`[\x00-\x1f\x7f-\x9f]`)

// sanitizeFilename keeps the base name without control characters.
func sanitizeFilename(name string) string {
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	name = filenameControlRe.ReplaceAllString(name, "")
	name = strings.Trim(name, ". ")
	if len(name) > 255 {
		name = name[:255]
	}
	if name == "" {
		return "unknown"
	}
	return name
}

func (s *Server) upload(w http.ResponseWriter, r *http.Request) {
	opt := s.opt
	if v := r.URL.Query().Get("skip_ai"); v != "" {
		skip, err := strconv.ParseBool(v)
		if err != nil {
			s.fail(w, r, http.StatusBadRequest, CodeProcessingError, "skip_ai must be true or false.")
			return
		}
		opt.SkipAI = skip
	}
	limit := opt.MaxFileBytes
	if limit > 0 {
		// leave room for multipart framing
		r.Body = http.MaxBytesReader(w, r.Body, limit+1<<20)
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			s.fail(w, r, http.StatusRequestEntityTooLarge, CodeFileTooLarge, fmt.Sprintf("Maximum size is %dMB.", limit>>20))
			return
		}
		s.fail(w, r, http.StatusBadRequest, CodeFileEmpty, "No file was uploaded in the 'file' field.")
		return
	}
	defer file.Close()

	reader := io.Reader(file)
	if limit > 0 {
		reader = io.LimitReader(file, limit+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		s.fail(w, r, http.StatusBadRequest, CodeParseError, "")
		return
	}
	name := sanitizeFilename(header.Filename)
	log := s.logger.With("correlation_id", CorrelationID(r.Context()), "file", name)
	log.Info("processing upload", "size_kb", float64(len(data))/1024)

	res, err := s.analyzer.Analyze(r.Context(), name, data, opt)
	if err != nil {
		status, code := classify(err)
		if status >= 500 {
			log.Error("upload failed", "err", err)
		} else {
			log.Warn("upload rejected", "code", code, "err", err)
		}
		extra := ""
		if code == CodeFileTooLarge || code == CodeParseError {
			extra = err.Error()
		}
		s.fail(w, r, status, code, extra)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func decodeResult(r *http.Request) (*analysis.Result, json.RawMessage, error) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, 64<<20))
	if err != nil {
		return nil, nil, err
	}
	var res analysis.Result
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, nil, err
	}
	if res.Profile == nil {
		return nil, nil, errors.New("result has no profile")
	}
	return &res, raw, nil
}

func (s *Server) story(w http.ResponseWriter, r *http.Request) {
	res, _, err := decodeResult(r)
	if err != nil {
		s.fail(w, r, http.StatusBadRequest, CodeProcessingError, "The body must be an analysis result.")
		return
	}
	story := res.Story()
	if r.URL.Query().Get("format") == "markdown" {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.Filename+"_report.md"))
		_, _ = io.WriteString(w, story.Markdown())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"story": story})
}

// ShareInfo is returned when a share link is created.
type ShareInfo struct {
	Token          string    `json:"share_token"`
	URL            string    `json:"share_url"`
	ExpiresInHours int       `json:"expires_in_hours"`
	ExpiresAt      time.Time `json:"expires_at"`
	Message        string    `json:"message"`
}

func (s *Server) createShare(w http.ResponseWriter, r *http.Request) {
	hours := share.DefaultHours
	if v := r.URL.Query().Get("expires_hours"); v != "" {
		h, err := strconv.Atoi(v)
		if err != nil || h < share.MinHours || h > share.MaxHours {
			s.fail(w, r, http.StatusBadRequest, CodeProcessingError,
				fmt.Sprintf("expires_hours must be between %d and %d.", share.MinHours, share.MaxHours))
			return
		}
		hours = h
	}
	res, raw, err := decodeResult(r)
	if err != nil {
		s.fail(w, r, http.StatusBadRequest, CodeProcessingError, "The body must be an analysis result.")
		return
	}
	sh, err := share.New(res.Filename, raw, hours, time.Now())
	if err == nil {
		err = s.shares.Put(r.Context(), sh)
	}
	if err != nil {
		s.logger.Error("create share failed", "err", err)
		s.fail(w, r, http.StatusInternalServerError, CodeUnknownError, "Failed to create share link.")
		return
	}
	if n, err := s.shares.Cleanup(r.Context()); err == nil && n > 0 {
		s.logger.Info("cleaned up expired share links", "count", n)
	}
	s.logger.Info("created share link", "token", sh.Token[:8], "expires_hours", hours)
	writeJSON(w, http.StatusOK, ShareInfo{
		Token:          sh.Token,
		URL:            "/share/" + sh.Token,
		ExpiresInHours: hours,
		ExpiresAt:      sh.ExpiresAt,
		Message:        "Link created. It expires automatically and the data is not kept after that.",
	})
}

func (s *Server) getShare(w http.ResponseWriter, r *http.Request) {
	sh, err := s.shares.Get(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		if errors.Is(err, share.ErrNotFound) {
			s.fail(w, r, http.StatusNotFound, CodeNotFound, "Share link not found or expired.")
			return
		}
		s.logger.Error("read share failed", "err", err)
		s.fail(w, r, http.StatusInternalServerError, CodeUnknownError, "")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(sh.Result)
}

// Metrics is the /api/metrics body.
type Metrics struct {
	Performance map[string]DurationSummary `json:"performance"`
	Cache       map[string]cache.Stats     `json:"cache"`
}

func (s *Server) getMetrics(w http.ResponseWriter, _ *http.Request) {
	caches := map[string]cache.Stats{}
	for k, v := range s.analyzer.CacheStats() {
		caches[k+"_cache"] = v
	}
	if s.insightStats != nil {
		caches["insight_cache"] = s.insightStats()
	}
	writeJSON(w, http.StatusOK, Metrics{
		Performance: map[string]DurationSummary{"request_duration": s.metrics.summary()},
		Cache:       caches,
	})
}
