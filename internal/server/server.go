// Package server exposes the analysis over HTTP. POST /api/process-image
// accepts a multipart upload and returns the report with the dashboard
// embedded as a data URL.
package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/landtint/internal/analysis"
	"github.com/jmylchreest/landtint/internal/image"
	"github.com/jmylchreest/landtint/internal/report"
	"github.com/jmylchreest/landtint/internal/security"
	"github.com/jmylchreest/landtint/internal/segment"
)

const (
	// DefaultAddr is the listen address used by `landtint serve`.
	DefaultAddr = "127.0.0.1:8080"

	// DefaultMaxUploadBytes caps the request body.
	DefaultMaxUploadBytes = 32 * 1024 * 1024

	// DefaultMaxPixels caps the decoded size of an upload (4096x4096).
	DefaultMaxPixels = 4096 * 4096

	multipartMemory = 8 * 1024 * 1024
	shutdownTimeout = 10 * time.Second
)

// Config configures the server.
type Config struct {
	Addr           string
	MaxUploadBytes int64
	MaxPixels      int64
	Analysis       analysis.Options
	Logger         hclog.Logger
}

// Server serves analysis requests.
type Server struct {
	cfg    Config
	logger hclog.Logger
}

// New creates a Server, filling defaults.
func New(cfg Config) *Server {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if cfg.MaxPixels <= 0 {
		cfg.MaxPixels = DefaultMaxPixels
	}
	logger := cfg.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if cfg.Analysis.Segment.Clusters <= 0 {
		cfg.Analysis.Segment.Clusters = segment.DefaultClusters
	}
	cfg.Analysis.Dashboard = true
	return &Server{cfg: cfg, logger: logger}
}

// Response is the success body of /api/process-image.
type Response struct {
	Success       bool             `json:"success"`
	Message       string           `json:"message"`
	Results       *report.Document `json:"results"`
	AnalysisImage string           `json:"analysisImage,omitempty"`
}

// ErrorResponse is the body of failed requests.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/process-image", s.processImage)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return mux
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) processImage(w http.ResponseWriter, r *http.Request) {
	tooLarge := func() {
		writeError(w, http.StatusRequestEntityTooLarge, "Image too large",
			fmt.Sprintf("uploads are limited to %d bytes", s.cfg.MaxUploadBytes))
	}
	if r.ContentLength > s.cfg.MaxUploadBytes {
		tooLarge()
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			tooLarge()
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid form data", err.Error())
		return
	}

	file, hdr, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No image file provided", "")
		return
	}
	defer file.Close()

	k := s.cfg.Analysis.Segment.Clusters
	if v := r.FormValue("numClusters"); v != "" {
		k, err = strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "numClusters must be an integer", err.Error())
			return
		}
	}

	data, err := io.ReadAll(security.NewLimitedReader(file, s.cfg.MaxUploadBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read upload", err.Error())
		return
	}

	src, format, err := image.DecodeLimited(data, s.cfg.MaxPixels)
	if errors.Is(err, image.ErrTooManyPixels) {
		writeError(w, http.StatusRequestEntityTooLarge, "Image too large", err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error processing image", err.Error())
		return
	}

	opts := s.cfg.Analysis
	opts.Segment.Clusters = k
	opts.Logger = s.logger.Named("analysis")

	start := time.Now()
	out, err := analysis.Analyze(r.Context(), src, hdr.Filename, opts)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, segment.ErrInvalidClusterCount) {
			status = http.StatusBadRequest
		}
		s.logger.Warn("analysis failed", "file", hdr.Filename, "error", err)
		writeError(w, status, "Error processing image", err.Error())
		return
	}

	png, err := image.EncodePNG(out.Dashboard)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error processing image", err.Error())
		return
	}

	s.logger.Info("processed image", "file", hdr.Filename, "format", format, "k", k,
		"width", out.Document.Width, "height", out.Document.Height, "duration", time.Since(start))

	writeJSON(w, http.StatusOK, Response{
		Success:       true,
		Message:       "Image processed successfully",
		Results:       out.Document,
		AnalysisImage: "data:image/png;base64," + base64.StdEncoding.EncodeToString(png),
	})
}

func writeError(w http.ResponseWriter, status int, msg, details string) {
	writeJSON(w, status, ErrorResponse{Error: msg, Details: details})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
