// Package web serves the upload form and the generated downloads.
package web

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/kilianp07/brunch/api/runs"
	"github.com/kilianp07/brunch/app"
	"github.com/kilianp07/brunch/core/logger"
	"github.com/kilianp07/brunch/core/model"
	"github.com/kilianp07/brunch/core/monitoring"
	"github.com/kilianp07/brunch/core/runlog"
	"github.com/kilianp07/brunch/core/runsheet"
	"github.com/kilianp07/brunch/infra/bookingcsv"
)

// Generator is the application service used by the server.
type Generator interface {
	Generate(ctx context.Context, req app.Request) (*app.Result, error)
	Render(ctx context.Context, res *app.Result, f app.Format, w io.Writer) error
	Runs(ctx context.Context, q runlog.Query) ([]runlog.RunRecord, error)
}

// Options configure a Server.
type Options struct {
	HashKey, BlockKey []byte
	MaxUploadBytes    int64
	CacheSize         int
	APIToken          string
	// DoubleSided is the initial state of the upload form checkbox.
	DoubleSided bool
	Log         logger.Logger
}

// downloads maps file names under /runs/{id}/ to output formats.
var downloads = map[string]app.Format{
	"sheet.xlsx": app.FormatXLSX,
	"cards.pdf":  app.FormatPDF,
	"chart.html": app.FormatChart,
	"sheet.json": app.FormatJSON,
	"sheet.csv":  app.FormatCSV,
}

// Server is the upload web server.
type Server struct {
	svc      Generator
	sessions *SessionManager
	cache    *resultCache
	tmpl     *template.Template
	opts     Options
	log      logger.Logger
}

// NewServer creates a Server around svc.
func NewServer(svc Generator, opts Options) (*Server, error) {
	tmpl, err := ParseTemplates()
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 10 << 20
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 32
	}
	log := opts.Log
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Server{
		svc:      svc,
		sessions: NewSessionManager(opts.HashKey, opts.BlockKey, opts.CacheSize),
		cache:    newResultCache(opts.CacheSize),
		tmpl:     tmpl,
		opts:     opts,
		log:      log,
	}, nil
}

// Routes returns the HTTP handler of the server.
func (s *Server) Routes() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/generate", s.handleGenerate).Methods(http.MethodPost)
	r.HandleFunc("/forget", s.handleForget).Methods(http.MethodPost)
	r.HandleFunc("/runs/{id}", s.handleRun).Methods(http.MethodGet)
	r.HandleFunc("/runs/{id}/{file}", s.handleDownload).Methods(http.MethodGet)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "ok\n")
	}).Methods(http.MethodGet)
	r.Handle("/api/runs", runs.NewHandler(runs.QuerierFunc(s.svc.Runs), s.opts.APIToken)).Methods(http.MethodGet)
	r.Use(s.recoverer, s.logging)
	return r
}

// Start serves on addr until ctx is canceled.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Errorf("web server shutdown: %v", err)
		}
	}()
	s.log.Infof("listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type pageData struct {
	Title       string
	Error       string
	DoubleSided bool
	Recent      []*app.Result
	Run         *app.Result
	Columns     []string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, "index.html", s.indexData(r, ""))
}

func (s *Server) indexData(r *http.Request, errMsg string) pageData {
	data := pageData{Title: "Brunch Formatter", Error: errMsg, DoubleSided: s.opts.DoubleSided}
	for _, id := range s.sessions.RunIDs(r) {
		if res, ok := s.cache.Get(id); ok {
			data.Recent = append(data.Recent, res)
		}
	}
	return data
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.opts.MaxUploadBytes); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			s.render(w, http.StatusRequestEntityTooLarge, "index.html",
				s.indexData(r, fmt.Sprintf("The export is larger than %d MB.", s.opts.MaxUploadBytes>>20)))
			return
		}
		s.render(w, http.StatusBadRequest, "index.html", s.indexData(r, "Could not read the upload."))
		return
	}
	file, hdr, err := r.FormFile("bookings")
	if err != nil {
		s.render(w, http.StatusBadRequest, "index.html", s.indexData(r, "Choose a booking export to upload."))
		return
	}
	defer func() { _ = file.Close() }()

	double := r.FormValue("double_sided") != ""
	res, err := s.svc.Generate(r.Context(), app.Request{
		Source:      model.SourceWeb,
		InputName:   hdr.Filename,
		Input:       file,
		DoubleSided: &double,
		Outputs:     []string{string(app.FormatXLSX), string(app.FormatPDF)},
	})
	if err != nil {
		status := http.StatusInternalServerError
		msg := "Something went wrong while formatting the export."
		if errors.Is(err, bookingcsv.ErrHeaderNotFound) || errors.Is(err, bookingcsv.ErrMissingColumn) {
			status = http.StatusUnprocessableEntity
			msg = "This does not look like a booking export: " + err.Error()
		}
		s.render(w, status, "index.html", s.indexData(r, msg))
		return
	}

	s.cache.Put(res)
	if err := s.sessions.AddRunID(w, r, res.ID); err != nil {
		s.log.Errorf("session cookie: %v", err)
		http.Error(w, "session error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/runs/"+res.ID, http.StatusSeeOther)
}

// handleForget drops the browser's run list. Cached results stay until
// evicted but can no longer be downloaded from this browser.
func (s *Server) handleForget(w http.ResponseWriter, r *http.Request) {
	s.sessions.Clear(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// lookup returns the cached run when the requesting browser owns it.
func (s *Server) lookup(r *http.Request) (*app.Result, bool) {
	id := mux.Vars(r)["id"]
	if !s.sessions.Owns(r, id) {
		return nil, false
	}
	return s.cache.Get(id)
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	res, ok := s.lookup(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	s.render(w, http.StatusOK, "run.html", pageData{
		Title:   "Run sheet: " + res.InputName,
		Run:     res,
		Columns: runsheet.Columns,
	})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	format, known := downloads[mux.Vars(r)["file"]]
	res, ok := s.lookup(r)
	if !known || !ok {
		http.NotFound(w, r)
		return
	}
	var buf bytes.Buffer
	if err := s.svc.Render(r.Context(), res, format, &buf); err != nil {
		http.Error(w, "could not render "+string(format), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	if format != app.FormatChart {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", format.FileName()))
	}
	w.Header().Set("Content-Length", fmt.Sprint(buf.Len()))
	_, _ = buf.WriteTo(w)
}

func (s *Server) render(w http.ResponseWriter, status int, name string, data pageData) {
	var buf bytes.Buffer
	if err := s.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		s.log.Errorf("render %s: %v", name, err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (s *Server) logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debugw("request", map[string]any{
			"method":   r.Method,
			"path":     r.URL.Path,
			"duration": time.Since(start).String(),
		})
	})
}

func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				monitoring.Current().CapturePanic(v)
				s.log.Errorf("panic serving %s: %v", r.URL.Path, v)
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
