// Package admin serves the operator UI that proxies status and deploy
// requests to a Backend.
package admin

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"mime"
	"net"
	"net/http"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/abshkbh/shoal/pkg/command"
	"github.com/abshkbh/shoal/pkg/config"
	"github.com/abshkbh/shoal/pkg/health"
)

const (
	defaultIndexFile = "index.html"
	defaultStaticDir = "public"
	shutdownTimeout  = 10 * time.Second
	maxDeployBytes   = 1 << 20
)

//go:embed index.html public
var assets embed.FS

// Backend is the object the admin UI proxies to. *client.Client satisfies it.
type Backend interface {
	Status(ctx context.Context) (health.Status, error)
	Deploy(ctx context.Context, configuration json.RawMessage) (json.RawMessage, error)
}

type Server struct {
	backend Backend
	index   *template.Template
	router  *mux.Router
}

// New builds the admin routes. The index template is parsed here so a bad
// AdminHTMLFile fails at startup.
func New(backend Backend, cfg config.AdminConfig) (*Server, error) {
	if backend == nil {
		return nil, errors.New("admin backend is required")
	}

	var index *template.Template
	var err error
	if cfg.AdminHTMLFile != "" {
		index, err = template.ParseFiles(cfg.AdminHTMLFile)
	} else {
		index, err = template.ParseFS(assets, defaultIndexFile)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse admin index: %w", err)
	}

	var static http.FileSystem
	if cfg.StaticDir != "" {
		static = http.Dir(cfg.StaticDir)
	} else {
		sub, err := fs.Sub(assets, defaultStaticDir)
		if err != nil {
			return nil, fmt.Errorf("failed to load bundled assets: %w", err)
		}
		static = http.FS(sub)
	}

	s := &Server{
		backend: backend,
		index:   index,
	}

	r := mux.NewRouter()
	r.HandleFunc("/status", s.status).Methods(http.MethodGet)
	r.HandleFunc("/deploy", s.deploy).Methods(http.MethodPost)
	r.HandleFunc("/", s.indexPage).Methods(http.MethodGet)
	r.PathPrefix("/").Handler(http.FileServer(noDirFS{static})).Methods(http.MethodGet, http.MethodHead)
	r.Use(requestIDMiddleware)
	s.router = r

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	logger := log.WithFields(log.Fields{
		"api":       "status",
		"requestId": w.Header().Get(command.RequestIDHeader),
	})

	status, err := s.backend.Status(r.Context())
	if err != nil {
		logger.WithError(err).Error("Failed to get status")
		command.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	raw, err := json.Marshal(status)
	if err != nil {
		logger.WithError(err).Error("Failed to encode status")
		command.WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to encode status: %v", err))
		return
	}

	logger.WithField("status", status.String()).Debug("status")
	command.WriteResult(w, http.StatusOK, raw)
}

func (s *Server) deploy(w http.ResponseWriter, r *http.Request) {
	logger := log.WithFields(log.Fields{
		"api":       "deploy",
		"requestId": w.Header().Get(command.RequestIDHeader),
	})

	configuration, statusCode, err := readConfiguration(w, r)
	if err != nil {
		logger.WithError(err).Error("Invalid request body")
		command.WriteError(w, statusCode, fmt.Sprintf("Invalid request format: %v", err))
		return
	}

	result, err := s.backend.Deploy(r.Context(), configuration)
	if err != nil {
		logger.WithError(err).Error("Failed to deploy")
		command.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Info("Deploy accepted")
	command.WriteResult(w, http.StatusOK, result)
}

// readConfiguration decodes a deploy body. Only application/json bodies are
// parsed, anything else (including an empty body) is the empty object. The
// body must be exactly one JSON object.
func readConfiguration(w http.ResponseWriter, r *http.Request) (json.RawMessage, int, error) {
	empty := json.RawMessage("{}")

	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		return empty, http.StatusOK, nil
	}

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxDeployBytes))
	var configuration json.RawMessage
	if err := dec.Decode(&configuration); err != nil {
		if errors.Is(err, io.EOF) {
			return empty, http.StatusOK, nil
		}
		return nil, decodeStatus(err), err
	}

	var trailing json.RawMessage
	if err := dec.Decode(&trailing); !errors.Is(err, io.EOF) {
		if err != nil {
			return nil, decodeStatus(err), err
		}
		return nil, http.StatusBadRequest, errors.New("unexpected data after configuration")
	}

	configuration = bytes.TrimSpace(configuration)
	if len(configuration) == 0 || configuration[0] != '{' {
		return nil, http.StatusBadRequest, errors.New("configuration must be a JSON object")
	}
	return configuration, http.StatusOK, nil
}

func decodeStatus(err error) int {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

// noDirFS hides directories so the file server never lists them.
type noDirFS struct {
	http.FileSystem
}

func (n noDirFS) Open(name string) (http.File, error) {
	f, err := n.FileSystem.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.IsDir() {
		f.Close()
		return nil, fs.ErrNotExist
	}
	return f, nil
}

func (s *Server) indexPage(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.index.Execute(&buf, nil); err != nil {
		log.WithField("api", "index").WithError(err).Error("Failed to render index")
		http.Error(w, "Failed to render index", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(command.RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(command.RequestIDHeader, requestID)
		log.Debugf("[%s] %s %s %s", r.RemoteAddr, requestID, r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}

type StartOptions struct {
	Host  string
	Port  string
	Quiet bool
}

// Start listens on opts and serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context, opts StartOptions) error {
	if opts.Host == "" {
		opts.Host = config.DefaultAdminHost
	}
	if opts.Port == "" {
		opts.Port = config.DefaultAdminPort
	}

	listener, err := net.Listen("tcp", net.JoinHostPort(opts.Host, opts.Port))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}

	if !opts.Quiet {
		log.Infof("Shoal Admin UI running on http://%s:%s", opts.Host, opts.Port)
	}
	if _, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		log.Warnf("Failed to notify systemd of readiness: %v", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(listener)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("admin server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("admin server shutdown failed: %w", err)
	}
	<-errCh
	return nil
}
