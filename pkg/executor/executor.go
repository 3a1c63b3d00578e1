package executor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/abshkbh/shoal/pkg/command"
)

const maxRequestBytes = 4 << 20

// HandlerFunc runs one command. The returned value is encoded as the result.
type HandlerFunc func(ctx context.Context, args []json.RawMessage) (any, error)

type Executor struct {
	handlers map[command.Name]HandlerFunc
	router   *mux.Router
}

// New binds handlers to registered command names.
func New(handlers map[command.Name]HandlerFunc) (*Executor, error) {
	e := &Executor{
		handlers: make(map[command.Name]HandlerFunc, len(handlers)),
	}
	for name, handler := range handlers {
		if !name.Registered() {
			return nil, fmt.Errorf("cannot bind unregistered command: %s", name)
		}
		if handler == nil {
			return nil, fmt.Errorf("nil handler for command: %s", name)
		}
		e.handlers[name] = handler
	}

	e.router = mux.NewRouter()
	e.router.HandleFunc(command.ExecutePath, e.execute).Methods(http.MethodPost)
	e.router.Use(loggingMiddleware)
	return e, nil
}

func (e *Executor) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	e.router.ServeHTTP(w, r)
}

func (e *Executor) execute(w http.ResponseWriter, r *http.Request) {
	logger := log.WithFields(log.Fields{
		"api":       "execute",
		"requestId": r.Header.Get(command.RequestIDHeader),
	})

	var req struct {
		Command   string            `json:"command"`
		Arguments []json.RawMessage `json:"arguments"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		logger.WithError(err).Error("Invalid request body")
		statusCode := http.StatusBadRequest
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			statusCode = http.StatusRequestEntityTooLarge
		}
		command.WriteError(w, statusCode, fmt.Sprintf("Invalid request format: %v", err))
		return
	}

	name, ok := command.Lookup(req.Command)
	if !ok {
		logger.WithField("command", req.Command).Error("Unknown command")
		command.WriteError(w, http.StatusNotFound, fmt.Sprintf("Unknown command: %s", req.Command))
		return
	}

	handler, ok := e.handlers[name]
	if !ok {
		logger.WithField("command", name).Error("No handler for command")
		command.WriteError(w, http.StatusNotFound, fmt.Sprintf("No handler for command: %s", name))
		return
	}

	logger = logger.WithFields(log.Fields{
		"command": name,
		"args":    len(req.Arguments),
	})
	result, err := handler(r.Context(), req.Arguments)
	if err != nil {
		logger.WithError(err).Error("Command failed")
		command.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	raw, err := json.Marshal(result)
	if err != nil {
		logger.WithError(err).Error("Failed to encode result")
		command.WriteError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to encode result: %v", err))
		return
	}

	logger.Info("Command executed successfully")
	command.WriteResult(w, http.StatusOK, raw)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Debugf("[%s] %s %s", r.RemoteAddr, r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
