package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/abshkbh/shoal/pkg/command"
	"github.com/abshkbh/shoal/pkg/config"
	"github.com/abshkbh/shoal/pkg/health"
)

// maxResponseBytes bounds how much of an executor response is read.
const maxResponseBytes = 4 << 20

var (
	// ErrUnknownCommand is returned, before any network I/O, for a command
	// that is not in the registry.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrMalformedErrorResponse is returned when a non-200 response does not
	// carry an {"error": {"message": ...}} envelope.
	ErrMalformedErrorResponse = errors.New("malformed error response")
	ErrResponseTooLarge       = errors.New("response too large")
)

// RemoteError is an application level failure reported by the executor.
type RemoteError struct {
	Command    command.Name
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("server returned error: %s", e.Message)
}

// Invoker runs one registered command with positional arguments.
type Invoker func(ctx context.Context, args ...any) (json.RawMessage, error)

type Client struct {
	host       string
	port       string
	httpClient *http.Client
	invokers   map[command.Name]Invoker
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// New creates a client for the executor at cfg. Empty fields fall back to
// the defaults in package config.
func New(cfg config.ClientConfig, opts ...Option) *Client {
	cfg = cfg.WithDefaults()
	c := &Client{
		host:       cfg.ServerHost,
		port:       cfg.ServerPort,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.invokers = make(map[command.Name]Invoker)
	for _, name := range command.Registered() {
		name := name
		c.invokers[name] = func(ctx context.Context, args ...any) (json.RawMessage, error) {
			return c.execute(ctx, name, args)
		}
	}
	return c
}

func (c *Client) URL() string {
	return "http://" + net.JoinHostPort(c.host, c.port) + command.ExecutePath
}

// Invoker returns the callable bound to name.
func (c *Client) Invoker(name command.Name) (Invoker, error) {
	invoker, ok := c.invokers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
	return invoker, nil
}

// Execute sends name with args to the executor and returns the raw result.
func (c *Client) Execute(ctx context.Context, name command.Name, args ...any) (json.RawMessage, error) {
	invoker, err := c.Invoker(name)
	if err != nil {
		return nil, err
	}
	return invoker(ctx, args...)
}

func (c *Client) Ping(ctx context.Context, args ...any) (json.RawMessage, error) {
	return c.Execute(ctx, command.Ping, args...)
}

// Status reports the executor status. On error the returned Status is the
// unhealthy zero value.
func (c *Client) Status(ctx context.Context) (health.Status, error) {
	raw, err := c.Execute(ctx, command.Status)
	if err != nil {
		return health.Status{}, err
	}

	status, err := health.Parse(raw)
	if err != nil {
		return health.Status{}, fmt.Errorf("failed to parse status: %w", err)
	}
	return status, nil
}

// Deploy forwards configuration verbatim as the only argument.
func (c *Client) Deploy(ctx context.Context, configuration json.RawMessage) (json.RawMessage, error) {
	return c.Execute(ctx, command.Deploy, configuration)
}

func (c *Client) execute(ctx context.Context, name command.Name, args []any) (json.RawMessage, error) {
	body, err := json.Marshal(command.NewRequest(name, args...))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request for %s: %w", name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(command.RequestIDHeader, requestID)

	logger := log.WithFields(log.Fields{
		"api":       "execute",
		"command":   name,
		"requestId": requestID,
	})
	logger.Debug("sending command")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.WithError(err).Debug("transport failure")
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if len(respBody) > maxResponseBytes {
		return nil, fmt.Errorf("%w: command: %s limit: %d bytes", ErrResponseTooLarge, name, maxResponseBytes)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp command.ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err != nil || !errResp.Valid() {
			logger.WithField("statusCode", resp.StatusCode).Warn("error response without message")
			return nil, fmt.Errorf("%w: command: %s status: %d body: %s",
				ErrMalformedErrorResponse, name, resp.StatusCode, string(respBody))
		}
		return nil, &RemoteError{
			Command:    name,
			StatusCode: resp.StatusCode,
			Message:    errResp.GetMessage(),
		}
	}

	var result command.ResultResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if result.Result == nil {
		result.Result = json.RawMessage("null")
	}
	return result.Result, nil
}
