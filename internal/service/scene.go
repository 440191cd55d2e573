// Package service implements the core generate-scene forwarding logic.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"scene-proxy-go/internal/client"
	"scene-proxy-go/internal/config"
	"scene-proxy-go/internal/dotenv"
)

// ErrInvalidJSON is returned when the inbound body does not decode as JSON.
var ErrInvalidJSON = errors.New("invalid JSON in request")

// ErrCredentialMissing is returned when the env file does not yield an API key.
// No upstream call is made in that case.
var ErrCredentialMissing = errors.New("API key not found in env file")

// allowedUpstreamHosts restricts which hosts the proxy will forward to.
var allowedUpstreamHosts = map[string]bool{
	"api.openai.com": true,
}

// UpstreamError describes a chat-completion call that failed, either at the
// transport level (Err set, StatusCode zero) or with an HTTP error status
// (StatusCode set, Body holding whatever error document upstream sent).
type UpstreamError struct {
	StatusCode int
	Body       []byte
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("upstream returned HTTP %d", e.StatusCode)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Status returns the HTTP status to relay to the caller: the upstream code
// when it is a proper error status, otherwise 500.
func (e *UpstreamError) Status() int {
	if e.StatusCode >= 400 {
		return e.StatusCode
	}
	return 500
}

// Details returns the upstream error body for the client response: parsed
// JSON when it decodes as such, the raw text otherwise, nil when no body
// was readable.
func (e *UpstreamError) Details() any {
	if len(e.Body) == 0 {
		return nil
	}
	if json.Valid(e.Body) {
		return json.RawMessage(e.Body)
	}
	return string(e.Body)
}

// SceneService forwards generate-scene payloads to the upstream API.
type SceneService struct {
	client *client.OpenAIClient
	creds  *dotenv.Loader
	logger *slog.Logger
}

// NewSceneService creates a SceneService after checking the configured
// upstream host against the allowlist.
func NewSceneService(c *client.OpenAIClient, creds *dotenv.Loader, cfg *config.Config, logger *slog.Logger) (*SceneService, error) {
	u, err := url.Parse(cfg.Upstream.URL)
	if err != nil {
		return nil, fmt.Errorf("parse upstream url: %w", err)
	}
	if !allowedUpstreamHosts[u.Hostname()] {
		return nil, fmt.Errorf("upstream host %q is not in the allowlist", u.Hostname())
	}
	return newService(c, creds, logger), nil
}

// NewSceneServiceForTest creates a SceneService without host allowlist validation.
// This is intended only for tests that use httptest servers on localhost.
func NewSceneServiceForTest(c *client.OpenAIClient, creds *dotenv.Loader, logger *slog.Logger) *SceneService {
	return newService(c, creds, logger)
}

func newService(c *client.OpenAIClient, creds *dotenv.Loader, logger *slog.Logger) *SceneService {
	return &SceneService{
		client: c,
		creds:  creds,
		logger: logger.With("component", "scene_service"),
	}
}

// Generate parses the raw inbound body, resolves the credential, calls the
// upstream API, and classifies the outcome. On success it returns the
// upstream JSON verbatim. Errors are one of ErrInvalidJSON,
// ErrCredentialMissing, *UpstreamError, or a generic fault.
//
// The value under "data" is forwarded as-is without shape validation:
// objects, arrays, and scalars all go upstream unchanged.
func (s *SceneService) Generate(ctx context.Context, body []byte) ([]byte, error) {
	payload, err := extractData(body)
	if err != nil {
		return nil, err
	}

	apiKey, ok := s.creds.Lookup()
	if !ok {
		return nil, ErrCredentialMissing
	}

	s.logger.Debug("forwarding scene request", "bytes", len(payload))

	resp, err := s.client.Post(ctx, apiKey, payload)
	if err != nil {
		return nil, &UpstreamError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: resp.Body}
	}

	// A success status with an undecodable body falls outside both the
	// success and upstream-error shapes; treat it as a generic fault.
	if !json.Valid(resp.Body) {
		return nil, fmt.Errorf("upstream returned undecodable JSON (status %d)", resp.StatusCode)
	}

	return resp.Body, nil
}

// extractData pulls the "data" value out of the inbound body. Only an
// undecodable body is a client error; a decodable body of the wrong shape
// (non-object, or no "data" key) is a server-side fault, matching the
// reference behavior of failing on the key lookup.
func extractData(body []byte) (json.RawMessage, error) {
	if !json.Valid(body) {
		return nil, ErrInvalidJSON
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return nil, errors.New("request body is not a JSON object")
	}

	data, ok := obj["data"]
	if !ok {
		return nil, errors.New(`request body has no "data" field`)
	}
	return data, nil
}
