// Package executor is the HTTP client for the external sandboxed execution
// service. Running code is entirely the service's concern; this client only
// dispatches work and hands back the correlation token.
package executor

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	appErr "coderena/pkg/errors"
)

// Dispatcher submits a run to the execution service.
type Dispatcher interface {
	// Dispatch sends the run and returns the engine's correlation token.
	// The engine reports the outcome later through the callback endpoint.
	Dispatch(ctx context.Context, req DispatchRequest) (string, error)
}

// DispatchRequest describes one run.
type DispatchRequest struct {
	SourceCode     string
	LanguageID     int
	Stdin          string
	ExpectedOutput string
	CallbackURL    string
}

// Config holds execution service client settings.
type Config struct {
	BaseURL string        `yaml:"baseURL"`
	Timeout time.Duration `yaml:"timeout"`
}

// HTTPDispatcher implements Dispatcher over the engine's REST API.
type HTTPDispatcher struct {
	baseURL string
	client  *http.Client
}

// NewHTTPDispatcher creates a dispatcher for the engine at cfg.BaseURL.
func NewHTTPDispatcher(cfg Config) (*HTTPDispatcher, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("executor baseURL is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPDispatcher{
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

type dispatchPayload struct {
	SourceCode     string `json:"source_code"`
	LanguageID     int    `json:"language_id"`
	Stdin          string `json:"stdin"`
	ExpectedOutput string `json:"expected_output"`
	CallbackURL    string `json:"callback_url"`
}

type dispatchResult struct {
	Token string `json:"token"`
}

// Dispatch sends the run and returns the engine's correlation token.
func (d *HTTPDispatcher) Dispatch(ctx context.Context, req DispatchRequest) (string, error) {
	payload := dispatchPayload{
		SourceCode:     base64.StdEncoding.EncodeToString([]byte(req.SourceCode)),
		LanguageID:     req.LanguageID,
		Stdin:          base64.StdEncoding.EncodeToString([]byte(req.Stdin)),
		ExpectedOutput: base64.StdEncoding.EncodeToString([]byte(req.ExpectedOutput)),
		CallbackURL:    req.CallbackURL,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", appErr.Wrapf(err, appErr.DispatchFailed, "encode dispatch payload failed")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+"/submissions", bytes.NewReader(body))
	if err != nil {
		return "", appErr.Wrapf(err, appErr.DispatchFailed, "build dispatch request failed")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(httpReq)
	if err != nil {
		return "", appErr.Wrapf(err, appErr.DispatchFailed, "execution service unreachable")
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", appErr.Wrapf(err, appErr.DispatchFailed, "read dispatch response failed")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", appErr.Newf(appErr.DispatchFailed, "execution service returned status %d", resp.StatusCode)
	}

	var result dispatchResult
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", appErr.Wrapf(err, appErr.DispatchFailed, "decode dispatch response failed")
	}
	if result.Token == "" {
		return "", appErr.New(appErr.DispatchFailed).WithMessage("execution service returned no token")
	}
	return result.Token, nil
}

var _ Dispatcher = (*HTTPDispatcher)(nil)
