package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pterm/pterm"

	serr "shield/cli/internal/errors"
	"shield/cli/internal/httperrors"
	"shield/cli/internal/logging"
)

// UserAgent is sent with every request; cmd sets the version at startup.
var UserAgent = "shield-cli/dev"

// HTTP implements API over the service's JSON endpoint.
type HTTP struct {
	// baseURL is the base URL for all HTTP requests (e.g., "https://api.shieldjs.dev")
	baseURL string
	// client is the underlying HTTP client; protection of large files can take
	// a while, so no client-side timeout is set and callers cancel via ctx.
	client *http.Client
	// newID generates the per-call obfuscation id
	newID func() string
}

// newHTTP creates a new HTTP client with the given base URL.
func newHTTP(baseURL string) *HTTP {
	return &HTTP{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{},
		newID:   uuid.NewString,
	}
}

// protectURL builds the token-scoped endpoint.
func (h *HTTP) protectURL(token string) string {
	return fmt.Sprintf("%s/v1/projects/%s/platforms/%s/protect", h.baseURL, url.PathEscape(token), Platform)
}

// setStandardHeaders applies headers shared by every request.
func (h *HTTP) setStandardHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", UserAgent)
}

// post sends body as JSON to the protect endpoint for token.
func (h *HTTP) post(ctx context.Context, token string, body any) (*http.Response, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	endpoint := h.protectURL(token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(string(b)))
	if err != nil {
		return nil, err
	}
	h.setStandardHeaders(req)

	started := time.Now()
	pterm.Debug.Printfln("backend: POST %s (%d bytes)", logging.Mask(endpoint), len(b))
	resp, err := h.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		pterm.Debug.Printfln("backend: request failed: %s", logging.Mask(err.Error()))
		return nil, serr.New(serr.Network, httperrors.MsgConnection).WithCause(err)
	}
	pterm.Debug.Printfln("backend: HTTP %d in %s", resp.StatusCode, time.Since(started).Round(time.Millisecond))
	return resp, nil
}

// errorBody is the JSON shape of a non-200 response.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// customErrorSentinel marks error bodies whose message field is the text to show.
const customErrorSentinel = "custom"

// statusError turns a non-200 response into a RemoteService error.
func statusError(resp *http.Response) *serr.E {
	b, _ := io.ReadAll(resp.Body)
	pterm.Debug.Printfln("backend: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))

	var eb errorBody
	if err := json.Unmarshal(b, &eb); err == nil && eb.Error != "" {
		if eb.Error == customErrorSentinel {
			if eb.Message != "" {
				return serr.New(serr.RemoteService, eb.Message)
			}
		} else {
			return serr.New(serr.RemoteService, "Protection failed: "+eb.Error)
		}
	}
	return serr.New(serr.RemoteService, httperrors.StatusMessage(resp.StatusCode))
}

// drain discards the rest of a body so the connection can be reused.
func drain(r io.Reader) {
	_, _ = io.Copy(io.Discard, r)
}

var errNoOutput = errors.New("response has no output field")
