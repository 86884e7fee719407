package menu

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrFetch wraps every failure of the menu endpoint. Fetch errors surface
// to the caller untouched by the cache so the UI can offer a retry.
var ErrFetch = errors.New("menu fetch failed")

// DefaultEndpoint is the backend path serving the per-user menu.
const DefaultEndpoint = "/menu/user-menu"

const defaultFetchTimeout = 10 * time.Second

// TokenSource supplies the current bearer token for outbound requests.
// *credential.Store satisfies it.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Fetcher retrieves the caller's menu tree from the backend.
type Fetcher interface {
	FetchUserMenu(ctx context.Context) ([]Node, error)
}

// envelope is the wire shape of the menu endpoint response.
type envelope struct {
	Success bool   `json:"success"`
	Menu    []Node `json:"menu"`
	Message string `json:"message,omitempty"`
}

// HTTPFetcher is the production [Fetcher]: an authenticated GET against the
// menu endpoint.
type HTTPFetcher struct {
	baseURL string
	path    string
	client  *http.Client
	tokens  TokenSource
}

// NewHTTPFetcher creates an [HTTPFetcher]. client may be nil (a default
// with a 10s timeout is used); path empty selects [DefaultEndpoint];
// tokens may be nil for unauthenticated backends.
func NewHTTPFetcher(baseURL, path string, client *http.Client, tokens TokenSource) *HTTPFetcher {
	if client == nil {
		client = &http.Client{Timeout: defaultFetchTimeout}
	}
	if path == "" {
		path = DefaultEndpoint
	}
	return &HTTPFetcher{
		baseURL: strings.TrimRight(baseURL, "/"),
		path:    path,
		client:  client,
		tokens:  tokens,
	}
}

// FetchUserMenu performs one request and decodes the response envelope.
func (f *HTTPFetcher) FetchUserMenu(ctx context.Context) ([]Node, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+f.path, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}

	if f.tokens != nil {
		token, err := f.tokens.Token(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFetch, err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %d", ErrFetch, resp.StatusCode)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	if !env.Success {
		if env.Message != "" {
			return nil, fmt.Errorf("%w: %s", ErrFetch, env.Message)
		}
		return nil, ErrFetch
	}

	return env.Menu, nil
}
