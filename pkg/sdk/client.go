package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"
)

// TokenSource supplies the bearer credential for authenticated calls.
// *Broker satisfies this; tests can substitute a static source.
type TokenSource interface {
	IDToken() (string, error)
}

// StaticToken is a TokenSource that always returns the same token.
type StaticToken string

func (s StaticToken) IDToken() (string, error) {
	if s == "" {
		return "", identityError("not signed in")
	}
	return string(s), nil
}

// Client performs the portal's remote collection operations against a
// single endpoint, distinguishing verbs by query parameter and HTTP
// method. It holds no collection state and never touches any store.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
}

// ClientOptions configures SDK client construction.
type ClientOptions struct {
	HTTPClient *http.Client
	Tokens     TokenSource
}

// ClientOption mutates ClientOptions.
type ClientOption func(*ClientOptions)

// WithHTTPClient overrides the HTTP client used for API calls.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(opts *ClientOptions) {
		opts.HTTPClient = client
	}
}

// WithTokenSource sets the credential source for authenticated calls.
// Without one, only the public read paths are usable.
func WithTokenSource(tokens TokenSource) ClientOption {
	return func(opts *ClientOptions) {
		opts.Tokens = tokens
	}
}

// NewClient creates a portal API client for the endpoint at baseURL.
// An http.Client is created automatically when one is not supplied.
func NewClient(baseURL string, optFns ...ClientOption) *Client {
	opts := ClientOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: opts.HTTPClient,
		tokens:     opts.Tokens,
	}
}

// ListUploads fetches one page of upload records for the given scope.
func (c *Client) ListUploads(ctx context.Context, input ListUploadsInput) (Page[UploadRecord], error) {
	if input.Scope == "" {
		input.Scope = ScopeOwn
	}
	if err := input.Scope.validate(); err != nil {
		return Page[UploadRecord]{}, err
	}

	query := url.Values{}
	switch input.Scope {
	case ScopePublic:
		query.Set("public", "all")
	case ScopeAll:
		query.Set("action", "list")
		query.Set("scope", "all")
	default:
		query.Set("action", "list")
	}
	if input.Limit > 0 {
		query.Set("limit", strconv.Itoa(input.Limit))
	}
	if input.StartKey != "" {
		query.Set("startKey", input.StartKey)
	}

	body, err := c.do(ctx, http.MethodGet, query, "", nil, input.Scope != ScopePublic)
	if err != nil {
		return Page[UploadRecord]{}, err
	}
	return decodeListPage(body)
}

// UploadDetail fetches one page of measurement rows for a single upload.
func (c *Client) UploadDetail(ctx context.Context, input DetailInput) (Page[DetailRow], error) {
	if input.ClinicID == "" || input.UploadID == "" {
		return Page[DetailRow]{}, fmt.Errorf("detail requires clinic ID and upload ID")
	}

	query := url.Values{}
	if input.Public {
		query.Set("public", "detail")
	} else {
		query.Set("action", "detail")
	}
	query.Set("clinicId", input.ClinicID)
	query.Set("uploadId", input.UploadID)
	if input.Limit > 0 {
		query.Set("limit", strconv.Itoa(input.Limit))
	}
	if input.StartKey != "" {
		query.Set("startKey", input.StartKey)
	}

	body, err := c.do(ctx, http.MethodGet, query, "", nil, !input.Public)
	if err != nil {
		return Page[DetailRow]{}, err
	}
	return decodeDetailPage(body)
}

// CreateUpload submits a raw file body for ingestion and returns the
// assigned upload ID and parsed row count.
func (c *Client) CreateUpload(ctx context.Context, filename string, content io.Reader) (CreateResult, error) {
	if filename == "" {
		return CreateResult{}, fmt.Errorf("filename is required")
	}

	query := url.Values{}
	query.Set("filename", filename)

	body, err := c.do(ctx, http.MethodPost, query, "application/octet-stream", content, true)
	if err != nil {
		return CreateResult{}, err
	}
	return decodeCreateResult(body)
}

// UpdateUpload patches upload metadata. Only the fields named in the
// patch are sent; the server acknowledges without echoing a superset.
func (c *Client) UpdateUpload(ctx context.Context, input UpdateUploadInput) error {
	if input.UploadID == "" || input.ClinicID == "" {
		return fmt.Errorf("update requires clinic ID and upload ID")
	}
	if input.Patch.Empty() {
		return fmt.Errorf("update patch names no fields")
	}

	payload := struct {
		UploadID string  `json:"uploadId"`
		ClinicID string  `json:"clinicId"`
		Filename *string `json:"filename,omitempty"`
		Status   *string `json:"status,omitempty"`
	}{
		UploadID: input.UploadID,
		ClinicID: input.ClinicID,
		Filename: input.Patch.Filename,
		Status:   input.Patch.Status,
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode update payload: %w", err)
	}

	query := url.Values{}
	query.Set("action", "meta")

	body, err := c.do(ctx, http.MethodPatch, query, "application/json", bytes.NewReader(encoded), true)
	if err != nil {
		return err
	}
	return decodeAck(body)
}

// DeleteUpload removes an upload and its parsed rows, returning the
// server's acknowledgment.
func (c *Client) DeleteUpload(ctx context.Context, clinicID, uploadID string) (DeleteAck, error) {
	if clinicID == "" || uploadID == "" {
		return DeleteAck{}, fmt.Errorf("delete requires clinic ID and upload ID")
	}

	query := url.Values{}
	query.Set("action", "upload")
	query.Set("uploadId", uploadID)
	query.Set("clinicId", clinicID)

	body, err := c.do(ctx, http.MethodDelete, query, "", nil, true)
	if err != nil {
		return DeleteAck{}, err
	}
	return decodeDeleteAck(body)
}

// do performs one round trip and hands back the validated raw JSON
// body. Every failure is mapped into the sdk.Error taxonomy here so
// callers above the client only see validated payloads or tagged
// errors.
func (c *Client) do(ctx context.Context, method string, query url.Values, contentType string, body io.Reader, authenticated bool) ([]byte, error) {
	endpoint, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", c.baseURL, err)
	}
	endpoint.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s request: %w", method, err)
	}
	req.Header.Set("X-Request-Id", uuid.NewString())
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if authenticated {
		if c.tokens == nil {
			return nil, identityError("not signed in")
		}
		token, err := c.tokens.IDToken()
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transportError(0, "request failed: %v", err)
	}
	defer resp.Body.Close()

	return readJSONBody(resp)
}
