package metabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	pkgerrors "github.com/angelmondragon/sellerpulse-backend/pkg/errors"
)

const (
	defaultTimeout              = 60 * time.Second
	apiKeyHeader                = "x-api-key"
	requestBodyReadLimit  int64 = 1024
)

var (
	errBaseURLRequired = errors.New("metabase url is required")
	errAPIKeyRequired  = errors.New("metabase api key is required")
)

// Row is one record of a saved question result, keyed by column name.
// Numbers are kept as json.Number so callers decide how to read them.
type Row map[string]any

// Client runs saved questions (cards) through the Metabase JSON export API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout overrides the request timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// NewClient builds a Metabase client given the instance URL and an API key.
func NewClient(baseURL, apiKey string, opts ...Option) (*Client, error) {
	trimmedURL := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmedURL == "" {
		return nil, errBaseURLRequired
	}
	trimmedKey := strings.TrimSpace(apiKey)
	if trimmedKey == "" {
		return nil, errAPIKeyRequired
	}

	client := &Client{
		baseURL:    trimmedURL,
		apiKey:     trimmedKey,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// Parameter is one template-tag value passed to a card.
type Parameter struct {
	Type   string `json:"type"`
	Value  any    `json:"value"`
	Target []any  `json:"target"`
}

// Category binds a plain variable template tag.
func Category(tag string, value any) Parameter {
	return Parameter{Type: "category", Value: value, Target: variableTarget(tag)}
}

// Date binds a single-date variable template tag.
func Date(tag string, value civil.Date) Parameter {
	return Parameter{Type: "date/single", Value: value.String(), Target: variableTarget(tag)}
}

// FieldFilter binds a field-filter template tag; Metabase expects a list value.
func FieldFilter(tag string, values ...string) Parameter {
	return Parameter{
		Type:   "string/=",
		Value:  values,
		Target: []any{"dimension", []any{"template-tag", tag}},
	}
}

func variableTarget(tag string) []any {
	return []any{"variable", []any{"template-tag", tag}}
}

// QueryCard runs a saved question and returns its rows.
func (c *Client) QueryCard(ctx context.Context, cardID int, params []Parameter) ([]Row, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "metabase client not configured")
	}
	if cardID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeConfiguration, fmt.Sprintf("metabase card id %d is not configured", cardID))
	}

	var body io.Reader
	if len(params) > 0 {
		payload, err := json.Marshal(map[string]any{"parameters": params})
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal card parameters")
		}
		body = bytes.NewReader(payload)
	}

	url := c.buildURL(fmt.Sprintf("api/card/%d/query/json", cardID))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build card query request")
	}
	httpReq.Header.Set(apiKeyHeader, c.apiKey)
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute card query request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, requestBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), fmt.Sprintf("card %d query failed", cardID))
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	var raw json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode card query response")
	}
	return decodeRows(cardID, raw)
}

// decodeRows accepts the array export format. An object carrying "error" is
// a failed query; any other shape is treated as an empty result.
func decodeRows(cardID int, raw json.RawMessage) ([]Row, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return []Row{}, nil
	}
	switch trimmed[0] {
	case '[':
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.UseNumber()
		var rows []Row
		if err := dec.Decode(&rows); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode card rows")
		}
		return rows, nil
	case '{':
		var envelope struct {
			Error any `json:"error"`
		}
		if err := json.Unmarshal(trimmed, &envelope); err == nil && envelope.Error != nil {
			return nil, pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("card %d returned error: %v", cardID, envelope.Error))
		}
	}
	return []Row{}, nil
}

// Ping verifies the API key against the current-user endpoint.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "metabase client not configured")
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.buildURL("api/user/current"), nil)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build ping request")
	}
	httpReq.Header.Set(apiKeyHeader, c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute ping request")
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, requestBodyReadLimit))

	if resp.StatusCode != http.StatusOK {
		return pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("metabase ping returned status %d", resp.StatusCode))
	}
	return nil
}

func (c *Client) buildURL(path string) string {
	path = strings.TrimLeft(path, "/")
	return fmt.Sprintf("%s/%s", c.baseURL, path)
}
