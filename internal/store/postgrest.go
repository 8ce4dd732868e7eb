package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultTimeout bounds every request to the hosted store
const DefaultTimeout = 10 * time.Second

// PostgREST is a Store backed by a hosted PostgREST endpoint (Supabase)
type PostgREST struct {
	baseURL string
	apiKey  string
	schema  string
	client  *http.Client
}

// PostgRESTOption configures a PostgREST store
type PostgRESTOption func(*PostgREST)

// WithHTTPClient replaces the HTTP client. The client's timeout is kept as is.
func WithHTTPClient(c *http.Client) PostgRESTOption {
	return func(p *PostgREST) { p.client = c }
}

// WithSchema selects a non-default database schema
func WithSchema(schema string) PostgRESTOption {
	return func(p *PostgREST) { p.schema = schema }
}

// NewPostgREST creates a client for the project at projectURL. A zero
// timeout means DefaultTimeout.
func NewPostgREST(projectURL, apiKey string, timeout time.Duration, opts ...PostgRESTOption) (*PostgREST, error) {
	if projectURL == "" || apiKey == "" {
		return nil, errors.New("postgrest: project url and api key are required")
	}
	if _, err := url.Parse(projectURL); err != nil {
		return nil, fmt.Errorf("postgrest: invalid project url: %w", err)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	p := &PostgREST{
		baseURL: strings.TrimSuffix(projectURL, "/") + "/rest/v1",
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Close releases idle connections
func (p *PostgREST) Close() error {
	p.client.CloseIdleConnections()
	return nil
}

// Select returns the rows of table matching q
func (p *PostgREST) Select(ctx context.Context, table string, q Query) ([]Row, error) {
	params := filterParams(q.Filters)
	params.Set("select", "*")
	if len(q.Order) > 0 {
		parts := make([]string, len(q.Order))
		for i, o := range q.Order {
			dir := "desc"
			if o.Ascending {
				dir = "asc"
			}
			parts[i] = o.Column + "." + dir
		}
		params.Set("order", strings.Join(parts, ","))
	}

	var out []Row
	if err := p.do(ctx, http.MethodGet, table, params, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Insert writes rows and returns their stored representation
func (p *PostgREST) Insert(ctx context.Context, table string, rows ...Row) ([]Row, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	var out []Row
	if err := p.do(ctx, http.MethodPost, table, url.Values{"select": {"*"}}, rows, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update patches the rows matching filters and returns them as stored
func (p *PostgREST) Update(ctx context.Context, table string, patch Row, filters ...Filter) ([]Row, error) {
	if len(filters) == 0 {
		return nil, fmt.Errorf("postgrest: refusing unfiltered update on %s", table)
	}
	params := filterParams(filters)
	params.Set("select", "*")

	var out []Row
	if err := p.do(ctx, http.MethodPatch, table, params, patch, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes the rows matching filters
func (p *PostgREST) Delete(ctx context.Context, table string, filters ...Filter) error {
	if len(filters) == 0 {
		return fmt.Errorf("postgrest: refusing unfiltered delete on %s", table)
	}
	return p.do(ctx, http.MethodDelete, table, filterParams(filters), nil, nil)
}

func (p *PostgREST) do(ctx context.Context, method, table string, params url.Values, body, out any) error {
	endpoint := p.baseURL + "/" + url.PathEscape(table)
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("postgrest: encode %s body: %w", table, err)
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, rd)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", p.apiKey)
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if out != nil && method != http.MethodGet {
		req.Header.Set("Prefer", "return=representation")
	}
	if p.schema != "" {
		if method == http.MethodGet {
			req.Header.Set("Accept-Profile", p.schema)
		} else {
			req.Header.Set("Content-Profile", p.schema)
		}
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("postgrest: %s %s: %w", method, table, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if len(data) > 0 {
			if json.Unmarshal(data, apiErr) != nil {
				apiErr.Message = strings.TrimSpace(string(data))
			}
		}
		return apiErr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("postgrest: decode %s response: %w", table, err)
	}
	return nil
}

func filterParams(filters []Filter) url.Values {
	params := url.Values{}
	for _, f := range filters {
		params.Add(f.Column, "eq."+formatValue(f.Value))
	}
	return params
}

func formatValue(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case nil:
		return "null"
	}
	return fmt.Sprint(v)
}
