// Package classyfire is a client for the ClassyFire chemical taxonomy REST
// service.  It resolves identity keys to classified entities and submits
// bulk structure queries.
package classyfire

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/MolNetEnhancer/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MolNetEnhancer/pkg/errors"
)

const defaultUserAgent = "molnetenhancer-go"

// Client is the ClassyFire API client
type Client struct {
	baseURL      string
	httpClient   *http.Client
	userAgent    string
	logger       logging.Logger
	retryMax     int
	retryWaitMin time.Duration
	retryWaitMax time.Duration
	pollInterval time.Duration
}

// APIError is a non-2xx response from the service.
type APIError struct {
	StatusCode int
	Body       string
	RequestID  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("classyfire: HTTP %d: %s [request_id=%s]", e.StatusCode, e.Body, e.RequestID)
}

func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500 && e.StatusCode < 600
}

type queryRequest struct {
	Label      string `json:"label"`
	QueryInput string `json:"query_input"`
	QueryType  string `json:"query_type"`
}

type queryResponse struct {
	ID int64 `json:"id"`
}

// NewClient creates a client for the service at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, errors.InvalidParam("classyfire base URL must be an absolute http(s) URL").WithDetail(baseURL)
	}

	c := &Client{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		userAgent:    defaultUserAgent,
		logger:       logging.NewNopLogger(),
		retryMax:     3,
		retryWaitMin: 500 * time.Millisecond,
		retryWaitMax: 5 * time.Second,
		pollInterval: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ---------------------------------------------------------------------------
// Operations
// ---------------------------------------------------------------------------

// GetEntity fetches the classification of a previously computed structure.
// A key unknown to the service yields an error with CodeEntityNotFound.
func (c *Client) GetEntity(ctx context.Context, inchikey string) (*Entity, error) {
	key := NormalizeKey(inchikey)
	if key == "" {
		return nil, errors.InvalidParam("empty identity key")
	}
	var e Entity
	if err := c.get(ctx, "/entities/"+url.PathEscape(key)+".json", &e); err != nil {
		return nil, c.classify(err, "entity lookup failed", key)
	}
	return &e, nil
}

// SubmitStructureQuery submits line-delimited SMILES or InChI inputs and
// returns the query id.
func (c *Client) SubmitStructureQuery(ctx context.Context, input, label string) (int64, error) {
	return c.submit(ctx, input, label, "STRUCTURE")
}

// SubmitIUPACQuery submits line-delimited IUPAC names and returns the query id.
func (c *Client) SubmitIUPACQuery(ctx context.Context, input, label string) (int64, error) {
	return c.submit(ctx, input, label, "IUPAC_NAME")
}

func (c *Client) submit(ctx context.Context, input, label, queryType string) (int64, error) {
	if strings.TrimSpace(input) == "" {
		return 0, errors.InvalidParam("empty query input")
	}
	if label == "" {
		label = "molnetenhancer"
	}
	var resp queryResponse
	err := c.post(ctx, "/queries.json", queryRequest{Label: label, QueryInput: input, QueryType: queryType}, &resp)
	if err != nil {
		return 0, c.classify(err, "query submission failed", queryType)
	}
	c.logger.Info("ClassyFire query submitted", logging.Int64("query_id", resp.ID), logging.String("type", queryType))
	return resp.ID, nil
}

// GetResults fetches the state of a query.  When blocking is set it polls
// until the query is no longer pending or ctx is done.
func (c *Client) GetResults(ctx context.Context, queryID int64, blocking bool) (*QueryResult, error) {
	path := "/queries/" + strconv.FormatInt(queryID, 10) + ".json"
	for {
		var q QueryResult
		if err := c.get(ctx, path, &q); err != nil {
			return nil, c.classify(err, "query results fetch failed", strconv.FormatInt(queryID, 10))
		}
		if !blocking || !q.Pending() {
			return &q, nil
		}
		c.logger.Debug("ClassyFire query pending",
			logging.Int64("query_id", queryID),
			logging.String("status", q.ClassificationStatus))
		select {
		case <-time.After(c.pollInterval):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// GetChemOntNode fetches a taxonomy node.  Both "CHEMONTID:0004253" and
// "C0004253" are accepted.
func (c *Client) GetChemOntNode(ctx context.Context, chemontID string) (*TaxNode, error) {
	id := strings.Replace(strings.TrimSpace(chemontID), "CHEMONTID:", "C", 1)
	if id == "" {
		return nil, errors.InvalidParam("empty ChemOnt id")
	}
	var n TaxNode
	if err := c.get(ctx, "/tax_nodes/"+url.PathEscape(id)+".json", &n); err != nil {
		return nil, c.classify(err, "taxonomy node lookup failed", id)
	}
	return &n, nil
}

// classify maps transport errors onto application error codes.  Context
// errors pass through untouched.
func (c *Client) classify(err error, msg, detail string) error {
	if err == context.Canceled || err == context.DeadlineExceeded {
		return err
	}
	if apiErr, ok := err.(*APIError); ok {
		if apiErr.IsNotFound() {
			return errors.Wrap(err, errors.CodeEntityNotFound, msg).WithDetail(detail)
		}
		if apiErr.IsServerError() || apiErr.StatusCode == http.StatusTooManyRequests {
			return errors.Wrap(err, errors.CodeClassyFireUnavailable, msg).WithDetail(detail)
		}
		return errors.Wrap(err, errors.CodeClassyFireBadResponse, msg).WithDetail(detail)
	}
	if ae, ok := err.(*errors.AppError); ok {
		return ae.WithDetail(detail)
	}
	return errors.Wrap(err, errors.CodeClassyFireUnavailable, msg).WithDetail(detail)
}

// ---------------------------------------------------------------------------
// Transport
// ---------------------------------------------------------------------------

// do performs an HTTP request with retry logic
func (c *Client) do(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	fullURL := c.baseURL + path

	var bodyBytes []byte
	if body != nil {
		var err error
		bodyBytes, err = json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal request body")
		}
	}

	var lastErr error
	for attempt := 0; attempt <= c.retryMax; attempt++ {
		if attempt > 0 {
			backoff := c.calculateBackoff(attempt)
			c.logger.Debug("Retrying ClassyFire request",
				logging.Int("attempt", attempt),
				logging.Duration("backoff", backoff),
				logging.String("path", path))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		var bodyReader io.Reader
		if bodyBytes != nil {
			bodyReader = bytes.NewReader(bodyBytes)
		}
		req, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
		if err != nil {
			return errors.Wrap(err, errors.CodeInternal, "failed to create request")
		}

		requestID := uuid.New().String()
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("X-Request-ID", requestID)

		start := time.Now()
		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			c.logger.Warn("ClassyFire request failed", logging.String("path", path), logging.Err(err))
			lastErr = err
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		c.logger.Debug("ClassyFire response",
			logging.String("method", method),
			logging.String("path", path),
			logging.Int("status", resp.StatusCode),
			logging.Duration("elapsed", time.Since(start)))
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests && attempt < c.retryMax {
			if seconds, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && seconds > 0 {
				c.logger.Info("ClassyFire rate limited", logging.Int("retry_after_s", seconds))
				select {
				case <-time.After(time.Duration(seconds) * time.Second):
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}

		if resp.StatusCode >= 400 {
			apiErr := &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(respBody)), RequestID: requestID}
			lastErr = apiErr
			if c.shouldRetry(resp) {
				continue
			}
			return apiErr
		}

		if result != nil && len(respBody) > 0 {
			if err := json.Unmarshal(respBody, result); err != nil {
				return errors.Wrap(err, errors.CodeClassyFireBadResponse, "failed to decode response")
			}
		}
		return nil
	}

	return lastErr
}

func (c *Client) get(ctx context.Context, path string, result interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, result)
}

func (c *Client) post(ctx context.Context, path string, body interface{}, result interface{}) error {
	return c.do(ctx, http.MethodPost, path, body, result)
}

// shouldRetry retries 5xx and 429; other 4xx are final.
func (c *Client) shouldRetry(resp *http.Response) bool {
	return resp.StatusCode == http.StatusTooManyRequests ||
		(resp.StatusCode >= 500 && resp.StatusCode < 600)
}

func (c *Client) calculateBackoff(attempt int) time.Duration {
	backoff := c.retryWaitMin * time.Duration(1<<uint(attempt-1))
	if backoff > c.retryWaitMax {
		backoff = c.retryWaitMax
	}
	if q := int64(backoff / 4); q > 0 {
		backoff += time.Duration(rand.Int63n(q))
	}
	return backoff
}
