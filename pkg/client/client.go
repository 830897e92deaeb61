package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Nexuses/rsmsaudi-carbon-credit-assessment/internal/models"
)

// Client is a Go SDK for the carbon readiness assessment API
type Client struct {
	baseURL    string
	language   string
	httpClient *http.Client
}

// Option configures the client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the client timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithLanguage sends lang as Accept-Language on every request
func WithLanguage(lang string) Option {
	return func(c *Client) {
		c.language = lang
	}
}

// NewClient creates a new assessment API client
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 90 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError is an error envelope returned by the server
type APIError struct {
	StatusCode int
	Code       string          `json:"code"`
	Message    string          `json:"message"`
	Details    json.RawMessage `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (HTTP %d): %s - %s", e.StatusCode, e.Code, e.Message)
}

// Delivery is the outcome of one side effect
type Delivery struct {
	Channel string `json:"channel"`
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
}

// SubmitResult acknowledges a submitted assessment
type SubmitResult struct {
	SubmissionID  string     `json:"submissionId"`
	Score         int        `json:"score"`
	MaxScore      int        `json:"maxScore"`
	Tier          string     `json:"tier"`
	Result        string     `json:"result"`
	Suggestion    string     `json:"suggestion"`
	Message       string     `json:"message"`
	SheetsUpdated bool       `json:"sheetsUpdated"`
	SheetsError   string     `json:"sheetsError,omitempty"`
	Deliveries    []Delivery `json:"deliveries"`
	Duplicate     bool       `json:"duplicate"`
}

// ConsultationResult acknowledges a consultation request
type ConsultationResult struct {
	RequestID     string     `json:"requestId"`
	Message       string     `json:"message"`
	SheetsUpdated bool       `json:"sheetsUpdated"`
	SheetsError   string     `json:"sheetsError,omitempty"`
	Deliveries    []Delivery `json:"deliveries"`
}

// Catalog is the assessment content in one language
type Catalog struct {
	Language  string            `json:"language"`
	Direction string            `json:"direction"`
	Domains   []models.Domain   `json:"domains"`
	Questions []models.Question `json:"questions"`
	MaxScore  int               `json:"maxScore"`
	Messages  map[string]string `json:"messages"`
}

// Score is a live evaluation of a possibly partial answer set
type Score struct {
	Language   string   `json:"language"`
	Score      int      `json:"score"`
	MaxScore   int      `json:"maxScore"`
	Tier       string   `json:"tier"`
	Result     string   `json:"result"`
	Suggestion string   `json:"suggestion"`
	Complete   bool     `json:"complete"`
	Missing    []string `json:"missing,omitempty"`
}

// Report is a downloaded report document
type Report struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Submit sends a completed assessment for scoring and delivery
func (c *Client) Submit(ctx context.Context, req models.SubmitRequest) (*SubmitResult, error) {
	var result SubmitResult
	if err := c.call(ctx, http.MethodPost, "/api/v1/assessments", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// BookConsultation requests a call with an advisor
func (c *Client) BookConsultation(ctx context.Context, req models.Consultation) (*ConsultationResult, error) {
	var result ConsultationResult
	if err := c.call(ctx, http.MethodPost, "/api/v1/consultations", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Score evaluates answers without any side effect
func (c *Client) Score(ctx context.Context, req models.ScoreRequest) (*Score, error) {
	var result Score
	if err := c.call(ctx, http.MethodPost, "/api/v1/score", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Catalog fetches questions and translations. Empty lang uses the client language.
func (c *Client) Catalog(ctx context.Context, lang string, domains ...string) (*Catalog, error) {
	query := url.Values{}
	if lang != "" {
		query.Set("lang", lang)
	}
	if len(domains) > 0 {
		query.Set("domains", strings.Join(domains, ","))
	}
	path := "/api/v1/catalog"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var result Catalog
	if err := c.call(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GenerateReport downloads the PDF report of an assessment
func (c *Client) GenerateReport(ctx context.Context, req models.SubmitRequest) (*Report, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/api/v1/reports", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, decodeError(resp.StatusCode, data)
	}

	report := &Report{ContentType: resp.Header.Get("Content-Type"), Data: data}
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		report.Filename = params["filename"]
	}
	return report, nil
}

// Health checks if the API is healthy
func (c *Client) Health(ctx context.Context) error {
	return c.call(ctx, http.MethodGet, "/health", nil, nil)
}

// call performs a JSON request and unwraps the response envelope into out
func (c *Client) call(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	resp, err := c.doRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return decodeError(resp.StatusCode, respBody)
	}

	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if out == nil || len(envelope.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("failed to unmarshal response data: %w", err)
	}
	return nil
}

// doRequest performs an HTTP request
func (c *Client) doRequest(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.language != "" {
		req.Header.Set("Accept-Language", c.language)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

func decodeError(status int, body []byte) error {
	var envelope struct {
		Error *APIError `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Error == nil {
		return &APIError{StatusCode: status, Code: "http_error", Message: strings.TrimSpace(string(body))}
	}
	envelope.Error.StatusCode = status
	return envelope.Error
}
