package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tutorstack/content-backend/internal/platform/apperr"
	"github.com/tutorstack/content-backend/internal/platform/logger"
)

// File is the opaque handle returned by the Files API for an uploaded
// document. Name is the resource name ("files/abc123") used for deletion;
// URI is what generateContent references.
type File struct {
	Name     string
	URI      string
	MIMEType string
}

// Client is the generative-model client used by the extraction pipeline.
// One uploaded file handle per request; callers own the handle lifecycle
// and must DeleteFile it when done.
type Client interface {
	UploadFile(ctx context.Context, displayName, mimeType string, r io.Reader) (File, error)
	GenerateContent(ctx context.Context, prompt string, file File) (string, error)
	DeleteFile(ctx context.Context, name string) error
}

type client struct {
	log        *logger.Logger
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	uploadHTTP *http.Client
	maxRetries int
}

func NewClient(log *logger.Logger) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	apiKey := strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	if apiKey == "" {
		apiKey = strings.TrimSpace(os.Getenv("GOOGLE_API_KEY"))
	}
	if apiKey == "" {
		return nil, fmt.Errorf("missing GEMINI_API_KEY: %w", apperr.ErrCredential)
	}

	baseURL := strings.TrimSpace(os.Getenv("GEMINI_BASE_URL"))
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com"
	}
	baseURL = strings.TrimRight(baseURL, "/")

	model := strings.TrimSpace(os.Getenv("GEMINI_MODEL"))
	if model == "" {
		model = "gemini-1.5-flash"
	}

	timeoutSec := 180
	if v := os.Getenv("GEMINI_TIMEOUT_SECONDS"); v != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && parsed > 0 {
			timeoutSec = parsed
		}
	}
	uploadTimeoutSec := timeoutSec
	if uploadTimeoutSec < 300 {
		uploadTimeoutSec = 300
	}

	maxRetries := 3
	if v := os.Getenv("GEMINI_MAX_RETRIES"); v != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && parsed >= 0 {
			maxRetries = parsed
		}
	}

	return &client{
		log:        log.With("service", "GeminiClient"),
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
		uploadHTTP: &http.Client{Timeout: time.Duration(uploadTimeoutSec) * time.Second},
		maxRetries: maxRetries,
	}, nil
}

type geminiHTTPError struct {
	StatusCode int
	Body       string
}

func (e *geminiHTTPError) Error() string {
	return fmt.Sprintf("gemini http %d: %s", e.StatusCode, e.Body)
}

func isRetryable(err error) bool {
	var he *geminiHTTPError
	if errors.As(err, &he) {
		return he.StatusCode == http.StatusTooManyRequests || he.StatusCode >= 500
	}
	// Transport-level failures (refused, reset, timeout) are worth retrying.
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

func (c *client) doOnce(ctx context.Context, httpClient *http.Client, method, rawURL, contentType string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("X-Goog-Api-Key", c.apiKey)

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return nil, readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return raw, &geminiHTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return raw, nil
}

func (c *client) do(ctx context.Context, httpClient *http.Client, method, rawURL, contentType string, body []byte, out any) error {
	backoff := 1 * time.Second
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		raw, err := c.doOnce(ctx, httpClient, method, rawURL, contentType, body)
		if err == nil {
			if out == nil {
				return nil
			}
			if uErr := json.Unmarshal(raw, out); uErr != nil {
				return fmt.Errorf("gemini decode error: %w; raw=%s", uErr, string(raw))
			}
			return nil
		}
		if !isRetryable(err) || attempt == c.maxRetries {
			return err
		}
		c.log.Warn("Gemini request retrying",
			"url", rawURL,
			"attempt", attempt+1,
			"max_retries", c.maxRetries,
			"sleep", backoff.String(),
			"error", err.Error(),
		)
		time.Sleep(backoff)
		backoff *= 2
	}
	return fmt.Errorf("unreachable retry loop")
}

type fileInfo struct {
	Name     string `json:"name"`
	URI      string `json:"uri"`
	MIMEType string `json:"mimeType"`
}

type uploadFileResponse struct {
	File fileInfo `json:"file"`
}

func (c *client) UploadFile(ctx context.Context, displayName, mimeType string, r io.Reader) (File, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return File{}, fmt.Errorf("read upload payload: %w", err)
	}

	u := fmt.Sprintf("%s/upload/v1beta/files?uploadType=media", c.baseURL)
	if displayName != "" {
		u += "&displayName=" + url.QueryEscape(displayName)
	}
	var out uploadFileResponse
	if err := c.do(ctx, c.uploadHTTP, http.MethodPost, u, mimeType, data, &out); err != nil {
		return File{}, fmt.Errorf("upload file %q: %w", displayName, err)
	}
	if out.File.Name == "" {
		return File{}, fmt.Errorf("upload file %q: empty file handle in response", displayName)
	}
	return File{Name: out.File.Name, URI: out.File.URI, MIMEType: out.File.MIMEType}, nil
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text     string    `json:"text,omitempty"`
	FileData *fileData `json:"file_data,omitempty"`
}

type fileData struct {
	FileURI  string `json:"file_uri"`
	MIMEType string `json:"mime_type,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func (c *client) GenerateContent(ctx context.Context, prompt string, file File) (string, error) {
	parts := []part{{Text: prompt}}
	if file.URI != "" {
		parts = append(parts, part{FileData: &fileData{FileURI: file.URI, MIMEType: file.MIMEType}})
	}
	reqBody, err := json.Marshal(generateRequest{Contents: []content{{Parts: parts}}})
	if err != nil {
		return "", err
	}

	u := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, c.model)
	var out generateResponse
	if err := c.do(ctx, c.httpClient, http.MethodPost, u, "application/json", reqBody, &out); err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	if len(out.Candidates) == 0 {
		return "", fmt.Errorf("generate content: no candidates in response")
	}
	var sb strings.Builder
	for _, p := range out.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String(), nil
}

func (c *client) DeleteFile(ctx context.Context, name string) error {
	if name == "" {
		return nil
	}
	u := fmt.Sprintf("%s/v1beta/%s", c.baseURL, name)
	if err := c.do(ctx, c.httpClient, http.MethodDelete, u, "", nil, nil); err != nil {
		return fmt.Errorf("delete file %q: %w", name, err)
	}
	return nil
}
