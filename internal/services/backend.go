package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-logr/logr"

	"github.com/rahul4469/code-scanner/internal/models"
)

const (
	defaultBackendTimeout = 30 * time.Second
	maxErrorBodyBytes     = 512
	uploadFieldName       = "file"
	userAgent             = "Code-Scanner/1.0"
)

// BackendClient talks to the analysis backend: POST /upload and GET /results/{id}.
type BackendClient struct {
	baseURL    string
	httpClient *http.Client
	logger     logr.Logger
}

// NewBackendClient creates a client for the backend at baseURL. A timeout of
// zero uses the default per-request timeout.
func NewBackendClient(baseURL string, timeout time.Duration, logger logr.Logger) *BackendClient {
	if timeout <= 0 {
		timeout = defaultBackendTimeout
	}
	return &BackendClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger.WithName("backend"),
	}
}

type uploadResponse struct {
	ID string `json:"id"`
}

// Upload sends the artifact as the multipart field "file" and returns the job id.
func (c *BackendClient) Upload(ctx context.Context, artifact models.Artifact) (string, error) {
	if artifact.Body == nil {
		return "", models.ErrEmptyArtifact
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile(uploadFieldName, filepath.Base(artifact.Name))
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, artifact.Body); err != nil {
		return "", fmt.Errorf("failed to read artifact: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("failed to finish multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", &body)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to upload artifact: %w", err)
	}
	defer resp.Body.Close()

	if err := c.checkResponse("upload", resp); err != nil {
		return "", err
	}

	var out uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode upload response: %w", err)
	}
	if out.ID == "" {
		return "", models.ErrMissingJobID
	}

	c.logger.V(1).Info("artifact uploaded", "artifact", artifact.Name, "job", out.ID)
	return out.ID, nil
}

// Result fetches the current AnalysisResult for job id.
func (c *BackendClient) Result(ctx context.Context, id string) (*models.AnalysisResult, error) {
	endpoint := fmt.Sprintf("%s/results/%s", c.baseURL, url.PathEscape(id))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch results: %w", err)
	}
	defer resp.Body.Close()

	if err := c.checkResponse("results", resp); err != nil {
		return nil, err
	}

	var result models.AnalysisResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode results: %w", err)
	}
	if !result.Status.Valid() {
		return nil, fmt.Errorf("%w: %q", models.ErrUnknownStatus, result.Status)
	}

	return &result, nil
}

func (c *BackendClient) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
}

// checkResponse turns any non-2xx answer into a *models.BackendError.
func (c *BackendClient) checkResponse(op string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))

	// The backend answers errors as {"error": "..."}; fall back to the raw body.
	msg := strings.TrimSpace(string(body))
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		msg = payload.Error
	}

	return &models.BackendError{
		Op:         op,
		StatusCode: resp.StatusCode,
		Body:       msg,
	}
}
