package generation

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

	"github.com/scrolla/backend/internal/models"
)

// ErrGeneratorUnavailable indicates the generation client is not configured.
var ErrGeneratorUnavailable = errors.New("generation service unavailable")

// Generator turns a batch of uploaded PDF URLs into video descriptors.
type Generator interface {
	Generate(ctx context.Context, userID string, fileURLs []string) ([]models.Video, error)
}

// Doer issues HTTP requests. Satisfied by *http.Client and test stubs.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPGenerator calls the remote generation service over HTTP.
type HTTPGenerator struct {
	BaseURL string
	Client  Doer
	Timeout time.Duration
}

// NewHTTPGenerator constructs a client for the generation service at baseURL.
func NewHTTPGenerator(baseURL string, timeout time.Duration) *HTTPGenerator {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &HTTPGenerator{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		Client:  &http.Client{Timeout: timeout},
		Timeout: timeout,
	}
}

// Generate issues a single generate call and parses the returned video batch.
func (g *HTTPGenerator) Generate(ctx context.Context, userID string, fileURLs []string) ([]models.Video, error) {
	if g == nil || g.BaseURL == "" {
		return nil, ErrGeneratorUnavailable
	}
	if g.Client == nil {
		g.Client = &http.Client{Timeout: g.Timeout}
	}

	reqCtx, cancel := context.WithTimeout(ctx, g.Timeout)
	defer cancel()

	payload, err := json.Marshal(struct {
		UserID string   `json:"userId"`
		Files  []string `json:"files"`
	}{UserID: userID, Files: fileURLs})
	if err != nil {
		return nil, fmt.Errorf("encode generate request: %w", err)
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, g.BaseURL+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call generation service: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read generate response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var failure struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal(body, &failure); err == nil && failure.Error != "" {
			return nil, fmt.Errorf("generation service: %s", failure.Error)
		}
		return nil, fmt.Errorf("generation service returned status %d", resp.StatusCode)
	}

	var success struct {
		Videos []models.Video `json:"videos"`
	}
	if err := json.Unmarshal(body, &success); err != nil {
		return nil, fmt.Errorf("parse generate response: %w", err)
	}

	if len(success.Videos) == 0 {
		return nil, errors.New("generation service returned no videos")
	}

	return success.Videos, nil
}
