package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/vetra-app/vetra/internal/config"
)

// Generator produces a try-on image from a person photo and a garment photo.
type Generator interface {
	TryOn(ctx context.Context, personImageURL, garmentImageURL string) (resultURL string, err error)
}

// HTTPGenerator calls an external generation service over its JSON API.
type HTTPGenerator struct {
	baseURL string
	client  *http.Client
}

func NewHTTPGenerator() *HTTPGenerator {
	return &HTTPGenerator{
		baseURL: config.Get("GENERATOR_URL", "http://localhost:8100"),
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

type tryOnRequest struct {
	PersonImageURL  string `json:"person_image_url"`
	GarmentImageURL string `json:"garment_image_url"`
}

type tryOnResponse struct {
	ResultURL string `json:"result_url"`
	Error     string `json:"error"`
}

func (g *HTTPGenerator) TryOn(ctx context.Context, personImageURL, garmentImageURL string) (string, error) {
	body, err := json.Marshal(tryOnRequest{
		PersonImageURL:  personImageURL,
		GarmentImageURL: garmentImageURL,
	})
	if err != nil {
		return "", fmt.Errorf("encode try-on request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/try-on", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build try-on request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("call generator: %w", err)
	}
	defer resp.Body.Close()

	var out tryOnResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode generator response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if out.Error != "" {
			return "", fmt.Errorf("generator: %s", out.Error)
		}
		return "", fmt.Errorf("generator returned status %d", resp.StatusCode)
	}
	if out.ResultURL == "" {
		return "", fmt.Errorf("generator returned no result")
	}
	return out.ResultURL, nil
}
