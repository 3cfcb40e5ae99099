package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"sketchsynth/internal/raster"
	"sketchsynth/internal/state"
)

// DefaultTimeout bounds one prediction round trip.
const DefaultTimeout = 2 * time.Second

// HTTPClient talks to a model server exposing a REST predict endpoint per
// model. Requests carry {"instances": [bitmap]} and responses
// {"predictions": [[scores...]]}. The sound model answers [noisy, thin],
// the feature model one score per category in state.Categories order.
type HTTPClient struct {
	SoundURL   string
	FeatureURL string
	Client     *http.Client
}

// NewHTTPClient returns a client for the two endpoints. An empty URL makes
// the matching model unavailable.
func NewHTTPClient(soundURL, featureURL string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPClient{
		SoundURL:   soundURL,
		FeatureURL: featureURL,
		Client:     &http.Client{Timeout: timeout},
	}
}

type predictRequest struct {
	Instances [][][][1]float32 `json:"instances"`
}

type predictResponse struct {
	Predictions [][]float64 `json:"predictions"`
	Error       string      `json:"error,omitempty"`
}

func (c *HTTPClient) PredictSound(ctx context.Context, bm raster.Bitmap) (Sound, error) {
	scores, err := c.predict(ctx, c.SoundURL, bm)
	if err != nil {
		return Sound{}, err
	}
	if len(scores) < 2 {
		return Sound{}, fmt.Errorf("classify: sound model returned %d scores, want 2", len(scores))
	}
	return Sound{Noisy: scores[0], Thin: scores[1]}, nil
}

func (c *HTTPClient) PredictFeature(ctx context.Context, bm raster.Bitmap) (state.Feature, error) {
	scores, err := c.predict(ctx, c.FeatureURL, bm)
	if err != nil {
		return state.Feature{}, err
	}
	if len(scores) != len(state.Categories) {
		return state.Feature{}, fmt.Errorf("classify: feature model returned %d scores, want %d",
			len(scores), len(state.Categories))
	}
	return BestFeature(scores), nil
}

func (c *HTTPClient) predict(ctx context.Context, url string, bm raster.Bitmap) ([]float64, error) {
	if url == "" {
		return nil, ErrUnavailable
	}
	body, err := json.Marshal(predictRequest{Instances: [][][][1]float32{bm.Rows()}})
	if err != nil {
		return nil, fmt.Errorf("classify: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("classify: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := c.Client
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("classify: post %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("classify: %s: status %d: %s", url, resp.StatusCode, bytes.TrimSpace(msg))
	}
	var out predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("classify: decode response: %w", err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("classify: model error: %s", out.Error)
	}
	if len(out.Predictions) == 0 {
		return nil, fmt.Errorf("classify: empty predictions from %s", url)
	}
	return out.Predictions[0], nil
}
