package intake

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/signbridge-ai/signbridge/pkg/models"
)

// Extractor inspects stored videos and pulls pose and hand landmarks out
// of them. Probe is cheap and only reads container metadata; Extract runs
// the full per-frame model.
type Extractor interface {
	Probe(ctx context.Context, videoPath string) (models.VideoProperties, error)
	Extract(ctx context.Context, videoPath string) (models.LandmarkData, error)
}

// HTTPExtractor talks to the landmark extraction sidecar. The sidecar
// shares the storage volume, so requests carry file paths, not video bytes.
type HTTPExtractor struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

func NewHTTPExtractor(baseURL string, timeout time.Duration, log zerolog.Logger) *HTTPExtractor {
	return &HTTPExtractor{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		log:     log.With().Str("component", "extractor").Logger(),
	}
}

type extractorRequest struct {
	VideoPath string `json:"video_path"`
}

type extractorError struct {
	Error string `json:"error"`
}

func (e *HTTPExtractor) Probe(ctx context.Context, videoPath string) (models.VideoProperties, error) {
	var props models.VideoProperties
	if err := e.post(ctx, "/probe", videoPath, &props); err != nil {
		return models.VideoProperties{}, err
	}
	return props, nil
}

func (e *HTTPExtractor) Extract(ctx context.Context, videoPath string) (models.LandmarkData, error) {
	start := time.Now()
	var data models.LandmarkData
	if err := e.post(ctx, "/extract", videoPath, &data); err != nil {
		return models.LandmarkData{}, err
	}
	e.log.Debug().
		Str("video", videoPath).
		Int("frames", len(data.Frames)).
		Dur("latency", time.Since(start)).
		Msg("landmarks extracted")
	return data, nil
}

func (e *HTTPExtractor) post(ctx context.Context, path, videoPath string, out any) error {
	body, err := json.Marshal(extractorRequest{VideoPath: videoPath})
	if err != nil {
		return fmt.Errorf("marshal extractor request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build extractor request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("extractor %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr extractorError
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("extractor %s: %s", path, apiErr.Error)
		}
		return fmt.Errorf("extractor %s: status %d", path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode extractor response: %w", err)
	}
	return nil
}
