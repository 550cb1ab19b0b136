package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"net/http"
	"time"

	"parking-service/internal/config"
	"parking-service/internal/recognition"
)

type detectionPayload struct {
	X1         int     `json:"x1"`
	Y1         int     `json:"y1"`
	X2         int     `json:"x2"`
	Y2         int     `json:"y2"`
	Confidence float64 `json:"confidence"`
}

type detectResponse struct {
	Detections []detectionPayload `json:"detections"`
}

// DetectorClient talks to the plate-detection inference sidecar. The model
// itself (weights, runtime) is owned by that service; this client only ships
// JPEG frames and reads back boxes.
type DetectorClient struct {
	baseURL       string
	internalToken string
	httpClient    *http.Client
}

func NewDetectorClient(cfg *config.Config) *DetectorClient {
	return &DetectorClient{
		baseURL:       cfg.ExternalServices.DetectorURL,
		internalToken: cfg.ExternalServices.DetectorToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Detect получает боксы номерных знаков для одного кадра
func (c *DetectorClient) Detect(ctx context.Context, frame image.Image) ([]recognition.Detection, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("detector service URL is not configured")
	}

	var payload bytes.Buffer
	if err := jpeg.Encode(&payload, frame, &jpeg.Options{Quality: 90}); err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}
	frameBytes := payload.Bytes()

	// Выполняем запрос с retry при сетевых ошибках
	var resp *http.Response
	var lastErr error
	maxRetries := 3
	for attempt := 0; attempt < maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/detect", bytes.NewReader(frameBytes))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "image/jpeg")
		if c.internalToken != "" {
			req.Header.Set("X-Internal-Token", c.internalToken)
		}

		resp, lastErr = c.httpClient.Do(req)
		if lastErr == nil {
			break
		}
		if attempt == maxRetries-1 {
			return nil, fmt.Errorf("failed to execute request after %d attempts: %w", maxRetries, lastErr)
		}
		time.Sleep(time.Duration(attempt+1) * 500 * time.Millisecond)
	}
	if resp == nil {
		return nil, fmt.Errorf("failed to execute request: %w", lastErr)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("detector service returned status %d: %s", resp.StatusCode, string(body))
	}

	var response detectResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	detections := make([]recognition.Detection, 0, len(response.Detections))
	for _, d := range response.Detections {
		detections = append(detections, recognition.Detection{
			Box:        recognition.Box{X1: d.X1, Y1: d.Y1, X2: d.X2, Y2: d.Y2},
			Confidence: d.Confidence,
		})
	}
	return detections, nil
}
