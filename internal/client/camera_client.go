package client

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"time"

	"parking-service/internal/config"
)

// CameraClient pulls frames from an IP camera's snapshot endpoint. Frame
// acquisition mechanics (exposure, encoding) belong to the camera.
type CameraClient struct {
	snapshotURL string
	httpClient  *http.Client
}

func NewCameraClient(cfg *config.Config) *CameraClient {
	return &CameraClient{
		snapshotURL: cfg.ExternalServices.CameraSnapshotURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *CameraClient) Frame(ctx context.Context) (image.Image, error) {
	if c.snapshotURL == "" {
		return nil, fmt.Errorf("camera snapshot URL is not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.snapshotURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch frame: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("camera returned status %d", resp.StatusCode)
	}

	frame, _, err := image.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode frame: %w", err)
	}
	return frame, nil
}
