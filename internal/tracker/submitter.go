package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ENACT/enact/internal/emissions"
	"github.com/ENACT/enact/internal/models"
)

// Submitter delivers one sampled activity observation to the tracking
// pipeline.
type Submitter interface {
	Submit(ctx context.Context, activityType models.ActivityType, durationSeconds float64, metadata map[string]any) error
}

// ManagerSubmitter feeds samples straight into the in-process manager. This
// is the path the bundled server uses.
type ManagerSubmitter struct {
	manager *emissions.Manager
}

// NewManagerSubmitter constructs a ManagerSubmitter.
func NewManagerSubmitter(manager *emissions.Manager) *ManagerSubmitter {
	return &ManagerSubmitter{manager: manager}
}

// Submit tracks the sample through the manager.
func (s *ManagerSubmitter) Submit(ctx context.Context, activityType models.ActivityType, durationSeconds float64, metadata map[string]any) error {
	_, err := s.manager.TrackActivity(ctx, string(activityType), durationSeconds, metadata)
	return err
}

// HTTPSubmitter posts samples to a remote tracking endpoint, for running the
// sampler on a different host than the service.
type HTTPSubmitter struct {
	endpoint string
	client   *http.Client
}

// NewHTTPSubmitter constructs an HTTPSubmitter targeting the given
// track-emission endpoint URL.
func NewHTTPSubmitter(endpoint string) *HTTPSubmitter {
	return &HTTPSubmitter{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

// Submit posts the sample as JSON. Any non-2xx status is an error.
func (s *HTTPSubmitter) Submit(ctx context.Context, activityType models.ActivityType, durationSeconds float64, metadata map[string]any) error {
	payload, err := json.Marshal(map[string]any{
		"activity_type":    activityType,
		"duration_seconds": durationSeconds,
		"metadata":         metadata,
	})
	if err != nil {
		return fmt.Errorf("failed to encode sample: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to submit sample: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sample rejected with status %d", resp.StatusCode)
	}
	return nil
}
