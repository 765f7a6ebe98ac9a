package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/okian/titlerace/internal/domain/scaler"
)

const defaultRemoteTimeout = 5 * time.Second

// RemoteOption configures a RemoteScorer.
type RemoteOption func(*RemoteScorer)

// WithTimeout bounds each predict call.
func WithTimeout(d time.Duration) RemoteOption {
	return func(s *RemoteScorer) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) RemoteOption {
	return func(s *RemoteScorer) {
		if c != nil {
			s.client = c
		}
	}
}

// RemoteScorer asks a model server for the probability. The request is
//
//	{"features_list": [{"wins": ..., "win_pct": ..., ...}]}
//
// and the response {"scores": [p]}.
type RemoteScorer struct {
	name     string
	endpoint string
	timeout  time.Duration
	client   *http.Client
}

// NewRemoteScorer creates a scorer posting to endpoint.
func NewRemoteScorer(name, endpoint string, opts ...RemoteOption) *RemoteScorer {
	s := &RemoteScorer{
		name:     name,
		endpoint: endpoint,
		timeout:  defaultRemoteTimeout,
		client:   http.DefaultClient,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RemoteScorer) Name() string { return s.name }

func (s *RemoteScorer) Predict(ctx context.Context, v scaler.Scaled) (float64, error) {
	scores, err := s.PredictBatch(ctx, []scaler.Scaled{v})
	if err != nil {
		return 0, err
	}
	return scores[0], nil
}

// PredictBatch scores several vectors in one request.
func (s *RemoteScorer) PredictBatch(ctx context.Context, vs []scaler.Scaled) ([]float64, error) {
	if len(vs) == 0 {
		return []float64{}, nil
	}
	list := make([]map[string]float64, len(vs))
	for i, v := range vs {
		list[i] = v.Map()
	}
	body, err := json.Marshal(map[string]any{"features_list": list})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: marshal request: %w", ErrRemoteScorer, s.name, err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: create request: %w", ErrRemoteScorer, s.name, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrRemoteScorer, s.name, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: %s: status=%d body=%s", ErrRemoteScorer, s.name, resp.StatusCode, bytes.TrimSpace(msg))
	}

	var out struct {
		Scores []float64 `json:"scores"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: %s: decode response: %w", ErrRemoteScorer, s.name, err)
	}
	if len(out.Scores) != len(vs) {
		return nil, fmt.Errorf("%w: %s: expected %d scores, got %d", ErrRemoteScorer, s.name, len(vs), len(out.Scores))
	}
	return out.Scores, nil
}
