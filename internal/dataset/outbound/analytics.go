package outbound

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

	"github.com/Ansh30a/BioInformatics/internal/dataset/entity"
)

const maxResponseBytes = 32 << 20

//nolint:gochecknoglobals // read-only lookup
var analysisPaths = map[entity.AnalysisKind]string{
	entity.AnalysisBasicStats:             "/api/stats",
	entity.AnalysisCorrelation:            "/api/correlation",
	entity.AnalysisDifferentialExpression: "/api/differential",
	entity.AnalysisClustering:             "/api/clustering",
}

// ServiceError is a failure reported by the analytics service itself.
type ServiceError struct {
	Status  int
	Message string
}

func (e *ServiceError) Error() string {
	return e.Message
}

// AnalyticsClient calls the statistics service over JSON/HTTP.
type AnalyticsClient struct {
	baseURL string
	client  *http.Client
}

func NewAnalyticsClient(baseURL string, timeout time.Duration) *AnalyticsClient {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	return &AnalyticsClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConnsPerHost: 8,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Analyze posts body to the endpoint of kind and returns the "data" member of
// a successful response.
func (c *AnalyticsClient) Analyze(ctx context.Context, kind entity.AnalysisKind, body map[string]any) (json.RawMessage, error) {
	path, ok := analysisPaths[kind]
	if !ok {
		return nil, fmt.Errorf("unsupported analysis %q", kind)
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("analytics service: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("analytics service: read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return nil, &ServiceError{Status: resp.StatusCode, Message: "Python service error"}
		}
		return nil, fmt.Errorf("analytics service: decode response: %w", err)
	}

	if !env.Success || resp.StatusCode >= http.StatusBadRequest {
		msg := env.Message
		if msg == "" {
			msg = "Python service error"
		}
		return nil, &ServiceError{Status: resp.StatusCode, Message: msg}
	}

	if len(env.Data) == 0 {
		return nil, errors.New("analytics service: empty result")
	}
	return env.Data, nil
}
