package replicate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"github.com/janhq/image-mcp/internal/domain/imagegen"
	"github.com/janhq/image-mcp/internal/infrastructure/metrics"
)

const (
	defaultBaseURL = "https://api.replicate.com"

	// ModelOwner and ModelName identify the Flux 1.1 Pro model on Replicate.
	ModelOwner = "black-forest-labs"
	ModelName  = "flux-1.1-pro"

	// DefaultTimeout bounds the whole exchange: prediction plus image download.
	DefaultTimeout = 60 * time.Second

	ProviderName = "replicate"
)

// ClientConfig captures the knobs for the Replicate client.
type ClientConfig struct {
	APIToken string
	BaseURL  string
	Timeout  time.Duration
}

// Client creates predictions with "Prefer: wait" and downloads the first output.
type Client struct {
	apiToken   string
	timeout    time.Duration
	httpClient *resty.Client
}

var _ imagegen.Generator = (*Client)(nil)

type predictionRequest struct {
	Input imagegen.Request `json:"input"`
}

// NewClient wires the HTTP client. An empty APIToken is accepted; every
// Generate call then fails fast without touching the network.
func NewClient(cfg ClientConfig) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetHeader("User-Agent", "Jan-Image-MCP/1.0").
		SetTimeout(timeout).
		SetLogger(restyLogger{})

	return &Client{
		apiToken:   strings.TrimSpace(cfg.APIToken),
		timeout:    timeout,
		httpClient: httpClient,
	}
}

// PredictionsPath is the model-scoped prediction creation endpoint.
func PredictionsPath() string {
	return fmt.Sprintf("/v1/models/%s/%s/predictions", ModelOwner, ModelName)
}

// Generate runs one prediction and fetches the resulting image.
func (c *Client) Generate(ctx context.Context, req imagegen.Request) imagegen.Result {
	if c.apiToken == "" {
		log.Warn().Msg("REPLICATE_API_TOKEN not configured; refusing generate_image call")
		return imagegen.ErrorResult("Error: REPLICATE_API_TOKEN environment variable is not set")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	log.Info().
		Str("provider", ProviderName).
		Str("model", ModelOwner+"/"+ModelName).
		Str("aspect_ratio", req.AspectRatio).
		Str("output_format", req.OutputFormat).
		Int("prompt_chars", len(req.Prompt)).
		Msg("Creating prediction")

	startTime := time.Now()
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetAuthToken(c.apiToken).
		SetHeader("Content-Type", "application/json").
		SetHeader("Prefer", "wait").
		SetBody(predictionRequest{Input: req}).
		Post(PredictionsPath())
	metrics.RecordExternalProviderLatency(ProviderName, "create_prediction", time.Since(startTime).Seconds())
	if err != nil {
		return transportErrorResult("create prediction", err)
	}
	if resp.IsError() {
		log.Error().Int("status", resp.StatusCode()).Msg("Replicate prediction request failed")
		return imagegen.ErrorResult("HTTP error %d: %s", resp.StatusCode(), resp.String())
	}

	var prediction map[string]any
	if err := json.Unmarshal(resp.Body(), &prediction); err != nil {
		return imagegen.ErrorResult("Unexpected error: decode prediction response: %v", err)
	}

	imageURL := firstOutputURL(prediction["output"])
	if imageURL == "" {
		pretty, err := json.MarshalIndent(prediction, "", "  ")
		if err != nil {
			pretty = resp.Body()
		}
		log.Warn().Str("status", fmt.Sprint(prediction["status"])).Msg("Prediction returned no output URL")
		return imagegen.ErrorResult("No image URL in response: %s", pretty)
	}

	startTime = time.Now()
	imgResp, err := c.httpClient.R().
		SetContext(ctx).
		Get(imageURL)
	metrics.RecordExternalProviderLatency(ProviderName, "fetch_image", time.Since(startTime).Seconds())
	if err != nil {
		return transportErrorResult("fetch image", err)
	}
	if imgResp.IsError() {
		log.Error().Int("status", imgResp.StatusCode()).Str("url", imageURL).Msg("Image download failed")
		return imagegen.ErrorResult("HTTP error %d: %s", imgResp.StatusCode(), imgResp.String())
	}

	data := imgResp.Body()
	log.Info().
		Str("provider", ProviderName).
		Int("bytes", len(data)).
		Str("mime_type", req.MIMEType()).
		Msg("Image fetched")
	return imagegen.ImageResult(data, req.MIMEType())
}

// firstOutputURL accepts both shapes Replicate uses for "output": a single
// URL string or a list of URLs.
func firstOutputURL(output any) string {
	switch v := output.(type) {
	case string:
		return strings.TrimSpace(v)
	case []any:
		if len(v) == 0 {
			return ""
		}
		if s, ok := v[0].(string); ok {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

func transportErrorResult(op string, err error) imagegen.Result {
	log.Error().Err(err).Str("operation", op).Msg("Replicate request failed")

	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		return imagegen.ErrorResult("Network error: %v", err)
	}
	return imagegen.ErrorResult("Unexpected error: %v", err)
}

// restyLogger routes resty's internal warnings through zerolog.
type restyLogger struct{}

func (restyLogger) Errorf(format string, v ...any) {
	log.Error().Msgf(strings.TrimSpace(format), v...)
}

func (restyLogger) Warnf(format string, v ...any) {
	log.Warn().Msgf(strings.TrimSpace(format), v...)
}

func (restyLogger) Debugf(format string, v ...any) {
	log.Debug().Msgf(strings.TrimSpace(format), v...)
}
