package media

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/admin"
	"github.com/cloudinary/cloudinary-go/v2/api/admin/search"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"

	"picvault-backend/internal/config"
	"picvault-backend/internal/logger"
)

// maxSearchResults caps one search round trip against the media host.
const maxSearchResults = 500

// Client wraps the media host SDK. It is initialized once at startup and
// injected into every caller; credentials are never reconfigured per call.
type Client struct {
	cld       *cloudinary.Cloudinary
	cloudName string
	apiKey    string
	apiSecret string
	folder    string
	preset    string
	breaker   *gobreaker.CircuitBreaker
	limiter   *rate.Limiter
}

// UploadInfo carries the asset fields callers persist after an upload.
type UploadInfo struct {
	PublicID  string `json:"public_id"`
	SecureURL string `json:"secure_url"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

// WidgetParams are the signed parameters the hosted upload widget needs to
// upload directly into the application folder.
type WidgetParams struct {
	CloudName    string `json:"cloud_name"`
	APIKey       string `json:"api_key"`
	Timestamp    int64  `json:"timestamp"`
	Folder       string `json:"folder"`
	UploadPreset string `json:"upload_preset"`
	Signature    string `json:"signature"`
}

func NewClient(cfg *config.Config) (*Client, error) {
	cld, err := cloudinary.NewFromParams(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize media host client: %w", err)
	}
	cld.Config.URL.Secure = true

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "CloudinarySearch",
		MaxRequests: 5,
		Interval:    10 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	// Admin API allows 500 requests per hour on free plans; stay well under.
	limiter := rate.NewLimiter(rate.Limit(5), 10)

	return &Client{
		cld:       cld,
		cloudName: cfg.CloudinaryCloudName,
		apiKey:    cfg.CloudinaryAPIKey,
		apiSecret: cfg.CloudinaryAPISecret,
		folder:    cfg.CloudinaryFolder,
		preset:    cfg.CloudinaryUploadPreset,
		breaker:   breaker,
		limiter:   limiter,
	}, nil
}

// buildExpression builds the media host search expression scoped to the
// application folder, optionally narrowed by a free-text term.
func buildExpression(folder, term string) string {
	expression := "folder=" + folder
	if term != "" {
		expression += " AND " + term
	}
	return expression
}

// SearchFolder queries the media host search index and returns the public
// IDs of matching assets in the application folder.
func (c *Client) SearchFolder(ctx context.Context, term string) ([]string, error) {
	tracer := otel.Tracer("media-client")
	ctx, span := tracer.Start(ctx, "cloudinary.search")
	defer span.End()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	expression := buildExpression(c.folder, term)
	span.SetAttributes(attribute.String("cloudinary.expression", expression))

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.cld.Admin.Search(ctx, search.Query{
			Expression: expression,
			MaxResults: maxSearchResults,
		})
	})
	if err != nil {
		if err == gobreaker.ErrOpenState {
			return nil, fmt.Errorf("media host search unavailable: %w", err)
		}
		return nil, fmt.Errorf("media host search: %w", err)
	}

	res := result.(*admin.SearchResult)
	if res.Error.Message != "" {
		return nil, fmt.Errorf("media host search: %s", res.Error.Message)
	}

	ids := make([]string, 0, len(res.Assets))
	for _, asset := range res.Assets {
		ids = append(ids, asset.PublicID)
	}

	span.SetAttributes(attribute.Int("cloudinary.matches", len(ids)))
	return ids, nil
}

// Upload sends a file to the media host, scoped to the application folder.
func (c *Client) Upload(ctx context.Context, file io.Reader) (*UploadInfo, error) {
	tracer := otel.Tracer("media-client")
	ctx, span := tracer.Start(ctx, "cloudinary.upload")
	defer span.End()

	res, err := c.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		Folder: c.folder,
	})
	if err != nil {
		return nil, fmt.Errorf("media host upload: %w", err)
	}
	if res.Error.Message != "" {
		return nil, fmt.Errorf("media host upload: %s", res.Error.Message)
	}

	span.SetAttributes(attribute.String("cloudinary.public_id", res.PublicID))
	return &UploadInfo{
		PublicID:  res.PublicID,
		SecureURL: res.SecureURL,
		Width:     res.Width,
		Height:    res.Height,
	}, nil
}

// Destroy removes an asset from the media host. A missing asset is not an
// error; the goal is absence.
func (c *Client) Destroy(ctx context.Context, publicID string) error {
	tracer := otel.Tracer("media-client")
	ctx, span := tracer.Start(ctx, "cloudinary.destroy")
	defer span.End()

	span.SetAttributes(attribute.String("cloudinary.public_id", publicID))

	res, err := c.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	if err != nil {
		return fmt.Errorf("media host destroy: %w", err)
	}
	if res.Result != "ok" && res.Result != "not found" {
		return fmt.Errorf("media host destroy: unexpected result %q", res.Result)
	}
	return nil
}

// SignUploadParams signs the parameters the hosted upload widget submits so
// the browser can upload straight to the media host.
func (c *Client) SignUploadParams(timestamp int64) (*WidgetParams, error) {
	params := url.Values{}
	params.Set("timestamp", strconv.FormatInt(timestamp, 10))
	params.Set("folder", c.folder)
	params.Set("upload_preset", c.preset)

	signature, err := api.SignParameters(params, c.apiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign upload params: %w", err)
	}

	return &WidgetParams{
		CloudName:    c.cloudName,
		APIKey:       c.apiKey,
		Timestamp:    timestamp,
		Folder:       c.folder,
		UploadPreset: c.preset,
		Signature:    signature,
	}, nil
}
