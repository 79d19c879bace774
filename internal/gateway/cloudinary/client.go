// Package cloudinary implements the asset store boundary over Cloudinary's
// unsigned upload endpoint.
package cloudinary

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pasteleriaruby/catalog-admin/internal/domain/asset"
)

// DefaultBaseURL is Cloudinary's public API host.
const DefaultBaseURL = "https://api.cloudinary.com"

// Placeholder values shipped in example configs. Credentials still holding
// them count as unconfigured.
const (
	placeholderCloudName = "TU_CLOUD_NAME_DE_CLOUDINARY"
	placeholderPreset    = "TU_UPLOAD_PRESET_DE_CLOUDINARY"
)

// Config holds the client settings.
type Config struct {
	CloudName    string
	UploadPreset string

	// BaseURL overrides the API host, mainly for tests.
	BaseURL string

	// Timeout bounds each upload attempt. Zero means 10s.
	Timeout time.Duration

	// DemoMode skips the real upload and returns a placeholder URL. It must
	// be enabled explicitly; an unconfigured client without it fails fast
	// instead of serving placeholders.
	DemoMode bool
}

var _ asset.Uploader = (*Client)(nil)

// Client uploads images via multipart POST using an unsigned upload preset.
// Transient transport failures are retried once with a short backoff, since
// this call gates every product write.
type Client struct {
	cfg  Config
	http *http.Client
}

// New creates a Client. The underlying http.Client carries no timeout of its
// own; each call derives a deadline from cfg.Timeout.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{},
	}
}

// configured reports whether real credentials are present.
func (c *Client) configured() bool {
	return c.cfg.CloudName != "" && c.cfg.UploadPreset != "" &&
		c.cfg.CloudName != placeholderCloudName && c.cfg.UploadPreset != placeholderPreset
}

// Upload sends the image and returns its secure URL.
func (c *Client) Upload(ctx context.Context, img asset.Image) (string, error) {
	if !c.configured() {
		if !c.cfg.DemoMode {
			return "", asset.ErrMisconfigured
		}
		url := fmt.Sprintf("https://picsum.photos/seed/%s/400/300", uuid.New().String()[:8])
		zctx.From(ctx).Warn("Asset store in demo mode, returning placeholder URL",
			zap.String("filename", img.Filename),
			zap.String("url", url),
		)
		return url, nil
	}

	body, contentType, err := encodeForm(img, c.cfg.UploadPreset)
	if err != nil {
		return "", errors.Wrap(err, "encode upload form")
	}

	url, err := c.post(ctx, body, contentType)
	if err == nil {
		return url, nil
	}

	// Upload errors carry a vendor verdict and are not retried; anything else
	// is a transport failure worth one more attempt.
	var upErr *asset.UploadError
	if errors.As(err, &upErr) {
		return "", err
	}

	zctx.From(ctx).Warn("Asset upload failed, retrying once", zap.Error(err))
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-time.After(500 * time.Millisecond):
	}
	return c.post(ctx, body, contentType)
}

// encodeForm builds the multipart body: the file plus the unsigned preset.
// The whole payload is buffered so a retry can resend it.
func encodeForm(img asset.Image, preset string) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", img.Filename)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(img.Content); err != nil {
		return nil, "", err
	}
	if err := w.WriteField("upload_preset", preset); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

func (c *Client) post(ctx context.Context, body []byte, contentType string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/v1_1/%s/image/upload", c.cfg.BaseURL, c.cfg.CloudName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "post upload")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", errors.Wrap(err, "read response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &asset.UploadError{
			StatusCode: resp.StatusCode,
			Message:    parseErrorMessage(raw),
		}
	}

	url, err := parseSecureURL(raw)
	if err != nil {
		return "", errors.Wrap(err, "parse upload response")
	}
	return url, nil
}

// parseSecureURL extracts secure_url from a successful upload response.
func parseSecureURL(raw []byte) (string, error) {
	var url string
	d := jx.DecodeBytes(raw)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		if key != "secure_url" {
			return d.Skip()
		}
		v, err := d.Str()
		url = v
		return err
	}); err != nil {
		return "", err
	}
	if url == "" {
		return "", errors.New("response has no secure_url")
	}
	return url, nil
}

// parseErrorMessage extracts error.message from a rejection body. It returns
// "" when the body is not in the expected shape.
func parseErrorMessage(raw []byte) string {
	var msg string
	d := jx.DecodeBytes(raw)
	_ = d.Obj(func(d *jx.Decoder, key string) error {
		if key != "error" {
			return d.Skip()
		}
		return d.Obj(func(d *jx.Decoder, key string) error {
			if key != "message" {
				return d.Skip()
			}
			v, err := d.Str()
			msg = v
			return err
		})
	})
	return msg
}
