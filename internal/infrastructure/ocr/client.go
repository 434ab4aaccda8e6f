// internal/infrastructure/ocr/client.go
//
// HTTP client for the text-recognition collaborator. The service accepts a
// multipart upload with an "image" part and answers {"text": "..."}.
//
// Dependencies:
//   - internal/infrastructure/monitoring/logging
//   - pkg/errors

package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/turtacn/MedRemind/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MedRemind/pkg/errors"
)

// TextExtractor turns an image into text.
type TextExtractor interface {
	ExtractText(ctx context.Context, image []byte, filename string) (string, error)
}

type Config struct {
	Endpoint      string        `mapstructure:"endpoint"`
	APIKey        string        `mapstructure:"api_key"`
	Timeout       time.Duration `mapstructure:"timeout"`
	MaxImageBytes int64         `mapstructure:"max_image_bytes"`
}

type Client struct {
	config     Config
	httpClient *http.Client
	logger     logging.Logger
}

func NewClient(cfg Config, log logging.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, errors.New(errors.ErrCodeValidation, "ocr endpoint is required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxImageBytes == 0 {
		cfg.MaxImageBytes = 10 << 20
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Client{
		config:     cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     log.Named("ocr"),
	}, nil
}

// CheckImage enforces presence and the configured size bound.
func CheckImage(image []byte, max int64) error {
	if len(image) == 0 {
		return errors.New(errors.ErrCodeImageMissing, "prescription image is required")
	}
	if max > 0 && int64(len(image)) > max {
		return errors.New(errors.ErrCodeImageTooLarge, fmt.Sprintf("image exceeds %d bytes", max))
	}
	return nil
}

// ExtractText returns the recognised text. Blank text is not an error; the
// caller decides what an empty page means.
func (c *Client) ExtractText(ctx context.Context, image []byte, filename string) (string, error) {
	if err := CheckImage(image, c.config.MaxImageBytes); err != nil {
		return "", err
	}
	if filename == "" {
		filename = "image"
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("image", filename)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeOCRFailed, "build ocr request")
	}
	if _, err := part.Write(image); err != nil {
		return "", errors.Wrap(err, errors.ErrCodeOCRFailed, "build ocr request")
	}
	if err := mw.Close(); err != nil {
		return "", errors.Wrap(err, errors.ErrCodeOCRFailed, "build ocr request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Endpoint, &body)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeOCRFailed, "build ocr request")
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}
	if reqID := logging.RequestIDFromContext(ctx); reqID != "" {
		req.Header.Set("X-Request-ID", reqID)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("OCR request failed", logging.Err(err))
		return "", errors.Wrap(err, errors.ErrCodeOCRFailed, "failed to perform OCR on the image")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Error("OCR service rejected image",
			logging.Int("status", resp.StatusCode), logging.String("body", string(msg)))
		return "", errors.New(errors.ErrCodeOCRFailed, fmt.Sprintf("ocr service returned %s", resp.Status))
	}

	var out struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", errors.Wrap(err, errors.ErrCodeOCRFailed, "decode ocr response")
	}

	c.logger.Debug("OCR finished",
		logging.Int("bytes", len(image)),
		logging.Int("chars", len(out.Text)),
		logging.Duration("took", time.Since(start)))
	return out.Text, nil
}

var _ TextExtractor = (*Client)(nil)

//Personal.AI order the ending
