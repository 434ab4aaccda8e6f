// Package openfda looks medication names up in the openFDA drug label
// endpoint and adapts the answer to the extractor's DrugVocabulary contract.
package openfda

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/turtacn/MedRemind/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MedRemind/internal/intelligence/med_extractor"
	"github.com/turtacn/MedRemind/pkg/errors"
	"github.com/turtacn/MedRemind/pkg/types/medication"
)

const labelPath = "/drug/label.json"

// Config for the openFDA client.
type Config struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// Client queries openFDA over HTTP.
type Client struct {
	config     Config
	httpClient *http.Client
	logger     logging.Logger
}

type ClientOption func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

func NewClient(cfg Config, log logging.Logger, opts ...ClientOption) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New(errors.ErrCodeValidation, "openfda base_url is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeValidation, "openfda base_url is invalid")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}
	if log == nil {
		log = logging.NewNopLogger()
	}

	c := &Client{
		config:     cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     log.Named("openfda"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type labelResponse struct {
	Results []struct {
		OpenFDA struct {
			BrandName        []string `json:"brand_name"`
			GenericName      []string `json:"generic_name"`
			ManufacturerName []string `json:"manufacturer_name"`
			ProductNDC       []string `json:"product_ndc"`
			SPLID            []string `json:"spl_id"`
		} `json:"openfda"`
	} `json:"results"`
}

// Lookup searches brand and generic names. A 404 or an empty result set is a
// definitive miss; anything else that is not a 2xx is returned as an error.
func (c *Client) Lookup(ctx context.Context, name string) (*med_extractor.LookupResult, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return &med_extractor.LookupResult{Found: false}, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.searchURL(name), nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeVocabularyUnavailable, "build openfda request")
	}
	req.Header.Set("Accept", "application/json")
	if reqID := logging.RequestIDFromContext(ctx); reqID != "" {
		req.Header.Set("X-Request-ID", reqID)
	}

	// One attempt only: a failed lookup becomes an indeterminate validation.
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeVocabularyUnavailable, "openfda request failed")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return &med_extractor.LookupResult{Found: false}, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, errors.New(errors.ErrCodeVocabularyRateLimited, "openfda rate limit exceeded")
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, errors.New(errors.ErrCodeVocabularyUnavailable, fmt.Sprintf("openfda returned %s", resp.Status))
	}

	var body labelResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4<<20)).Decode(&body); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeVocabularyParseError, "decode openfda response")
	}
	if len(body.Results) == 0 {
		return &med_extractor.LookupResult{Found: false}, nil
	}

	ofda := body.Results[0].OpenFDA
	return &med_extractor.LookupResult{
		Found: true,
		Identifiers: medication.DrugIdentifiers{
			BrandNames:        ofda.BrandName,
			GenericNames:      ofda.GenericName,
			ManufacturerNames: ofda.ManufacturerName,
			NDC:               ofda.ProductNDC,
			SPLID:             ofda.SPLID,
		},
	}, nil
}

func (c *Client) searchURL(name string) string {
	quoted := strings.ReplaceAll(name, `"`, "")
	q := url.Values{}
	q.Set("search", fmt.Sprintf(`(openfda.brand_name:"%s" OR openfda.generic_name:"%s")`, quoted, quoted))
	q.Set("limit", "1")
	if c.config.APIKey != "" {
		q.Set("api_key", c.config.APIKey)
	}
	return strings.TrimRight(c.config.BaseURL, "/") + labelPath + "?" + q.Encode()
}

//Personal.AI order the ending
