package client

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWithHTTPClient_IgnoresNil(t *testing.T) {
	orig := &http.Client{}
	c := &Client{httpClient: orig}
	WithHTTPClient(nil)(c)
	assert.Same(t, orig, c.httpClient)
}

func TestWithRetryMax(t *testing.T) {
	tests := []struct {
		name     string
		input    int
		expected int
	}{
		{"positive", 5, 5},
		{"zero disables", 0, 0},
		{"negative ignored", -1, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Client{retryMax: 3}
			WithRetryMax(tt.input)(c)
			assert.Equal(t, tt.expected, c.retryMax)
		})
	}
}

func TestWithRetryWait(t *testing.T) {
	tests := []struct {
		name      string
		min, max  time.Duration
		expectMin time.Duration
		expectMax time.Duration
	}{
		{"valid range", time.Second, 5 * time.Second, time.Second, 5 * time.Second},
		{"equal values", 2 * time.Second, 2 * time.Second, 2 * time.Second, 2 * time.Second},
		{"zero min ignored", 0, 5 * time.Second, 10 * time.Millisecond, 20 * time.Millisecond},
		{"max below min keeps max", 5 * time.Second, 2 * time.Second, 5 * time.Second, 20 * time.Millisecond},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Client{retryWaitMin: 10 * time.Millisecond, retryWaitMax: 20 * time.Millisecond}
			WithRetryWait(tt.min, tt.max)(c)
			assert.Equal(t, tt.expectMin, c.retryWaitMin)
			assert.Equal(t, tt.expectMax, c.retryWaitMax)
		})
	}
}

func TestWithUserAgent(t *testing.T) {
	c := &Client{userAgent: "default"}
	WithUserAgent("")(c)
	assert.Equal(t, "default", c.userAgent)
	WithUserAgent("custom-agent/1.0")(c)
	assert.Equal(t, "custom-agent/1.0", c.userAgent)
}

func TestWithBasePath(t *testing.T) {
	for in, want := range map[string]string{
		"/api/v2":   "/api/v2",
		"api/v2/":   "/api/v2",
		"/":         "",
		"":          "",
		"/gw/api/1": "/gw/api/1",
	} {
		c := &Client{}
		WithBasePath(in)(c)
		assert.Equal(t, want, c.basePath, in)
	}
}

//Personal.AI order the ending
