package discovery

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// ProxyType selects how outbound Reddit traffic is routed.
type ProxyType string

// Supported proxy types.
const (
	ProxyScraperAPI ProxyType = "scraperapi"
	ProxyBrightData ProxyType = "brightdata"
	ProxyCustom     ProxyType = "custom"
)

const scraperAPIEndpoint = "https://api.scraperapi.com/"

// Proxy config errors.
var (
	ErrProxyURLRequired   = errors.New("proxy url required for proxy type")
	ErrUnknownProxyType   = errors.New("unknown proxy type")
	ErrScraperKeyRequired = errors.New("scraperapi key required")
)

// ProxyConfig configures the outbound proxy for Reddit requests.
// ScraperAPI works by rewriting the target URL as a query parameter;
// BrightData and custom proxies go through an http.Transport proxy.
type ProxyConfig struct {
	Enabled bool
	Type    ProxyType
	APIKey  string
	URL     string
}

// Validate checks that the config is usable when enabled.
func (c ProxyConfig) Validate() error {
	if !c.Enabled {
		return nil
	}

	switch c.Type {
	case ProxyScraperAPI:
		if c.APIKey == "" {
			return ErrScraperKeyRequired
		}
	case ProxyBrightData, ProxyCustom:
		if c.URL == "" {
			return fmt.Errorf("%w %q", ErrProxyURLRequired, c.Type)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownProxyType, c.Type)
	}

	return nil
}

// requestURL rewrites target through ScraperAPI when that proxy type is
// active. All other types leave the URL untouched.
func (c ProxyConfig) requestURL(target string) string {
	if !c.Enabled || c.Type != ProxyScraperAPI {
		return target
	}

	params := url.Values{}
	params.Set("api_key", c.APIKey)
	params.Set("url", target)

	return scraperAPIEndpoint + "?" + params.Encode()
}

// newHTTPClient builds the HTTP client for the configured proxy.
func newHTTPClient(cfg ProxyConfig, timeout time.Duration) (*http.Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := &http.Client{Timeout: timeout}

	if !cfg.Enabled || cfg.Type == ProxyScraperAPI {
		return client, nil
	}

	proxyURL, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse proxy url: %w", err)
	}

	client.Transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}

	return client, nil
}
