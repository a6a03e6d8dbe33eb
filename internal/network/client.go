package network

import (
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// ClientFactory builds outbound HTTP clients that share one proxy setting.
type ClientFactory struct {
	proxyURL      *url.URL
	testTransport http.RoundTripper // For testing only
}

// NewClientFactory uses proxyURL when set and the standard proxy environment variables otherwise.
func NewClientFactory(proxyURL string) (*ClientFactory, error) {
	f := &ClientFactory{}
	if proxyURL == "" {
		return f, nil
	}
	parsed, err := url.Parse(proxyURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid proxy url %q", proxyURL)
	}
	f.proxyURL = parsed
	return f, nil
}

// NewClientFactoryForTest creates a client factory whose clients use rt.
// This is only for use in tests.
func NewClientFactoryForTest(rt http.RoundTripper) *ClientFactory {
	return &ClientFactory{testTransport: rt}
}

// NewHTTPClient creates a client with the given timeout. Zero means no timeout.
func (f *ClientFactory) NewHTTPClient(timeout time.Duration) *http.Client {
	client := &http.Client{Timeout: timeout}
	if f.testTransport != nil {
		client.Transport = f.testTransport
		return client
	}
	client.Transport = f.NewHTTPTransport()
	return client
}

// NewHTTPTransport clones the default transport and applies the proxy setting.
func (f *ClientFactory) NewHTTPTransport() *http.Transport {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if f.proxyURL != nil {
		transport.Proxy = http.ProxyURL(f.proxyURL)
	}
	return transport
}

// ProxyURL returns the configured proxy, or "" when the environment decides.
func (f *ClientFactory) ProxyURL() string {
	if f.proxyURL == nil {
		return ""
	}
	return f.proxyURL.String()
}
