package network_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arunprabus/health-api/internal/network"
)

func TestNewClientFactory_NoProxy(t *testing.T) {
	f, err := network.NewClientFactory("")
	require.NoError(t, err)
	require.Empty(t, f.ProxyURL())

	client := f.NewHTTPClient(5 * time.Second)
	require.Equal(t, 5*time.Second, client.Timeout)

	transport, ok := client.Transport.(*http.Transport)
	require.True(t, ok)
	require.NotNil(t, transport.Proxy, "falls back to the proxy environment")
}

func TestNewClientFactory_Proxy(t *testing.T) {
	f, err := network.NewClientFactory("http://proxy.internal:3128")
	require.NoError(t, err)
	require.Equal(t, "http://proxy.internal:3128", f.ProxyURL())

	transport := f.NewHTTPTransport()
	req := httptest.NewRequest(http.MethodGet, "https://cognito-idp.ap-south-1.amazonaws.com/jwks.json", nil)
	proxy, err := transport.Proxy(req)
	require.NoError(t, err)
	require.Equal(t, &url.URL{Scheme: "http", Host: "proxy.internal:3128"}, proxy)
}

func TestNewClientFactory_InvalidProxy(t *testing.T) {
	for _, raw := range []string{"proxy:3128", "://bad", "/relative"} {
		_, err := network.NewClientFactory(raw)
		require.Error(t, err, raw)
	}
}

func TestNewClientFactoryForTest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	defer srv.Close()

	f := network.NewClientFactoryForTest(srv.Client().Transport)
	resp, err := f.NewHTTPClient(time.Second).Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusTeapot, resp.StatusCode)
}
