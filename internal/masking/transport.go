package masking

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/proxy"
)

// newTransport builds the HTTP transport for the masking service.
// When proxyAddress is set, every connection goes through that SOCKS5 proxy.
//
// Design decisions:
//   - TLS verification stays on; the service is a public HTTPS API.
//   - Idle connections are kept per host because all traffic goes to one
//     endpoint and the poller reuses them every round.
func newTransport(proxyAddress string) (*http.Transport, error) {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        16,
		MaxIdleConnsPerHost: 16,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		ForceAttemptHTTP2:   true,
	}
	if proxyAddress == "" {
		return transport, nil
	}

	if !isValidProxyAddress(proxyAddress) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidProxyAddress, proxyAddress)
	}
	// SOCKS username/password authentication is not supported.
	dialer, err := proxy.SOCKS5("tcp", proxyAddress, nil, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
	}
	transport.Proxy = nil
	if cd, ok := dialer.(proxy.ContextDialer); ok {
		transport.DialContext = cd.DialContext
	} else {
		transport.DialContext = func(_ context.Context, network, addr string) (net.Conn, error) {
			return dialer.Dial(network, addr)
		}
	}
	return transport, nil
}

// isValidProxyAddress checks if the address is in "host:port" format with a
// port between 1 and 65535.
func isValidProxyAddress(address string) bool {
	host, port, err := net.SplitHostPort(address)
	if err != nil || host == "" {
		return false
	}
	n, err := strconv.Atoi(port)
	return err == nil && n >= 1 && n <= 65535
}

// headerInjectingTransport wraps an http.RoundTripper to add the headers
// every masking request carries: credentials, user agent, a fresh request
// id and any configured extra headers.
//
// Design decision: Injecting in a RoundTripper rather than in each request
// builder keeps the credential handling in one place.
type headerInjectingTransport struct {
	base      http.RoundTripper
	authKey   string
	userAgent string
	headers   map[string]string
}

// RoundTrip implements http.RoundTripper.
func (t *headerInjectingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())

	for key, value := range t.headers {
		clone.Header.Set(key, value)
	}
	if t.authKey != "" {
		clone.Header.Set("Authorization", "Bearer "+t.authKey)
	}
	if t.userAgent != "" {
		clone.Header.Set("User-Agent", t.userAgent)
	}
	if clone.Header.Get("X-Request-ID") == "" {
		clone.Header.Set("X-Request-ID", uuid.NewString())
	}

	return t.base.RoundTrip(clone)
}
