package httpclient

import (
	"net"
	"net/http"
	"time"

	"golang.org/x/net/http2"
)

// New returns a client for upstream calls. timeout bounds a whole request,
// including reading the body; pingInterval is how long an HTTP/2 connection
// may stay silent before a health ping is sent. Zero disables either.
func New(timeout, pingInterval time.Duration) *http.Client {
	t1 := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	// make http2.Transport use proxy
	t2, err := http2.ConfigureTransports(t1)
	if err != nil {
		panic(err)
	}
	t2.ReadIdleTimeout = pingInterval
	return &http.Client{
		Transport: t1,
		Timeout:   timeout,
	}
}
