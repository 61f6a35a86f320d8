package tilekit

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptrace"
	"sync"
	"sync/atomic"
	"time"
)

// errReadTimeout is the cancellation cause recorded when the read deadline
// of an attempt fires.
var errReadTimeout = errors.New("read timeout")

// newHTTPClient builds a client whose transport enforces the connect
// timeout. The read timeout is enforced per attempt by fetchBody because it
// starts only once a connection is obtained.
func newHTTPClient(cfg Config) *http.Client {
	dialer := &net.Dialer{
		Timeout:   cfg.ConnectTimeout,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		TLSHandshakeTimeout:   cfg.ConnectTimeout,
		MaxConnsPerHost:       cfg.MaxConnsPerHost,
		MaxIdleConnsPerHost:   8,
		IdleConnTimeout:       90 * time.Second,
		ExpectContinueTimeout: time.Second,
	}
	return &http.Client{Transport: transport}
}

// fetchBody performs one GET of url and returns the full body of a 2xx
// response. Every failure is classified into a FetchError; nothing panics
// or escapes unclassified.
func fetchBody(parent context.Context, client *http.Client, url, userAgent string, readTimeout time.Duration) ([]byte, *FetchError) {
	ctx, cancel := context.WithCancelCause(parent)
	defer cancel(nil)

	var (
		connected atomic.Bool
		timer     atomic.Pointer[time.Timer]
		once      sync.Once
	)
	defer func() {
		if t := timer.Load(); t != nil {
			t.Stop()
		}
	}()
	trace := &httptrace.ClientTrace{
		GotConn: func(httptrace.GotConnInfo) {
			once.Do(func() {
				connected.Store(true)
				timer.Store(time.AfterFunc(readTimeout, func() { cancel(errReadTimeout) }))
			})
		},
	}

	req, err := http.NewRequestWithContext(httptrace.WithClientTrace(ctx, trace), http.MethodGet, url, nil)
	if err != nil {
		return nil, &FetchError{Kind: ConnectionError, URL: url, Err: err}
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &FetchError{Kind: classifyFetchError(ctx, parent, err, connected.Load()), URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, &FetchError{Kind: UnsuccessfulStatus, URL: url, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{Kind: classifyFetchError(ctx, parent, err, true), URL: url, Err: err}
	}
	return body, nil
}

// classifyFetchError maps a transport error to a FailureKind.
func classifyFetchError(ctx, parent context.Context, err error, connected bool) FailureKind {
	switch {
	case errors.Is(context.Cause(ctx), errReadTimeout):
		return ReadTimeout
	case parent.Err() != nil:
		return Canceled
	case isTimeout(err):
		if connected {
			return ReadTimeout
		}
		return ConnectTimeout
	default:
		return ConnectionError
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
