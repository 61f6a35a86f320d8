package tilekit

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyURL is returned by Submit for an empty URL.
	ErrEmptyURL = errors.New("tilekit: empty url")
	// ErrDuplicateToken is returned by Submit when the token is already outstanding.
	ErrDuplicateToken = errors.New("tilekit: token already outstanding")
	// ErrManagerClosed is returned by Submit after Close.
	ErrManagerClosed = errors.New("tilekit: fetch manager closed")
	// ErrCacheMiss is returned by Cache.Get when the URL is not cached.
	ErrCacheMiss = errors.New("tilekit: cache miss")
	// ErrEntryTooLarge is returned by Cache.Put when a payload exceeds the
	// whole cache capacity.
	ErrEntryTooLarge = errors.New("tilekit: cache entry larger than capacity")
	// ErrInvalidConfig wraps every Config validation failure.
	ErrInvalidConfig = errors.New("tilekit: invalid config")
)

// FailureKind classifies why a fetch produced a Failure outcome. The kind is
// for local diagnostics only; consumers are told nothing beyond the token.
type FailureKind uint8

const (
	FailureNone        FailureKind = iota // no failure
	ConnectTimeout                        // connection not established in time
	ReadTimeout                           // response not fully received in time
	ConnectionError                       // any other transport error
	UnsuccessfulStatus                    // server answered with a non-2xx status
	Canceled                              // request canceled by the caller
	CacheUnavailable                      // a cache tier failed; never surfaced
)

func (k FailureKind) String() string {
	switch k {
	case FailureNone:
		return "none"
	case ConnectTimeout:
		return "connect-timeout"
	case ReadTimeout:
		return "read-timeout"
	case ConnectionError:
		return "connection-error"
	case UnsuccessfulStatus:
		return "unsuccessful-status"
	case Canceled:
		return "canceled"
	case CacheUnavailable:
		return "cache-unavailable"
	default:
		return fmt.Sprintf("FailureKind(%d)", uint8(k))
	}
}

// FetchError describes a failed fetch attempt.
type FetchError struct {
	Kind   FailureKind
	URL    string
	Status int // HTTP status for UnsuccessfulStatus, else 0
	Err    error
}

func (e *FetchError) Error() string {
	switch {
	case e.Kind == UnsuccessfulStatus:
		return fmt.Sprintf("fetch %s: %s: status %d", e.URL, e.Kind, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
	default:
		return fmt.Sprintf("fetch %s: %s", e.URL, e.Kind)
	}
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
