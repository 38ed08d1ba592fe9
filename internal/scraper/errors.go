package scraper

import (
	"errors"
	"fmt"
)

// FetchErrorKind classifies a page fetch failure.
type FetchErrorKind int

const (
	// KindFetch is any non-timeout navigation or rendering failure.
	KindFetch FetchErrorKind = iota
	// KindTimeout means the fetch deadline elapsed before the page loaded.
	KindTimeout
)

// FetchError is the typed error returned by PageFetcher implementations.
type FetchError struct {
	Kind FetchErrorKind
	URL  string
	Err  error
}

func (e *FetchError) Error() string {
	if e.Kind == KindTimeout {
		return fmt.Sprintf("fetch timed out for %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("fetch failed for %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NewTimeoutError wraps err as a timeout-class fetch failure.
func NewTimeoutError(url string, err error) *FetchError {
	return &FetchError{Kind: KindTimeout, URL: url, Err: err}
}

// NewFetchError wraps err as a generic fetch failure.
func NewFetchError(url string, err error) *FetchError {
	return &FetchError{Kind: KindFetch, URL: url, Err: err}
}

// IsTimeout reports whether err is (or wraps) a timeout-class fetch failure.
func IsTimeout(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Kind == KindTimeout
}
