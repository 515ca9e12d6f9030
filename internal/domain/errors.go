package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrCrawlingDisabled is returned when crawling has been switched off administratively.
	ErrCrawlingDisabled = errors.New("crawling is disabled")
	// ErrUnknownSource is returned when a source key matches no registered source.
	ErrUnknownSource = errors.New("unknown source")
	// ErrInvalidRetention is returned for a non-positive retention window.
	ErrInvalidRetention = errors.New("retention days must be positive")
)

// FetchError wraps a failure to fetch or parse one source.
type FetchError struct {
	Source string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch source %q: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ItemParseError is a single malformed item inside an otherwise healthy source.
type ItemParseError struct {
	Source string
	Link   string
	Err    error
}

func (e *ItemParseError) Error() string {
	if e.Link == "" {
		return fmt.Sprintf("parse item from %q: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("parse item %s from %q: %v", e.Link, e.Source, e.Err)
}

func (e *ItemParseError) Unwrap() error { return e.Err }

// PersistenceError is a store write failure for one article.
type PersistenceError struct {
	Title  string
	Source string
	Err    error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist article %q from %q: %v", e.Title, e.Source, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// ConfigurationError rejects a caller operation before any work is attempted.
type ConfigurationError struct {
	Op  string
	Err error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// IsConfigurationError reports whether err is a fast-fail caller misuse.
func IsConfigurationError(err error) bool {
	var cfgErr *ConfigurationError
	return errors.As(err, &cfgErr)
}
