package ghananlp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrUnavailable is returned while the client is disabled or cooling down.
	ErrUnavailable = errors.New("ghana nlp translation is unavailable")
	// ErrUnsupportedPair is returned when no direct or pivot route exists.
	ErrUnsupportedPair = errors.New("language pair is not supported")
)

// RemoteError is a non-2xx response from the translation API.
type RemoteError struct {
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	return fmt.Sprintf("ghana nlp status %d: %s", e.Status, msg)
}

// ErrorKind groups failures by how callers should react to them.
type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindTransient
	KindAuth
	KindRateLimited
	KindRejected
	KindUnavailable
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindTransient:
		return "transient"
	case KindAuth:
		return "auth"
	case KindRateLimited:
		return "rate_limited"
	case KindRejected:
		return "rejected"
	case KindUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Classify maps an error returned by the client to its ErrorKind.
func Classify(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	if errors.Is(err, ErrUnavailable) {
		return KindUnavailable
	}
	if errors.Is(err, ErrUnsupportedPair) {
		return KindRejected
	}

	var remote *RemoteError
	if errors.As(err, &remote) {
		switch {
		case remote.Status == http.StatusUnauthorized || remote.Status == http.StatusForbidden:
			return KindAuth
		case remote.Status == http.StatusTooManyRequests:
			return KindRateLimited
		case remote.Status == http.StatusRequestTimeout || remote.Status >= 500:
			return KindTransient
		default:
			return KindRejected
		}
	}
	if errors.Is(err, context.Canceled) {
		return KindRejected
	}
	return KindTransient
}

func retryable(err error) bool {
	switch Classify(err) {
	case KindTransient, KindRateLimited:
		return true
	default:
		return false
	}
}
