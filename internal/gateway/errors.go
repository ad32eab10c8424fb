package gateway

import (
	"errors"
	"fmt"
	"net/http"
)

// FallbackMessage is reported when a rejected envelope carries no message.
const FallbackMessage = "request failed"

var (
	ErrTimeout           = errors.New("request timed out")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrMalformedEnvelope = errors.New("malformed response envelope")
)

// BusinessError is a completed exchange whose envelope code was not 200.
type BusinessError struct {
	Code    int
	Message string
}

func (e *BusinessError) Error() string {
	return e.Message
}

// StatusError is a transport level rejection: the backend answered with a
// non-2xx HTTP status.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
}

func (e *StatusError) Is(target error) bool {
	return target == ErrUnauthorized && e.StatusCode == http.StatusUnauthorized
}
