package errors

import (
	"net/http"

	"github.com/pkg/errors"
)

// Kind classifies an error for callers that branch on the category rather than the code.
type Kind int

const (
	KindUnknown Kind = iota
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindInvalidInput
	KindConflict
	KindInfrastructure
	KindConfiguration
)

var kindNames = map[Kind]string{
	KindUnknown:         "unknown",
	KindUnauthenticated: "unauthenticated",
	KindForbidden:       "forbidden",
	KindNotFound:        "not_found",
	KindInvalidInput:    "invalid_input",
	KindConflict:        "conflict",
	KindInfrastructure:  "infrastructure",
	KindConfiguration:   "configuration",
}

// String returns the label used in logs and metrics.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}

	return kindNames[KindUnknown]
}

// KindOf classifies err. A nil error is KindUnknown; any error that does not unwrap
// to an AppError or ConfigurationError is treated as infrastructure.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	var cfgErr *ConfigurationError
	if errors.As(err, &cfgErr) {
		return KindConfiguration
	}

	var appErr AppError
	if !errors.As(err, &appErr) {
		return KindInfrastructure
	}

	switch code := appErr.HTTPCode(); {
	case code == http.StatusUnauthorized:
		return KindUnauthenticated
	case code == http.StatusForbidden:
		return KindForbidden
	case code == http.StatusNotFound:
		return KindNotFound
	case code == http.StatusConflict:
		return KindConflict
	case code >= http.StatusInternalServerError:
		return KindInfrastructure
	case code >= http.StatusBadRequest:
		return KindInvalidInput
	default:
		return KindUnknown
	}
}
