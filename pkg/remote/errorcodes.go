package remote

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ErrorCode is the value of the X-DJEESE-ERROR-CODE header on a 400 reply.
type ErrorCode int

const (
	CodeUnknown ErrorCode = iota
	CodeInvalidArchive
	CodeAccessDenied
	CodeMissingPackage
	CodeMissingLicense
	CodeMissingConfig
	CodeInvalidConfig
	CodeMissingTemplate
	CodeNameMismatch
	CodeVersionTooLow
	CodeQuotaExceeded
	CodeInvalidWebsite
	CodeInvalidFilename
)

const (
	ErrorCodeHeader = "X-DJEESE-ERROR-CODE"
	ErrorMetaHeader = "X-DJEESE-ERROR-META"
)

var (
	ErrAuthFailed  = errors.New("Authentication failed")
	ErrUnavailable = errors.New("Temporarily unavailable")
)

// APIError is a request the service rejected as bad.
type APIError struct {
	Status int
	Code   ErrorCode
	Meta   string
	Body   []byte
}

func (e *APIError) Error() string {
	return describe(e.Code, e.Meta)
}

// StatusError is a reply with a status the client does not know about.
type StatusError struct {
	Status int
	Body   []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("Unexpected response: %d", e.Status)
}

func describe(code ErrorCode, meta string) string {
	switch code {
	case CodeUnknown:
		if meta != "" {
			return "Unknown error: " + meta
		}
		return "Unknown error"
	case CodeInvalidArchive:
		return "Invalid tar file supplied"
	case CodeAccessDenied:
		return "Access denied"
	case CodeMissingPackage:
		return "Package file missing from upload"
	case CodeMissingLicense:
		return "License file missing from upload"
	case CodeMissingConfig:
		return "Configuration missing from upload"
	case CodeInvalidConfig:
		return "Invalid configuration"
	case CodeMissingTemplate:
		return fmt.Sprintf("Missing template %q", meta)
	case CodeNameMismatch:
		return "Supplied name does not match name in configuration"
	case CodeVersionTooLow:
		// meta is "server,supplied"
		parts := strings.SplitN(meta, ",", 2)
		if len(parts) != 2 {
			return fmt.Sprintf("Supplied version is not newer than version on server (%s)", meta)
		}
		return fmt.Sprintf("Supplied version (%s) is not newer than version on server (%s)",
			strings.TrimSpace(parts[1]), strings.TrimSpace(parts[0]))
	case CodeQuotaExceeded:
		return "Cannot add new private app, please upgrade your plan"
	case CodeInvalidWebsite:
		return fmt.Sprintf("Website with name %q not found", meta)
	case CodeInvalidFilename:
		return fmt.Sprintf("Filename %q is not allowed", meta)
	}
	return fmt.Sprintf("Unexpected error code: %d (%s)", int(code), meta)
}
