package domain

import "errors"

// Sentinel errors for domain operations
var (
	// ErrLogoNotFound indicates the requested logo does not exist
	ErrLogoNotFound = errors.New("logo not found")

	// ErrServerOffline indicates the catalog service is unreachable
	ErrServerOffline = errors.New("catalog service is unreachable")

	// ErrAuthFailed indicates authentication failed
	ErrAuthFailed = errors.New("authentication token is invalid")
)
