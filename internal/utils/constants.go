package utils

import "time"

const (
	AppName = "fleetdesk"

	DefaultListLimit = 100
	MaxListLimit     = 500

	TokenTTL = 24 * time.Hour

	// POD photos
	MaxPhotoDimension = 1600
	PhotoJPEGQuality  = 85
)

// HTTP Status Messages
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Error Messages
const (
	ErrInvalidInput     = "invalid input"
	ErrInternalServer   = "internal server error"
	ErrUnauthorized     = "unauthorized"
	ErrForbidden        = "forbidden"
	ErrNotFound         = "not found"
	ErrConflict         = "conflict"
	ErrValidationFailed = "validation failed"
	ErrFileUploadFailed = "file upload failed"
	ErrMissingScope     = "organization scope required"
)

// Error Codes
const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeBadRequest         = "BAD_REQUEST"
	CodeNotFound           = "NOT_FOUND"
	CodeConflict           = "CONFLICT"
	CodePreconditionFailed = "PRECONDITION_FAILED"
	CodePolicyViolation    = "POLICY_VIOLATION"
	CodeInvalidTransition  = "INVALID_TRANSITION"
	CodeInternal           = "INTERNAL_ERROR"
	CodeUnauthorized       = "UNAUTHORIZED"
)

// Context keys set by the scope middleware
const (
	ContextOrganizationID = "organization_id"
	ContextUserID         = "user_id"
	ContextRole           = "role"
	ContextRequestID      = "request_id"
)

// Cache Keys
const (
	CacheRouteLockPrefix   = "route_lock:"
	CacheDeviceTokenPrefix = "device_token:"
)

// File Types
var AllowedImageTypes = []string{"jpg", "jpeg", "png", "gif"}
