package service

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalid      = errors.New("invalid")
	ErrUnauthorized = errors.New("unauthorized")
	ErrUpstream     = errors.New("upstream failure")
)

// Error is a failure whose message may be shown to the client as-is.
// Kind is one of the sentinels above and decides the status code.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func newError(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

var (
	ErrEmailTaken          = newError(ErrInvalid, "Email already registered")
	ErrInvalidCredentials  = newError(ErrUnauthorized, "Invalid credentials")
	ErrInvalidToken        = newError(ErrUnauthorized, "Invalid or expired token")
	ErrUserNotFound        = newError(ErrNotFound, "User not found")
	ErrProfileExists       = newError(ErrConflict, "Profile already exists")
	ErrProfileNotFound     = newError(ErrNotFound, "Profile not found")
	ErrProfileRequired     = newError(ErrNotFound, "Profile not found. Please create a profile first.")
	ErrNoFile              = newError(ErrInvalid, "No file uploaded")
	ErrUnsupportedType     = newError(ErrInvalid, "Invalid file type. Only PDF, JPEG, and PNG files are allowed.")
	ErrNoDocument          = newError(ErrNotFound, "No document uploaded")
	ErrBucketNotFound      = newError(ErrUpstream, "S3 bucket not found. Check S3_BUCKET_NAME.")
	ErrStorageAccessDenied = newError(ErrUpstream, "S3 access denied. Check AWS credentials.")
	ErrUploadFailed        = newError(ErrUpstream, "Upload failed. Please try again.")
	ErrIdentityUnavailable = newError(ErrUpstream, "Identity provider unavailable. Please try again.")
)

// ValidationError names the offending request field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalid
}

func fieldRequired(field string) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf("%q is required", field)}
}

func fieldInvalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf("%q ", field) + fmt.Sprintf(format, args...)}
}

// FileTooLarge is the validation error for documents above maxBytes.
func FileTooLarge(maxBytes int64) *Error {
	limit := fmt.Sprintf("%d bytes", maxBytes)
	if maxBytes >= 1<<20 && maxBytes%(1<<20) == 0 {
		limit = fmt.Sprintf("%dMB", maxBytes>>20)
	}
	return newError(ErrInvalid, "File too large. Maximum size is "+limit+".")
}
