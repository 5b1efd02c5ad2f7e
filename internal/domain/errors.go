package domain

import "errors"

// Domain errors, shared by every layer of the application.

// User errors
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrInvalidUserData    = errors.New("invalid user data")
	ErrInvalidRole        = errors.New("invalid user role")
	ErrUserInactive       = errors.New("user is inactive")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Pass errors
var (
	ErrPassNotFound      = errors.New("pass not found")
	ErrInvalidPassData   = errors.New("invalid pass data")
	ErrInvalidTimeWindow = errors.New("pass end time must be after start time")
	ErrInvalidTransition = errors.New("invalid pass status transition")
	ErrPassNotApproved   = errors.New("pass is not approved")
)

// Verification errors
var (
	ErrMalformedPayload = errors.New("malformed scan payload")
	ErrInvalidLogData   = errors.New("invalid verification log data")
	ErrLogNotFound      = errors.New("verification log not found")
)

// Authorization errors
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrTokenExpired = errors.New("token expired")
	ErrInvalidToken = errors.New("invalid token")
)

// General errors
var (
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrInternal         = errors.New("internal server error")
	ErrNotFound         = errors.New("not found")
	ErrBadRequest       = errors.New("bad request")
)
