package authsync

import "errors"

var (
	// ErrInvalidCredentials is an exported constant or variable used by the session client.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrLoginFailed is an exported constant or variable used by the session client.
	ErrLoginFailed = errors.New("login failed")
	// ErrNotAuthenticated is an exported constant or variable used by the session client.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrRefreshRejected is an exported constant or variable used by the session client.
	ErrRefreshRejected = errors.New("refresh rejected")
	// ErrProfileInvalid is an exported constant or variable used by the session client.
	ErrProfileInvalid = errors.New("profile payload invalid")
	// ErrClientClosed is an exported constant or variable used by the session client.
	ErrClientClosed = errors.New("client closed")
	// ErrBuilderReused is an exported constant or variable used by the session client.
	ErrBuilderReused = errors.New("builder already used")
)
