package errors

import "errors"

// Session errors
var (
	ErrSessionAlreadyStarted = errors.New("roster session already started")
	ErrSessionFailed         = errors.New("roster session failed to initialize")
	ErrSessionNotRunning     = errors.New("roster session is not running")
)

// Snapshot errors
var (
	ErrNoSnapshot     = errors.New("no participant snapshot available yet")
	ErrInvalidRecord  = errors.New("invalid participant record")
	ErrRoomNotFound   = errors.New("meeting room not found")
	ErrSnapshotFailed = errors.New("failed to fetch participant snapshot")
)
