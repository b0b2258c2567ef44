package domain

import "errors"

// Record errors - 資料錯誤 (record violates graph invariants, rejected)
var (
	// ErrInvalidRecord indicates a record with missing or out-of-range fields
	ErrInvalidRecord = errors.New("invalid record")

	// ErrUnresolvableParent indicates a parent_dir that cannot be placed under the scan root
	ErrUnresolvableParent = errors.New("unresolvable parent directory")

	// ErrDuplicateRecord indicates a second record for a path already in the store
	ErrDuplicateRecord = errors.New("duplicate record")
)

// Stream errors - 串流錯誤
var (
	// ErrTransport indicates a connection-level failure (dial, read, unexpected close)
	ErrTransport = errors.New("transport error")

	// ErrProtocol indicates a structured error message received from the stream
	ErrProtocol = errors.New("protocol error")

	// ErrBadStart indicates the first client message was not a valid start message
	ErrBadStart = errors.New("expected message of type 'start' with 'root'")
)

// Core errors - 圖形與佈局錯誤
var (
	// ErrNodeNotFound indicates the node id does not exist in the current graph
	ErrNodeNotFound = errors.New("node not found")

	// ErrSessionClosed indicates an event arrived for a session that was discarded
	ErrSessionClosed = errors.New("session closed")

	// ErrInvalidParams indicates a force parameter outside its allowed range
	ErrInvalidParams = errors.New("invalid layout parameters")
)

// Scanner errors - 掃描錯誤
var (
	// ErrNotFound indicates the requested root does not exist
	ErrNotFound = errors.New("resource not found")

	// ErrNotDirectory indicates expected a directory but got a file
	ErrNotDirectory = errors.New("not a directory")

	// ErrPermissionDenied indicates insufficient permissions
	ErrPermissionDenied = errors.New("permission denied")

	// ErrRootNotAllowed indicates a start request for a folder outside the served list
	ErrRootNotAllowed = errors.New("root not in folder list")
)

// Process errors - 伺服器程序錯誤
var (
	// ErrServerRunning indicates another server already owns the data directory
	ErrServerRunning = errors.New("server already running")

	// ErrServerNotRunning indicates no live server is recorded in the pid file
	ErrServerNotRunning = errors.New("server not running")
)

// Config errors - 設定檔錯誤
var (
	// ErrConfigNotFound indicates config file not found
	ErrConfigNotFound = errors.New("config file not found")

	// ErrConfigInvalid indicates config file is malformed
	ErrConfigInvalid = errors.New("invalid config")
)
