// Package ctxkeys defines typed keys shared between middleware and handlers.
package ctxkeys

// Key is a typed context key to prevent collisions.
type Key string

const (
	KeyRequestID Key = "request_id"
	KeyUserID    Key = "user_id"
	KeyUser      Key = "user"
	KeyAuthType  Key = "auth_type"
)
