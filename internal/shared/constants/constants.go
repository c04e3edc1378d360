package constants

const (
	// HTTP Headers
	HeaderAuthorization = "Authorization"
	HeaderXRequestID    = "X-Request-ID"
	HeaderDeviceID      = "X-Device-ID"
	HeaderDeviceType    = "X-Device-Type"
	HeaderInternalToken = "X-Internal-Token"

	// Context keys set by the auth middleware
	ContextKeyUserID    = "user_id"
	ContextKeySessionID = "session_id"
	ContextKeyTokenID   = "token_id"
	ContextKeyPlatform  = "platform"
	ContextKeyToken     = "token"
	ContextKeyDeviceID  = "device_id"
	ContextKeyRequestID = "request_id"
)
