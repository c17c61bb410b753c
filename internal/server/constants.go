package server

import "time"

// HTTP error messages for middleware and handler responses
const (
	ErrMsgUnauthorized     = "Unauthorized"
	ErrMsgMissingAccountID = "account id is required"
	ErrMsgNotReady         = "database not reachable"
	ErrMsgInternal         = "internal error"
	ErrMsgReconcileBusy    = "reconcile worker not configured"
)

// Log messages for server lifecycle and request handling
const (
	LogMsgServerStarting   = "Server starting"
	LogMsgRequestStarted   = "Request started"
	LogMsgRequestCompleted = "Request completed"
	LogMsgRequestHeaders   = "Request headers"
	LogMsgAuthFailed       = "Authentication failed"
	LogMsgReadinessFailed  = "Readiness check failed"
	LogMsgAdminDisabled    = "No API key configured; admin routes disabled"
	LogMsgHandlerFailed    = "Admin request failed"
)

// HTTP header names
const (
	HeaderAPIKey         = "X-API-Key"
	HeaderAuthorization  = "Authorization"
	HeaderContentType    = "X-Content-Type-Options"
	HeaderFrameOptions   = "X-Frame-Options"
	HeaderReferrerPolicy = "Referrer-Policy"
)

// Security header values
const (
	HeaderValueNoSniff                  = "nosniff"
	HeaderValueDeny                     = "DENY"
	HeaderValueReferrerNoReferrer       = "no-referrer"
	DefaultMaxRequestBytes        int64 = 1 << 16
	ReadHeaderTimeout                   = 5 * time.Second
	ReadinessTimeout                    = 2 * time.Second
)

// PublicPaths bypass API key authentication
var PublicPaths = []string{
	"/healthz",
	"/readyz",
	"/metrics",
}
