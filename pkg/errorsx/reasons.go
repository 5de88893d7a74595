package errorsx

// ReasonCode is a short machine-readable error reason.
type ReasonCode string

const (
	ReasonUnknown ReasonCode = "unknown"

	ReasonPermissionDenied ReasonCode = "permission_denied"
	ReasonCaptureRotate    ReasonCode = "capture_rotate"
	ReasonPlayback         ReasonCode = "playback"

	ReasonTokenAcquire ReasonCode = "token_acquire"
	ReasonTokenExpired ReasonCode = "token_expired"

	ReasonTransportConnect ReasonCode = "transport_connect"
	ReasonTransportSend    ReasonCode = "transport_send"
	ReasonTransportClosed  ReasonCode = "transport_closed"

	ReasonMalformedMessage ReasonCode = "malformed_message"
	ReasonInvariant        ReasonCode = "invariant"

	ReasonPersist ReasonCode = "persist"
)
