package errorsx

// ReasonCode is a short machine-readable error reason.
type ReasonCode string

const (
	ReasonUnknown ReasonCode = "unknown"

	ReasonBookingContact     ReasonCode = "booking_contact"
	ReasonBookingAppointment ReasonCode = "booking_appointment"
	ReasonBookingTimeout     ReasonCode = "booking_timeout"
	ReasonBookingConfig      ReasonCode = "booking_config"

	ReasonTTSSynthesize  ReasonCode = "tts_synthesize"
	ReasonTTSRateLimit   ReasonCode = "tts_rate_limit"
	ReasonTTSCircuitOpen ReasonCode = "tts_circuit_open"

	ReasonTransportInvalidSignature ReasonCode = "webhook_invalid_signature"
)
