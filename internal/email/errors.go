package email

// ============================================================================
// EMAIL ERROR CODES
// ============================================================================
// These constants mirror domain error codes to avoid circular imports.
// The handler layer maps these to HTTP status codes.

const (
	codeInternal = "internal"
	codeInvalid  = "invalid"
)

// ============================================================================
// EMAIL ERROR TYPE
// ============================================================================

// EmailError represents an email-specific error with a code and message.
type EmailError struct {
	Code    string
	Message string
}

func (e *EmailError) Error() string {
	return e.Message
}

// ErrorCode returns the error code for HTTP status mapping.
func (e *EmailError) ErrorCode() string {
	return e.Code
}

// newEmailError creates a new email error.
func newEmailError(code, message string) *EmailError {
	return &EmailError{Code: code, Message: message}
}

// ============================================================================
// EMAIL DOMAIN ERRORS
// ============================================================================

var (
	// ErrNoChannels is returned when no delivery channel is configured.
	ErrNoChannels = newEmailError(codeInternal, "No email channel configured")

	// ErrAllChannelsFailed is returned when every channel failed to deliver.
	ErrAllChannelsFailed = newEmailError(codeInternal, "All email channels failed")

	// ErrInvalidToAddress is returned when the to address is invalid.
	ErrInvalidToAddress = newEmailError(codeInvalid, "Invalid to email address")

	// ErrRejected is returned when the mail endpoint answered but did not accept the message.
	ErrRejected = newEmailError(codeInternal, "Mail endpoint rejected the message")
)
