package lti

import (
	"errors"
	"fmt"
)

// Reason codes for rejected flows. Handlers log these server-side and
// answer the platform with a generic "launch failed"; the specific code
// never reaches the LMS-facing response.
const (
	CodeInvalidRequest     = "invalid_request"
	CodeConfigError        = "config_error"
	CodeUnknownPlatform    = "unknown_platform"
	CodeInvalidState       = "invalid_state"
	CodeNonceMismatch      = "nonce_mismatch"
	CodeUnknownKey         = "unknown_key"
	CodeBadSignature       = "bad_signature"
	CodeClaimMismatch      = "claim_mismatch"
	CodeUnsupportedVersion = "unsupported_version"
	CodeUnknownDeployment  = "unknown_deployment"
	CodeKeyFetchError      = "key_fetch_error"
	CodeSessionExpired     = "session_expired_or_unknown"
)

// ErrNotFound is the sentinel returned by stores for absent or expired
// entries (state, session, platform).
var ErrNotFound = errors.New("lti: not found")

// FlowError carries the reason code for a failed login/launch.
type FlowError struct {
	Code string
	err  error
}

func flowErr(code string, format string, args ...any) *FlowError {
	return &FlowError{Code: code, err: fmt.Errorf(format, args...)}
}

func flowWrap(code string, err error) *FlowError {
	return &FlowError{Code: code, err: err}
}

func (e *FlowError) Error() string {
	if e.err == nil {
		return "lti: " + e.Code
	}
	return "lti: " + e.Code + ": " + e.err.Error()
}

func (e *FlowError) Unwrap() error { return e.err }

// ReasonCode extracts the reason code from err, or "internal" when the
// failure did not originate in the protocol.
func ReasonCode(err error) string {
	var fe *FlowError
	if errors.As(err, &fe) {
		return fe.Code
	}
	return "internal"
}
