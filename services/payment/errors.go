package payment

import "fmt"

// SignatureError means the webhook payload failed signature verification.
// Nothing is mutated when this is returned.
type SignatureError struct {
	Code    string
	Message string
}

func (e *SignatureError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewSignatureError(msg string) error {
	return &SignatureError{Code: "signatureError", Message: msg}
}

// ExternalServiceError means the payment provider was unreachable or
// rejected the request; the caller may retry.
type ExternalServiceError struct {
	Code    string
	Message string
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewExternalServiceError(msg string) error {
	return &ExternalServiceError{Code: "externalServiceError", Message: msg}
}
