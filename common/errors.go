package common

import "errors"

// Sentinel errors for tunnel operations.
// These can be checked with errors.Is() for proper error handling.
var (
	// Command errors.
	ErrExecutableMissing = errors.New("executable not found")
	ErrCommandFailed     = errors.New("command failed")

	// Service errors.
	ErrNoInstance       = errors.New("no tunnel instance selected")
	ErrInstanceNotFound = errors.New("tunnel instance not found")

	// Configuration errors.
	ErrConfigLoad = errors.New("failed to load configuration")
	ErrConfigSave = errors.New("failed to save configuration")

	// Secret errors.
	ErrSecretNotFound = errors.New("secret not found")
	ErrEncryption     = errors.New("encryption error")
	ErrDecryption     = errors.New("decryption error")
)

// WrapError wraps an error with additional context.
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return &wrappedError{
		msg: message,
		err: err,
	}
}

type wrappedError struct {
	msg string
	err error
}

func (e *wrappedError) Error() string {
	return e.msg + ": " + e.err.Error()
}

func (e *wrappedError) Unwrap() error {
	return e.err
}
