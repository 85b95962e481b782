package cloudways

import "errors"

// ErrorKind classifies why a Cloudways call did not produce a usable result
type ErrorKind string

const (
	// KindAuthRejected means the OAuth endpoint answered with an error field
	KindAuthRejected ErrorKind = "auth_rejected"

	// KindAuthTokenMissing means the OAuth response had no error but no token either
	KindAuthTokenMissing ErrorKind = "auth_token_missing"

	// KindDeployRejected means the git pull endpoint returned a non-success status
	KindDeployRejected ErrorKind = "deploy_rejected"

	// KindTransportOrParsing covers network failures and bodies that are not JSON
	KindTransportOrParsing ErrorKind = "transport_or_parsing"
)

// MsgAccessTokenMissing is reported when the OAuth response carries no token
const MsgAccessTokenMissing = "access token does not exist"

// Error is returned by the Cloudways client for every failure.
// Message is the human readable text surfaced to the pipeline as is.
type Error struct {
	Kind       ErrorKind
	Message    string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is a Cloudways error of the given kind
func IsKind(err error, kind ErrorKind) bool {
	var cwErr *Error
	return errors.As(err, &cwErr) && cwErr.Kind == kind
}

// transportError keeps the cause's message untouched so the pipeline sees it verbatim
func transportError(err error) *Error {
	return &Error{
		Kind:    KindTransportOrParsing,
		Message: err.Error(),
		Err:     err,
	}
}
