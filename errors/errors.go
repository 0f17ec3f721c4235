package errors

import (
	goerrors "errors"
)

/*
* Error codes convey the reason for a failure internally and to clients. They
* are combined with the appropriate HTTP status code and do not replace it.
* Codes for HTTP 500 conditions are logged only; clients receive a generic
* message.
 */

const (

	// HTTP 400 Bad Request.
	// Content-type is not accepted (e.g. text/xml).
	BadContentType ErrCode = 1
	// Content does not match Content-Type or unmarshalling error.
	InvalidContent ErrCode = 2
	// A required field was absent or empty.
	MissingField ErrCode = 3

	// HTTP 404 Not Found.
	NotFound ErrCode = 4

	// HTTP 500 Internal Server Error.
	// The store has not connected yet or has gone away.
	StoreUnavailable ErrCode = 5
	// The store returned an error for a query.
	StoreFailed ErrCode = 6
)

// ItemcacheError implements the Error interface.
type ItemcacheError struct {
	Function     string  `json:"-"`
	ErrorCode    ErrCode `json:"errorCode"`
	ErrorMessage string  `json:"errorDetail"`
}

type ErrCode uint8

func (e ItemcacheError) Error() string {
	return e.ErrorMessage
}

func New(function string, errCode ErrCode, errMessage string) error {
	return &ItemcacheError{
		Function:     function,
		ErrorCode:    errCode,
		ErrorMessage: errMessage,
	}
}

// Code returns the ErrCode carried by err, or 0 if err is not an
// ItemcacheError.
func Code(err error) ErrCode {
	var ie *ItemcacheError
	if goerrors.As(err, &ie) {
		return ie.ErrorCode
	}
	return 0
}

// Is reports whether err carries the given code
func Is(err error, errCode ErrCode) bool {
	return err != nil && Code(err) == errCode
}
