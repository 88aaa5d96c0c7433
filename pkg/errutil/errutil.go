package errutil

import "net/http"

type HttpError struct {
	code int
	err  error
}

func (e *HttpError) Error() string {
	if e.err == nil {
		return ""
	}
	return e.err.Error()
}

func (e *HttpError) Code() int {
	return e.code
}

func (e *HttpError) Unwrap() error {
	return e.err
}

func NewHttpError(code int, err error) error {
	return &HttpError{code: code, err: err}
}

func ValidationError(err error) error {
	return NewHttpError(http.StatusBadRequest, err)
}

func BadRequestError(err error) error {
	return NewHttpError(http.StatusBadRequest, err)
}

func UnauthorizedError(err error) error {
	return NewHttpError(http.StatusUnauthorized, err)
}

func NotFoundError(err error) error {
	return NewHttpError(http.StatusNotFound, err)
}

func TooManyRequestsError(err error) error {
	return NewHttpError(http.StatusTooManyRequests, err)
}

// ParseHttpError maps an error to an HTTP status code and message.
// A nil error is a 200; errors without an explicit code are 500s.
func ParseHttpError(err error) (int, string) {
	if err == nil {
		return http.StatusOK, ""
	}

	if httpErr, ok := err.(*HttpError); ok {
		return httpErr.Code(), httpErr.Error()
	}

	return http.StatusInternalServerError, err.Error()
}
