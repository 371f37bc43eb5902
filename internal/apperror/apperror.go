package apperror

import (
	"context"
	"errors"

	"github.com/abdul-hamid-achik/imgedit/internal/processor"
	"github.com/abdul-hamid-achik/imgedit/internal/transform"
)

// Process exit codes.
const (
	ExitOK          = 0
	ExitInternal    = 1
	ExitUsage       = 2
	ExitSourceLoad  = 3
	ExitInvalidCrop = 4
	ExitEncoding    = 5
	ExitUnavailable = 6
	ExitInterrupted = 130
)

type Error struct {
	Code     string
	Message  string
	ExitCode int
	Internal error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Internal
}

var (
	ErrBadRequest = &Error{
		Code:     "bad_request",
		Message:  "Invalid arguments",
		ExitCode: ExitUsage,
	}

	ErrSourceLoad = &Error{
		Code:     "source_load_error",
		Message:  "The source image could not be loaded or decoded",
		ExitCode: ExitSourceLoad,
	}

	ErrInvalidCropRegion = &Error{
		Code:     "invalid_crop_region",
		Message:  "The crop region is empty or lies outside the image",
		ExitCode: ExitInvalidCrop,
	}

	ErrEncoding = &Error{
		Code:     "encoding_error",
		Message:  "The output image could not be encoded",
		ExitCode: ExitEncoding,
	}

	ErrProcessorNotFound = &Error{
		Code:     "processor_not_found",
		Message:  "No processor is registered under that name",
		ExitCode: ExitUsage,
	}

	ErrCanceled = &Error{
		Code:     "canceled",
		Message:  "The operation was canceled",
		ExitCode: ExitInterrupted,
	}

	ErrServiceUnavailable = &Error{
		Code:     "service_unavailable",
		Message:  "A required dependency is unavailable",
		ExitCode: ExitUnavailable,
	}

	ErrInternal = &Error{
		Code:     "internal_error",
		Message:  "An unexpected error occurred",
		ExitCode: ExitInternal,
	}
)

func New(code, message string, exitCode int) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		ExitCode: exitCode,
	}
}

func Wrap(err error, appErr *Error) *Error {
	return &Error{
		Code:     appErr.Code,
		Message:  appErr.Message,
		ExitCode: appErr.ExitCode,
		Internal: err,
	}
}

func WrapWithMessage(err error, code, message string, exitCode int) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		ExitCode: exitCode,
		Internal: err,
	}
}

// FromError classifies err into a coded error. Errors that already carry a
// code are returned as is.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}

	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}

	switch {
	case errors.Is(err, transform.ErrSourceLoad):
		return Wrap(err, ErrSourceLoad)
	case errors.Is(err, transform.ErrInvalidCropRegion):
		return Wrap(err, ErrInvalidCropRegion)
	case errors.Is(err, transform.ErrEncoding):
		return Wrap(err, ErrEncoding)
	case errors.Is(err, processor.ErrProcessorNotFound):
		return Wrap(err, ErrProcessorNotFound)
	case errors.Is(err, processor.ErrInvalidConfig):
		return Wrap(err, ErrBadRequest)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return Wrap(err, ErrCanceled)
	}
	return Wrap(err, ErrInternal)
}

func Is(err error, target *Error) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code == target.Code
	}
	return false
}

func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	return FromError(err).ExitCode
}

func SafeMessage(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return ErrInternal.Message
}

func Code(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrInternal.Code
}
