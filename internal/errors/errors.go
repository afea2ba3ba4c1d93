// Package errors defines the error kinds surfaced by the monitor.
//
// Every failure that reaches a caller is one of the sentinel kinds below, either
// bare or wrapped in an *Error carrying a user-facing message.
package errors

import (
	stderrors "errors"
)

var (
	ErrInvalidArgument       = stderrors.New("invalid argument")
	ErrPortalUnavailable     = stderrors.New("portal unavailable")
	ErrDownloadFailed        = stderrors.New("download failed")
	ErrLinkNotFound          = stderrors.New("download link not found")
	ErrUntrustedDownloadPath = stderrors.New("untrusted download path")
	ErrUnparseableDocument   = stderrors.New("unparseable document")
	ErrInternal              = stderrors.New("internal error")
)

var kinds = []error{
	ErrInvalidArgument,
	ErrPortalUnavailable,
	ErrDownloadFailed,
	ErrLinkNotFound,
	ErrUntrustedDownloadPath,
	ErrUnparseableDocument,
	ErrInternal,
}

// Error pairs a kind with the message shown to callers. Err is the optional
// underlying cause and is never shown outside logs.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Kind.Error()
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Cause returns the underlying error of the outermost *Error in err's chain,
// or nil. Error() shows only the message, so logs attach the cause separately.
func Cause(err error) error {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Err
	}
	return nil
}

func New(kind error, msg string) error {
	return &Error{Kind: kind, Message: msg}
}

func Wrap(kind error, msg string, err error) error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// KindOf returns the sentinel kind of err, or nil when err is unclassified.
func KindOf(err error) error {
	if err == nil {
		return nil
	}
	for _, k := range kinds {
		if stderrors.Is(err, k) {
			return k
		}
	}
	return nil
}

// IsClassified reports whether err belongs to one of the known kinds.
func IsClassified(err error) bool {
	return KindOf(err) != nil
}

// Label is a short stable name for a kind, used for metric labels.
func Label(err error) string {
	switch KindOf(err) {
	case ErrInvalidArgument:
		return "invalid_argument"
	case ErrPortalUnavailable:
		return "portal_unavailable"
	case ErrDownloadFailed:
		return "download_failed"
	case ErrLinkNotFound:
		return "link_not_found"
	case ErrUntrustedDownloadPath:
		return "untrusted_download_path"
	case ErrUnparseableDocument:
		return "unparseable_document"
	case ErrInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Public returns the message safe to hand to a caller: classified errors keep
// their message, anything else collapses into a generic internal error.
func Public(err error) error {
	if err == nil {
		return nil
	}
	if !IsClassified(err) {
		return New(ErrInternal, "도구 실행 중 오류가 발생했습니다.")
	}
	var e *Error
	if stderrors.As(err, &e) {
		return New(e.Kind, e.Error())
	}
	return KindOf(err)
}
