package service

import (
	"errors"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindAuth
	KindGeneration
	KindSynthesis
	KindRender
	KindUpload
	KindParse
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindAuth:
		return "auth"
	case KindGeneration:
		return "generation"
	case KindSynthesis:
		return "synthesis"
	case KindRender:
		return "render"
	case KindUpload:
		return "upload"
	case KindParse:
		return "parse"
	default:
		return "internal"
	}
}

// Error 流水线阶段错误。Msg 直接返回给调用方，Details 可选附带上游信息。
type Error struct {
	Kind    Kind
	Status  int
	Msg     string
	Details string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Status: statusFor(kind), Msg: msg, Err: err}
}

// withDetails 把底层错误文本作为 details 返回
func (e *Error) withDetails() *Error {
	if e.Err != nil {
		e.Details = e.Err.Error()
	}
	return e
}

func (e *Error) withStatus(status int) *Error {
	e.Status = status
	return e
}

func statusFor(kind Kind) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// AsError 非 *Error 的错误统一视为 internal
func AsError(err error, fallbackMsg string) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return newError(KindInternal, fallbackMsg, err)
}

func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) && e.Status != 0 {
		return e.Status
	}
	return http.StatusInternalServerError
}
