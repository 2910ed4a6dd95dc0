package errs

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// CodeError carries a stable numeric code alongside the message so the
// transport layer can map it without string matching. Detail is free-form
// context appended along the way.
type CodeError struct {
	Code   int    `json:"code"`
	Msg    string `json:"msg"`
	Detail string `json:"detail,omitempty"`
}

func NewCodeError(code int, msg string) *CodeError {
	return &CodeError{Code: code, Msg: msg}
}

func (e *CodeError) WithDetail(detail string) *CodeError {
	d := detail
	if e.Detail != "" {
		d = e.Detail + ", " + detail
	}
	return &CodeError{Code: e.Code, Msg: e.Msg, Detail: d}
}

func (e *CodeError) WithDetailf(format string, args ...any) *CodeError {
	return e.WithDetail(fmt.Sprintf(format, args...))
}

// Is matches by code, so predefined errors keep working with errors.Is no
// matter how much detail was attached on the way up.
func (e *CodeError) Is(err error) bool {
	var ce *CodeError
	if !errors.As(err, &ce) {
		return false
	}
	return ce.Code == e.Code
}

func (e *CodeError) Error() string {
	v := make([]string, 0, 3)
	v = append(v, strconv.Itoa(e.Code), e.Msg)
	if e.Detail != "" {
		v = append(v, e.Detail)
	}
	return strings.Join(v, " ")
}

func New(msg string) error {
	return errors.New(msg)
}

// AsCodeError unwraps err to a *CodeError if there is one in the chain.
func AsCodeError(err error) (*CodeError, bool) {
	var ce *CodeError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}
