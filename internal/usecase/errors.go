package usecase

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	ErrorAuthRequired      ErrorCode = "AUTH_REQUIRED"
	ErrorNetworkFailure    ErrorCode = "NETWORK_FAILURE"
	ErrorMalformedResponse ErrorCode = "MALFORMED_RESPONSE"
	ErrorLocationFetch     ErrorCode = "LOCATION_FETCH_FAILURE"
	ErrorMapLoad           ErrorCode = "MAP_LOAD_FAILURE"
	ErrorInvalidInput      ErrorCode = "INVALID_INPUT"
	ErrorNotFound          ErrorCode = "NOT_FOUND"
	ErrorRegistration      ErrorCode = "REGISTRATION_FAILURE"
	ErrorDetail            ErrorCode = "DETAIL_FAILURE"
)

var userMessages = map[ErrorCode]string{
	ErrorAuthRequired:      "로그인이 필요해요.",
	ErrorNetworkFailure:    "메시지 전송에 실패했습니다. 네트워크 상태를 확인해 주세요.",
	ErrorMalformedResponse: "답변을 불러오지 못했어요.",
	ErrorLocationFetch:     "정책 위치 정보를 불러오지 못했어요.",
	ErrorMapLoad:           "지도를 불러오지 못했어요.",
	ErrorInvalidInput:      "입력값을 확인해주세요.",
	ErrorNotFound:          "사용자를 찾지 못했어요. ID를 확인해주세요.",
	ErrorRegistration:      "사용자 등록에 실패했습니다.",
	ErrorDetail:            "정책 상세 정보를 불러오지 못했습니다.",
}

// UserMessage is the text shown to the user for the code.
func (c ErrorCode) UserMessage() string {
	return userMessages[c]
}

type Error struct {
	Code   ErrorCode
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("usecase: %s (%s)", e.Code, e.Reason)
	}
	return fmt.Sprintf("usecase: %s (%s): %v", e.Code, e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// UserMessage is the text shown to the user for this error.
func (e *Error) UserMessage() string {
	if e == nil {
		return ""
	}
	return e.Code.UserMessage()
}

func newError(code ErrorCode, reason string, err error) *Error {
	return &Error{Code: code, Reason: reason, Err: err}
}

// UserMessage returns the user-facing text for err, or "" when err does not
// carry a usecase error.
func UserMessage(err error) string {
	var ue *Error
	if !errors.As(err, &ue) {
		return ""
	}
	return ue.UserMessage()
}

type httpStatusCoder interface {
	HTTPStatusCode() int
}

func upstreamStatusCode(err error) (int, bool) {
	var statusErr httpStatusCoder
	if !errors.As(err, &statusErr) {
		return 0, false
	}
	return statusErr.HTTPStatusCode(), true
}
