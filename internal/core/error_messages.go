package core

// error_messages.go maps ledger errors to the messages shown by the UI.
//
// # Error Codes Reference
//
// Each code is stable so that a user can quote it when something goes wrong.
//
// # Event Errors (EVT001-EVT099)
//
//	EVT001 - Required field: date, type or person missing on create (400)
//	EVT002 - Not found: no event with the given id (404)
//	EVT003 - Invalid id: the id path segment is not an integer (400)
//
// # Type Errors (TYP001-TYP099)
//
//	TYP001 - Duplicate: the type-tag already exists (400)
//	TYP002 - Blank: no type name was given (400)
//	TYP003 - Not found: the type-tag does not exist (404)
//
// # Import Errors (IMP001-IMP099)
//
//	IMP001 - No data: the spreadsheet has fewer than two rows (400)
//	IMP002 - Missing columns: required headers are absent (400)
//	IMP003 - Invalid snapshot: events/types arrays missing (400)
//	IMP004 - Import failed: the upload could not be parsed (500)
//	IMP005 - Busy: no import slot freed up in time (503)
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - No file: the multipart field was empty (400)
//	FILE002 - Too large: the upload exceeded UPLOAD_MAX_FILE_SIZE (400)
//	FILE003 - Unsupported: not an .xlsx/.xlsm/.csv workbook (400)
//
// # Request Errors (REQ001-REQ099)
//
//	REQ001 - Cancelled: the client went away (499)
//	REQ002 - Timeout: the request ran past SERVER_REQUEST_TIMEOUT (504)
//	REQ003 - Bad body: the JSON request body could not be decoded (400)
//	RATE001 - Rate limited (429)
//
// # Default Error (ERR000)
//
// Fallback when nothing matches (500). Check the server log for the request id.

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Request errors raised by the web layer.
var (
	ErrRateLimited        = errors.New("rate limit exceeded")
	ErrInvalidRequestBody = errors.New("invalid request body")
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (shown to the user)
	Action  string // What to do about it
	Code    string // Error code for support reference
	Status  int    // HTTP status the web layer should use
}

// catalogEntry pairs a sentinel error with its user message.
type catalogEntry struct {
	target error
	msg    UserMessage
}

// errorCatalog is matched in order with errors.Is; the first match wins.
var errorCatalog = []catalogEntry{
	{ErrEventNotFound, UserMessage{
		Message: "삭제할 항목을 찾지 못했습니다.",
		Action:  "목록을 새로고침한 뒤 다시 시도하세요.",
		Code:    "EVT002",
		Status:  http.StatusNotFound,
	}},
	{ErrInvalidEventID, UserMessage{
		Message: "잘못된 내역 ID입니다.",
		Code:    "EVT003",
		Status:  http.StatusBadRequest,
	}},
	{ErrDuplicateType, UserMessage{
		Message: "이미 존재하는 구분입니다.",
		Code:    "TYP001",
		Status:  http.StatusBadRequest,
	}},
	{ErrTypeNameRequired, UserMessage{
		Message: "추가할 구분 이름을 입력하세요.",
		Code:    "TYP002",
		Status:  http.StatusBadRequest,
	}},
	{ErrTypeNotFound, UserMessage{
		Message: "삭제할 구분을 찾지 못했습니다.",
		Code:    "TYP003",
		Status:  http.StatusNotFound,
	}},
	{ErrNoDataRows, UserMessage{
		Message: "엑셀 파일에 헤더 또는 데이터가 없습니다.",
		Action:  "첫 행에 헤더, 둘째 행부터 데이터를 입력하세요.",
		Code:    "IMP001",
		Status:  http.StatusBadRequest,
	}},
	{ErrInvalidSnapshot, UserMessage{
		Message: "잘못된 JSON 파일 형식입니다. 'events'와 'types' 배열이 필요합니다.",
		Action:  "이 프로그램에서 내보낸 백업 파일을 사용하세요.",
		Code:    "IMP003",
		Status:  http.StatusBadRequest,
	}},
	{ErrImportFailed, UserMessage{
		Message: "파일을 처리하는 중 오류가 발생했습니다.",
		Action:  "파일 형식이나 내용을 확인하세요.",
		Code:    "IMP004",
		Status:  http.StatusInternalServerError,
	}},
	{ErrTooManyImports, UserMessage{
		Message: "다른 가져오기 작업이 진행 중입니다.",
		Action:  "잠시 후 다시 시도하세요.",
		Code:    "IMP005",
		Status:  http.StatusServiceUnavailable,
	}},
	{ErrNoFile, UserMessage{
		Message: "업로드된 파일이 없습니다.",
		Action:  "가져올 파일을 선택하세요.",
		Code:    "FILE001",
		Status:  http.StatusBadRequest,
	}},
	{ErrFileTooLarge, UserMessage{
		Message: "파일이 허용된 크기를 초과했습니다.",
		Action:  "파일을 나누어 가져오세요.",
		Code:    "FILE002",
		Status:  http.StatusBadRequest,
	}},
	{ErrUnsupportedFormat, UserMessage{
		Message: "지원하지 않는 파일 형식입니다.",
		Action:  ".xlsx 또는 .csv 파일을 사용하세요.",
		Code:    "FILE003",
		Status:  http.StatusBadRequest,
	}},
	{context.Canceled, UserMessage{
		Message: "요청이 취소되었습니다.",
		Code:    "REQ001",
		Status:  499,
	}},
	{context.DeadlineExceeded, UserMessage{
		Message: "요청 시간이 초과되었습니다.",
		Action:  "잠시 후 다시 시도하세요.",
		Code:    "REQ002",
		Status:  http.StatusGatewayTimeout,
	}},
	{ErrInvalidRequestBody, UserMessage{
		Message: "요청 형식이 올바르지 않습니다.",
		Action:  "JSON 본문을 확인하세요.",
		Code:    "REQ003",
		Status:  http.StatusBadRequest,
	}},
	{ErrRateLimited, UserMessage{
		Message: "요청이 너무 많습니다.",
		Action:  "잠시 후 다시 시도하세요.",
		Code:    "RATE001",
		Status:  http.StatusTooManyRequests,
	}},
}

// defaultMessage is returned when nothing in the catalog matches (ERR000).
var defaultMessage = UserMessage{
	Message: "예상치 못한 오류가 발생했습니다.",
	Action:  "잠시 후 다시 시도하세요.",
	Code:    "ERR000",
	Status:  http.StatusInternalServerError,
}

// MapError converts an error to the message shown to the user.
// Typed errors carry details into the message (missing fields, missing
// columns, the offending type name); sentinel errors are matched with
// errors.Is; anything else gets ERR000.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var ve *ValidationError
	if errors.As(err, &ve) {
		return UserMessage{
			Message: "날짜, 구분, 대상자는 필수 항목입니다.",
			Action:  "누락된 항목: " + strings.Join(ve.Fields, ", "),
			Code:    "EVT001",
			Status:  http.StatusBadRequest,
		}
	}

	var mc *MissingColumnsError
	if errors.As(err, &mc) {
		return UserMessage{
			Message: "엑셀 파일에 필수 헤더가 누락되었습니다: " + strings.Join(mc.Columns, ", "),
			Action:  "첫 행에 " + strings.Join(RequiredHeaderLabels(), ", ") + " 헤더가 있어야 합니다.",
			Code:    "IMP002",
			Status:  http.StatusBadRequest,
		}
	}

	for _, entry := range errorCatalog {
		if !errors.Is(err, entry.target) {
			continue
		}
		msg := entry.msg
		var tn *TypeNameError
		if errors.As(err, &tn) && tn.Name != "" {
			switch {
			case errors.Is(err, ErrDuplicateType):
				msg.Message = fmt.Sprintf("'%s' 구분은 이미 존재합니다.", tn.Name)
			case errors.Is(err, ErrTypeNotFound):
				msg.Message = fmt.Sprintf("'%s' 구분을 찾지 못했습니다.", tn.Name)
			}
		}
		return msg
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	if msg.Action == "" {
		return fmt.Sprintf("%s (Code: %s)", msg.Message, msg.Code)
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// TypeNameError attaches the offending type name to a type registry error.
type TypeNameError struct {
	Name string
	Err  error
}

func (e *TypeNameError) Error() string {
	return fmt.Sprintf("%v: %q", e.Err, e.Name)
}

func (e *TypeNameError) Unwrap() error {
	return e.Err
}
