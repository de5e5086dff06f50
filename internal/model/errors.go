// Package model はドメインモデルを定義する。
package model

import (
	"errors"
	"fmt"
)

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: validation, conflict, auth, authorization, not_found, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// エラーカテゴリ
const (
	CategoryValidation    = "validation"
	CategoryConflict      = "conflict"
	CategoryAuth          = "auth"
	CategoryAuthorization = "authorization"
	CategoryNotFound      = "not_found"
	CategorySystem        = "system"
)

// 定義済みエラーコード
const (
	ErrCodeValidationFailed   = "VALIDATION_FAILED"
	ErrCodeConflict           = "CONFLICT"
	ErrCodeUnauthenticated    = "UNAUTHENTICATED"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeSchoolNotFound     = "SCHOOL_NOT_FOUND"
	ErrCodeInvalidRequest     = "INVALID_REQUEST"
	ErrCodeRateLimited        = "RATE_LIMIT_EXCEEDED"
	ErrCodeCSRF               = "CSRF_VALIDATION_FAILED"
	ErrCodeInternal           = "INTERNAL_ERROR"
)

// NewValidationError は入力値検証エラーを生成する。
func NewValidationError(message string) *APIError {
	return &APIError{
		Code:     ErrCodeValidationFailed,
		Message:  message,
		Category: CategoryValidation,
		Action:   "Correct the highlighted fields and try again.",
	}
}

// NewConflictError は一意制約に違反する登録のエラーを生成する。
func NewConflictError(message string) *APIError {
	return &APIError{
		Code:     ErrCodeConflict,
		Message:  message,
		Category: CategoryConflict,
		Action:   "Use a different value or sign in to the existing account.",
	}
}

// NewAuthError は未認証エラーを生成する。
func NewAuthError(message string) *APIError {
	return &APIError{
		Code:     ErrCodeUnauthenticated,
		Message:  message,
		Category: CategoryAuth,
		Action:   "Please log in.",
	}
}

// NewInvalidCredentialsError はログイン失敗エラーを生成する。
// メールアドレスとパスワードのどちらが誤っているかは区別しない。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "Invalid email or password",
		Category: CategoryAuth,
		Action:   "Check your email address and password.",
	}
}

// NewAuthorizationError は認証済みだが操作権限がない場合のエラーを生成する。
func NewAuthorizationError(message string) *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  message,
		Category: CategoryAuthorization,
		Action:   "Only the owner of this school can change it.",
	}
}

// NewSchoolNotFoundError は学校未検出エラーを生成する。
func NewSchoolNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeSchoolNotFound,
		Message:  "School not found",
		Category: CategoryNotFound,
		Action:   "Check the school ID.",
	}
}

// NewInvalidRequestError はリクエストボディを解析できない場合のエラーを生成する。
func NewInvalidRequestError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  "Request body could not be parsed",
		Category: CategoryValidation,
		Action:   "Send a valid JSON body.",
	}
}

// NewInternalError は内部エラーを生成する。詳細はログのみに記録する。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "An internal error occurred.",
		Category: CategorySystem,
		Action:   "Please wait a moment and try again.",
	}
}

// StoreError は永続化層の失敗を表す。
// 呼び出し元には詳細を返さず、ログにのみ記録する。
type StoreError struct {
	Op  string
	Err error
}

// NewStoreError はStoreErrorを生成する。
func NewStoreError(op string, err error) *StoreError {
	return &StoreError{Op: op, Err: err}
}

// Error はerrorインターフェースを実装する。
func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

// Unwrap は元のエラーを返す。
func (e *StoreError) Unwrap() error {
	return e.Err
}

// HasCategory はerrがAPIErrorであり指定カテゴリに属するかを返す。
func HasCategory(err error, category string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Category == category
}
