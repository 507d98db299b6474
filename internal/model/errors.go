// Package model はドメインモデルを定義する。
package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound は対象のレコードが存在しないことを表す。
var ErrNotFound = errors.New("not found")

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, data, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInvalidInput          = "INVALID_INPUT"
	ErrCodeInvalidEmail          = "INVALID_EMAIL"
	ErrCodeMissingCredentials    = "MISSING_CREDENTIALS"
	ErrCodeSignInRejected        = "SIGN_IN_REJECTED"
	ErrCodeUnauthorized          = "UNAUTHORIZED"
	ErrCodeForbidden             = "FORBIDDEN"
	ErrCodeHospitalNotFound      = "HOSPITAL_NOT_FOUND"
	ErrCodeTransactionNotFound   = "TRANSACTION_NOT_FOUND"
	ErrCodeAdminNotFound         = "ADMIN_NOT_FOUND"
	ErrCodeRiderCapacityExceeded = "RIDER_CAPACITY_EXCEEDED"
	ErrCodeDuplicateUsername     = "DUPLICATE_USERNAME"
	ErrCodeInvalidCSV            = "INVALID_CSV"
	ErrCodeUnknownHospitals      = "UNKNOWN_HOSPITALS"
)

// NewInvalidInputError は入力値検証エラーを生成する。
func NewInvalidInputError(message string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidInput,
		Message:  message,
		Category: "validation",
		Action:   "ข้อมูลที่กรอกไม่ถูกต้อง กรุณาตรวจสอบอีกครั้ง",
	}
}

// NewInvalidEmailError はメールアドレスの形式エラーを生成する。
func NewInvalidEmailError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidEmail,
		Message:  "รูปแบบอีเมลไม่ถูกต้อง",
		Category: "validation",
		Action:   "กรุณากรอกอีเมลในรูปแบบ name@example.com",
	}
}

// NewMissingCredentialsError はログインIDまたはパスワード未入力のエラーを生成する。
func NewMissingCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeMissingCredentials,
		Message:  "กรอกให้ครบ",
		Category: "validation",
		Action:   "กรุณากรอกชื่อผู้ใช้และรหัสผ่าน",
	}
}

// NewSignInRejectedError はサインイン拒否エラーを生成する。
// messageにはバックエンドが返したメッセージをそのまま渡す。
func NewSignInRejectedError(message string) *APIError {
	if strings.TrimSpace(message) == "" {
		message = "ชื่อผู้ใช้หรือรหัสผ่านไม่ถูกต้อง"
	}
	return &APIError{
		Code:     ErrCodeSignInRejected,
		Message:  message,
		Category: "auth",
		Action:   "กรุณาลองใหม่อีกครั้ง",
	}
}

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "กรุณาเข้าสู่ระบบ",
		Category: "auth",
		Action:   "เข้าสู่ระบบเพื่อใช้งาน",
	}
}

// NewForbiddenError は権限不足エラーを生成する。
// 理由の詳細は含めない。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "คุณไม่มีสิทธิ์เข้าถึงหน้านี้",
		Category: "auth",
		Action:   "ติดต่อผู้ดูแลระบบเพื่อขอสิทธิ์",
	}
}

// NewHospitalNotFoundError は病院が見つからない場合のエラーを生成する。
func NewHospitalNotFoundError(hospitalID string) *APIError {
	return &APIError{
		Code:     ErrCodeHospitalNotFound,
		Message:  fmt.Sprintf("ไม่พบโรงพยาบาล: %s", hospitalID),
		Category: "data",
		Action:   "ตรวจสอบรายการโรงพยาบาล",
	}
}

// NewTransactionNotFoundError はTransactionが見つからない場合のエラーを生成する。
func NewTransactionNotFoundError(transactionID string) *APIError {
	return &APIError{
		Code:     ErrCodeTransactionNotFound,
		Message:  fmt.Sprintf("ไม่พบ Transaction: %s", transactionID),
		Category: "data",
		Action:   "ตรวจสอบรายการ Transaction",
	}
}

// NewAdminNotFoundError は管理者が見つからない場合のエラーを生成する。
func NewAdminNotFoundError(username string) *APIError {
	return &APIError{
		Code:     ErrCodeAdminNotFound,
		Message:  fmt.Sprintf("ไม่พบผู้ดูแล: %s", username),
		Category: "data",
		Action:   "ตรวจสอบรายชื่อผู้ดูแล",
	}
}

// NewRiderCapacityExceededError はアクティブRider数がキャパシティを超えた場合のエラーを生成する。
func NewRiderCapacityExceededError(hospitalName string, ridersActive int) *APIError {
	message := "Rider Active มากกว่า Capacity ของโรงพยาบาลนี้"
	if hospitalName != "" {
		message = fmt.Sprintf("Rider Active (%d) ของแถวโรงพยาบาล %s มากกว่า Capacity", ridersActive, hospitalName)
	}
	return &APIError{
		Code:     ErrCodeRiderCapacityExceeded,
		Message:  message,
		Category: "validation",
		Action:   "ลดจำนวน Rider Active หรือเพิ่ม Capacity ของโรงพยาบาล",
	}
}

// NewDuplicateUsernameError はユーザー名重複エラーを生成する。
func NewDuplicateUsernameError() *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateUsername,
		Message:  "มี username นี้แล้ว",
		Category: "validation",
		Action:   "กรุณาใช้ username อื่น",
	}
}

// NewInvalidCSVError はCSV形式エラーを生成する。
func NewInvalidCSVError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCSV,
		Message:  reason,
		Category: "validation",
		Action:   "หัวคอลัมน์ต้องมี: hospital_name, date(YYYY-MM-DD), transactions_count, riders_active",
	}
}

// NewUnknownHospitalsError はCSVに未登録の病院名が含まれる場合のエラーを生成する。
func NewUnknownHospitalsError(names []string) *APIError {
	return &APIError{
		Code:     ErrCodeUnknownHospitals,
		Message:  fmt.Sprintf("ไม่พบโรงพยาบาล: %s", strings.Join(names, ", ")),
		Category: "validation",
		Action:   "เพิ่มโรงพยาบาลก่อนนำเข้าข้อมูล",
	}
}
