package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dhi/telemed/internal/middleware"
	"github.com/dhi/telemed/internal/model"
)

// statusForError はサービス層のエラーをHTTPステータスコードに変換する。
func statusForError(err error) int {
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		return http.StatusInternalServerError
	}
	return mapAPIErrorToHTTPStatus(apiErr)
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeInvalidInput, model.ErrCodeInvalidEmail, model.ErrCodeMissingCredentials,
		model.ErrCodeInvalidCSV:
		return http.StatusBadRequest
	case model.ErrCodeUnknownHospitals, model.ErrCodeRiderCapacityExceeded:
		return http.StatusUnprocessableEntity
	case model.ErrCodeSignInRejected, model.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case model.ErrCodeForbidden:
		return http.StatusForbidden
	case model.ErrCodeHospitalNotFound, model.ErrCodeTransactionNotFound, model.ErrCodeAdminNotFound:
		return http.StatusNotFound
	case model.ErrCodeDuplicateUsername:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// errorMessage はページに表示するエラーメッセージを返す。
// APIError以外はバックエンドのエラー内容をそのまま表示する。
func errorMessage(err error) string {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	slog.Error("request failed", slog.String("error", err.Error()))
	return "เกิดข้อผิดพลาด: " + err.Error()
}

// writeAPIError はAPIエンドポイントのエラーレスポンスを書き込む。
func writeAPIError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		middleware.WriteError(w, r, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	middleware.WriteInternalError(w, r)
}
