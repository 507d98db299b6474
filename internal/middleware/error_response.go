package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/dhi/telemed/internal/model"
)

// ErrorBody はJSONで返すエラーの形式。
type ErrorBody struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action,omitempty"`
}

// ミドルウェアが処理を打ち切るときのエラー。
var (
	errRateLimited = &model.APIError{
		Code:     "RATE_LIMIT_EXCEEDED",
		Message:  "มีการร้องขอมากเกินไป",
		Category: "system",
		Action:   "กรุณารอสักครู่แล้วลองใหม่",
	}
	errCSRFRejected = &model.APIError{
		Code:     "CSRF_REJECTED",
		Message:  "ไม่สามารถยืนยันแบบฟอร์มได้",
		Category: "auth",
		Action:   "กรุณาโหลดหน้าใหม่แล้วส่งแบบฟอร์มอีกครั้ง",
	}
	errInternal = &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "เกิดข้อผิดพลาดภายในระบบ",
		Category: "system",
		Action:   "กรุณาลองใหม่อีกครั้งในภายหลัง",
	}
)

// WriteError はエラーをリクエスト元に合わせた形式で書き込む。
// /api/ 配下とAcceptにapplication/jsonを含むリクエストにはJSON、
// ブラウザのページ遷移やフォーム送信にはメッセージと対処方法のテキストを返す。
func WriteError(w http.ResponseWriter, r *http.Request, status int, apiErr *model.APIError) {
	w.Header().Set("Cache-Control", "no-store")

	if wantsJSON(r) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(ErrorBody{
			Code:     apiErr.Code,
			Message:  apiErr.Message,
			Category: apiErr.Category,
			Action:   apiErr.Action,
		})
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	fmt.Fprintln(w, apiErr.Message)
	if apiErr.Action != "" {
		fmt.Fprintln(w, apiErr.Action)
	}
}

// WriteInternalError は500を書き込む。原因はログにのみ残す。
func WriteInternalError(w http.ResponseWriter, r *http.Request) {
	WriteError(w, r, http.StatusInternalServerError, errInternal)
}

func wantsJSON(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return true
	}
	for _, accept := range strings.Split(r.Header.Get("Accept"), ",") {
		mediaType, _, _ := strings.Cut(strings.TrimSpace(accept), ";")
		if strings.EqualFold(mediaType, "application/json") {
			return true
		}
	}
	return false
}
