package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dhi/telemed/internal/model"
)

func TestWantsJSON(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		accept string
		want   bool
	}{
		{"APIパス", "/api/report", "", true},
		{"Accept JSON", "/admin/hospitals", "application/json", true},
		{"Accept JSON with params", "/admin/hospitals", "text/html;q=0.9, application/json;q=1.0", true},
		{"ブラウザのページ遷移", "/admin/hospitals", "text/html,application/xhtml+xml,*/*;q=0.8", false},
		{"Acceptなしのフォーム送信", "/login", "", false},
		{"apiで始まるだけのパス", "/apiary", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.accept != "" {
				r.Header.Set("Accept", tt.accept)
			}
			if got := wantsJSON(r); got != tt.want {
				t.Errorf("wantsJSON(%s, %q) = %v, want %v", tt.path, tt.accept, got, tt.want)
			}
		})
	}
}

func TestWriteError_JSONForAPI(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/report", nil)

	WriteError(w, r, http.StatusNotFound, model.NewHospitalNotFoundError("h-1"))

	resp := w.Result()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	if cc := resp.Header.Get("Cache-Control"); cc != "no-store" {
		t.Errorf("Cache-Control = %q, want no-store", cc)
	}

	var body ErrorBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	if body.Code != model.ErrCodeHospitalNotFound {
		t.Errorf("code = %q, want %q", body.Code, model.ErrCodeHospitalNotFound)
	}
	if body.Category != "data" || body.Message == "" {
		t.Errorf("body = %+v", body)
	}
}

func TestWriteError_TextForFormPost(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/admin/transactions", strings.NewReader("hospital_id=h-1"))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	apiErr := model.NewRiderCapacityExceededError("รพ.ก", 3)
	WriteError(w, r, http.StatusUnprocessableEntity, apiErr)

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnprocessableEntity)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Content-Type = %q, want text/plain", ct)
	}
	body := w.Body.String()
	if !strings.Contains(body, apiErr.Message) {
		t.Errorf("本文にメッセージが含まれていない: %q", body)
	}
	if apiErr.Action != "" && !strings.Contains(body, apiErr.Action) {
		t.Errorf("本文に対処方法が含まれていない: %q", body)
	}
	if strings.Contains(body, apiErr.Code) {
		t.Errorf("テキスト形式ではエラーコードを表示しない: %q", body)
	}
}

func TestWriteInternalError_HidesCause(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/report", nil)

	WriteInternalError(w, r)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
	var body ErrorBody
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if body.Code != "INTERNAL_ERROR" || body.Category != "system" || body.Action == "" {
		t.Errorf("body = %+v", body)
	}
}
