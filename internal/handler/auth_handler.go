// Package handler はHTTPハンドラーとルーティングを提供する。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dhi/telemed/internal/auth"
	"github.com/dhi/telemed/internal/model"
	"github.com/dhi/telemed/internal/render"
	"github.com/dhi/telemed/internal/session"
)

// SignInService はサインイン・サインアウトハンドラーが必要とするサービスインターフェース。
type SignInService interface {
	SignIn(ctx context.Context, login, password string) (*model.AuthSession, error)
	SignOut(ctx context.Context, accessToken string)
}

// SessionStore はセッションIDの再発行と破棄に必要なインターフェース。
type SessionStore interface {
	Rotate(ctx context.Context, w http.ResponseWriter, sess *session.Session) error
	Destroy(ctx context.Context, w http.ResponseWriter, sess *session.Session) error
}

// AuthHandler はサインイン・サインアウトのHTTPハンドラー。
type AuthHandler struct {
	service  SignInService
	store    SessionStore
	renderer *render.Renderer
	mode     string
}

// NewAuthHandler はAuthHandlerを生成する。modeはauth.ProviderLocalまたはauth.ProviderSupabase。
func NewAuthHandler(service SignInService, store SessionStore, renderer *render.Renderer, mode string) *AuthHandler {
	return &AuthHandler{
		service:  service,
		store:    store,
		renderer: renderer,
		mode:     mode,
	}
}

// LoginForm はサインインフォームを表示する。サインイン済みの場合はダッシュボードに移動する。
// GET /login
func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	if sess := session.FromContext(r.Context()); sess != nil && sess.Record.Identity != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	h.renderer.SignInPage(w, r, http.StatusOK, "", "")
}

// Login はサインインを処理する。
// POST /login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	login := r.FormValue(h.loginField())
	password := r.FormValue("password")

	// 1. サインイン（入力形式の検証はプロバイダー呼び出し前に行われる）
	authSession, err := h.service.SignIn(r.Context(), login, password)
	if err != nil {
		var apiErr *model.APIError
		switch {
		case errors.Is(err, auth.ErrInvalidInput) && errors.As(err, &apiErr):
			h.renderer.SignInPage(w, r, http.StatusBadRequest, login, apiErr.Message)
		case errors.As(err, &apiErr):
			h.renderer.SignInPage(w, r, http.StatusUnauthorized, login, apiErr.Message)
		default:
			h.renderer.SignInPage(w, r, http.StatusBadGateway, login, "ไม่สามารถเชื่อมต่อระบบยืนยันตัวตนได้ กรุณาลองใหม่อีกครั้ง")
		}
		return
	}

	// 2. Session Recordに反映し、キャッシュ済みロールを無効化
	sess := session.FromContext(r.Context())
	if sess == nil {
		sess = &session.Session{}
	}
	sess.Record.SignIn(authSession)

	// 3. セッション固定攻撃対策としてセッションIDを再発行
	if err := h.store.Rotate(r.Context(), w, sess); err != nil {
		slog.Error("failed to rotate session", slog.String("error", err.Error()))
		h.renderer.RenderError(w, r, http.StatusInternalServerError, "ไม่สามารถบันทึกการเข้าสู่ระบบได้ กรุณาลองใหม่อีกครั้ง")
		return
	}

	// 4. 次の描画パスで認証済み状態を表示
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Logout はサインアウトを処理する。
// プロバイダー側の失効に失敗してもSession Recordは全て破棄する。
// POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if sess == nil {
		sess = &session.Session{}
	}

	if sess.Record.AccessToken != "" {
		h.service.SignOut(r.Context(), sess.Record.AccessToken)
	}

	if err := h.store.Destroy(r.Context(), w, sess); err != nil {
		slog.Error("failed to destroy session", slog.String("error", err.Error()))
	}

	http.Redirect(w, r, "/login?signed_out=1", http.StatusSeeOther)
}

func (h *AuthHandler) loginField() string {
	if h.mode == auth.ProviderSupabase {
		return "email"
	}
	return "username"
}
