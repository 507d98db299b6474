package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dhi/telemed/internal/model"
	"github.com/dhi/telemed/internal/render"
)

// AdminServiceInterface は管理者アカウント管理ハンドラーが必要とするサービスインターフェース。
type AdminServiceInterface interface {
	List(ctx context.Context) ([]*model.Admin, error)
	Create(ctx context.Context, username, password string) (*model.Admin, error)
	ChangePassword(ctx context.Context, id, newPassword string) error
	Delete(ctx context.Context, id string) error
}

// AdminHandler は管理者アカウント管理ページのHTTPハンドラー。
type AdminHandler struct {
	service  AdminServiceInterface
	renderer *render.Renderer
}

// NewAdminHandler はAdminHandlerを生成する。
func NewAdminHandler(service AdminServiceInterface, renderer *render.Renderer) *AdminHandler {
	return &AdminHandler{
		service:  service,
		renderer: renderer,
	}
}

// List は管理者一覧を表示する。
// GET /admin/admins
func (h *AdminHandler) List(w http.ResponseWriter, r *http.Request) {
	h.page(w, r, http.StatusOK, "", "")
}

// Create は管理者アカウントを追加する。
// POST /admin/admins
func (h *AdminHandler) Create(w http.ResponseWriter, r *http.Request) {
	username := r.FormValue("username")
	if _, err := h.service.Create(r.Context(), username, r.FormValue("password")); err != nil {
		h.page(w, r, statusForError(err), username, errorMessage(err))
		return
	}
	h.renderer.Redirect(w, r, "/admin/admins", "เพิ่มผู้ดูแลระบบเรียบร้อยแล้ว")
}

// ChangePassword は管理者のパスワードを変更する。
// POST /admin/admins/{id}/password
func (h *AdminHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ChangePassword(r.Context(), chi.URLParam(r, "id"), r.FormValue("password")); err != nil {
		h.page(w, r, statusForError(err), "", errorMessage(err))
		return
	}
	h.renderer.Redirect(w, r, "/admin/admins", "เปลี่ยนรหัสผ่านเรียบร้อยแล้ว")
}

// Delete は管理者アカウントを削除する。
// POST /admin/admins/{id}/delete
func (h *AdminHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.page(w, r, statusForError(err), "", errorMessage(err))
		return
	}
	h.renderer.Redirect(w, r, "/admin/admins", "ลบผู้ดูแลระบบเรียบร้อยแล้ว")
}

func (h *AdminHandler) page(w http.ResponseWriter, r *http.Request, status int, username, errMsg string) {
	admins, err := h.service.List(r.Context())
	if err != nil && errMsg == "" {
		status = statusForError(err)
		errMsg = errorMessage(err)
	}

	v := h.renderer.NewView(r, "จัดการผู้ดูแลระบบ", "admins")
	v.Error = errMsg
	v.Data = render.AdminsData{Admins: admins, Username: username}
	h.renderer.Page(w, r, status, "admins", v)
}
