package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dhi/telemed/internal/hospital"
	"github.com/dhi/telemed/internal/model"
	"github.com/dhi/telemed/internal/render"
)

// HospitalServiceInterface は病院管理ハンドラーが必要とするサービスインターフェース。
type HospitalServiceInterface interface {
	List(ctx context.Context) ([]*model.Hospital, error)
	Get(ctx context.Context, id string) (*model.Hospital, error)
	Create(ctx context.Context, in hospital.Input) (*model.Hospital, error)
	Update(ctx context.Context, id string, in hospital.Input) (*model.Hospital, error)
	Delete(ctx context.Context, id string) error
}

// HospitalHandler は病院管理ページのHTTPハンドラー。
type HospitalHandler struct {
	service  HospitalServiceInterface
	renderer *render.Renderer
}

// NewHospitalHandler はHospitalHandlerを生成する。
func NewHospitalHandler(service HospitalServiceInterface, renderer *render.Renderer) *HospitalHandler {
	return &HospitalHandler{
		service:  service,
		renderer: renderer,
	}
}

// List は病院一覧と新規登録フォームを表示する。
// GET /admin/hospitals
func (h *HospitalHandler) List(w http.ResponseWriter, r *http.Request) {
	h.page(w, r, http.StatusOK, nil, "")
}

// Edit は病院の編集フォームを表示する。
// GET /admin/hospitals/{id}
func (h *HospitalHandler) Edit(w http.ResponseWriter, r *http.Request) {
	hosp, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.page(w, r, statusForError(err), nil, errorMessage(err))
		return
	}
	h.page(w, r, http.StatusOK, hosp, "")
}

// Create は病院を登録する。
// POST /admin/hospitals
func (h *HospitalHandler) Create(w http.ResponseWriter, r *http.Request) {
	in, err := hospitalInputFromForm(r)
	if err == nil {
		_, err = h.service.Create(r.Context(), in)
	}
	if err != nil {
		h.page(w, r, statusForError(err), formHospital("", in), errorMessage(err))
		return
	}
	h.renderer.Redirect(w, r, "/admin/hospitals", "เพิ่มโรงพยาบาลเรียบร้อยแล้ว")
}

// Update は病院を更新する。
// POST /admin/hospitals/{id}
func (h *HospitalHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	in, err := hospitalInputFromForm(r)
	if err == nil {
		_, err = h.service.Update(r.Context(), id, in)
	}
	if err != nil {
		h.page(w, r, statusForError(err), formHospital(id, in), errorMessage(err))
		return
	}
	h.renderer.Redirect(w, r, "/admin/hospitals", "บันทึกการแก้ไขเรียบร้อยแล้ว")
}

// Delete は病院と紐付くTransactionを削除する。
// POST /admin/hospitals/{id}/delete
func (h *HospitalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.page(w, r, statusForError(err), nil, errorMessage(err))
		return
	}
	h.renderer.Redirect(w, r, "/admin/hospitals", "ลบโรงพยาบาลเรียบร้อยแล้ว")
}

// page は病院一覧とフォームを描画する。一覧の取得に失敗した場合もフォームは表示する。
func (h *HospitalHandler) page(w http.ResponseWriter, r *http.Request, status int, form *model.Hospital, errMsg string) {
	hospitals, err := h.service.List(r.Context())
	if err != nil && errMsg == "" {
		status = statusForError(err)
		errMsg = errorMessage(err)
	}

	v := h.renderer.NewView(r, "จัดการโรงพยาบาล", "hospitals")
	v.Error = errMsg
	v.Data = render.NewHospitalsData(hospitals, form)
	h.renderer.Page(w, r, status, "hospitals", v)
}

// hospitalInputFromForm はフォームの値をhospital.Inputに変換する。
func hospitalInputFromForm(r *http.Request) (hospital.Input, error) {
	if err := r.ParseForm(); err != nil {
		return hospital.Input{}, model.NewInvalidInputError("ไม่สามารถอ่านข้อมูลฟอร์มได้")
	}

	in := hospital.Input{
		Name:          r.PostForm.Get("name"),
		Province:      r.PostForm.Get("province"),
		SiteControl:   r.PostForm.Get("site_control"),
		SystemType:    r.PostForm.Get("system_type"),
		ServiceModels: r.PostForm["service_models"],
	}

	riders, err := parseCount(r.PostForm.Get("riders_count"))
	if err != nil {
		return in, model.NewInvalidInputError("จำนวน Rider ต้องเป็นตัวเลข")
	}
	in.RidersCount = riders
	return in, nil
}

// formHospital は入力エラー時にフォームへ再表示する値を組み立てる。
func formHospital(id string, in hospital.Input) *model.Hospital {
	return &model.Hospital{
		ID:            id,
		Name:          in.Name,
		Province:      in.Province,
		SiteControl:   in.SiteControl,
		SystemType:    in.SystemType,
		ServiceModels: in.ServiceModels,
		RidersCount:   in.RidersCount,
	}
}

// parseCount は数値入力を解析する。空欄は0として扱う。
func parseCount(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}
