package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/dhi/telemed/internal/model"
	"github.com/dhi/telemed/internal/render"
	"github.com/dhi/telemed/internal/report"
)

// ReportService はダッシュボードハンドラーが必要とするサービスインターフェース。
type ReportService interface {
	Dashboard(ctx context.Context, q url.Values) (*report.Report, error)
	HospitalNames(ctx context.Context) ([]string, error)
}

// DashboardHandler はダッシュボード・CSVダウンロード・集計APIのHTTPハンドラー。
type DashboardHandler struct {
	service  ReportService
	renderer *render.Renderer
}

// NewDashboardHandler はDashboardHandlerを生成する。
func NewDashboardHandler(service ReportService, renderer *render.Renderer) *DashboardHandler {
	return &DashboardHandler{
		service:  service,
		renderer: renderer,
	}
}

// Dashboard は絞り込み条件に応じたKPI・グラフ・表を表示する。
// GET /?start=&end=&hospital=&site=&region=&preset=
func (h *DashboardHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	rep, err := h.service.Dashboard(r.Context(), r.URL.Query())
	if err != nil {
		h.renderer.RenderError(w, r, statusForError(err), errorMessage(err))
		return
	}

	names, err := h.service.HospitalNames(r.Context())
	if err != nil {
		h.renderer.RenderError(w, r, statusForError(err), errorMessage(err))
		return
	}

	figures, err := rep.FiguresJS()
	if err != nil {
		slog.Error("failed to encode figures", slog.String("error", err.Error()))
		h.renderer.RenderError(w, r, http.StatusInternalServerError, "ไม่สามารถสร้างกราฟได้")
		return
	}

	v := h.renderer.NewView(r, "Telemedicine Dashboard", "dashboard")
	v.Data = render.DashboardData{
		Report:    rep,
		Hospitals: names,
		Figures:   figures,
		Presets:   render.DashboardPresets,
		Sites:     model.SiteControlChoices,
		Regions:   model.Regions(),
	}
	h.renderer.Page(w, r, http.StatusOK, "dashboard", v)
}

// Export は絞り込み後の集計結果をCSVでダウンロードさせる。
// GET /export/{kind}
func (h *DashboardHandler) Export(w http.ResponseWriter, r *http.Request) {
	kind, ok := report.ParseExportKind(chi.URLParam(r, "kind"))
	if !ok {
		h.renderer.RenderError(w, r, http.StatusNotFound, "ไม่พบไฟล์ที่ต้องการดาวน์โหลด")
		return
	}

	rep, err := h.service.Dashboard(r.Context(), r.URL.Query())
	if err != nil {
		h.renderer.RenderError(w, r, statusForError(err), errorMessage(err))
		return
	}

	var buf bytes.Buffer
	if err := report.WriteCSV(&buf, kind, rep); err != nil {
		slog.Error("failed to write csv",
			slog.String("kind", string(kind)),
			slog.String("error", err.Error()),
		)
		h.renderer.RenderError(w, r, http.StatusInternalServerError, "ไม่สามารถสร้างไฟล์ CSV ได้")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+kind.FileName()+`"`)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// Report は集計結果をJSONで返す。
// GET /api/report
func (h *DashboardHandler) Report(w http.ResponseWriter, r *http.Request) {
	rep, err := h.service.Dashboard(r.Context(), r.URL.Query())
	if err != nil {
		writeAPIError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rep)
}
