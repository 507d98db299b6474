package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/dhi/telemed/internal/model"
	"github.com/dhi/telemed/internal/report"
)

func sampleReport() *report.Report {
	f := report.Filter{
		Start: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
	}
	hospitals := []*model.Hospital{
		{ID: "h1", Name: "รพ.ขอนแก่น", Province: "ขอนแก่น", Region: "ภาคตะวันออกเฉียงเหนือ", SiteControl: "ทีมอีสาน", RidersCount: 4},
	}
	txs := []*model.Transaction{
		{ID: "t1", HospitalID: "h1", Date: "2024-03-02", TransactionsCount: 40, RidersActive: 2},
		{ID: "t2", HospitalID: "h1", Date: "2024-03-03", TransactionsCount: 60, RidersActive: 3},
	}
	return report.Build(f, hospitals, txs)
}

func TestDashboardHandler_Dashboard(t *testing.T) {
	var gotQuery url.Values
	svc := &mockReportService{
		dashboardFn: func(_ context.Context, q url.Values) (*report.Report, error) {
			gotQuery = q
			return sampleReport(), nil
		},
		namesFn: func(context.Context) ([]string, error) {
			return []string{"รพ.ขอนแก่น"}, nil
		},
	}
	h := NewDashboardHandler(svc, newLocalRenderer(t))

	req := withSession(httptest.NewRequest(http.MethodGet, "/?preset=30d", nil), signedInSession())
	w := httptest.NewRecorder()

	h.Dashboard(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if gotQuery.Get("preset") != "30d" {
		t.Errorf("query preset = %q, want 30d", gotQuery.Get("preset"))
	}
	body := w.Body.String()
	for _, want := range []string{"รพ.ขอนแก่น", "fig-hospital", "/export/by_month.csv"} {
		if !strings.Contains(body, want) {
			t.Errorf("body does not contain %q", want)
		}
	}
	if n := strings.Count(body, "btn_logout_"); n != 1 {
		t.Errorf("logout buttons = %d, want 1", n)
	}
}

func TestDashboardHandler_Dashboard_BackendError(t *testing.T) {
	svc := &mockReportService{
		dashboardFn: func(context.Context, url.Values) (*report.Report, error) {
			return nil, errors.New("backend timeout")
		},
	}
	h := NewDashboardHandler(svc, newLocalRenderer(t))

	req := withSession(httptest.NewRequest(http.MethodGet, "/", nil), signedInSession())
	w := httptest.NewRecorder()

	h.Dashboard(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
	if !strings.Contains(w.Body.String(), "backend timeout") {
		t.Error("エラー内容がページに表示されていない")
	}
}

func TestDashboardHandler_Export(t *testing.T) {
	svc := &mockReportService{
		dashboardFn: func(context.Context, url.Values) (*report.Report, error) {
			return sampleReport(), nil
		},
	}
	h := NewDashboardHandler(svc, newLocalRenderer(t))

	t.Run("by hospital", func(t *testing.T) {
		req := withChiURLParam(httptest.NewRequest(http.MethodGet, "/export/by_hospital.csv", nil), "kind", "by_hospital.csv")
		w := httptest.NewRecorder()

		h.Export(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
		}
		if got := w.Header().Get("Content-Type"); got != "text/csv; charset=utf-8" {
			t.Errorf("Content-Type = %q", got)
		}
		if got := w.Header().Get("Content-Disposition"); !strings.Contains(got, "by_hospital.csv") {
			t.Errorf("Content-Disposition = %q", got)
		}
		body := w.Body.String()
		if !strings.HasPrefix(body, "\ufeff") {
			t.Error("CSV should start with BOM")
		}
		if !strings.Contains(body, "รพ.ขอนแก่น,100") {
			t.Errorf("unexpected csv: %s", body)
		}
	})

	t.Run("unknown kind", func(t *testing.T) {
		req := withChiURLParam(httptest.NewRequest(http.MethodGet, "/export/secrets.csv", nil), "kind", "secrets.csv")
		w := httptest.NewRecorder()

		h.Export(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
		}
	})
}

func TestDashboardHandler_Report(t *testing.T) {
	svc := &mockReportService{
		dashboardFn: func(context.Context, url.Values) (*report.Report, error) {
			return sampleReport(), nil
		},
	}
	h := NewDashboardHandler(svc, newLocalRenderer(t))

	req := httptest.NewRequest(http.MethodGet, "/api/report", nil)
	w := httptest.NewRecorder()

	h.Report(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var got struct {
		KPIs report.KPIs `json:"kpis"`
	}
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if got.KPIs.TotalTransactions != 100 || got.KPIs.RidersActive != 5 {
		t.Errorf("KPIs = %+v", got.KPIs)
	}
}

func TestDashboardHandler_Report_Error(t *testing.T) {
	svc := &mockReportService{
		dashboardFn: func(context.Context, url.Values) (*report.Report, error) {
			return nil, errors.New("boom")
		},
	}
	h := NewDashboardHandler(svc, newLocalRenderer(t))

	w := httptest.NewRecorder()
	h.Report(w, httptest.NewRequest(http.MethodGet, "/api/report", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
	var body map[string]string
	json.NewDecoder(w.Body).Decode(&body)
	if body["code"] != "INTERNAL_ERROR" {
		t.Errorf("code = %q, want INTERNAL_ERROR", body["code"])
	}
}
