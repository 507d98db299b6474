package handler

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/dhi/telemed/internal/hospital"
	"github.com/dhi/telemed/internal/model"
	"github.com/dhi/telemed/internal/transaction"
)

// --- 病院 ---

func TestHospitalHandler_Create(t *testing.T) {
	var got hospital.Input
	svc := &mockHospitalService{
		createFn: func(_ context.Context, in hospital.Input) (*model.Hospital, error) {
			got = in
			return &model.Hospital{ID: "h1"}, nil
		},
	}
	h := NewHospitalHandler(svc, newLocalRenderer(t))

	form := url.Values{
		"name":           {"รพ.ภูเก็ต"},
		"province":       {"ภูเก็ต"},
		"site_control":   {"ทีมใต้"},
		"system_type":    {"HOSxpV4"},
		"service_models": {"Rider", "App"},
		"riders_count":   {"6"},
	}
	req := withSession(formRequest("/admin/hospitals", form), signedInSession(model.RoleAdmin))
	w := httptest.NewRecorder()

	h.Create(w, req)

	if w.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusSeeOther)
	}
	if got.Name != "รพ.ภูเก็ต" || got.RidersCount != 6 || len(got.ServiceModels) != 2 {
		t.Errorf("input = %+v", got)
	}
}

func TestHospitalHandler_Create_ValidationError(t *testing.T) {
	svc := &mockHospitalService{
		createFn: func(context.Context, hospital.Input) (*model.Hospital, error) {
			return nil, model.NewInvalidInputError("กรุณากรอกชื่อโรงพยาบาล")
		},
	}
	h := NewHospitalHandler(svc, newLocalRenderer(t))

	req := withSession(formRequest("/admin/hospitals", url.Values{"name": {""}, "province": {"ภูเก็ต"}}), signedInSession(model.RoleAdmin))
	w := httptest.NewRecorder()

	h.Create(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	if !strings.Contains(w.Body.String(), "กรุณากรอกชื่อโรงพยาบาล") {
		t.Error("検証エラーが表示されていない")
	}
}

func TestHospitalHandler_Create_NonNumericRiders(t *testing.T) {
	svc := &mockHospitalService{
		createFn: func(context.Context, hospital.Input) (*model.Hospital, error) {
			t.Error("Create should not be called")
			return nil, nil
		},
	}
	h := NewHospitalHandler(svc, newLocalRenderer(t))

	req := withSession(formRequest("/admin/hospitals", url.Values{"name": {"x"}, "riders_count": {"abc"}}), signedInSession(model.RoleAdmin))
	w := httptest.NewRecorder()

	h.Create(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestHospitalHandler_Edit_NotFound(t *testing.T) {
	h := NewHospitalHandler(&mockHospitalService{}, newLocalRenderer(t))

	req := httptest.NewRequest(http.MethodGet, "/admin/hospitals/missing", nil)
	req = withChiURLParam(withSession(req, signedInSession(model.RoleAdmin)), "id", "missing")
	w := httptest.NewRecorder()

	h.Edit(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestHospitalHandler_Update_And_Delete(t *testing.T) {
	var updatedID, deletedID string
	svc := &mockHospitalService{
		updateFn: func(_ context.Context, id string, _ hospital.Input) (*model.Hospital, error) {
			updatedID = id
			return &model.Hospital{ID: id}, nil
		},
		deleteFn: func(_ context.Context, id string) error {
			deletedID = id
			return nil
		},
	}
	h := NewHospitalHandler(svc, newLocalRenderer(t))

	req := withChiURLParam(withSession(formRequest("/admin/hospitals/h9", url.Values{"name": {"x"}}), signedInSession(model.RoleAdmin)), "id", "h9")
	w := httptest.NewRecorder()
	h.Update(w, req)
	if w.Code != http.StatusSeeOther || updatedID != "h9" {
		t.Errorf("Update: status = %d, id = %q", w.Code, updatedID)
	}

	req = withChiURLParam(withSession(formRequest("/admin/hospitals/h9/delete", nil), signedInSession(model.RoleAdmin)), "id", "h9")
	w = httptest.NewRecorder()
	h.Delete(w, req)
	if w.Code != http.StatusSeeOther || deletedID != "h9" {
		t.Errorf("Delete: status = %d, id = %q", w.Code, deletedID)
	}
}

// --- Transaction ---

func TestTransactionHandler_Create_CapacityExceeded(t *testing.T) {
	svc := &mockTransactionService{
		createFn: func(_ context.Context, in transaction.Input) (*model.Transaction, error) {
			if in.RidersActive != 9 || in.Date != "2024-05-01" {
				t.Errorf("input = %+v", in)
			}
			return nil, model.NewRiderCapacityExceededError("รพ.ภูเก็ต", 9)
		},
	}
	h := NewTransactionHandler(svc, &mockHospitalService{}, newLocalRenderer(t))

	form := url.Values{
		"hospital_id":        {"h1"},
		"date":               {"2024-05-01"},
		"transactions_count": {"10"},
		"riders_active":      {"9"},
	}
	req := withSession(formRequest("/admin/transactions", form), signedInSession(model.RoleAdmin))
	w := httptest.NewRecorder()

	h.Create(w, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnprocessableEntity)
	}
	if !strings.Contains(w.Body.String(), `value="2024-05-01"`) {
		t.Error("入力した日付が再表示されていない")
	}
}

func TestTransactionHandler_List(t *testing.T) {
	svc := &mockTransactionService{
		listFn: func(context.Context) ([]transaction.Entry, error) {
			return []transaction.Entry{{
				Transaction:  &model.Transaction{ID: "t1", HospitalID: "h1", Date: "2024-05-02", TransactionsCount: 1500},
				HospitalName: "รพ.ภูเก็ต",
			}}, nil
		},
	}
	hospitals := &mockHospitalService{
		listFn: func(context.Context) ([]*model.Hospital, error) {
			return []*model.Hospital{{ID: "h1", Name: "รพ.ภูเก็ต"}}, nil
		},
	}
	h := NewTransactionHandler(svc, hospitals, newLocalRenderer(t))

	req := withSession(httptest.NewRequest(http.MethodGet, "/admin/transactions", nil), signedInSession(model.RoleAdmin))
	w := httptest.NewRecorder()

	h.List(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	body := w.Body.String()
	if !strings.Contains(body, "1,500") || !strings.Contains(body, "/admin/transactions/t1/delete") {
		t.Errorf("unexpected body")
	}
}

func multipartRequest(t *testing.T, target, field, filename, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	io.WriteString(fw, content)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestTransactionHandler_Import(t *testing.T) {
	const csvBody = "hospital_name,date,transactions_count,riders_active\nรพ.ภูเก็ต,2024-05-01,10,2\n"

	t.Run("success", func(t *testing.T) {
		var got string
		svc := &mockTransactionService{
			importFn: func(_ context.Context, r io.Reader) (int, error) {
				b, _ := io.ReadAll(r)
				got = string(b)
				return 1, nil
			},
		}
		h := NewTransactionHandler(svc, &mockHospitalService{}, newLocalRenderer(t))
		sess := signedInSession(model.RoleAdmin)
		req := withSession(multipartRequest(t, "/admin/transactions/import", "file", "tx.csv", csvBody), sess)
		w := httptest.NewRecorder()

		h.Import(w, req)

		if w.Code != http.StatusSeeOther {
			t.Fatalf("status = %d, want %d", w.Code, http.StatusSeeOther)
		}
		if got != csvBody {
			t.Errorf("imported body = %q", got)
		}
		if !strings.Contains(sess.Record.Flash, "1") {
			t.Errorf("flash = %q", sess.Record.Flash)
		}
	})

	t.Run("unknown hospitals", func(t *testing.T) {
		svc := &mockTransactionService{
			importFn: func(context.Context, io.Reader) (int, error) {
				return 0, model.NewUnknownHospitalsError([]string{"รพ.ไม่มีจริง"})
			},
		}
		h := NewTransactionHandler(svc, &mockHospitalService{}, newLocalRenderer(t))
		req := withSession(multipartRequest(t, "/admin/transactions/import", "file", "tx.csv", csvBody), signedInSession(model.RoleAdmin))
		w := httptest.NewRecorder()

		h.Import(w, req)

		if w.Code != http.StatusUnprocessableEntity {
			t.Errorf("status = %d, want %d", w.Code, http.StatusUnprocessableEntity)
		}
		if !strings.Contains(w.Body.String(), "รพ.ไม่มีจริง") {
			t.Error("未登録の病院名が表示されていない")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		h := NewTransactionHandler(&mockTransactionService{}, &mockHospitalService{}, newLocalRenderer(t))
		req := withSession(multipartRequest(t, "/admin/transactions/import", "other", "tx.csv", csvBody), signedInSession(model.RoleAdmin))
		w := httptest.NewRecorder()

		h.Import(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})
}

// --- 管理者 ---

func TestAdminHandler_Create_Duplicate(t *testing.T) {
	svc := &mockAdminService{
		createFn: func(context.Context, string, string) (*model.Admin, error) {
			return nil, model.NewDuplicateUsernameError()
		},
	}
	h := NewAdminHandler(svc, newLocalRenderer(t))

	req := withSession(formRequest("/admin/admins", url.Values{"username": {"telemed"}, "password": {"pw"}}), signedInSession(model.RoleAdmin))
	w := httptest.NewRecorder()

	h.Create(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want %d", w.Code, http.StatusConflict)
	}
	if !strings.Contains(w.Body.String(), `value="telemed"`) {
		t.Error("入力したユーザー名が再表示されていない")
	}
}

func TestAdminHandler_ChangePassword_And_Delete(t *testing.T) {
	var changed, deleted string
	svc := &mockAdminService{
		changePasswordFn: func(_ context.Context, id, pw string) error {
			changed = id + ":" + pw
			return nil
		},
		deleteFn: func(_ context.Context, id string) error {
			deleted = id
			return nil
		},
	}
	h := NewAdminHandler(svc, newLocalRenderer(t))

	req := withChiURLParam(withSession(formRequest("/admin/admins/a1/password", url.Values{"password": {"new-pw"}}), signedInSession(model.RoleAdmin)), "id", "a1")
	w := httptest.NewRecorder()
	h.ChangePassword(w, req)
	if w.Code != http.StatusSeeOther || changed != "a1:new-pw" {
		t.Errorf("ChangePassword: status = %d, changed = %q", w.Code, changed)
	}

	req = withChiURLParam(withSession(formRequest("/admin/admins/a1/delete", nil), signedInSession(model.RoleAdmin)), "id", "a1")
	w = httptest.NewRecorder()
	h.Delete(w, req)
	if w.Code != http.StatusSeeOther || deleted != "a1" {
		t.Errorf("Delete: status = %d, deleted = %q", w.Code, deleted)
	}
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{model.NewInvalidInputError("x"), http.StatusBadRequest},
		{model.NewInvalidCSVError("x"), http.StatusBadRequest},
		{model.NewHospitalNotFoundError("h"), http.StatusNotFound},
		{model.NewDuplicateUsernameError(), http.StatusConflict},
		{model.NewRiderCapacityExceededError("h", 1), http.StatusUnprocessableEntity},
		{io.ErrUnexpectedEOF, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusForError(tt.err); got != tt.want {
			t.Errorf("statusForError(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
