package repository

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dhi/telemed/internal/model"
	"github.com/dhi/telemed/internal/supabase"
)

func newTestSupabaseClient(t *testing.T, handler http.HandlerFunc) *supabase.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return supabase.NewClient(supabase.Options{
		URL:        server.URL,
		APIKey:     "service-key",
		HTTPClient: server.Client(),
	})
}

func TestSupabaseRepos_ImplementInterfaces(t *testing.T) {
	var _ AdminRepository = (*SupabaseAdminRepo)(nil)
	var _ RoleRepository = (*SupabaseRoleRepo)(nil)
	var _ HospitalRepository = (*SupabaseHospitalRepo)(nil)
	var _ TransactionRepository = (*SupabaseTransactionRepo)(nil)
}

func TestSupabaseAdminRepo_FindByUsername_CaseInsensitive(t *testing.T) {
	client := newTestSupabaseClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":"a-1","username":"Telemed","password_hash":"hash"}]`))
	})
	repo := NewSupabaseAdminRepo(client)

	admin, err := repo.FindByUsername(context.Background(), "telemed")
	if err != nil {
		t.Fatalf("FindByUsername がエラーを返した: %v", err)
	}
	if admin == nil || admin.ID != "a-1" {
		t.Fatalf("admin = %+v, want a-1", admin)
	}
	if admin.PasswordHash != "hash" {
		t.Errorf("PasswordHash = %q, want hash", admin.PasswordHash)
	}

	missing, err := repo.FindByUsername(context.Background(), "other")
	if err != nil {
		t.Fatalf("FindByUsername がエラーを返した: %v", err)
	}
	if missing != nil {
		t.Errorf("missing = %+v, want nil", missing)
	}
}

func TestSupabaseRoleRepo_ListRoles(t *testing.T) {
	client := newTestSupabaseClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("user_id"); got != "eq.u-1" {
			t.Errorf("user_id filter = %q, want eq.u-1", got)
		}
		w.Write([]byte(`[{"role":"admin"},{"role":"user"}]`))
	})

	roles, err := NewSupabaseRoleRepo(client).ListRoles(context.Background(), "u-1")
	if err != nil {
		t.Fatalf("ListRoles がエラーを返した: %v", err)
	}
	if len(roles) != 2 || roles[0] != "admin" || roles[1] != "user" {
		t.Errorf("roles = %v, want [admin user]", roles)
	}
}

func TestSupabaseRoleRepo_Grant_IgnoresDuplicates(t *testing.T) {
	client := newTestSupabaseClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("on_conflict"); got != "user_id,role" {
			t.Errorf("on_conflict = %q, want user_id,role", got)
		}
		if got := r.Header.Get("Prefer"); got != "resolution=ignore-duplicates,return=minimal" {
			t.Errorf("Prefer = %q", got)
		}
		w.WriteHeader(http.StatusCreated)
	})

	if err := NewSupabaseRoleRepo(client).Grant(context.Background(), "u-1", "admin"); err != nil {
		t.Fatalf("Grant がエラーを返した: %v", err)
	}
}

func TestSupabaseHospitalRepo_FindByID_NotFoundReturnsNil(t *testing.T) {
	client := newTestSupabaseClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})

	h, err := NewSupabaseHospitalRepo(client).FindByID(context.Background(), "missing")
	if err != nil {
		t.Fatalf("FindByID がエラーを返した: %v", err)
	}
	if h != nil {
		t.Errorf("hospital = %+v, want nil", h)
	}
}

func TestSupabaseHospitalRepo_Update_SendsPatch(t *testing.T) {
	client := newTestSupabaseClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Errorf("HTTPメソッド = %s, want PATCH", r.Method)
		}
		if got := r.URL.Query().Get("id"); got != "eq.h-1" {
			t.Errorf("id filter = %q, want eq.h-1", got)
		}
		body, _ := io.ReadAll(r.Body)
		var patch map[string]any
		json.Unmarshal(body, &patch)
		if patch["region"] != "ภาคใต้" {
			t.Errorf("region = %v, want ภาคใต้", patch["region"])
		}
		if _, ok := patch["id"]; ok {
			t.Error("patch should not contain id")
		}
		w.WriteHeader(http.StatusNoContent)
	})

	err := NewSupabaseHospitalRepo(client).Update(context.Background(), &model.Hospital{
		ID: "h-1", Name: "รพ.ทดสอบ", Province: "ภูเก็ต", Region: "ภาคใต้",
	})
	if err != nil {
		t.Fatalf("Update がエラーを返した: %v", err)
	}
}

func TestSupabaseTransactionRepo_CreateBatch_SingleRequest(t *testing.T) {
	requests := 0
	client := newTestSupabaseClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		body, _ := io.ReadAll(r.Body)
		var rows []map[string]any
		if err := json.Unmarshal(body, &rows); err != nil {
			t.Fatalf("body should be a JSON array: %v", err)
		}
		if len(rows) != 2 {
			t.Errorf("rows = %d, want 2", len(rows))
		}
		w.WriteHeader(http.StatusCreated)
	})

	err := NewSupabaseTransactionRepo(client).CreateBatch(context.Background(), []*model.Transaction{
		{ID: "t-1", HospitalID: "h-1", Date: "2024-01-01", TransactionsCount: 3},
		{ID: "t-2", HospitalID: "h-1", Date: "2024-01-02", TransactionsCount: 4},
	})
	if err != nil {
		t.Fatalf("CreateBatch がエラーを返した: %v", err)
	}
	if requests != 1 {
		t.Errorf("requests = %d, want 1", requests)
	}
}
