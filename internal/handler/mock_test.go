package handler

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/dhi/telemed/internal/auth"
	"github.com/dhi/telemed/internal/hospital"
	"github.com/dhi/telemed/internal/model"
	"github.com/dhi/telemed/internal/render"
	"github.com/dhi/telemed/internal/report"
	"github.com/dhi/telemed/internal/session"
	"github.com/dhi/telemed/internal/transaction"
)

// --- モック定義 ---

type mockSignInService struct {
	signInFn     func(ctx context.Context, login, password string) (*model.AuthSession, error)
	signInCalls  int
	signedOutTok []string
}

func (m *mockSignInService) SignIn(ctx context.Context, login, password string) (*model.AuthSession, error) {
	m.signInCalls++
	if m.signInFn != nil {
		return m.signInFn(ctx, login, password)
	}
	return nil, nil
}

func (m *mockSignInService) SignOut(_ context.Context, accessToken string) {
	m.signedOutTok = append(m.signedOutTok, accessToken)
}

type mockSessionStore struct {
	rotateFn  func(ctx context.Context, w http.ResponseWriter, sess *session.Session) error
	destroyed int
	rotated   int
}

func (m *mockSessionStore) Rotate(ctx context.Context, w http.ResponseWriter, sess *session.Session) error {
	m.rotated++
	if m.rotateFn != nil {
		return m.rotateFn(ctx, w, sess)
	}
	sess.ID = "rotated-session"
	return nil
}

func (m *mockSessionStore) Destroy(_ context.Context, _ http.ResponseWriter, sess *session.Session) error {
	m.destroyed++
	sess.ID = ""
	sess.Record.Clear()
	return nil
}

func (m *mockSessionStore) Save(_ context.Context, _ http.ResponseWriter, _ *session.Session) error {
	return nil
}

type mockReportService struct {
	dashboardFn func(ctx context.Context, q url.Values) (*report.Report, error)
	namesFn     func(ctx context.Context) ([]string, error)
}

func (m *mockReportService) Dashboard(ctx context.Context, q url.Values) (*report.Report, error) {
	if m.dashboardFn != nil {
		return m.dashboardFn(ctx, q)
	}
	return report.Build(report.Filter{}, nil, nil), nil
}

func (m *mockReportService) HospitalNames(ctx context.Context) ([]string, error) {
	if m.namesFn != nil {
		return m.namesFn(ctx)
	}
	return nil, nil
}

type mockHospitalService struct {
	listFn   func(ctx context.Context) ([]*model.Hospital, error)
	getFn    func(ctx context.Context, id string) (*model.Hospital, error)
	createFn func(ctx context.Context, in hospital.Input) (*model.Hospital, error)
	updateFn func(ctx context.Context, id string, in hospital.Input) (*model.Hospital, error)
	deleteFn func(ctx context.Context, id string) error
}

func (m *mockHospitalService) List(ctx context.Context) ([]*model.Hospital, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockHospitalService) Get(ctx context.Context, id string) (*model.Hospital, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, model.NewHospitalNotFoundError(id)
}

func (m *mockHospitalService) Create(ctx context.Context, in hospital.Input) (*model.Hospital, error) {
	if m.createFn != nil {
		return m.createFn(ctx, in)
	}
	return &model.Hospital{ID: "h-new"}, nil
}

func (m *mockHospitalService) Update(ctx context.Context, id string, in hospital.Input) (*model.Hospital, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, in)
	}
	return &model.Hospital{ID: id}, nil
}

func (m *mockHospitalService) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

type mockTransactionService struct {
	listFn   func(ctx context.Context) ([]transaction.Entry, error)
	getFn    func(ctx context.Context, id string) (*model.Transaction, error)
	createFn func(ctx context.Context, in transaction.Input) (*model.Transaction, error)
	updateFn func(ctx context.Context, id string, in transaction.Input) (*model.Transaction, error)
	deleteFn func(ctx context.Context, id string) error
	importFn func(ctx context.Context, r io.Reader) (int, error)
}

func (m *mockTransactionService) List(ctx context.Context) ([]transaction.Entry, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockTransactionService) Get(ctx context.Context, id string) (*model.Transaction, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, model.NewTransactionNotFoundError(id)
}

func (m *mockTransactionService) Create(ctx context.Context, in transaction.Input) (*model.Transaction, error) {
	if m.createFn != nil {
		return m.createFn(ctx, in)
	}
	return &model.Transaction{ID: "t-new"}, nil
}

func (m *mockTransactionService) Update(ctx context.Context, id string, in transaction.Input) (*model.Transaction, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, in)
	}
	return &model.Transaction{ID: id}, nil
}

func (m *mockTransactionService) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockTransactionService) Import(ctx context.Context, r io.Reader) (int, error) {
	if m.importFn != nil {
		return m.importFn(ctx, r)
	}
	return 0, nil
}

type mockAdminService struct {
	listFn           func(ctx context.Context) ([]*model.Admin, error)
	createFn         func(ctx context.Context, username, password string) (*model.Admin, error)
	changePasswordFn func(ctx context.Context, id, password string) error
	deleteFn         func(ctx context.Context, id string) error
}

func (m *mockAdminService) List(ctx context.Context) ([]*model.Admin, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockAdminService) Create(ctx context.Context, username, password string) (*model.Admin, error) {
	if m.createFn != nil {
		return m.createFn(ctx, username, password)
	}
	return &model.Admin{ID: "a-new", Username: username}, nil
}

func (m *mockAdminService) ChangePassword(ctx context.Context, id, password string) error {
	if m.changePasswordFn != nil {
		return m.changePasswordFn(ctx, id, password)
	}
	return nil
}

func (m *mockAdminService) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

// --- テストヘルパー ---

func newTestRenderer(t *testing.T, mode string) *render.Renderer {
	t.Helper()
	r, err := render.New(render.Options{AuthMode: mode, Store: &mockSessionStore{}})
	if err != nil {
		t.Fatalf("render.New failed: %v", err)
	}
	return r
}

func newLocalRenderer(t *testing.T) *render.Renderer {
	t.Helper()
	return newTestRenderer(t, auth.ProviderLocal)
}

// withSession はテスト用にリクエストコンテキストにセッションを注入するヘルパー。
func withSession(r *http.Request, sess *session.Session) *http.Request {
	return r.WithContext(session.NewContext(r.Context(), sess))
}

// signedInSession はサインイン済みのセッションを生成する。
func signedInSession(roles ...string) *session.Session {
	sess := &session.Session{ID: "sess-1"}
	sess.Record.Identity = &model.Identity{ID: "user-1", Name: "telemed"}
	sess.Record.Roles = model.NewRoleSet(roles...)
	return sess
}

// withChiURLParam はテスト用にchiのURLパラメータを注入するヘルパー。
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	ctx := context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
	return r.WithContext(ctx)
}

// formRequest はフォーム送信のリクエストを生成する。
func formRequest(target string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}
