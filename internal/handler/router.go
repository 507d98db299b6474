package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/dhi/telemed/internal/middleware"
	"github.com/dhi/telemed/internal/model"
	"github.com/dhi/telemed/internal/render"
)

// Gatekeeper は保護されたルートの前段に置く認可ミドルウェアを提供する。
type Gatekeeper interface {
	Require(required ...string) func(next http.Handler) http.Handler
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger             *slog.Logger
	SessionLoader      middleware.SessionLoader
	CSRF               middleware.CSRFConfig
	CORSAllowedOrigins []string
	RateLimiter        *middleware.RateLimiter
	ShowDiagnostics    bool

	// 運用
	HealthChecker HealthChecker
	Metrics       http.Handler

	// 認証・認可
	Gate          Gatekeeper
	Renderer      *render.Renderer
	SignIn        SignInService
	SessionStore  SessionStore
	AuthMode      string

	// ダッシュボード
	ReportService ReportService

	// 管理
	HospitalService    HospitalServiceInterface
	TransactionService TransactionServiceInterface
	AdminService       AdminServiceInterface
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RequestID → RealIP → Recovery → SecurityHeaders → Session → Logging → CSRF
//
// ダッシュボードと管理ページには更に RateLimit(General) → Gate を適用する。
// サインインのPOSTにはRateLimit(Login)を適用する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.NewRecoveryMiddleware(deps.ShowDiagnostics))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewSessionMiddleware(deps.SessionLoader))
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(middleware.NewCSRFMiddleware(deps.CSRF))

	authHandler := NewAuthHandler(deps.SignIn, deps.SessionStore, deps.Renderer, deps.AuthMode)
	dashboardHandler := NewDashboardHandler(deps.ReportService, deps.Renderer)
	hospitalHandler := NewHospitalHandler(deps.HospitalService, deps.Renderer)
	transactionHandler := NewTransactionHandler(deps.TransactionService, deps.HospitalService, deps.Renderer)
	adminHandler := NewAdminHandler(deps.AdminService, deps.Renderer)

	// --- 認証不要のルート ---
	r.Get("/health", NewHealthHandler(deps.HealthChecker))
	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics)
	}

	r.Get("/login", authHandler.LoginForm)
	r.With(deps.RateLimiter.LoginMiddleware()).Post("/login", authHandler.Login)
	r.Post("/auth/logout", authHandler.Logout)

	// --- 認証が必要なルート ---
	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// ダッシュボード（ロール不要、サインインのみ）
		r.Group(func(r chi.Router) {
			r.Use(deps.Gate.Require())
			r.Get("/", dashboardHandler.Dashboard)
			r.Get("/export/{kind}", dashboardHandler.Export)
		})

		// 集計API（CORS対応）
		r.Route("/api", func(r chi.Router) {
			r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigins))
			r.Use(deps.Gate.Require())
			r.Get("/report", dashboardHandler.Report)
		})

		// 管理ページ（adminロールが必要）
		r.Route("/admin", func(r chi.Router) {
			r.Use(deps.Gate.Require(model.RoleAdmin))

			r.Route("/hospitals", func(r chi.Router) {
				r.Get("/", hospitalHandler.List)
				r.Post("/", hospitalHandler.Create)
				r.Get("/{id}", hospitalHandler.Edit)
				r.Post("/{id}", hospitalHandler.Update)
				r.Post("/{id}/delete", hospitalHandler.Delete)
			})

			r.Route("/transactions", func(r chi.Router) {
				r.Get("/", transactionHandler.List)
				r.Post("/", transactionHandler.Create)
				r.Post("/import", transactionHandler.Import)
				r.Get("/{id}", transactionHandler.Edit)
				r.Post("/{id}", transactionHandler.Update)
				r.Post("/{id}/delete", transactionHandler.Delete)
			})

			r.Route("/admins", func(r chi.Router) {
				r.Get("/", adminHandler.List)
				r.Post("/", adminHandler.Create)
				r.Post("/{id}/password", adminHandler.ChangePassword)
				r.Post("/{id}/delete", adminHandler.Delete)
			})
		})
	})

	return r
}
