package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/dhi/telemed/internal/access"
	"github.com/dhi/telemed/internal/admin"
	"github.com/dhi/telemed/internal/auth"
	"github.com/dhi/telemed/internal/config"
	"github.com/dhi/telemed/internal/database"
	"github.com/dhi/telemed/internal/handler"
	"github.com/dhi/telemed/internal/hospital"
	"github.com/dhi/telemed/internal/logger"
	"github.com/dhi/telemed/internal/metrics"
	"github.com/dhi/telemed/internal/middleware"
	"github.com/dhi/telemed/internal/render"
	"github.com/dhi/telemed/internal/report"
	"github.com/dhi/telemed/internal/repository"
	"github.com/dhi/telemed/internal/security"
	"github.com/dhi/telemed/internal/session"
	"github.com/dhi/telemed/internal/supabase"
	"github.com/dhi/telemed/internal/transaction"
	"github.com/dhi/telemed/internal/worker/cleanup"
)

// dbPingTimeout は起動時のデータベース疎通確認のタイムアウト。
const dbPingTimeout = 5 * time.Second

// Init はアプリケーションの初期化を行う。
// .envと環境変数からConfigを読み込み、構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. .envを読み込む（存在しなければ何もしない）
	if err := config.LoadDotEnv(); err != nil {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	// 3. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 4. 設定に従ってロガーを再構成する
	logger.Configure(w, logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("base_url", cfg.BaseURL),
		slog.String("auth_mode", cfg.AuthMode),
	)

	switch cmd {
	case CommandWorker:
		return runWorker(cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	case CommandProvision:
		return runProvision(cfg)
	default:
		return runServe(cfg)
	}
}

// openDB はDB接続を開き、疎通を確認する。
func openDB(cfg *config.Config) (*sql.DB, error) {
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := database.Ping(context.Background(), db, dbPingTimeout); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	slog.Info("database connection established")
	return db, nil
}

// backendClients はSupabaseへのクライアントの組。
// anonは利用者のトークンで認可するためのベース、serviceはサーバー側の読み書きに使う。
type backendClients struct {
	anon    *supabase.Client
	service *supabase.Client
}

func newBackendClients(cfg *config.Config, collector metrics.MetricsCollector) backendClients {
	opts := supabase.Options{
		URL:     cfg.SupabaseURL,
		Timeout: cfg.BackendTimeout,
		Logger:  slog.Default(),
		Metrics: collector,
	}

	anonOpts := opts
	anonOpts.APIKey = cfg.SupabaseAnonKey
	serviceOpts := opts
	serviceOpts.APIKey = cfg.SupabaseServiceRoleKey

	return backendClients{
		anon:    supabase.NewClient(anonOpts),
		service: supabase.NewClient(serviceOpts),
	}
}

// server はserveモードで組み立てた依存関係。
type server struct {
	router      http.Handler
	limiter     *middleware.RateLimiter
	provisioner *auth.Provisioner
}

// buildServer は全依存関係をワイヤリングしてHTTPハンドラーを構築する。
// ネットワーク呼び出しは行わない。
func buildServer(cfg *config.Config, db *sql.DB, registry *prometheus.Registry) (*server, error) {
	// 1. メトリクス
	collector := metrics.NewCollector(registry)
	clients := newBackendClients(cfg, collector)

	// 2. リポジトリの初期化
	sessionRepo := repository.NewPostgresSessionRepo(db)
	adminRepo := repository.NewSupabaseAdminRepo(clients.service)
	roleRepo := repository.NewSupabaseRoleRepo(clients.service)
	hospitalRepo := repository.NewSupabaseHospitalRepo(clients.service)
	transactionRepo := repository.NewSupabaseTransactionRepo(clients.service)

	// 3. ドメインサービスの初期化
	sanitizer := security.NewInputSanitizer()
	loader := report.NewLoader(hospitalRepo, transactionRepo, cfg.ReportCacheTTL)
	reportService := report.NewService(loader)
	hospitalService := hospital.NewService(hospitalRepo, sanitizer, loader)
	transactionService := transaction.NewService(transactionRepo, hospitalRepo, loader)
	adminService := admin.NewService(adminRepo, roleRepo, sessionRepo, sanitizer)

	// 4. 認証プロバイダーとロールの取得元
	var (
		provider   auth.Provider
		roleSource access.RoleSourceFactory
	)
	switch cfg.AuthMode {
	case config.AuthModeSupabase:
		provider = auth.NewSupabaseProvider(clients.anon, supabase.NewTokenVerifier(cfg.SupabaseJWTSecret))
		roleSource = func(c *supabase.Client) access.RoleSource {
			return repository.NewSupabaseRoleRepo(c)
		}
	default:
		provider = auth.NewLocalProvider(adminRepo)
		roleSource = func(*supabase.Client) access.RoleSource {
			return roleRepo
		}
	}

	// 5. セッションと描画
	store := session.NewStore(sessionRepo, time.Duration(cfg.SessionMaxAge)*time.Second, session.CookieOptions{
		Secure: cfg.CookieSecure,
		Domain: cfg.CookieDomain,
	})
	renderer, err := render.New(render.Options{AuthMode: cfg.AuthMode, Store: store})
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	// 6. 認証ゲート
	gate := access.NewGate(
		access.NewReattacher(provider, clients.anon, collector),
		access.NewResolver(roleRepo, cfg.AllowAdminEmails, collector),
		roleSource,
		store,
		renderer,
		collector,
	)

	// 7. ルーターの構築
	limiter := middleware.NewRateLimiter(
		middleware.PerMinuteRateLimiterConfig(cfg.RateLimitGeneral, cfg.RateLimitLogin),
	)

	router := handler.NewRouter(&handler.RouterDeps{
		Logger:        slog.Default(),
		SessionLoader: store,
		CSRF: middleware.CSRFConfig{
			CookieSecure: cfg.CookieSecure,
			CookieDomain: cfg.CookieDomain,
		},
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimiter:        limiter,
		ShowDiagnostics:    !cfg.IsProduction(),

		HealthChecker: db,
		Metrics:       metrics.Handler(registry),

		Gate:         gate,
		Renderer:     renderer,
		SignIn:       auth.NewService(provider, collector),
		SessionStore: store,
		AuthMode:     cfg.AuthMode,

		ReportService: reportService,

		HospitalService:    hospitalService,
		TransactionService: transactionService,
		AdminService:       adminService,
	})

	return &server{
		router:      router,
		limiter:     limiter,
		provisioner: auth.NewProvisioner(adminRepo, roleRepo),
	}, nil
}

// newRegistry はプロセスとGoランタイムのメトリクスを含むレジストリを生成する。
func newRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return registry
}

// runServe はWebサーバーモードで起動する。
// 既定の管理者を用意し、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	// 2. 依存関係のワイヤリング
	srv, err := buildServer(cfg, db, newRegistry())
	if err != nil {
		return err
	}
	defer srv.limiter.Stop()

	// 3. 既定の管理者を用意する
	// バックエンドの一時的な障害で起動を止めないよう、失敗はログのみとする
	ctx, cancel := context.WithTimeout(context.Background(), cfg.BackendTimeout)
	if err := srv.provisioner.EnsureDefaultAdmin(ctx, cfg.DefaultAdminUsername, cfg.DefaultAdminPassword); err != nil {
		slog.Warn("default admin provisioning failed", slog.String("error", err.Error()))
	}
	cancel()

	// 4. HTTPサーバーの起動
	httpServer := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      srv.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	listenErr := make(chan error, 1)
	go func() {
		slog.Info("web server starting",
			slog.String("addr", httpServer.Addr),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			listenErr <- err
		}
	}()

	select {
	case <-stop:
	case err := <-listenErr:
		return fmt.Errorf("server listen error: %w", err)
	}
	slog.Info("shutting down web server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("web server stopped gracefully")
	return nil
}

// runWorker はワーカーモードで起動する。
// DB接続を開き、期限切れセッションのクリーンアップを日次で実行する。
// SIGINTまたはSIGTERMシグナルを受信するとシャットダウンする。
func runWorker(cfg *config.Config) error {
	// 1. DB接続
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	// 2. クリーンアップジョブの初期化
	// ワーカーは/metricsを公開しないため、メトリクスはレジストリに記録するのみ
	collector := metrics.NewCollector(prometheus.NewRegistry())
	job := cleanup.NewCleanupJob(db, slog.Default(), collector)

	// グレースフルシャットダウンのためのシグナルハンドリング
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("worker starting",
		slog.Duration("cleanup_interval", cleanup.DefaultInterval),
	)

	// 3. コンテキストがキャンセルされるまでブロックする
	job.Start(ctx, cleanup.DefaultInterval)

	slog.Info("worker stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	version, dirty, err := database.Version(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	slog.Info("database migrations completed successfully",
		slog.Uint64("version", uint64(version)),
		slog.Bool("dirty", dirty),
	)
	return nil
}

// runProvision は既定の管理者アカウントの作成のみを行う。
func runProvision(cfg *config.Config) error {
	clients := newBackendClients(cfg, metrics.NopCollector{})
	provisioner := auth.NewProvisioner(
		repository.NewSupabaseAdminRepo(clients.service),
		repository.NewSupabaseRoleRepo(clients.service),
	)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.BackendTimeout)
	defer cancel()

	if err := provisioner.EnsureDefaultAdmin(ctx, cfg.DefaultAdminUsername, cfg.DefaultAdminPassword); err != nil {
		return fmt.Errorf("provisioning failed: %w", err)
	}

	slog.Info("default admin is ready", slog.String("username", cfg.DefaultAdminUsername))
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	target := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(target)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "***"
	}
	if u.User != nil {
		u.User = url.User("***")
	}
	u.RawQuery = ""
	return u.String()
}
