package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dhi/telemed/internal/metrics"
	"github.com/dhi/telemed/internal/model"
)

// サインイン結果のメトリクスラベル
const (
	resultSuccess      = "success"
	resultInvalidInput = "invalid_input"
	resultRejected     = "rejected"
	resultError        = "error"
)

// Service はサインインとサインアウトのビジネスロジックを提供する。
type Service struct {
	provider Provider
	metrics  metrics.MetricsCollector
}

// NewService はServiceを生成する。
func NewService(provider Provider, collector metrics.MetricsCollector) *Service {
	if collector == nil {
		collector = metrics.NopCollector{}
	}
	return &Service{provider: provider, metrics: collector}
}

// Provider は利用中の認証プロバイダーを返す。
func (s *Service) Provider() Provider {
	return s.provider
}

// SignIn は入力を検証してからプロバイダーでサインインする。
// 入力が不正な場合はプロバイダーを呼び出さない。
// パスワードはログに出力しない。
func (s *Service) SignIn(ctx context.Context, login, password string) (*model.AuthSession, error) {
	// 1. 入力形式の検証（ネットワーク呼び出し前）
	if err := s.provider.ValidateInput(login, password); err != nil {
		s.metrics.RecordSignIn(s.provider.Name(), resultInvalidInput)
		return nil, err
	}

	// 2. プロバイダーでサインイン
	session, err := s.provider.SignIn(ctx, login, password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			s.metrics.RecordSignIn(s.provider.Name(), resultRejected)
			slog.Info("sign-in rejected", slog.String("provider", s.provider.Name()))
			return nil, err
		}
		s.metrics.RecordSignIn(s.provider.Name(), resultError)
		slog.Error("sign-in failed",
			slog.String("provider", s.provider.Name()),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	s.metrics.RecordSignIn(s.provider.Name(), resultSuccess)
	slog.Info("user signed in",
		slog.String("provider", s.provider.Name()),
		slog.String("user_id", session.Identity.ID),
	)
	return session, nil
}

// SignOut はプロバイダー側のセッションを失効させる。
// 失敗してもローカルのサインアウトを妨げないよう、エラーはログに記録するのみ。
func (s *Service) SignOut(ctx context.Context, accessToken string) {
	if err := s.provider.SignOut(ctx, accessToken); err != nil {
		slog.Warn("provider sign-out failed",
			slog.String("provider", s.provider.Name()),
			slog.String("error", err.Error()),
		)
	}
}
