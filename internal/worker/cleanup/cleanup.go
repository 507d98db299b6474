// Package cleanup は期限切れセッションの自動削除ジョブを提供する。
// expires_atを過ぎたsessionsの行を日次バッチで削除する。
package cleanup

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// DefaultInterval はジョブの実行間隔。
const DefaultInterval = 24 * time.Hour

// Executor はSQLのExecContextを抽象化するインターフェース。
// *sql.DB や *sql.Tx を受け付けることができる。
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// Recorder は削除件数を記録するメトリクスのインターフェース。
type Recorder interface {
	RecordSessionsCleaned(count int64)
}

// CleanupJob は期限切れセッションの削除ジョブ。
// 冪等な削除処理であり、何度実行しても結果は変わらない。
type CleanupJob struct {
	db      Executor
	logger  *slog.Logger
	metrics Recorder
	// GracePeriod は期限切れ後もセッション行を残しておく時間（デフォルト: 0）
	GracePeriod time.Duration
}

// NewCleanupJob は新しいCleanupJobを生成する。metricsはnilでもよい。
func NewCleanupJob(db Executor, logger *slog.Logger, metrics Recorder) *CleanupJob {
	return &CleanupJob{
		db:      db,
		logger:  logger,
		metrics: metrics,
	}
}

// Run は期限切れのセッションを削除する。
// 削除対象がない場合でもエラーにならない。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := time.Now()

	interval := fmt.Sprintf("%d seconds", int64(j.GracePeriod.Seconds()))

	query := `DELETE FROM sessions WHERE expires_at < now() - $1::interval`
	result, err := j.db.ExecContext(ctx, query, interval)
	if err != nil {
		j.logger.Error("セッションクリーンアップジョブの実行に失敗しました",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("セッションクリーンアップの実行に失敗: %w", err)
	}

	deletedCount, err := result.RowsAffected()
	if err != nil {
		j.logger.Error("削除件数の取得に失敗しました",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("削除件数の取得に失敗: %w", err)
	}

	if j.metrics != nil {
		j.metrics.RecordSessionsCleaned(deletedCount)
	}

	duration := time.Since(start)
	j.logger.Info("セッションクリーンアップジョブが完了しました",
		slog.Int64("deleted_count", deletedCount),
		slog.Duration("grace_period", j.GracePeriod),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}

// Start は起動直後に1回実行し、その後interval間隔で実行を繰り返す。
// コンテキストがキャンセルされるまで実行を継続する。
func (j *CleanupJob) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	j.logger.Info("セッションクリーンアップを開始しました",
		slog.Duration("interval", interval),
	)

	// エラーはRun内でログ出力済み
	_ = j.Run(ctx)

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("セッションクリーンアップを停止しました")
			return
		case <-ticker.C:
			_ = j.Run(ctx)
		}
	}
}
