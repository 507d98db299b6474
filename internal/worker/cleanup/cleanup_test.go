package cleanup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

const deleteQuery = `DELETE FROM sessions WHERE expires_at < now\(\) - \$1::interval`

type mockRecorder struct {
	counts []int64
}

func (m *mockRecorder) RecordSessionsCleaned(count int64) {
	m.counts = append(m.counts, count)
}

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// lastLogEntry はバッファ内の最後のJSONログ行を返す。
func lastLogEntry(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(lines[len(lines)-1]), &entry); err != nil {
		t.Fatalf("ログのパースに失敗: %v (%s)", err, buf.String())
	}
	return entry
}

func TestCleanupJob_Run_DeletesExpiredSessions(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock生成に失敗: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(deleteQuery).
		WithArgs("0 seconds").
		WillReturnResult(sqlmock.NewResult(0, 5))

	var buf bytes.Buffer
	recorder := &mockRecorder{}
	job := NewCleanupJob(db, newTestLogger(&buf), recorder)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}

	if len(recorder.counts) != 1 || recorder.counts[0] != 5 {
		t.Errorf("RecordSessionsCleaned = %v, want [5]", recorder.counts)
	}

	entry := lastLogEntry(t, &buf)
	if entry["deleted_count"] != float64(5) {
		t.Errorf("deleted_count = %v, want 5", entry["deleted_count"])
	}
	if _, ok := entry["duration_ms"]; !ok {
		t.Error("ログに duration_ms が含まれていません")
	}
}

func TestCleanupJob_Run_UsesGracePeriod(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock生成に失敗: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(deleteQuery).
		WithArgs("3600 seconds").
		WillReturnResult(sqlmock.NewResult(0, 0))

	var buf bytes.Buffer
	job := NewCleanupJob(db, newTestLogger(&buf), nil)
	job.GracePeriod = time.Hour

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestCleanupJob_Run_Idempotent_ZeroRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock生成に失敗: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(deleteQuery).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(deleteQuery).WillReturnResult(sqlmock.NewResult(0, 0))

	var buf bytes.Buffer
	recorder := &mockRecorder{}
	job := NewCleanupJob(db, newTestLogger(&buf), recorder)

	for i := 0; i < 2; i++ {
		if err := job.Run(context.Background()); err != nil {
			t.Fatalf("Run #%d returned error: %v", i+1, err)
		}
	}
	if len(recorder.counts) != 2 || recorder.counts[1] != 0 {
		t.Errorf("RecordSessionsCleaned = %v, want [0 0]", recorder.counts)
	}
}

func TestCleanupJob_Run_ReturnsErrorOnDBFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock生成に失敗: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(deleteQuery).WillReturnError(errors.New("connection refused"))

	var buf bytes.Buffer
	recorder := &mockRecorder{}
	job := NewCleanupJob(db, newTestLogger(&buf), recorder)

	err = job.Run(context.Background())
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("error should wrap the cause, got %v", err)
	}
	if len(recorder.counts) != 0 {
		t.Errorf("失敗時にメトリクスが記録されました: %v", recorder.counts)
	}

	entry := lastLogEntry(t, &buf)
	if entry["level"] != "ERROR" {
		t.Errorf("level = %v, want ERROR", entry["level"])
	}
}

func TestCleanupJob_Run_RowsAffectedError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock生成に失敗: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(deleteQuery).
		WillReturnResult(sqlmock.NewErrorResult(errors.New("driver does not support RowsAffected")))

	var buf bytes.Buffer
	job := NewCleanupJob(db, newTestLogger(&buf), nil)

	if err := job.Run(context.Background()); err == nil {
		t.Error("expected error, got nil")
	}
}

func TestCleanupJob_Start_RunsImmediatelyAndStopsOnCancel(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock生成に失敗: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(deleteQuery).WillReturnResult(sqlmock.NewResult(0, 1))

	var buf bytes.Buffer
	recorder := &mockRecorder{}
	job := NewCleanupJob(db, newTestLogger(&buf), recorder)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		job.Start(ctx, time.Hour)
		close(done)
	}()

	// 起動直後の1回目の実行を待つ
	deadline := time.After(2 * time.Second)
	for {
		if err := mock.ExpectationsWereMet(); err == nil {
			break
		}
		select {
		case <-deadline:
			t.Fatal("起動直後のクリーンアップが実行されませんでした")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("コンテキストのキャンセル後もStartが終了しませんでした")
	}
}
