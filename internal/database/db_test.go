package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

// TestOpen_ReturnsDBForAnyURL はsql.Openが接続を試行しないため、
// URLの内容に関わらずDBオブジェクトが返ることを検証する。
func TestOpen_ReturnsDBForAnyURL(t *testing.T) {
	db, err := Open("postgres://invalid")
	if err != nil {
		t.Fatalf("Open returned unexpected error: %v", err)
	}
	if db == nil {
		t.Fatal("expected non-nil db")
	}
	defer db.Close()

	if got := db.Stats().MaxOpenConnections; got != maxOpenConns {
		t.Errorf("MaxOpenConnections = %d, want %d", got, maxOpenConns)
	}
}

func TestPing_Success(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock生成に失敗: %v", err)
	}
	defer db.Close()

	mock.ExpectPing()

	if err := Ping(context.Background(), db, time.Second); err != nil {
		t.Errorf("Ping returned error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPing_Failure(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock生成に失敗: %v", err)
	}
	defer db.Close()

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))

	if err := Ping(context.Background(), db, time.Second); err == nil {
		t.Error("expected error, got nil")
	}
}
