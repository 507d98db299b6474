package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dhi/telemed/internal/model"
)

// PostgresSessionRepo はPostgreSQLを使用したセッションリポジトリ。
type PostgresSessionRepo struct {
	db *sql.DB
}

// NewPostgresSessionRepo はPostgresSessionRepoを生成する。
func NewPostgresSessionRepo(db *sql.DB) *PostgresSessionRepo {
	return &PostgresSessionRepo{db: db}
}

// Create はセッションを作成する。
func (r *PostgresSessionRepo) Create(ctx context.Context, session *model.Session) error {
	data := session.Data
	if len(data) == 0 {
		data = []byte("{}")
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, data, expires_at, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		session.ID, nullableUserID(session.UserID), data, session.ExpiresAt, session.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
func (r *PostgresSessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	session := &model.Session{}
	var userID sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, data, expires_at, created_at
		 FROM sessions
		 WHERE id = $1 AND expires_at > now()`,
		id,
	).Scan(&session.ID, &userID, &session.Data, &session.ExpiresAt, &session.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	session.UserID = userID.String

	return session, nil
}

// UpdateData はセッションのユーザーIDとデータを更新する。
func (r *PostgresSessionRepo) UpdateData(ctx context.Context, id, userID string, data []byte) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET user_id = $2, data = $3 WHERE id = $1`,
		id, nullableUserID(userID), data,
	)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	return nil
}

// DeleteByID は指定IDのセッションを削除する。
func (r *PostgresSessionRepo) DeleteByID(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteByUserID は指定ユーザーの全セッションを削除する。
func (r *PostgresSessionRepo) DeleteByUserID(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete user sessions: %w", err)
	}
	return nil
}

// nullableUserID は未ログインのセッションでuser_idをNULLとして保存するための変換を行う。
func nullableUserID(userID string) sql.NullString {
	return sql.NullString{String: userID, Valid: userID != ""}
}

// compile-time interface check
var _ SessionRepository = (*PostgresSessionRepo)(nil)
