// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/dhi/telemed/internal/model"
)

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// UpdateData はセッションに紐付くユーザーIDとSession Recordを更新する。
	UpdateData(ctx context.Context, id, userID string, data []byte) error
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteByUserID は指定ユーザーの全セッションを削除する。
	DeleteByUserID(ctx context.Context, userID string) error
}

// AdminRepository はローカル認証用の管理者アカウントの永続化インターフェース。
type AdminRepository interface {
	// List は管理者をユーザー名順で返す。password_hashは含まない。
	List(ctx context.Context) ([]*model.Admin, error)
	// FindByUsername はユーザー名（大文字小文字を区別しない）で管理者を検索する。
	// 見つからない場合はnilを返す。
	FindByUsername(ctx context.Context, username string) (*model.Admin, error)
	// Create は管理者を作成する。
	Create(ctx context.Context, admin *model.Admin) error
	// UpdatePassword はパスワードハッシュを更新する。
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	// Delete は指定IDの管理者を削除する。
	Delete(ctx context.Context, id string) error
}

// RoleRepository はuser_rolesテーブルの永続化インターフェース。
type RoleRepository interface {
	// ListRoles はユーザーに割り当てられたロール名を返す。
	ListRoles(ctx context.Context, userID string) ([]string, error)
	// Grant はユーザーにロールを付与する。既に付与済みの場合は何もしない。
	Grant(ctx context.Context, userID, role string) error
}

// HospitalRepository は病院データの永続化インターフェース。
type HospitalRepository interface {
	// List は病院を名前順で返す。
	List(ctx context.Context) ([]*model.Hospital, error)
	// FindByID は指定IDの病院を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Hospital, error)
	// Create は病院を作成する。
	Create(ctx context.Context, hospital *model.Hospital) error
	// Update は病院情報を更新する。
	Update(ctx context.Context, hospital *model.Hospital) error
	// Delete は指定IDの病院を削除する。
	Delete(ctx context.Context, id string) error
}

// TransactionRepository は日次Transactionデータの永続化インターフェース。
type TransactionRepository interface {
	// List はTransactionを日付の新しい順で返す。
	List(ctx context.Context) ([]*model.Transaction, error)
	// FindByID は指定IDのTransactionを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Transaction, error)
	// Create はTransactionを作成する。
	Create(ctx context.Context, tx *model.Transaction) error
	// CreateBatch は複数のTransactionを1回のリクエストで作成する。
	// 途中で失敗した場合はいずれの行も作成されない。
	CreateBatch(ctx context.Context, txs []*model.Transaction) error
	// Update はTransactionを更新する。
	Update(ctx context.Context, tx *model.Transaction) error
	// Delete は指定IDのTransactionを削除する。
	Delete(ctx context.Context, id string) error
}
