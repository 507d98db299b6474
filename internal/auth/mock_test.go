package auth

import (
	"context"

	"github.com/dhi/telemed/internal/model"
)

// --- モック定義 ---

type mockAdminRepo struct {
	listFn           func(ctx context.Context) ([]*model.Admin, error)
	findByUsernameFn func(ctx context.Context, username string) (*model.Admin, error)
	createFn         func(ctx context.Context, admin *model.Admin) error
	updatePasswordFn func(ctx context.Context, id, hash string) error
	deleteFn         func(ctx context.Context, id string) error
}

func (m *mockAdminRepo) List(ctx context.Context) ([]*model.Admin, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockAdminRepo) FindByUsername(ctx context.Context, username string) (*model.Admin, error) {
	if m.findByUsernameFn != nil {
		return m.findByUsernameFn(ctx, username)
	}
	return nil, nil
}

func (m *mockAdminRepo) Create(ctx context.Context, admin *model.Admin) error {
	if m.createFn != nil {
		return m.createFn(ctx, admin)
	}
	return nil
}

func (m *mockAdminRepo) UpdatePassword(ctx context.Context, id, hash string) error {
	if m.updatePasswordFn != nil {
		return m.updatePasswordFn(ctx, id, hash)
	}
	return nil
}

func (m *mockAdminRepo) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

type mockRoleRepo struct {
	listRolesFn func(ctx context.Context, userID string) ([]string, error)
	grantFn     func(ctx context.Context, userID, role string) error
}

func (m *mockRoleRepo) ListRoles(ctx context.Context, userID string) ([]string, error) {
	if m.listRolesFn != nil {
		return m.listRolesFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockRoleRepo) Grant(ctx context.Context, userID, role string) error {
	if m.grantFn != nil {
		return m.grantFn(ctx, userID, role)
	}
	return nil
}

// memoryAdminStore はプロビジョニングの冪等性検証用に状態を持つAdminRepository。
type memoryAdminStore struct {
	mockAdminRepo
	admins []*model.Admin
}

func newMemoryAdminStore() *memoryAdminStore {
	s := &memoryAdminStore{}
	s.findByUsernameFn = func(_ context.Context, username string) (*model.Admin, error) {
		for _, a := range s.admins {
			if a.Username == username {
				return a, nil
			}
		}
		return nil, nil
	}
	s.createFn = func(_ context.Context, admin *model.Admin) error {
		s.admins = append(s.admins, admin)
		return nil
	}
	return s
}
