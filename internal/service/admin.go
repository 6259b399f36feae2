package service

import (
	"bitwise74/learning-api/internal/model"
	"bitwise74/learning-api/internal/store"
	"context"
	"errors"
	"time"

	"github.com/chenyahui/gin-cache/persist"
	"go.uber.org/zap"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100

	overviewKey = "overview"
	overviewTTL = 30 * time.Second
)

type AdminService struct {
	store *store.Store
	now   func() time.Time
	// cache holds the last overview for overviewTTL
	cache persist.CacheStore
}

func NewAdminService(s *store.Store) *AdminService {
	return &AdminService{
		store: s,
		now:   time.Now,
		cache: persist.NewMemoryStore(overviewTTL),
	}
}

type UserPage struct {
	Users    []model.Snapshot `json:"users"`
	Total    int64            `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"pageSize"`
}

// ListUsers returns the 1-based page of users matching search.
func (a *AdminService) ListUsers(ctx context.Context, search string, page, pageSize int) (*UserPage, error) {
	if page < 1 {
		page = 1
	}

	if pageSize < 1 {
		pageSize = DefaultPageSize
	}

	pageSize = min(pageSize, MaxPageSize)

	users, total, err := a.store.ListUsers(ctx, search, pageSize, (page-1)*pageSize)
	if err != nil {
		zap.L().Error("Failed to list users", zap.Error(err))
		return nil, internalErr(err)
	}

	p := &UserPage{
		Users:    make([]model.Snapshot, 0, len(users)),
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}

	for i := range users {
		p.Users = append(p.Users, users[i].Snapshot())
	}

	return p, nil
}

// SetRole changes the role of userID. Admins can't demote themselves.
func (a *AdminService) SetRole(ctx context.Context, actorID, userID uint, role string) (*model.Snapshot, error) {
	if role != model.RoleUser && role != model.RoleAdmin {
		return nil, ErrInvalidRole
	}

	if actorID == userID && role != model.RoleAdmin {
		return nil, ErrSelfAction
	}

	if err := a.store.SetRole(ctx, userID, role); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrAccountMissing
		}

		zap.L().Error("Failed to set role", zap.Error(err), zap.Uint("userID", userID))
		return nil, internalErr(err)
	}

	u, err := a.store.FindByID(ctx, userID)
	if err != nil {
		zap.L().Error("Failed to look up user", zap.Error(err), zap.Uint("userID", userID))
		return nil, internalErr(err)
	}

	a.cache.Delete(overviewKey)

	zap.L().Info("Role changed",
		zap.Uint("actorID", actorID),
		zap.Uint("userID", userID),
		zap.String("role", role))

	s := u.Snapshot()
	return &s, nil
}

// DeleteUser removes userID together with their chat history, progress and
// reset tokens. Admins can't delete themselves.
func (a *AdminService) DeleteUser(ctx context.Context, actorID, userID uint) error {
	if actorID == userID {
		return ErrSelfAction
	}

	if err := a.store.DeleteUser(ctx, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrAccountMissing
		}

		zap.L().Error("Failed to delete user", zap.Error(err), zap.Uint("userID", userID))
		return internalErr(err)
	}

	a.cache.Delete(overviewKey)

	zap.L().Info("User deleted", zap.Uint("actorID", actorID), zap.Uint("userID", userID))
	return nil
}

// Overview returns the account counts of the dashboard. Counts are reused
// for up to overviewTTL, role changes and deletions made here drop them.
func (a *AdminService) Overview(ctx context.Context) (*model.Overview, error) {
	var cached model.Overview
	if err := a.cache.Get(overviewKey, &cached); err == nil {
		return &cached, nil
	}

	o, err := a.store.Overview(ctx, a.now())
	if err != nil {
		zap.L().Error("Failed to build overview", zap.Error(err))
		return nil, internalErr(err)
	}

	if err := a.cache.Set(overviewKey, *o, overviewTTL); err != nil {
		zap.L().Warn("Failed to cache overview", zap.Error(err))
	}

	return o, nil
}
