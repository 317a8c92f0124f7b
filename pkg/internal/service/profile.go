package service

import (
	"context"

	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/media"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/store"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/types"
)

// ProfileService 当前用户档案.
type ProfileService struct {
	store *store.Store
}

// NewProfileService 从 context 取出依赖.
func NewProfileService(ctx context.Context) (*ProfileService, error) {
	svc, err := services(ctx)
	if err != nil {
		return nil, err
	}

	return &ProfileService{store: svc.Store}, nil
}

// Me 返回档案，首次访问时创建. 身份里的管理员角色会同步到档案.
func (s *ProfileService) Me(ctx context.Context, uid, email string, role media.Role) (*types.MeResponse, error) {
	p, err := s.store.EnsureProfile(ctx, uid, role)
	if err != nil {
		return nil, err
	}

	if role != "" && p.Role != role {
		if p, err = s.store.SetRole(ctx, uid, role); err != nil {
			return nil, err
		}
	}

	return &types.MeResponse{
		UID:            p.UID,
		Email:          email,
		Role:           p.Role,
		QuotaBytes:     p.QuotaBytes,
		UsedBytes:      p.UsedBytes,
		RemainingBytes: p.Remaining(),
	}, nil
}
