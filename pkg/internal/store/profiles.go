package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/media"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/model"
)

// Drift 档案记账与实际记录字节数的差异.
type Drift struct {
	OwnerID  string `json:"ownerId"`
	Recorded int64  `json:"recorded"`
	Actual   int64  `json:"actual"`
}

// Diff 记账减实际.
func (d Drift) Diff() int64 {
	return d.Recorded - d.Actual
}

func (s *Store) ensureProfile(tx *gorm.DB, uid string, role media.Role) (*model.UserProfile, error) {
	now := s.now()
	if role == "" {
		role = media.RoleUser
	}

	p := model.UserProfile{UID: uid, Role: role, QuotaBytes: s.defaultQuota, CreatedAt: now, UpdatedAt: now}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&p).Error; err != nil {
		return nil, fmt.Errorf("ensure profile %s: %w", uid, err)
	}

	var out model.UserProfile
	if err := tx.Where("uid = ?", uid).Take(&out).Error; err != nil {
		return nil, notFound(err)
	}

	return &out, nil
}

// EnsureProfile 返回用户档案，首次见到时按默认配额创建.
func (s *Store) EnsureProfile(ctx context.Context, uid string, role media.Role) (*model.UserProfile, error) {
	return s.ensureProfile(s.db.WithContext(ctx), uid, role)
}

// Profile 读取已有档案.
func (s *Store) Profile(ctx context.Context, uid string) (*model.UserProfile, error) {
	var p model.UserProfile
	if err := s.db.WithContext(ctx).Where("uid = ?", uid).Take(&p).Error; err != nil {
		return nil, notFound(err)
	}

	return &p, nil
}

func (s *Store) updateProfile(ctx context.Context, uid string, fields Fields) (*model.UserProfile, error) {
	var out *model.UserProfile

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.ensureProfile(tx, uid, ""); err != nil {
			return err
		}

		updates := fields.Merge(Fields{"updated_at": s.now()})
		if err := tx.Model(&model.UserProfile{}).Where("uid = ?", uid).Updates(map[string]any(updates)).Error; err != nil {
			return err
		}

		var p model.UserProfile
		if err := tx.Where("uid = ?", uid).Take(&p).Error; err != nil {
			return err
		}

		out = &p

		return nil
	})

	return out, err
}

// SetQuota 管理员设置配额.
func (s *Store) SetQuota(ctx context.Context, uid string, bytes int64) (*model.UserProfile, error) {
	if bytes < 0 {
		return nil, fmt.Errorf("quota must not be negative")
	}

	return s.updateProfile(ctx, uid, Fields{"quota_bytes": bytes})
}

// SetRole 设置用户角色.
func (s *Store) SetRole(ctx context.Context, uid string, role media.Role) (*model.UserProfile, error) {
	return s.updateProfile(ctx, uid, Fields{"role": role})
}

// ApplyUsageDelta 在插入账本行的同一事务内原子增减 used_bytes.
// 账本中已存在 eventID 时不做任何修改，applied 为 false.
func (s *Store) ApplyUsageDelta(ctx context.Context, eventID, owner, recordID string, delta int64) (
	profile *model.UserProfile, applied bool, err error,
) {
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.ensureProfile(tx, owner, ""); err != nil {
			return err
		}

		entry := model.QuotaLedger{EventID: eventID, OwnerID: owner, RecordID: recordID, Delta: delta, CreatedAt: s.now()}

		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&entry)
		if res.Error != nil {
			return fmt.Errorf("insert ledger: %w", res.Error)
		}

		applied = res.RowsAffected > 0
		if applied {
			err := tx.Model(&model.UserProfile{}).Where("uid = ?", owner).Updates(map[string]any{
				"used_bytes": gorm.Expr("used_bytes + ?", delta),
				"updated_at": s.now(),
			}).Error
			if err != nil {
				return fmt.Errorf("apply delta: %w", err)
			}
		}

		var p model.UserProfile
		if err := tx.Where("uid = ?", owner).Take(&p).Error; err != nil {
			return err
		}

		profile = &p

		return nil
	})

	return profile, applied, err
}

// SumUsage 用户全部未删除记录的字节数.
func (s *Store) SumUsage(ctx context.Context, owner string) (int64, error) {
	var total int64

	err := s.db.WithContext(ctx).Model(&model.MediaRecord{}).
		Where("owner_id = ?", owner).
		Select("COALESCE(SUM(size_bytes), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("sum usage: %w", err)
	}

	return total, nil
}

// Recount 按实际记录重算 used_bytes，用于修复漂移.
func (s *Store) Recount(ctx context.Context, owner string) (*model.UserProfile, error) {
	total, err := s.SumUsage(ctx, owner)
	if err != nil {
		return nil, err
	}

	return s.updateProfile(ctx, owner, Fields{"used_bytes": total})
}

// UsageDrift 列出记账与实际不一致的用户.
func (s *Store) UsageDrift(ctx context.Context) ([]Drift, error) {
	var profiles []model.UserProfile
	if err := s.db.WithContext(ctx).Find(&profiles).Error; err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}

	var sums []struct {
		OwnerID string
		Bytes   int64
	}

	err := s.db.WithContext(ctx).Model(&model.MediaRecord{}).
		Select("owner_id, COALESCE(SUM(size_bytes), 0) AS bytes").
		Group("owner_id").
		Scan(&sums).Error
	if err != nil {
		return nil, fmt.Errorf("sum usage: %w", err)
	}

	actual := make(map[string]int64, len(sums))
	for _, row := range sums {
		actual[row.OwnerID] = row.Bytes
	}

	var out []Drift

	for _, p := range profiles {
		if a := actual[p.UID]; a != p.UsedBytes {
			out = append(out, Drift{OwnerID: p.UID, Recorded: p.UsedBytes, Actual: a})
		}
	}

	return out, nil
}

// PruneLedger 删除早于 before 的账本行.
func (s *Store) PruneLedger(ctx context.Context, before time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Where("created_at < ?", before.UTC()).Delete(&model.QuotaLedger{})
	if res.Error != nil {
		return 0, fmt.Errorf("prune ledger: %w", res.Error)
	}

	return res.RowsAffected, nil
}
