package store

import (
	"context"
	crand "crypto/rand"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/media"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/internal/model"
	"github.com/omgitsguppey/SmartMedia-CMS/pkg/metrics"
)

var (
	ulidMu      sync.Mutex
	ulidEntropy = ulid.Monotonic(crand.Reader, 0)
)

// NewID 生成记录 ID（ULID）.
func NewID(t time.Time) string {
	ulidMu.Lock()
	defer ulidMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(t), ulidEntropy).String()
}

// Guard 条件写入的前置条件. 零值字段不参与判断.
type Guard struct {
	// From 允许的当前状态，必填
	From []media.Status
	// Owner 非空时要求记录属于该用户
	Owner string
	// UpdatedBefore 非零时要求 updated_at 早于该时间
	UpdatedBefore time.Time
}

// ListFilter 列表查询条件. Owner 为空表示全部用户.
type ListFilter struct {
	Owner  string
	Status media.Status
	Limit  int
	Offset int
}

// Bucket 按状态与 MIME 聚合的数量与字节数.
type Bucket struct {
	Status   media.Status
	MimeType string
	Count    int64
	Bytes    int64
}

func statusValues(set []media.Status) []string {
	out := make([]string, len(set))
	for i, s := range set {
		out[i] = string(s)
	}

	return out
}

func scoped(tx *gorm.DB, owner string) *gorm.DB {
	if owner == "" {
		return tx
	}

	return tx.Where("owner_id = ?", owner)
}

// Create 插入新记录. 未指定 ID 时生成 ULID，未指定状态时为 uploading.
func (s *Store) Create(ctx context.Context, rec *model.MediaRecord) error {
	now := s.now()

	if rec.ID == "" {
		rec.ID = NewID(now)
	}

	if rec.Status == "" {
		rec.Status = media.StatusUploading
	}

	if !rec.Status.Valid() {
		return fmt.Errorf("create record: unknown status %q", rec.Status)
	}

	if rec.AdminStatus == "" {
		rec.AdminStatus = media.AdminPending
	}

	if rec.Visibility == "" {
		rec.Visibility = media.VisibilityPrivate
	}

	rec.CreatedAt, rec.UpdatedAt = now, now

	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("create record: %w", err)
	}

	s.publish(ctx, nil, rec)

	return nil
}

// Get 按 ID 读取属于 owner 的记录；owner 为空时不限用户.
func (s *Store) Get(ctx context.Context, owner, id string) (*model.MediaRecord, error) {
	var rec model.MediaRecord

	err := scoped(s.db.WithContext(ctx), owner).Where("id = ?", id).Take(&rec).Error
	if err != nil {
		return nil, notFound(err)
	}

	return &rec, nil
}

// Find 按 ID 读取，不限用户.
func (s *Store) Find(ctx context.Context, id string) (*model.MediaRecord, error) {
	return s.Get(ctx, "", id)
}

// List 按创建时间倒序列出记录，返回总数.
func (s *Store) List(ctx context.Context, f ListFilter) ([]model.MediaRecord, int64, error) {
	q := scoped(s.db.WithContext(ctx).Model(&model.MediaRecord{}), f.Owner)
	if f.Status != "" {
		q = q.Where("status = ?", string(f.Status))
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count records: %w", err)
	}

	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}

	var out []model.MediaRecord
	if err := q.Order("created_at DESC").Order("id DESC").Find(&out).Error; err != nil {
		return nil, 0, fmt.Errorf("list records: %w", err)
	}

	return out, total, nil
}

// Transition 条件迁移状态：仅当记录当前状态在 g.From 内（以及其余守卫成立）时写入 to 与 fields.
// 守卫不成立返回 ErrStateConflict，记录不存在返回 ErrNotFound.
func (s *Store) Transition(ctx context.Context, id string, g Guard, to media.Status, fields Fields) (*model.MediaRecord, error) {
	if len(g.From) == 0 {
		return nil, fmt.Errorf("%w: empty guard", ErrInvalidTransition)
	}

	for _, from := range g.From {
		if !media.CanTransition(from, to) {
			return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
		}
	}

	now := s.now()
	updates := fields.Merge(Fields{"status": string(to), "updated_at": now})

	var before, after model.MediaRecord

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := scoped(tx, g.Owner).Where("id = ?", id).Take(&before).Error; err != nil {
			return notFound(err)
		}

		q := tx.Model(&model.MediaRecord{}).Where("id = ? AND status IN ?", id, statusValues(g.From))
		if !g.UpdatedBefore.IsZero() {
			q = q.Where("updated_at < ?", g.UpdatedBefore.UTC())
		}

		res := q.Updates(map[string]any(updates))
		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected == 0 {
			return ErrStateConflict
		}

		return tx.Where("id = ?", id).Take(&after).Error
	})
	if err != nil {
		return nil, err
	}

	metrics.Transitions.WithLabelValues(string(before.Status), string(to)).Inc()
	s.publish(ctx, &before, &after)

	return &after, nil
}

// Update 修改非状态字段（分析修正、审核等）.
func (s *Store) Update(ctx context.Context, owner, id string, fields Fields) (*model.MediaRecord, error) {
	if _, ok := fields["status"]; ok {
		return nil, fmt.Errorf("%w: status must change through Transition", ErrInvalidTransition)
	}

	updates := fields.Merge(Fields{"updated_at": s.now()})

	var before, after model.MediaRecord

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := scoped(tx, owner).Where("id = ?", id).Take(&before).Error; err != nil {
			return notFound(err)
		}

		if err := tx.Model(&model.MediaRecord{}).Where("id = ?", id).Updates(map[string]any(updates)).Error; err != nil {
			return err
		}

		return tx.Where("id = ?", id).Take(&after).Error
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, &before, &after)

	return &after, nil
}

// Delete 软删除记录，返回删除前的记录.
func (s *Store) Delete(ctx context.Context, owner, id string) (*model.MediaRecord, error) {
	var before model.MediaRecord

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := scoped(tx, owner).Where("id = ?", id).Take(&before).Error; err != nil {
			return notFound(err)
		}

		return tx.Delete(&model.MediaRecord{}, "id = ?", id).Error
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, &before, nil)

	return &before, nil
}

// RecentPeople 用户最近 n 条已分析记录（按创建时间）中出现的人名并集.
func (s *Store) RecentPeople(ctx context.Context, owner string, n int) ([]string, error) {
	var rows []model.MediaRecord

	err := s.db.WithContext(ctx).
		Select("id", "analysis_people").
		Where("owner_id = ? AND analyzed_at IS NOT NULL", owner).
		Order("created_at DESC").
		Limit(n).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("recent people: %w", err)
	}

	groups := make([][]string, 0, len(rows))
	for _, r := range rows {
		groups = append(groups, r.Analysis.People)
	}

	return media.MergePeople(groups...), nil
}

// jsonText json 列按文本比较. postgres 没有 lower(json).
func jsonText(tx *gorm.DB, col string) string {
	if tx.Dialector.Name() == "postgres" {
		return col + "::text"
	}

	return col
}

// Stale 跨用户查找处于 statuses 且 updated_at 早于 before 的记录，最旧的优先.
func (s *Store) Stale(ctx context.Context, statuses []media.Status, before time.Time, limit int) ([]model.MediaRecord, error) {
	var out []model.MediaRecord

	q := s.db.WithContext(ctx).
		Where("status IN ? AND updated_at < ?", statusValues(statuses), before.UTC()).
		Order("updated_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("stale records: %w", err)
	}

	return out, nil
}

// RenamePerson 把用户全部记录中的人名 from 改为 to，命中的记录标记为用户编辑. 返回修改的记录数.
func (s *Store) RenamePerson(ctx context.Context, owner, from, to string) (int, error) {
	from, to = strings.TrimSpace(from), strings.TrimSpace(to)
	if from == "" || to == "" {
		return 0, fmt.Errorf("rename person: empty name")
	}

	now := s.now()

	var befores, afters []model.MediaRecord

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var candidates []model.MediaRecord

		err := tx.Where("owner_id = ? AND LOWER("+jsonText(tx, "analysis_people")+") LIKE ?", owner, "%"+strings.ToLower(from)+"%").
			Find(&candidates).Error
		if err != nil {
			return err
		}

		for _, before := range candidates {
			people, hit := media.RenamePerson(before.Analysis.People, from, to)
			if !hit {
				continue
			}

			// 人名列在同一事务内读出与写回
			err := tx.Model(&model.MediaRecord{}).Where("id = ?", before.ID).Updates(map[string]any{
				"analysis_people":         datatypes.JSONSlice[string](people),
				"analysis_is_user_edited": true,
				"updated_at":              now,
			}).Error
			if err != nil {
				return fmt.Errorf("record %s: %w", before.ID, err)
			}

			var after model.MediaRecord
			if err := tx.Where("id = ?", before.ID).Take(&after).Error; err != nil {
				return err
			}

			befores = append(befores, before)
			afters = append(afters, after)
		}

		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("rename person: %w", err)
	}

	for i := range afters {
		s.publish(ctx, &befores[i], &afters[i])
	}

	return len(afters), nil
}

// Aggregate 按状态与 MIME 聚合；owner 为空表示全部用户.
func (s *Store) Aggregate(ctx context.Context, owner string) ([]Bucket, error) {
	var out []Bucket

	err := scoped(s.db.WithContext(ctx).Model(&model.MediaRecord{}), owner).
		Select("status, mime_type, COUNT(*) AS count, COALESCE(SUM(size_bytes), 0) AS bytes").
		Group("status, mime_type").
		Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("aggregate records: %w", err)
	}

	return out, nil
}
