package dao

import (
	"context"
	"database/sql"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/lifesim/app/lifesim/internal/model"
	"github.com/lk2023060901/lifesim/pkg/logger"
)

// ErrNotFound 记录不存在
var ErrNotFound = errors.New("dao: record not found")

var performerColumns = []string{
	"id", "kind", "user_id", "owner_id", "name", "gender",
	"money", "household_money", "time_of_day", "weekday", "created_at", "updated_at",
}

var ledgerColumns = []string{
	"str_level", "str_xp", "dex_level", "dex_xp", "int_level", "int_xp",
	"char_level", "char_xp", "sta_level", "sta_xp", "current_stamina",
}

// PerformerDAO 表演者数据访问对象
type PerformerDAO struct {
	store  *Store
	logger logger.Logger
}

// NewPerformerDAO 创建表演者 DAO
func NewPerformerDAO(s *Store, l logger.Logger) *PerformerDAO {
	return &PerformerDAO{
		store:  s,
		logger: l.Named("dao.performer"),
	}
}

// GetByID 加载完整表演者（基础字段、账本、职业关联、成就）
func (d *PerformerDAO) GetByID(ctx context.Context, id int64) (*model.Performer, error) {
	var p *model.Performer
	err := d.store.observe("performer.get", func() error {
		var err error
		p, err = d.get(ctx, d.store.db, id)
		return err
	})
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			d.logger.Error("failed to get performer", "performer_id", id, "error", err)
		}
		return nil, err
	}
	return p, nil
}

// ListCompanionIDs 关联到指定角色的伴侣 ID
func (d *PerformerDAO) ListCompanionIDs(ctx context.Context, ownerID int64) ([]int64, error) {
	return d.listIDs(ctx, "performer.list_companions", squirrel.Eq{"owner_id": ownerID, "kind": string(model.KindCompanion)})
}

// ListCharacterIDs 用户拥有的角色 ID
func (d *PerformerDAO) ListCharacterIDs(ctx context.Context, userID int64) ([]int64, error) {
	return d.listIDs(ctx, "performer.list_characters", squirrel.Eq{"user_id": userID, "kind": string(model.KindCharacter)})
}

func (d *PerformerDAO) listIDs(ctx context.Context, op string, where squirrel.Eq) ([]int64, error) {
	var ids []int64
	err := d.store.observe(op, func() error {
		q, args, err := d.store.sb.Select("id").From("performers").Where(where).OrderBy("id ASC").ToSql()
		if err != nil {
			return errors.Wrap(err, "build query")
		}
		ids, err = scanIDs(ctx, d.store.db, q, args...)
		return err
	})
	if err != nil {
		d.logger.Error("failed to list performers", "op", op, "error", err)
		return nil, err
	}
	return ids, nil
}

// Insert 在事务内插入新表演者及其账本
func (d *PerformerDAO) Insert(ctx context.Context, tx *sql.Tx, p *model.Performer) error {
	q, args, err := d.store.sb.Insert("performers").
		Columns(performerColumns...).
		Values(
			p.ID, string(p.Kind), p.UserID, nullableID(p.OwnerID), p.Name, string(p.Gender),
			p.Money, p.HouseholdMoney, p.TimeOfDay, p.Weekday, p.CreatedAt.UnixMilli(), p.UpdatedAt.UnixMilli(),
		).ToSql()
	if err != nil {
		return errors.Wrap(err, "build insert performer")
	}
	if _, err := tx.ExecContext(ctx, q, args...); err != nil {
		return errors.Wrapf(err, "insert performer %d", p.ID)
	}

	l := p.Ledger
	q, args, err = d.store.sb.Insert("stat_ledgers").
		Columns(append([]string{"performer_id"}, ledgerColumns...)...).
		Values(p.ID,
			l.STR.Level, l.STR.CurrentXP, l.DEX.Level, l.DEX.CurrentXP, l.INT.Level, l.INT.CurrentXP,
			l.CHAR.Level, l.CHAR.CurrentXP, l.STA.Level, l.STA.CurrentXP, l.CurrentStamina,
		).ToSql()
	if err != nil {
		return errors.Wrap(err, "build insert ledger")
	}
	if _, err := tx.ExecContext(ctx, q, args...); err != nil {
		return errors.Wrapf(err, "insert ledger %d", p.ID)
	}

	return d.replaceLinks(ctx, tx, p)
}

// Update 在事务内整体覆盖表演者
func (d *PerformerDAO) Update(ctx context.Context, tx *sql.Tx, p *model.Performer) error {
	p.UpdatedAt = time.Now()

	q, args, err := d.store.sb.Update("performers").
		SetMap(map[string]any{
			"owner_id":        nullableID(p.OwnerID),
			"name":            p.Name,
			"money":           p.Money,
			"household_money": p.HouseholdMoney,
			"time_of_day":     p.TimeOfDay,
			"weekday":         p.Weekday,
			"updated_at":      p.UpdatedAt.UnixMilli(),
		}).
		Where(squirrel.Eq{"id": p.ID}).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "build update performer")
	}
	res, err := tx.ExecContext(ctx, q, args...)
	if err != nil {
		return errors.Wrapf(err, "update performer %d", p.ID)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.Wrapf(ErrNotFound, "performer %d", p.ID)
	}

	l := p.Ledger
	q, args, err = d.store.sb.Update("stat_ledgers").
		SetMap(map[string]any{
			"str_level": l.STR.Level, "str_xp": l.STR.CurrentXP,
			"dex_level": l.DEX.Level, "dex_xp": l.DEX.CurrentXP,
			"int_level": l.INT.Level, "int_xp": l.INT.CurrentXP,
			"char_level": l.CHAR.Level, "char_xp": l.CHAR.CurrentXP,
			"sta_level": l.STA.Level, "sta_xp": l.STA.CurrentXP,
			"current_stamina": l.CurrentStamina,
		}).
		Where(squirrel.Eq{"performer_id": p.ID}).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "build update ledger")
	}
	if _, err := tx.ExecContext(ctx, q, args...); err != nil {
		return errors.Wrapf(err, "update ledger %d", p.ID)
	}

	return d.replaceLinks(ctx, tx, p)
}

// Delete 删除表演者，账本、职业、成就随外键级联删除，伴侣的 owner_id 置空
func (d *PerformerDAO) Delete(ctx context.Context, tx *sql.Tx, id int64) error {
	q, args, err := d.store.sb.Delete("performers").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return errors.Wrap(err, "build delete performer")
	}
	res, err := tx.ExecContext(ctx, q, args...)
	if err != nil {
		return errors.Wrapf(err, "delete performer %d", id)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.Wrapf(ErrNotFound, "performer %d", id)
	}
	return nil
}

// replaceLinks 覆盖职业关联与成就
func (d *PerformerDAO) replaceLinks(ctx context.Context, tx *sql.Tx, p *model.Performer) error {
	for _, table := range []string{"performer_jobs", "performer_achievements"} {
		q, args, err := d.store.sb.Delete(table).Where(squirrel.Eq{"performer_id": p.ID}).ToSql()
		if err != nil {
			return errors.Wrapf(err, "build clear %s", table)
		}
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			return errors.Wrapf(err, "clear %s for %d", table, p.ID)
		}
	}

	if len(p.JobIDs) > 0 {
		ins := d.store.sb.Insert("performer_jobs").Columns("performer_id", "job_id")
		for _, jobID := range p.JobIDs {
			ins = ins.Values(p.ID, jobID)
		}
		q, args, err := ins.ToSql()
		if err != nil {
			return errors.Wrap(err, "build insert jobs")
		}
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			return errors.Wrapf(err, "insert jobs for %d", p.ID)
		}
	}

	if len(p.Achievements) > 0 {
		ins := d.store.sb.Insert("performer_achievements").Columns("performer_id", "name")
		for _, name := range p.Achievements {
			ins = ins.Values(p.ID, name)
		}
		q, args, err := ins.ToSql()
		if err != nil {
			return errors.Wrap(err, "build insert achievements")
		}
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			return errors.Wrapf(err, "insert achievements for %d", p.ID)
		}
	}
	return nil
}

func (d *PerformerDAO) get(ctx context.Context, db queryer, id int64) (*model.Performer, error) {
	// 1. 基础字段
	q, args, err := d.store.sb.Select(performerColumns...).From("performers").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build query")
	}

	var (
		p                    model.Performer
		kind, gender         string
		ownerID              sql.NullInt64
		createdAt, updatedAt int64
	)
	if err := db.QueryRowContext(ctx, q, args...).Scan(
		&p.ID, &kind, &p.UserID, &ownerID, &p.Name, &gender,
		&p.Money, &p.HouseholdMoney, &p.TimeOfDay, &p.Weekday, &createdAt, &updatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.Wrapf(ErrNotFound, "performer %d", id)
		}
		return nil, errors.Wrapf(err, "scan performer %d", id)
	}
	p.Kind = model.PerformerKind(kind)
	p.Gender = model.Gender(gender)
	p.OwnerID = ownerID.Int64
	p.CreatedAt = time.UnixMilli(createdAt)
	p.UpdatedAt = time.UnixMilli(updatedAt)

	// 2. 账本，缺失时使用默认值
	q, args, err = d.store.sb.Select(ledgerColumns...).From("stat_ledgers").Where(squirrel.Eq{"performer_id": id}).ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build ledger query")
	}
	l := &p.Ledger
	err = db.QueryRowContext(ctx, q, args...).Scan(
		&l.STR.Level, &l.STR.CurrentXP, &l.DEX.Level, &l.DEX.CurrentXP, &l.INT.Level, &l.INT.CurrentXP,
		&l.CHAR.Level, &l.CHAR.CurrentXP, &l.STA.Level, &l.STA.CurrentXP, &l.CurrentStamina,
	)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		p.Ledger = model.NewStatLedger()
	case err != nil:
		return nil, errors.Wrapf(err, "scan ledger %d", id)
	}

	// 3. 职业关联
	q, args, err = d.store.sb.Select("job_id").From("performer_jobs").Where(squirrel.Eq{"performer_id": id}).OrderBy("job_id ASC").ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build jobs query")
	}
	if p.JobIDs, err = scanIDs(ctx, db, q, args...); err != nil {
		return nil, err
	}

	// 4. 成就
	q, args, err = d.store.sb.Select("name").From("performer_achievements").Where(squirrel.Eq{"performer_id": id}).OrderBy("name ASC").ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build achievements query")
	}
	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "query achievements %d", id)
	}
	defer rows.Close()
	p.Achievements = []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.Wrap(err, "scan achievement")
		}
		p.Achievements = append(p.Achievements, name)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate achievements")
	}

	return &p, nil
}

func scanIDs(ctx context.Context, db queryer, q string, args ...any) ([]int64, error) {
	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query ids")
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Wrap(err, "scan id")
		}
		ids = append(ids, id)
	}
	return ids, errors.Wrap(rows.Err(), "iterate ids")
}

func nullableID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}
