package repository

import (
	"context"
	"log/slog"

	"studio-booking/internal/domain/pricing"
	"studio-booking/internal/infra"
	"studio-booking/internal/infra/db"
	"studio-booking/internal/infra/uow"
	"studio-booking/internal/pkg/pgconv"
	"studio-booking/internal/usecase/commands"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const (
	selectTableColumns = `t.id, t.name, t.valid_from, t.valid_to, t.priority, t.status`
	selectItemColumns  = `i.id, i.price_table_id, i.studio_type_id, i.default_price_per_unit`
	selectRuleColumns  = `r.id, r.price_item_id, r.weekdays, r.explicit_date, r.start_minute, r.end_minute, r.price_per_unit, r.unit`

	bumpCatalogVersionSQL = `UPDATE catalog_meta SET version = version + 1 WHERE id`
)

// CatalogRepository stores the price catalog. Every write bumps
// catalog_meta.version in the same transaction; cross-row checks run with
// the parent row locked FOR UPDATE.
type CatalogRepository struct {
	uow    *uow.PostgresUoW
	logger *slog.Logger
}

func NewCatalogRepository(u *uow.PostgresUoW, logger *slog.Logger) *CatalogRepository {
	return &CatalogRepository{uow: u, logger: logger}
}

func (r *CatalogRepository) wrap(msg string, err error) error {
	return infra.WrapRepoErr(r.logger, infra.ClassifyPgError(err), msg, err)
}

func (r *CatalogRepository) bumpVersion(ctx context.Context, tx db.DBTX) error {
	if _, err := tx.Exec(ctx, bumpCatalogVersionSQL); err != nil {
		return r.wrap("failed to bump catalog version", err)
	}
	return nil
}

func (r *CatalogRepository) UpsertTable(ctx context.Context, t *pricing.PriceTable) error {
	return r.uow.Within(ctx, func(ctx context.Context, tx db.DBTX) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO price_tables (id, name, valid_from, valid_to, priority, status, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, now())
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				valid_from = EXCLUDED.valid_from,
				valid_to = EXCLUDED.valid_to,
				priority = EXCLUDED.priority,
				status = EXCLUDED.status,
				updated_at = now()`,
			t.ID(), t.Name(), pgconv.DateToPgtype(t.ValidFrom()), pgconv.DatePtrToPgtype(t.ValidTo()), t.Priority(), t.Status().String())
		if err != nil {
			return r.wrap("failed to upsert price table", err)
		}
		return r.bumpVersion(ctx, tx)
	})
}

func (r *CatalogRepository) UpsertItem(ctx context.Context, item *pricing.PriceItem, check commands.ItemCheck) error {
	return r.uow.Within(ctx, func(ctx context.Context, tx db.DBTX) error {
		var locked uuid.UUID
		if err := tx.QueryRow(ctx, `SELECT id FROM price_tables WHERE id = $1 FOR UPDATE`, item.PriceTableID()).Scan(&locked); err != nil {
			return r.wrap("failed to lock price table "+item.PriceTableID().String(), err)
		}

		siblings, err := r.queryItems(ctx, tx, `SELECT `+selectItemColumns+` FROM price_items i WHERE i.price_table_id = $1`, item.PriceTableID())
		if err != nil {
			return err
		}
		previous, err := r.queryItems(ctx, tx, `SELECT `+selectItemColumns+` FROM price_items i WHERE i.id = $1 FOR UPDATE`, item.ID())
		if err != nil {
			return err
		}
		var prev *pricing.PriceItem
		if len(previous) > 0 {
			prev = previous[0]
		}
		var ruleCount int
		if err := tx.QueryRow(ctx, `SELECT count(*) FROM price_rules WHERE price_item_id = $1`, item.ID()).Scan(&ruleCount); err != nil {
			return r.wrap("failed to count price rules", err)
		}
		if err := check(siblings, prev, ruleCount); err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO price_items (id, price_table_id, studio_type_id, default_price_per_unit, updated_at)
			VALUES ($1, $2, $3, $4, now())
			ON CONFLICT (id) DO UPDATE SET
				price_table_id = EXCLUDED.price_table_id,
				studio_type_id = EXCLUDED.studio_type_id,
				default_price_per_unit = EXCLUDED.default_price_per_unit,
				updated_at = now()`,
			item.ID(), item.PriceTableID(), item.StudioTypeID(), item.DefaultPricePerUnit().Amount())
		if err != nil {
			return r.wrap("failed to upsert price item", err)
		}
		return r.bumpVersion(ctx, tx)
	})
}

func (r *CatalogRepository) UpsertRule(ctx context.Context, rule *pricing.PriceRule, check commands.RuleCheck) error {
	return r.uow.Within(ctx, func(ctx context.Context, tx db.DBTX) error {
		var locked uuid.UUID
		if err := tx.QueryRow(ctx, `SELECT id FROM price_items WHERE id = $1 FOR UPDATE`, rule.PriceItemID()).Scan(&locked); err != nil {
			return r.wrap("failed to lock price item "+rule.PriceItemID().String(), err)
		}
		siblings, err := r.queryRules(ctx, tx, `SELECT `+selectRuleColumns+` FROM price_rules r WHERE r.price_item_id = $1`, rule.PriceItemID())
		if err != nil {
			return err
		}
		if err := check(siblings); err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO price_rules (id, price_item_id, weekdays, explicit_date, start_minute, end_minute, price_per_unit, unit, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
			ON CONFLICT (id) DO UPDATE SET
				price_item_id = EXCLUDED.price_item_id,
				weekdays = EXCLUDED.weekdays,
				explicit_date = EXCLUDED.explicit_date,
				start_minute = EXCLUDED.start_minute,
				end_minute = EXCLUDED.end_minute,
				price_per_unit = EXCLUDED.price_per_unit,
				unit = EXCLUDED.unit,
				updated_at = now()`,
			rule.ID(), rule.PriceItemID(), int16(rule.Weekdays()), pgconv.DatePtrToPgtype(rule.ExplicitDate()),
			rule.Window().Start.Minutes(), rule.Window().End.Minutes(), rule.PricePerUnit().Amount(), rule.Unit().String())
		if err != nil {
			return r.wrap("failed to upsert price rule", err)
		}
		return r.bumpVersion(ctx, tx)
	})
}

func (r *CatalogRepository) AdvanceLifecycle(ctx context.Context, advance func(*pricing.PriceTable) (*pricing.PriceTable, bool)) (int, error) {
	var n int
	err := r.uow.Within(ctx, func(ctx context.Context, tx db.DBTX) error {
		n = 0
		tables, err := r.queryTables(ctx, tx, `SELECT `+selectTableColumns+` FROM price_tables t WHERE t.status <> 'ENDED' FOR UPDATE`)
		if err != nil {
			return err
		}
		for _, t := range tables {
			next, changed := advance(t)
			if !changed {
				continue
			}
			if _, err := tx.Exec(ctx, `UPDATE price_tables SET status = $2, updated_at = now() WHERE id = $1`, next.ID(), next.Status().String()); err != nil {
				return r.wrap("failed to update price table status", err)
			}
			n++
		}
		if n == 0 {
			return nil
		}
		return r.bumpVersion(ctx, tx)
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (r *CatalogRepository) Version(ctx context.Context) (int64, error) {
	var version int64
	err := r.uow.WithDB(ctx, func(ctx context.Context, q db.DBTX) error {
		return q.QueryRow(ctx, `SELECT version FROM catalog_meta WHERE id`).Scan(&version)
	})
	if err != nil {
		return 0, r.wrap("failed to read catalog version", err)
	}
	return version, nil
}

// Snapshot reads the version and candidates in one repeatable-read
// transaction, so the version always describes the rows returned.
func (r *CatalogRepository) Snapshot(ctx context.Context, studioTypeID uuid.UUID, date pricing.Date) (pricing.CatalogSnapshot, error) {
	var snap pricing.CatalogSnapshot
	err := r.uow.WithinReadOnly(ctx, func(ctx context.Context, tx db.DBTX) error {
		if err := tx.QueryRow(ctx, `SELECT version FROM catalog_meta WHERE id`).Scan(&snap.Version); err != nil {
			return r.wrap("failed to read catalog version", err)
		}

		candidates, err := r.covering(ctx, tx, studioTypeID, date)
		if err != nil {
			return err
		}
		if len(candidates) == 0 {
			return nil
		}

		itemIDs := make([]uuid.UUID, len(candidates))
		for i, c := range candidates {
			itemIDs[i] = c.Item.ID()
		}
		rules, err := r.queryRules(ctx, tx, `SELECT `+selectRuleColumns+` FROM price_rules r WHERE r.price_item_id = ANY($1)`, itemIDs)
		if err != nil {
			return err
		}
		byItem := make(map[uuid.UUID][]*pricing.PriceRule, len(candidates))
		for _, rule := range rules {
			byItem[rule.PriceItemID()] = append(byItem[rule.PriceItemID()], rule)
		}
		for i := range candidates {
			candidates[i].Rules = byItem[candidates[i].Item.ID()]
		}
		snap.Candidates = candidates
		return nil
	})
	if err != nil {
		return pricing.CatalogSnapshot{}, err
	}
	return snap, nil
}

func (r *CatalogRepository) FindTablesCovering(ctx context.Context, studioTypeID uuid.UUID, date pricing.Date) ([]*pricing.PriceTable, error) {
	var tables []*pricing.PriceTable
	err := r.uow.WithDB(ctx, func(ctx context.Context, q db.DBTX) error {
		candidates, err := r.covering(ctx, q, studioTypeID, date)
		if err != nil {
			return err
		}
		tables = make([]*pricing.PriceTable, len(candidates))
		for i, c := range candidates {
			tables[i] = c.Table
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	pricing.RankTables(tables)
	return tables, nil
}

// covering lists every ACTIVE table whose validity covers date together with
// its item for studioTypeID.
func (r *CatalogRepository) covering(ctx context.Context, q db.DBTX, studioTypeID uuid.UUID, date pricing.Date) ([]pricing.Candidate, error) {
	rows, err := q.Query(ctx, `
		SELECT `+selectTableColumns+`, `+selectItemColumns+`
		FROM price_tables t
		JOIN price_items i ON i.price_table_id = t.id
		WHERE i.studio_type_id = $1
		  AND t.status = 'ACTIVE'
		  AND t.valid_from <= $2
		  AND (t.valid_to IS NULL OR t.valid_to >= $2)`,
		studioTypeID, pgconv.DateToPgtype(date))
	if err != nil {
		return nil, r.wrap("failed to query covering tables", err)
	}
	defer rows.Close()

	var out []pricing.Candidate
	for rows.Next() {
		var (
			tr tableRow
			ir itemRow
		)
		if err := rows.Scan(append(tr.fields(), ir.fields()...)...); err != nil {
			return nil, r.wrap("failed to scan covering table", err)
		}
		table, err := tr.toDomain()
		if err != nil {
			return nil, r.corrupt("price table", err)
		}
		item, err := ir.toDomain()
		if err != nil {
			return nil, r.corrupt("price item", err)
		}
		out = append(out, pricing.Candidate{Table: table, Item: item})
	}
	if err := rows.Err(); err != nil {
		return nil, r.wrap("failed to iterate covering tables", err)
	}
	return out, nil
}

func (r *CatalogRepository) corrupt(what string, err error) error {
	return infra.WrapRepoErr(r.logger, infra.KindDBFailure, "stored "+what+" is invalid", err)
}

func (r *CatalogRepository) queryTables(ctx context.Context, q db.DBTX, sql string, args ...any) ([]*pricing.PriceTable, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, r.wrap("failed to query price tables", err)
	}
	defer rows.Close()
	var out []*pricing.PriceTable
	for rows.Next() {
		var tr tableRow
		if err := rows.Scan(tr.fields()...); err != nil {
			return nil, r.wrap("failed to scan price table", err)
		}
		t, err := tr.toDomain()
		if err != nil {
			return nil, r.corrupt("price table", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, r.wrap("failed to iterate price tables", err)
	}
	return out, nil
}

func (r *CatalogRepository) queryItems(ctx context.Context, q db.DBTX, sql string, args ...any) ([]*pricing.PriceItem, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, r.wrap("failed to query price items", err)
	}
	defer rows.Close()
	var out []*pricing.PriceItem
	for rows.Next() {
		var ir itemRow
		if err := rows.Scan(ir.fields()...); err != nil {
			return nil, r.wrap("failed to scan price item", err)
		}
		i, err := ir.toDomain()
		if err != nil {
			return nil, r.corrupt("price item", err)
		}
		out = append(out, i)
	}
	if err := rows.Err(); err != nil {
		return nil, r.wrap("failed to iterate price items", err)
	}
	return out, nil
}

func (r *CatalogRepository) queryRules(ctx context.Context, q db.DBTX, sql string, args ...any) ([]*pricing.PriceRule, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, r.wrap("failed to query price rules", err)
	}
	defer rows.Close()
	var out []*pricing.PriceRule
	for rows.Next() {
		var rr ruleRow
		if err := rows.Scan(rr.fields()...); err != nil {
			return nil, r.wrap("failed to scan price rule", err)
		}
		rule, err := rr.toDomain()
		if err != nil {
			return nil, r.corrupt("price rule", err)
		}
		out = append(out, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, r.wrap("failed to iterate price rules", err)
	}
	return out, nil
}

type tableRow struct {
	id        uuid.UUID
	name      string
	validFrom pgtype.Date
	validTo   pgtype.Date
	priority  int32
	status    string
}

func (t *tableRow) fields() []any {
	return []any{&t.id, &t.name, &t.validFrom, &t.validTo, &t.priority, &t.status}
}

func (t *tableRow) toDomain() (*pricing.PriceTable, error) {
	status, err := pricing.ParseLifecycleStatus(t.status)
	if err != nil {
		return nil, err
	}
	return pricing.NewPriceTable(pricing.PriceTableParams{
		ID:        t.id,
		Name:      t.name,
		ValidFrom: pgconv.DateFromPgtype(t.validFrom),
		ValidTo:   pgconv.DatePtrFromPgtype(t.validTo),
		Priority:  int(t.priority),
		Status:    status,
	})
}

type itemRow struct {
	id           uuid.UUID
	priceTableID uuid.UUID
	studioTypeID uuid.UUID
	defaultPrice int64
}

func (i *itemRow) fields() []any {
	return []any{&i.id, &i.priceTableID, &i.studioTypeID, &i.defaultPrice}
}

func (i *itemRow) toDomain() (*pricing.PriceItem, error) {
	return pricing.NewPriceItem(i.id, i.priceTableID, i.studioTypeID, i.defaultPrice)
}

type ruleRow struct {
	id           uuid.UUID
	priceItemID  uuid.UUID
	weekdays     int16
	explicitDate pgtype.Date
	startMinute  int32
	endMinute    int32
	pricePerUnit int64
	unit         string
}

func (r *ruleRow) fields() []any {
	return []any{&r.id, &r.priceItemID, &r.weekdays, &r.explicitDate, &r.startMinute, &r.endMinute, &r.pricePerUnit, &r.unit}
}

func (r *ruleRow) toDomain() (*pricing.PriceRule, error) {
	unit, err := pricing.ParseUnit(r.unit)
	if err != nil {
		return nil, err
	}
	return pricing.NewPriceRule(pricing.PriceRuleParams{
		ID:           r.id,
		PriceItemID:  r.priceItemID,
		Weekdays:     pricing.WeekdaySet(r.weekdays),
		ExplicitDate: pgconv.DatePtrFromPgtype(r.explicitDate),
		StartTime:    pricing.TimeOfDay(r.startMinute),
		EndTime:      pricing.TimeOfDay(r.endMinute),
		PricePerUnit: r.pricePerUnit,
		Unit:         unit,
	})
}
