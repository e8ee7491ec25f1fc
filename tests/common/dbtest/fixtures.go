//go:build unit || e2e

package dbtest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

// Fixed ids shared by e2e suites. The studio type opens 08:00, closes 22:00
// and allows overtime until 23:00.
var (
	StudioTypeID = uuid.MustParse("11111111-1111-4111-8111-111111111111")
	LocationID   = uuid.MustParse("22222222-2222-4222-8222-222222222222")
	ResourceAID  = uuid.MustParse("33333333-3333-4333-8333-333333333331")
	ResourceBID  = uuid.MustParse("33333333-3333-4333-8333-333333333332")
	ServiceID    = uuid.MustParse("44444444-4444-4444-8444-444444444444")
)

func CreateTestResource(t *testing.T, db DBLike, studioTypeID, locationID uuid.UUID, name string) uuid.UUID {
	t.Helper()

	resourceID := uuid.New()
	_, err := db.Exec(context.Background(),
		"INSERT INTO studio_resources (id, studio_type_id, location_id, name) VALUES ($1, $2, $3, $4)",
		resourceID, studioTypeID, locationID, name)
	require.NoError(t, err)
	return resourceID
}

// CreateTestPriceTable inserts an ACTIVE table with one item for the studio
// type and bumps the catalog version so cached plans are dropped.
func CreateTestPriceTable(t *testing.T, db DBLike, studioTypeID uuid.UUID, validFrom time.Time, priority int, defaultPerHour int64) (tableID, itemID uuid.UUID) {
	t.Helper()

	ctx := context.Background()
	tableID, itemID = uuid.New(), uuid.New()
	_, err := db.Exec(ctx,
		"INSERT INTO price_tables (id, name, valid_from, priority, status) VALUES ($1, $2, $3, $4, 'ACTIVE')",
		tableID, "table "+tableID.String()[:8], validFrom, priority)
	require.NoError(t, err)
	_, err = db.Exec(ctx,
		"INSERT INTO price_items (id, price_table_id, studio_type_id, default_price_per_unit) VALUES ($1, $2, $3, $4)",
		itemID, tableID, studioTypeID, defaultPerHour)
	require.NoError(t, err)
	bumpCatalogVersion(t, db)
	return tableID, itemID
}

// CreateTestPriceRule inserts a rule; weekdays is the bitmask used by the
// catalog (bit 0 = Sunday) and start/end are minutes after midnight.
func CreateTestPriceRule(t *testing.T, db DBLike, itemID uuid.UUID, weekdays int16, startMinute, endMinute int, perUnit int64, unit string) uuid.UUID {
	t.Helper()

	ruleID := uuid.New()
	_, err := db.Exec(context.Background(),
		`INSERT INTO price_rules (id, price_item_id, weekdays, start_minute, end_minute, price_per_unit, unit)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		ruleID, itemID, weekdays, startMinute, endMinute, perUnit, unit)
	require.NoError(t, err)
	bumpCatalogVersion(t, db)
	return ruleID
}

func CountReservedSlots(t *testing.T, db DBLike, resourceID uuid.UUID) int {
	t.Helper()

	var n int
	err := db.QueryRow(context.Background(),
		"SELECT count(*) FROM reserved_slots WHERE resource_id = $1", resourceID).Scan(&n)
	require.NoError(t, err)
	return n
}

func bumpCatalogVersion(t *testing.T, db DBLike) {
	t.Helper()
	_, err := db.Exec(context.Background(), "UPDATE catalog_meta SET version = version + 1 WHERE id")
	require.NoError(t, err)
}

// inserts basic reference data needed by tests
func SeedReferenceData(pool *pgxpool.Pool) error {
	ctx := context.Background()

	stmts := []struct {
		sql  string
		args []any
	}{
		{`INSERT INTO catalog_meta (id, version) VALUES (TRUE, 0) ON CONFLICT (id) DO NOTHING`, nil},
		{`INSERT INTO studio_types (id, name, min_area, max_area, open_minute, closing_minute, latest_end_minute)
		  VALUES ($1, 'Standard Studio', 20, 40, 480, 1320, 1380) ON CONFLICT (id) DO NOTHING`,
			[]any{StudioTypeID}},
		{`INSERT INTO studio_resources (id, studio_type_id, location_id, name) VALUES
		    ($1, $3, $4, 'Room A'),
		    ($2, $3, $4, 'Room B')
		  ON CONFLICT (id) DO NOTHING`,
			[]any{ResourceAID, ResourceBID, StudioTypeID, LocationID}},
		{`INSERT INTO services (id, name, fee) VALUES ($1, 'Lighting Kit', 50000) ON CONFLICT (id) DO NOTHING`,
			[]any{ServiceID}},
	}
	for _, st := range stmts {
		if _, err := pool.Exec(ctx, st.sql, st.args...); err != nil {
			return err
		}
	}

	return nil
}

var (
	buildTruncateOnce sync.Once
	truncateSQL       atomic.Value // string
)

// truncates all tables and reseeds reference data. catalog_meta survives so
// the catalog version keeps growing and cached day plans never match again.
func ResetDB(pool *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	buildTruncateOnce.Do(func() {
		rows, err := pool.Query(ctx, `
		  SELECT 'public.' || quote_ident(tablename)
		  FROM pg_tables
		  WHERE schemaname = 'public'
		    AND tablename NOT IN ('atlas_schema_revisions', 'catalog_meta')`)
		if err != nil {
			truncateSQL.Store("")
			return
		}
		defer rows.Close()
		var tables []string
		for rows.Next() {
			var t string
			if err := rows.Scan(&t); err != nil {
				truncateSQL.Store("")
				return
			}
			tables = append(tables, t)
		}
		if rows.Err() != nil {
			truncateSQL.Store("")
			return
		}
		if len(tables) == 0 {
			truncateSQL.Store("SELECT 1")
			return
		}
		truncateSQL.Store("TRUNCATE " + strings.Join(tables, ", ") + " RESTART IDENTITY CASCADE;")
	})
	sqlAny := truncateSQL.Load()
	if sqlAny == nil || sqlAny.(string) == "" {
		return fmt.Errorf("failed to build TRUNCATE SQL")
	}
	if _, err := pool.Exec(ctx, sqlAny.(string)); err != nil {
		return err
	}

	return SeedReferenceData(pool)
}
