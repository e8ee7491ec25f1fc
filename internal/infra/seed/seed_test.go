//go:build unit

package seed_test

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"studio-booking/internal/domain/pricing"
	"studio-booking/internal/domain/studio"
	"studio-booking/internal/infra/memstore"
	"studio-booking/internal/infra/seed"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const seedJSON = `{
  "studioTypes": [{"id": "11111111-1111-4111-8111-111111111111", "name": "Standard", "minArea": 20, "maxArea": 40,
                   "openTime": "08:00", "closingBoundary": "22:00", "latestEndTime": "23:00"}],
  "resources": [{"id": "33333333-3333-4333-8333-333333333331", "studioTypeId": "11111111-1111-4111-8111-111111111111",
                 "locationId": "22222222-2222-4222-8222-222222222222", "name": "Room A"}],
  "services": [{"id": "44444444-4444-4444-8444-444444444444", "name": "Lighting Kit", "fee": 50000}]
}`

func writeSeed(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestApply(t *testing.T) {
	ctx := context.Background()
	data, err := seed.Load(writeSeed(t, seedJSON))
	require.NoError(t, err)

	dir := memstore.NewDirectory()
	require.NoError(t, seed.Apply(ctx, dir, data, slog.Default()))

	st, err := dir.StudioType(ctx, uuid.MustParse("11111111-1111-4111-8111-111111111111"))
	require.NoError(t, err)
	assert.Equal(t, pricing.MustTimeOfDay("22:00"), st.ClosingBoundary())

	rooms, err := dir.ResourcesAt(ctx, st.ID(), uuid.MustParse("22222222-2222-4222-8222-222222222222"))
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, "Room A", rooms[0].Name())

	svcs, err := dir.Services(ctx, []uuid.UUID{uuid.MustParse("44444444-4444-4444-8444-444444444444")})
	require.NoError(t, err)
	require.Len(t, svcs, 1)
	assert.Equal(t, int64(50000), svcs[0].Fee())
}

func TestApplyRejectsInvalidHours(t *testing.T) {
	data := seed.Data{StudioTypes: []seed.StudioTypeEntry{{
		ID: uuid.New(), Name: "Broken", OpenTime: "22:00", ClosingBoundary: "08:00", LatestEndTime: "23:00",
	}}}

	err := seed.Apply(context.Background(), memstore.NewDirectory(), data, slog.Default())
	require.Error(t, err)
	assert.ErrorIs(t, err, studio.ErrInvalidHours)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := seed.Load(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
}
