//go:build integration

// Integration tests for the PostgreSQL repositories.  Tests require Docker
// and are gated behind the "integration" build tag.
package repositories_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/reubenai/dealsense/internal/domain/criteria"
	"github.com/reubenai/dealsense/internal/domain/deal"
	"github.com/reubenai/dealsense/internal/domain/fund"
	"github.com/reubenai/dealsense/internal/infrastructure/database/postgres/repositories"
	appErrors "github.com/reubenai/dealsense/pkg/errors"
	"github.com/reubenai/dealsense/pkg/types/common"
)

// ─────────────────────────────────────────────────────────────────────────────
// Test helpers
// ─────────────────────────────────────────────────────────────────────────────

// startPostgres launches a PostgreSQL 16 container, applies the schema and
// returns a connected *sql.DB.
func startPostgres(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "dealsense_test",
		},
		WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://test:test@%s:%s/dealsense_test?sslmode=disable", host, port.Port())
	db, err := sql.Open("pgx", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.PingContext(ctx))

	applySchema(t, db)
	return db
}

func applySchema(t *testing.T, db *sql.DB) {
	t.Helper()

	ddl := `
	CREATE TABLE funds (
		id                 UUID PRIMARY KEY,
		name               TEXT        NOT NULL,
		fund_type          TEXT        NOT NULL,
		focus_industries   JSONB       NOT NULL DEFAULT '[]'::jsonb,
		focus_stages       JSONB       NOT NULL DEFAULT '[]'::jsonb,
		focus_geographies  JSONB       NOT NULL DEFAULT '[]'::jsonb,
		created_at         TIMESTAMPTZ NOT NULL,
		updated_at         TIMESTAMPTZ NOT NULL
	);

	CREATE TABLE investment_strategies (
		id                        UUID PRIMARY KEY,
		fund_id                   UUID        NOT NULL REFERENCES funds (id) ON DELETE CASCADE,
		template                  JSONB       NOT NULL,
		min_alignment_confidence  INT         NOT NULL DEFAULT 70,
		created_at                TIMESTAMPTZ NOT NULL,
		updated_at                TIMESTAMPTZ NOT NULL,
		CONSTRAINT investment_strategies_fund_id_key UNIQUE (fund_id)
	);

	CREATE TABLE deals (
		id             UUID PRIMARY KEY,
		fund_id        UUID             NOT NULL REFERENCES funds (id) ON DELETE CASCADE,
		company_name   TEXT             NOT NULL,
		industry       TEXT             NOT NULL DEFAULT '',
		stage          TEXT             NOT NULL,
		description    TEXT             NOT NULL DEFAULT '',
		website        TEXT             NOT NULL DEFAULT '',
		geography      TEXT             NOT NULL DEFAULT '',
		funding_stage  TEXT             NOT NULL DEFAULT '',
		financials     JSONB            NOT NULL DEFAULT '{}'::jsonb,
		overall_score  DOUBLE PRECISION NOT NULL DEFAULT 0,
		rag_status     TEXT             NOT NULL DEFAULT '',
		created_at     TIMESTAMPTZ      NOT NULL,
		updated_at     TIMESTAMPTZ      NOT NULL
	);

	CREATE TABLE activity_events (
		id          UUID PRIMARY KEY,
		deal_id     UUID        NOT NULL REFERENCES deals (id) ON DELETE CASCADE,
		kind        TEXT        NOT NULL,
		actor       TEXT        NOT NULL DEFAULT 'system',
		detail      TEXT        NOT NULL DEFAULT '',
		created_at  TIMESTAMPTZ NOT NULL
	);

	CREATE TABLE deal_analysis_sources (
		id          UUID PRIMARY KEY,
		deal_id     UUID             NOT NULL REFERENCES deals (id) ON DELETE CASCADE,
		pack_name   TEXT             NOT NULL,
		data        JSONB            NOT NULL DEFAULT '{}'::jsonb,
		sources     JSONB            NOT NULL DEFAULT '[]'::jsonb,
		confidence  DOUBLE PRECISION NOT NULL DEFAULT 0,
		degraded    BOOLEAN          NOT NULL DEFAULT FALSE,
		created_at  TIMESTAMPTZ      NOT NULL,
		updated_at  TIMESTAMPTZ      NOT NULL,
		CONSTRAINT deal_analysis_sources_deal_pack_key UNIQUE (deal_id, pack_name)
	);
	`
	_, err := db.Exec(ddl)
	require.NoError(t, err)
}

func seedTestFund(t *testing.T, db *sql.DB) *fund.Fund {
	t.Helper()

	f := &fund.Fund{
		Name:            "Meridian Ventures",
		Type:            common.FundTypeVC,
		FocusIndustries: []string{"fintech", "healthcare"},
	}
	f.ID = common.NewID()
	f.CreatedAt = time.Now().UTC().Truncate(time.Microsecond)
	f.UpdatedAt = f.CreatedAt

	repo := repositories.NewFundRepository(db, nil)
	require.NoError(t, repo.Create(context.Background(), f))
	return f
}

func newTestDeal(fundID common.ID, company string) *deal.Deal {
	now := time.Now().UTC().Truncate(time.Microsecond)
	d := &deal.Deal{
		FundID:      fundID,
		CompanyName: company,
		Industry:    "fintech",
		Stage:       deal.StageSourced,
		Geography:   "EMEA",
		Financials: deal.Financials{
			ARRUSD:        1_200_000,
			GrowthRatePct: 140,
		},
	}
	d.ID = common.NewID()
	d.CreatedAt = now
	d.UpdatedAt = now
	return d
}

// ─────────────────────────────────────────────────────────────────────────────
// Contract tests
// ─────────────────────────────────────────────────────────────────────────────

func TestDealRepository_RoundTrip(t *testing.T) {
	db := startPostgres(t)
	f := seedTestFund(t, db)
	repo := repositories.NewDealRepository(db, nil)
	ctx := context.Background()

	d := newTestDeal(f.ID, "Acme Payments")
	require.NoError(t, repo.Create(ctx, d))

	found, err := repo.GetByID(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, d.CompanyName, found.CompanyName)
	assert.Equal(t, deal.StageSourced, found.Stage)
	assert.InDelta(t, 1_200_000, found.Financials.ARRUSD, 0.01)

	found.Description = "Payment rails for marketplaces"
	found.Stage = deal.StageScreening
	require.NoError(t, repo.Update(ctx, found))

	updated, err := repo.GetByID(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, deal.StageScreening, updated.Stage)
	assert.Equal(t, "Payment rails for marketplaces", updated.Description)

	require.NoError(t, repo.Delete(ctx, d.ID))
	_, err = repo.GetByID(ctx, d.ID)
	require.Error(t, err)
	assert.True(t, appErrors.IsNotFound(err))
}

func TestDealRepository_ListFiltersByFundAndStage(t *testing.T) {
	db := startPostgres(t)
	f1 := seedTestFund(t, db)
	f2 := seedTestFund(t, db)
	repo := repositories.NewDealRepository(db, nil)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newTestDeal(f1.ID, "Alpha")))
	require.NoError(t, repo.Create(ctx, newTestDeal(f1.ID, "Beta")))
	screened := newTestDeal(f1.ID, "Gamma")
	screened.Stage = deal.StageScreening
	require.NoError(t, repo.Create(ctx, screened))
	require.NoError(t, repo.Create(ctx, newTestDeal(f2.ID, "Delta")))

	deals, total, err := repo.List(ctx, deal.ListFilter{FundID: f1.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, deals, 3)

	deals, total, err = repo.List(ctx, deal.ListFilter{FundID: f1.ID, Stage: deal.StageScreening})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, deals, 1)
	assert.Equal(t, "Gamma", deals[0].CompanyName)
}

func TestDealRepository_UpdateScoreOnly(t *testing.T) {
	db := startPostgres(t)
	f := seedTestFund(t, db)
	repo := repositories.NewDealRepository(db, nil)
	ctx := context.Background()

	d := newTestDeal(f.ID, "Acme Payments")
	require.NoError(t, repo.Create(ctx, d))
	require.NoError(t, repo.UpdateScore(ctx, d.ID, 78.5, common.RAGGreen))

	found, err := repo.GetByID(ctx, d.ID)
	require.NoError(t, err)
	assert.InDelta(t, 78.5, found.OverallScore, 0.001)
	assert.Equal(t, common.RAGGreen, found.RAG)
	assert.Equal(t, d.CompanyName, found.CompanyName)

	err = repo.UpdateScore(ctx, common.NewID(), 10, common.RAGRed)
	require.Error(t, err)
	assert.True(t, appErrors.IsNotFound(err))
}

func TestStrategyRepository_UpsertReplacesTemplate(t *testing.T) {
	db := startPostgres(t)
	f := seedTestFund(t, db)
	repo := repositories.NewStrategyRepository(db, nil)
	ctx := context.Background()

	tpl, ok := criteria.DefaultTemplate(common.FundTypeVC)
	require.True(t, ok)

	s := &fund.Strategy{
		FundID:                 f.ID,
		Template:               *tpl,
		MinAlignmentConfidence: 70,
	}
	s.ID = common.NewID()
	s.CreatedAt = time.Now().UTC()
	require.NoError(t, repo.Upsert(ctx, s))

	s.Template.Name = "Custom VC Strategy"
	s.MinAlignmentConfidence = 85
	require.NoError(t, repo.Upsert(ctx, s))

	loaded, err := repo.GetByFund(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, "Custom VC Strategy", loaded.Template.Name)
	assert.Equal(t, 85, loaded.MinAlignmentConfidence)
	assert.Len(t, loaded.Template.Categories, len(tpl.Categories))

	// Only one row despite two upserts.
	var count int
	require.NoError(t, db.QueryRow(
		`SELECT COUNT(*) FROM investment_strategies WHERE fund_id = $1`, f.ID).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestEnrichmentRepository_UpsertSupersedes(t *testing.T) {
	db := startPostgres(t)
	f := seedTestFund(t, db)
	dealRepo := repositories.NewDealRepository(db, nil)
	repo := repositories.NewEnrichmentRepository(db, nil)
	ctx := context.Background()

	d := newTestDeal(f.ID, "Acme Payments")
	require.NoError(t, dealRepo.Create(ctx, d))

	first := &deal.EnrichmentRecord{
		ID:         common.NewID(),
		DealID:     d.ID,
		PackName:   "market",
		Data:       json.RawMessage(`{"tam_usd": 1000000000}`),
		Sources:    []string{"https://example.com/report"},
		Confidence: 0.4,
		Degraded:   true,
		CreatedAt:  common.Now(),
	}
	require.NoError(t, repo.Upsert(ctx, first))

	second := &deal.EnrichmentRecord{
		ID:         common.NewID(),
		DealID:     d.ID,
		PackName:   "market",
		Data:       json.RawMessage(`{"tam_usd": 2500000000}`),
		Sources:    []string{"https://example.com/report", "https://example.com/filing"},
		Confidence: 0.8,
		Degraded:   false,
		CreatedAt:  common.Now(),
	}
	require.NoError(t, repo.Upsert(ctx, second))

	loaded, err := repo.GetByDealAndPack(ctx, d.ID, "market")
	require.NoError(t, err)
	assert.JSONEq(t, `{"tam_usd": 2500000000}`, string(loaded.Data))
	assert.InDelta(t, 0.8, loaded.Confidence, 0.001)
	assert.False(t, loaded.Degraded)
	assert.Len(t, loaded.Sources, 2)

	records, err := repo.GetByDeal(ctx, d.ID)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestActivityRepository_ListNewestFirst(t *testing.T) {
	db := startPostgres(t)
	f := seedTestFund(t, db)
	dealRepo := repositories.NewDealRepository(db, nil)
	repo := repositories.NewActivityRepository(db, nil)
	ctx := context.Background()

	d := newTestDeal(f.ID, "Acme Payments")
	require.NoError(t, dealRepo.Create(ctx, d))

	base := time.Now().UTC().Truncate(time.Microsecond)
	for i, kind := range []string{"deal.created", "deal.enriched", "deal.scored"} {
		ev := &deal.ActivityEvent{
			ID:        common.NewID(),
			DealID:    d.ID,
			Kind:      kind,
			Actor:     "system",
			CreatedAt: common.Timestamp(base.Add(time.Duration(i) * time.Second)),
		}
		require.NoError(t, repo.Record(ctx, ev))
	}

	events, total, err := repo.ListByDeal(ctx, d.ID, common.Pagination{PageSize: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, events, 2)
	assert.Equal(t, "deal.scored", events[0].Kind)
	assert.Equal(t, "deal.enriched", events[1].Kind)
}
