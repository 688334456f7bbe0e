// Copyright 2026 The ClubLedger Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package app wires configuration, storage and services together for the
// server and operator binaries.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/clubledger/clubledger/internal/attendance"
	"github.com/clubledger/clubledger/internal/audit"
	"github.com/clubledger/clubledger/internal/clock"
	"github.com/clubledger/clubledger/internal/config"
	"github.com/clubledger/clubledger/internal/match"
	"github.com/clubledger/clubledger/internal/member"
	"github.com/clubledger/clubledger/internal/observability/logger"
	"github.com/clubledger/clubledger/internal/observability/metrics"
	"github.com/clubledger/clubledger/internal/operator"
	"github.com/clubledger/clubledger/internal/ranking"
	"github.com/clubledger/clubledger/internal/session"
	"github.com/clubledger/clubledger/internal/store/memory"
	"github.com/clubledger/clubledger/internal/store/postgres"
	redisstore "github.com/clubledger/clubledger/internal/store/redis"
	"github.com/clubledger/clubledger/internal/tenant"
	transportHTTP "github.com/clubledger/clubledger/internal/transport/http"
	"github.com/clubledger/clubledger/internal/visit"
)

// Stores are the repositories services are built on.
type Stores struct {
	Tenants     tenant.Repository
	Summaries   tenant.SummaryRepository
	Members     member.Repository
	Sessions    session.Repository
	Matches     match.Repository
	Attendances attendance.Repository
	Visits      visit.Repository
}

// App is a fully wired instance of the ledger.
type App struct {
	Config   *config.Config
	Calendar *clock.Calendar
	// DB is nil when running on the in-memory store.
	DB *postgres.DB
	// Cache is nil when no Redis URL is configured or Redis is unreachable.
	Cache  *redisstore.RankingCache
	Stores Stores

	Tenants    *tenant.Service
	Resolver   *tenant.Resolver
	Members    *member.Service
	Sessions   *session.Ledger
	Matches    *match.Service
	Duplicates *match.Detector
	Attendance *attendance.Service
	Rankings   *ranking.Aggregator
	Visits     *visit.Service
	Operators  *operator.Tokens
}

// New opens storage per cfg and builds every service. instruments may be nil.
func New(ctx context.Context, cfg *config.Config, instruments *metrics.Instruments) (*App, error) {
	loc, err := clock.ParseOffset(cfg.Calendar.UTCOffset)
	if err != nil {
		return nil, fmt.Errorf("invalid CALENDAR_UTC_OFFSET: %w", err)
	}
	mode, err := tenant.ParseMode(cfg.Tenancy.Mode)
	if err != nil {
		return nil, err
	}

	a := &App{Config: cfg, Calendar: clock.NewCalendar(loc)}
	if err := a.openStores(ctx); err != nil {
		return nil, err
	}

	auditLogger := audit.NewSlogLogger()
	hasher := tenant.NewPasswordHasher(
		cfg.Security.Argon2Memory,
		cfg.Security.Argon2Iterations,
		cfg.Security.Argon2Parallelism,
		cfg.Security.Argon2SaltLength,
		cfg.Security.Argon2KeyLength,
	)

	a.Tenants = tenant.NewService(a.Stores.Tenants, a.Stores.Summaries, hasher, auditLogger)
	a.Resolver = tenant.NewResolver(tenant.Config{
		Mode:             mode,
		DefaultSlug:      cfg.Tenancy.DefaultSlug,
		BaseDomain:       cfg.Tenancy.BaseDomain,
		LegacyNullCompat: cfg.Tenancy.LegacyNullCompat,
	}, a.Stores.Tenants)
	a.Members = member.NewService(a.Stores.Members, a.Tenants, auditLogger)
	a.Sessions = session.NewLedger(a.Stores.Sessions, a.Calendar, auditLogger)

	reconciler := attendance.NewReconciler(a.Stores.Attendances, instruments)
	a.Matches = match.NewService(a.Stores.Matches, a.Members, a.Sessions, reconciler, a.Calendar, auditLogger, instruments)
	a.Duplicates = match.NewDetector(a.Stores.Matches, a.Calendar, cfg.Matches.DuplicateWindow, instruments)
	a.Attendance = attendance.NewService(a.Stores.Attendances, a.Members, a.Sessions, auditLogger)

	opts := []ranking.Option{
		ranking.WithBatchSize(cfg.Ranking.BatchSize),
		ranking.WithMetrics(instruments),
	}
	if a.Cache != nil {
		opts = append(opts, ranking.WithCache(a.Cache))
	}
	a.Rankings = ranking.NewAggregator(a.Members, a.Matches, a.Stores.Attendances, a.Sessions, a.Calendar, opts...)
	a.Members.SetInvalidator(a.Rankings)
	a.Matches.SetInvalidator(a.Rankings)
	a.Attendance.SetInvalidator(a.Rankings)

	a.Visits = visit.NewService(a.Stores.Visits, a.Calendar)
	a.Operators = operator.NewTokens(cfg.Operator.TokenSecret)

	return a, nil
}

func (a *App) openStores(ctx context.Context) error {
	cfg := a.Config
	switch cfg.Database.Driver {
	case config.DriverMemory:
		s := memory.New()
		a.Stores = Stores{
			Tenants:     s.Tenants(),
			Summaries:   s.Summaries(),
			Members:     s.Members(),
			Sessions:    s.Sessions(),
			Matches:     s.Matches(),
			Attendances: s.Attendances(),
			Visits:      s.Visits(),
		}
		slog.WarnContext(ctx, "using in-memory store, data is lost on exit", logger.Component("app"))

	default:
		db, err := postgres.New(ctx, postgres.Config{
			URL:          cfg.Database.URL,
			Host:         cfg.Database.Host,
			Port:         cfg.Database.Port,
			User:         cfg.Database.User,
			Password:     cfg.Database.Password,
			Database:     cfg.Database.Database,
			SSLMode:      cfg.Database.SSLMode,
			MaxOpenConns: cfg.Database.MaxOpenConns,
			MaxIdleConns: cfg.Database.MaxIdleConns,
		})
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		a.DB = db
		if cfg.Database.AutoMigrate {
			if err := db.Migrate(ctx); err != nil {
				db.Close()
				return fmt.Errorf("failed to migrate database: %w", err)
			}
		}
		a.Stores = Stores{
			Tenants:     postgres.NewTenantRepository(db),
			Summaries:   postgres.NewSummaryRepository(db),
			Members:     postgres.NewMemberRepository(db),
			Sessions:    postgres.NewSessionRepository(db),
			Matches:     postgres.NewMatchRepository(db),
			Attendances: postgres.NewAttendanceRepository(db),
			Visits:      postgres.NewVisitRepository(db),
		}
	}

	if cfg.Redis.URL != "" {
		cache, err := redisstore.Connect(ctx, cfg.Redis.URL, cfg.Redis.CacheTTL)
		if err != nil {
			slog.WarnContext(ctx, "ranking cache disabled",
				logger.Component("app"),
				logger.Error(err),
			)
		} else {
			a.Cache = cache
		}
	}
	return nil
}

// HTTPDependencies exposes the services to the HTTP transport.
func (a *App) HTTPDependencies() transportHTTP.Dependencies {
	deps := transportHTTP.Dependencies{
		Tenants:    a.Tenants,
		Resolver:   a.Resolver,
		Members:    a.Members,
		Sessions:   a.Sessions,
		Matches:    a.Matches,
		Duplicates: a.Duplicates,
		Attendance: a.Attendance,
		Rankings:   a.Rankings,
		Visits:     a.Visits,
		Operators:  a.Operators,
		Calendar:   a.Calendar,
	}
	if a.DB != nil {
		deps.Storage = a.DB
	}
	return deps
}

// Close releases storage connections.
func (a *App) Close() {
	if a.Cache != nil {
		if err := a.Cache.Close(); err != nil {
			slog.Warn("failed to close ranking cache", logger.Error(err))
		}
	}
	if a.DB != nil {
		a.DB.Close()
	}
}
