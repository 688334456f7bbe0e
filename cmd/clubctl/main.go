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

// Command clubctl runs operator tasks against a ClubLedger database:
// schema migration, club provisioning, legacy backfills and operator tokens.
package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/clubledger/clubledger/internal/app"
	"github.com/clubledger/clubledger/internal/config"
	"github.com/clubledger/clubledger/internal/observability/logger"
	"github.com/clubledger/clubledger/internal/tenant"
	"github.com/urfave/cli/v2"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger.InitLogger(logger.Config{
		Level:       cfg.Observability.LogLevel,
		Format:      "text",
		ServiceName: "clubctl",
	})

	cliApp := &cli.App{
		Name:  "clubctl",
		Usage: "ClubLedger operator tasks",
		Commands: []*cli.Command{
			newMigrateCommand(cfg),
			newClubCommand(cfg),
			newBackfillCommand(cfg),
			newTokenCommand(cfg),
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// withApp opens storage for the duration of one command.
func withApp(c *cli.Context, cfg *config.Config, fn func(*app.App) error) error {
	a, err := app.New(c.Context, cfg, nil)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

func requirePostgres(a *app.App) error {
	if a.DB == nil {
		return errors.New("command requires STORE_DRIVER=postgres")
	}
	return nil
}

func newMigrateCommand(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "apply the database schema",
		Action: func(c *cli.Context) error {
			return withApp(c, cfg, func(a *app.App) error {
				if err := requirePostgres(a); err != nil {
					return err
				}
				fmt.Println("Applying schema...")
				if err := a.DB.Migrate(c.Context); err != nil {
					return err
				}
				fmt.Println("Migration successful.")
				return nil
			})
		},
	}
}

func newClubCommand(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "club",
		Usage: "manage clubs",
		Subcommands: []*cli.Command{
			{
				Name:  "create",
				Usage: "provision a club",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Required: true},
					&cli.StringFlag{Name: "slug", Required: true},
					&cli.StringFlag{Name: "admin-password", EnvVars: []string{"CLUB_ADMIN_PASSWORD"}},
					&cli.StringFlag{Name: "join-code", EnvVars: []string{"CLUB_JOIN_CODE"}},
				},
				Action: func(c *cli.Context) error {
					return withApp(c, cfg, func(a *app.App) error {
						t, err := a.Tenants.Provision(c.Context, tenant.ProvisionInput{
							Name:          c.String("name"),
							Slug:          c.String("slug"),
							AdminPassword: c.String("admin-password"),
							JoinCode:      c.String("join-code"),
						})
						if err != nil {
							return err
						}
						fmt.Printf("Created club %s (%s)\n", t.Slug, t.ID)
						return nil
					})
				},
			},
			{
				Name:  "join-code",
				Usage: "set or clear a club's join code",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "slug", Required: true},
					&cli.StringFlag{Name: "code", Usage: "empty closes self-registration"},
				},
				Action: func(c *cli.Context) error {
					return withApp(c, cfg, func(a *app.App) error {
						t, err := a.Tenants.GetBySlug(c.Context, c.String("slug"))
						if err != nil {
							return err
						}
						return a.Tenants.SetJoinCode(c.Context, t, c.String("code"))
					})
				},
			},
			{
				Name:  "list",
				Usage: "list clubs",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "q", Usage: "name or slug filter"},
					&cli.IntFlag{Name: "limit", Value: 50},
				},
				Action: func(c *cli.Context) error {
					return withApp(c, cfg, func(a *app.App) error {
						clubs, err := a.Tenants.Search(c.Context, c.String("q"), c.Int("limit"))
						if err != nil {
							return err
						}
						w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
						fmt.Fprintln(w, "SLUG\tNAME\tJOIN CODE\tCREATED")
						for _, t := range clubs {
							fmt.Fprintf(w, "%s\t%s\t%t\t%s\n", t.Slug, t.Name, t.HasJoinCode(), t.CreatedAt.Format(time.DateOnly))
						}
						return w.Flush()
					})
				},
			},
		},
	}
}

func newBackfillCommand(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "backfill",
		Usage: "repair legacy data",
		Subcommands: []*cli.Command{
			{
				Name:  "guests",
				Usage: "derive member kind from legacy names",
				Action: func(c *cli.Context) error {
					return withApp(c, cfg, func(a *app.App) error {
						n, err := a.Members.BackfillKinds(c.Context)
						if err != nil {
							return err
						}
						fmt.Printf("Reclassified %d members.\n", n)
						return nil
					})
				},
			},
			{
				Name:  "tenants",
				Usage: "assign untenanted rows to a club",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "slug", Value: cfg.Tenancy.DefaultSlug, Usage: "target club, defaults to TENANCY_DEFAULT_SLUG"},
				},
				Action: func(c *cli.Context) error {
					slug := c.String("slug")
					if slug == "" {
						return errors.New("--slug or TENANCY_DEFAULT_SLUG is required")
					}
					return withApp(c, cfg, func(a *app.App) error {
						if err := requirePostgres(a); err != nil {
							return err
						}
						t, err := a.Tenants.GetBySlug(c.Context, slug)
						if err != nil {
							return fmt.Errorf("club %q: %w", slug, err)
						}
						res, err := a.DB.BackfillLegacyTenant(c.Context, t.ID)
						if err != nil {
							return err
						}
						steps := make([]string, 0, len(res))
						for step := range res {
							steps = append(steps, step)
						}
						sort.Strings(steps)
						for _, step := range steps {
							fmt.Printf("%-22s %d\n", step, res[step])
						}
						return nil
					})
				},
			},
		},
	}
}

func newTokenCommand(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "issue an operator token for the cross-club endpoints",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "subject", Required: true},
			&cli.DurationFlag{Name: "ttl", Value: cfg.Operator.TokenTTL},
		},
		Action: func(c *cli.Context) error {
			return withApp(c, cfg, func(a *app.App) error {
				if !a.Operators.Enabled() {
					return errors.New("OPERATOR_TOKEN_SECRET is not set")
				}
				tok, err := a.Operators.Issue(c.String("subject"), c.Duration("ttl"))
				if err != nil {
					return err
				}
				fmt.Println(tok)
				return nil
			})
		},
	}
}
