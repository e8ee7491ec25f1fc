// Command migrate applies the SQL migrations under migrations/ with the Atlas
// CLI and optionally loads studio reference data from a seed file.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"time"

	"studio-booking/internal/handler/middleware"
	"studio-booking/internal/infra/db"
	"studio-booking/internal/infra/repository"
	"studio-booking/internal/infra/seed"
	"studio-booking/internal/infra/uow"
	"studio-booking/internal/pkg/config"
	"studio-booking/internal/pkg/errs"

	"ariga.io/atlas-go-sdk/atlasexec"
)

func main() {
	dir := flag.String("dir", "migrations", "directory holding the migration files and atlas.sum")
	atlasBin := flag.String("atlas", "atlas", "path to the atlas binary")
	seedFile := flag.String("seed", "", "optional seed file applied after migrating")
	timeout := flag.Duration("timeout", 2*time.Minute, "overall timeout")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := middleware.NewLogger(cfg.Log).GetSlogLogger()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := migrate(ctx, cfg.DB, *dir, *atlasBin, logger); err != nil {
		logger.Error("migration failed", "error", err)
		os.Exit(1)
	}

	if *seedFile != "" {
		if err := seedDirectory(ctx, cfg.DB, *seedFile, logger); err != nil {
			logger.Error("seeding failed", "error", err)
			os.Exit(1)
		}
	}
}

func migrate(ctx context.Context, cfg config.DBConfig, dir, atlasBin string, logger *slog.Logger) error {
	workdir, err := atlasexec.NewWorkingDir(atlasexec.WithMigrations(os.DirFS(dir)))
	if err != nil {
		return errs.Wrap(err, "preparing atlas working dir")
	}
	defer workdir.Close()

	client, err := atlasexec.NewClient(workdir.Path(), atlasBin)
	if err != nil {
		return errs.Wrap(err, "creating atlas client")
	}

	res, err := client.MigrateApply(ctx, &atlasexec.MigrateApplyParams{
		URL: atlasURL(cfg),
	})
	if err != nil {
		return errs.Wrap(err, "applying migrations")
	}

	for _, f := range res.Applied {
		logger.Info("applied migration", "version", f.Version, "name", f.Name)
	}
	logger.Info("database is up to date", "current", res.Current, "target", res.Target, "pending", len(res.Pending))
	return nil
}

func seedDirectory(ctx context.Context, cfg config.DBConfig, path string, logger *slog.Logger) error {
	data, err := seed.Load(path)
	if err != nil {
		return err
	}

	pool, cleanup, err := db.Connect(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	studios := repository.NewStudioRepository(uow.NewPostgresUoW(pool), logger)
	return seed.Apply(ctx, studios, data, logger)
}

func atlasURL(cfg config.DBConfig) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Path:     "/" + cfg.DBName,
		RawQuery: url.Values{"sslmode": []string{cfg.SSLMode}}.Encode(),
	}
	return u.String()
}
