package main

import (
	"flag"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/rskariadi-dev/manrura/internal/checklist"
	"github.com/rskariadi-dev/manrura/internal/config"
	"github.com/rskariadi-dev/manrura/internal/repository"
	"github.com/rskariadi-dev/manrura/internal/seed"
)

func main() {
	var op int
	var fraction float64
	var assessorID string

	flag.IntVar(&op, "op", 0, "operation to run (1: demo wards, users and period, 2: random scores for every ward)")
	flag.Float64Var(&fraction, "fraction", 0.5, "share of points that receive a random staff score")
	flag.StringVar(&assessorID, "assessor", "assessor-1", "assessor recorded on random validations")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	db, err := repository.Open(cfg)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	repo := repository.NewRepository(cfg, db)
	if err := repo.Migrate(); err != nil {
		logger.Error("failed to migrate database", "error", err)
		return
	}

	switch op {
	case 0:
		logger.Error("no operation given")
	case 1:
		if err := seed.EnsureInitialAdmin(repo, cfg); err != nil {
			logger.Error("failed to create initial admin", "error", err)
			return
		}
		if err := seed.Demo(repo, cfg.Seed.User.Password, time.Now()); err != nil {
			logger.Error("failed to insert demo data", "error", err)
			return
		}
	case 2:
		if fraction <= 0 || fraction > 1 {
			logger.Error("fraction must be in (0, 1]")
			return
		}
		wards, err := repo.GetAllWards()
		if err != nil {
			logger.Error("failed to load wards", "error", err)
			return
		}
		rng := rand.New(rand.NewSource(time.Now().UnixNano()))
		n, err := seed.RandomScores(repo, rng, wards, checklist.Default().PointIDs(), assessorID, fraction)
		if err != nil {
			logger.Error("failed to insert scores", "error", err, "inserted", n)
			return
		}
		logger.Info("scores inserted", "count", n)
	default:
		logger.Error("unknown operation", "op", op)
	}
}
