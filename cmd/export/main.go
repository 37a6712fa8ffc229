package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"playcafe/internal/config"
	"playcafe/internal/database"
	"playcafe/internal/export"
	"playcafe/internal/logging"
	"playcafe/internal/models"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

// run writes a café's bookings for a date range into exports.path.
func run() error {
	var (
		cafeID = flag.String("cafe", "", "café id to export")
		from   = flag.String("from", "", "first booking date, YYYY-MM-DD (default: one month ago)")
		to     = flag.String("to", "", "last booking date, YYYY-MM-DD (default: today)")
	)
	flag.Parse()
	if *cafeID == "" {
		return fmt.Errorf("-cafe is required")
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if closer != nil {
		defer func() { _ = closer.Close() }()
	}

	now := time.Now().In(cfg.App.Location())
	if *from == "" {
		*from = now.AddDate(0, -1, 0).Format(models.DateLayout)
	}
	if *to == "" {
		*to = now.Format(models.DateLayout)
	}

	db, err := database.Open(cfg.Database, logging.Component(logger, "database"))
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cafe, err := db.GetCafe(ctx, *cafeID)
	if err != nil {
		return fmt.Errorf("cafe %s: %w", *cafeID, err)
	}
	list, err := db.ListBookings(ctx, database.BookingFilter{CafeIDs: []string{cafe.ID}, From: *from, To: *to})
	if err != nil {
		return fmt.Errorf("list bookings: %w", err)
	}

	report := export.Report{Cafe: cafe, From: *from, To: *to, Bookings: make([]models.Booking, len(list))}
	var userIDs []string
	for i, b := range list {
		report.Bookings[i] = *b
		if !b.IsWalkIn() {
			userIDs = append(userIDs, *b.UserID)
		}
	}
	if len(userIDs) > 0 {
		if report.Profiles, err = db.GetProfiles(ctx, userIDs); err != nil {
			logger.Warn().Err(err).Msg("Failed to load profiles, exporting without names")
		}
	}

	path, err := export.SaveBookings(cfg.Exports.Path, report)
	if err != nil {
		return err
	}
	logger.Info().Str("path", path).Int("bookings", len(list)).Msg("Bookings exported")
	return nil
}
