package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"playcafe/internal/config"
	"playcafe/internal/database"
	"playcafe/internal/models"
	"playcafe/internal/service"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

type cafeEntry struct {
	Name           string                     `yaml:"name"`
	Address        string                     `yaml:"address"`
	Phone          string                     `yaml:"phone"`
	Email          string                     `yaml:"email"`
	OpeningHours   string                     `yaml:"opening_hours"`
	Description    string                     `yaml:"description"`
	HourlyRate     int64                      `yaml:"hourly_rate"`
	Inventory      map[models.ConsoleType]int `yaml:"inventory"`
	TechSpecs      map[string]string          `yaml:"tech_specs"`
	TelegramChatID int64                      `yaml:"telegram_chat_id"`
	Tiers          []tierEntry                `yaml:"tiers"`
}

type tierEntry struct {
	ConsoleType models.ConsoleType `yaml:"console_type"`
	Quantity    int                `yaml:"quantity"`
	Duration    int                `yaml:"duration"`
	Price       int64              `yaml:"price"`
}

type cafesFile struct {
	Cafes []cafeEntry `yaml:"cafes"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run creates or updates an owner's cafés, matched by name, together with
// their pricing tiers.
func run() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	var (
		cafesPath = flag.String("cafes", "configs/cafes.yaml", "path to cafes.yaml")
		dbPath    = flag.String("db", "./data/playcafe.db", "path to sqlite db")
		username  = flag.String("owner", "", "owner username the cafés belong to")
	)
	flag.Parse()
	if *username == "" {
		return fmt.Errorf("-owner is required")
	}

	data, err := os.ReadFile(*cafesPath)
	if err != nil {
		return fmt.Errorf("read cafes: %w", err)
	}
	var file cafesFile
	if err = yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse cafes: %w", err)
	}
	if len(file.Cafes) == 0 {
		return fmt.Errorf("no cafes in yaml")
	}

	db, err := database.Open(config.DatabaseConfig{Driver: config.DriverSQLite, Path: *dbPath}, &logger)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	owner, err := db.GetOwnerByUsername(ctx, *username)
	if err != nil {
		return fmt.Errorf("owner %s: %w", *username, err)
	}
	existing, err := db.ListCafes(ctx, owner.ID)
	if err != nil {
		return fmt.Errorf("list cafes: %w", err)
	}
	byName := make(map[string]string, len(existing))
	for _, c := range existing {
		byName[strings.ToLower(c.Name)] = c.ID
	}

	cafes := service.NewCafeService(db, nil, &logger)
	pricing := service.NewPricingService(db, &logger)

	created, updated := 0, 0
	for _, entry := range file.Cafes {
		if entry.Name == "" {
			continue
		}
		in := service.CafeInput{
			Name:           entry.Name,
			Address:        entry.Address,
			Phone:          entry.Phone,
			Email:          entry.Email,
			OpeningHours:   entry.OpeningHours,
			Description:    entry.Description,
			Inventory:      entry.Inventory,
			HourlyRate:     entry.HourlyRate,
			TechSpecs:      entry.TechSpecs,
			TelegramChatID: entry.TelegramChatID,
		}

		var cafe *models.Cafe
		if id, ok := byName[strings.ToLower(entry.Name)]; ok {
			if cafe, err = cafes.Update(ctx, owner.ID, id, in); err != nil {
				return fmt.Errorf("update %s: %w", entry.Name, err)
			}
			updated++
		} else {
			if cafe, err = cafes.Create(ctx, owner.ID, in); err != nil {
				return fmt.Errorf("create %s: %w", entry.Name, err)
			}
			created++
		}

		if len(entry.Tiers) == 0 {
			continue
		}
		tiers := make([]models.PricingTier, len(entry.Tiers))
		for i, t := range entry.Tiers {
			tiers[i] = models.PricingTier{ConsoleType: t.ConsoleType, Quantity: t.Quantity, Duration: t.Duration, Price: t.Price}
		}
		if _, err = pricing.PutTiers(ctx, owner.ID, cafe.ID, tiers); err != nil {
			return fmt.Errorf("tiers for %s: %w", entry.Name, err)
		}
	}

	fmt.Printf("done: created=%d updated=%d\n", created, updated)
	return nil
}
