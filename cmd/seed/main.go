package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"boxoffice/internal/performances"
	"boxoffice/internal/shared/config"
	"boxoffice/internal/shared/database"

	"github.com/google/uuid"
)

type Seeder struct {
	db *database.DB
}

func main() {
	fmt.Println("🌱 Starting Box Office Database Seeder...")

	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	seeder := &Seeder{db: db}

	// Clean database
	fmt.Println("\n🧹 Cleaning database...")
	if err := seeder.CleanDatabase(); err != nil {
		log.Fatalf("Failed to clean database: %v", err)
	}
	fmt.Println("✅ Database cleaned successfully")

	// Seed data
	fmt.Println("\n🌱 Seeding database...")
	if err := seeder.SeedAll(); err != nil {
		log.Fatalf("Failed to seed database: %v", err)
	}
	fmt.Println("✅ Database seeded successfully")

	fmt.Println("\n🎉 Seeding completed! Database is ready for testing.")
}

// CleanDatabase truncates all tables in the correct order (respecting foreign key constraints)
func (s *Seeder) CleanDatabase() error {
	// Delete in reverse dependency order
	tables := []string{
		"financial_transfers",
		"transactions",
		"tickets",
		"bookings",
		"seat_group_allocations",
		"performances",
	}

	tx := s.db.PostgreSQL.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Exec("SET CONSTRAINTS ALL DEFERRED").Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to defer constraints: %w", err)
	}

	for _, table := range tables {
		fmt.Printf("  Truncating table: %s\n", table)
		if err := tx.Exec(fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", table)).Error; err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}

	if err := tx.Exec("SET CONSTRAINTS ALL IMMEDIATE").Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to restore constraints: %w", err)
	}

	return tx.Commit().Error
}

// SeedAll seeds all required data
func (s *Seeder) SeedAll() error {
	ctx := context.Background()

	adminID := uuid.New()
	fmt.Printf("  👤 Seed admin identity (created_by): %s\n", adminID)

	if err := s.SeedPerformances(adminID); err != nil {
		return fmt.Errorf("failed to seed performances: %w", err)
	}

	// Clear Redis cache so availability reads come from fresh rows
	if s.db.Redis != nil {
		if err := s.db.Redis.FlushDB(ctx).Err(); err != nil {
			log.Printf("Warning: Failed to clear Redis cache: %v", err)
		}
	}

	return nil
}

// SeedPerformances creates a small season of performances with seat group
// allocations priced in minor units.
func (s *Seeder) SeedPerformances(adminID uuid.UUID) error {
	fmt.Println("  🎭 Seeding performances...")

	type allocation struct {
		name     string
		ordering int
		price    int64
		capacity int
	}

	performancesData := []struct {
		production string
		venue      string
		startsIn   time.Duration
		ceiling    int
		groups     []allocation
	}{
		{
			production: "The Pirates of Penzance",
			venue:      "ADC Theatre",
			startsIn:   7 * 24 * time.Hour,
			ceiling:    220,
			groups: []allocation{
				{"Stalls", 0, 1500, 120},
				{"Circle", 1, 1200, 80},
				{"Restricted View", 2, 700, 20},
			},
		},
		{
			production: "The Pirates of Penzance",
			venue:      "ADC Theatre",
			startsIn:   8 * 24 * time.Hour,
			ceiling:    220,
			groups: []allocation{
				{"Stalls", 0, 1500, 120},
				{"Circle", 1, 1200, 80},
				{"Restricted View", 2, 700, 20},
			},
		},
		{
			production: "A Midsummer Night's Dream",
			venue:      "West Road Concert Hall",
			startsIn:   21 * 24 * time.Hour,
			ceiling:    150,
			groups: []allocation{
				{"General Admission", 0, 1000, 130},
				{"Concession", 1, 600, 20},
			},
		},
	}

	for _, pd := range performancesData {
		performance := performances.Performance{
			ID:              uuid.New(),
			ProductionName:  pd.production,
			VenueName:       pd.venue,
			StartsAt:        time.Now().Add(pd.startsIn).Truncate(time.Minute),
			CapacityCeiling: pd.ceiling,
			CreatedBy:       adminID,
			CreatedAt:       time.Now(),
			UpdatedAt:       time.Now(),
		}

		if err := s.db.PostgreSQL.Create(&performance).Error; err != nil {
			return fmt.Errorf("failed to create performance %s: %w", pd.production, err)
		}

		for _, g := range pd.groups {
			alloc := performances.SeatGroupAllocation{
				ID:              uuid.New(),
				PerformanceID:   performance.ID,
				SeatGroupName:   g.name,
				Ordering:        g.ordering,
				PriceMinorUnits: g.price,
				Capacity:        g.capacity,
			}
			if err := s.db.PostgreSQL.Create(&alloc).Error; err != nil {
				return fmt.Errorf("failed to create allocation %s for %s: %w", g.name, pd.production, err)
			}
		}

		fmt.Printf("    ✅ Created performance: %s @ %s (%d seat groups)\n",
			performance.ProductionName, performance.VenueName, len(pd.groups))
	}

	return nil
}
