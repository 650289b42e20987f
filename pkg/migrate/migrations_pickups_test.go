package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestPickupsMigrationContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_pickups.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no pickups migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TYPE pickup_status AS ENUM ('pending', 'assigned', 'in_progress', 'completed', 'cancelled')",
		"CREATE TABLE IF NOT EXISTS pickups",
		"status pickup_status NOT NULL DEFAULT 'pending'",
		"CHECK (actual_weight_kg > 0)",
		"CREATE TABLE IF NOT EXISTS delivery_assignments",
		"ON delivery_assignments(pickup_id) WHERE active",
		"DROP TABLE IF EXISTS pickups",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestPricingMigrationSeedsBookableTypes(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_pricing.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no pricing migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	for _, wasteType := range []string{"plastics", "e-waste", "metals", "organic", "sea-waste", "paper"} {
		if !strings.Contains(content, "'"+wasteType+"'") {
			t.Errorf("missing seed row for %q", wasteType)
		}
	}
	if !strings.Contains(content, "CHECK (price_per_kg >= 0)") {
		t.Errorf("missing non-negative price constraint")
	}
}
