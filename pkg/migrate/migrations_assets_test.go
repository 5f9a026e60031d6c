package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func readMigration(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration file matching %s", pattern)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

func TestAssetItemsMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "*_create_asset_items.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS asset_items",
		"FOREIGN KEY (category_id) REFERENCES asset_categories(id)",
		"CHECK (assigned_count >= 0)",
		"CHECK (lock_version >= 0)",
		"CHECK ((status = 'assigned') = (assigned_count > 0))",
		"ux_asset_items_tag",
		"DROP TABLE IF EXISTS asset_items",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestAssignmentRecordsMigrationEnforcesActivePair(t *testing.T) {
	content := readMigration(t, "*_create_assignment_records.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS assignment_records",
		"CHECK (is_active = (unassigned_at IS NULL))",
		"CHECK (unassigned_at IS NULL OR unassigned_at >= assigned_at)",
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_assignment_records_active_pair",
		"WHERE is_active",
		"DROP TABLE IF EXISTS assignment_records",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestCategoryMigrationEnforcesPolicyInvariants(t *testing.T) {
	content := readMigration(t, "*_create_asset_categories.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS asset_categories",
		"CHECK (max_assignments >= 1)",
		"ux_asset_categories_name",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestOutboxMigrationsIndexUnpublishedAndDLQ(t *testing.T) {
	events := readMigration(t, "*_create_outbox_events.sql")
	for _, sub := range []string{
		"CREATE TABLE IF NOT EXISTS outbox_events",
		"ix_outbox_events_unpublished",
		"WHERE published_at IS NULL",
	} {
		if !strings.Contains(events, sub) {
			t.Errorf("outbox_events migration missing %q", sub)
		}
	}

	dlq := readMigration(t, "*_create_outbox_dlq.sql")
	for _, sub := range []string{
		"CREATE TABLE IF NOT EXISTS outbox_dlq",
		"ux_outbox_dlq_event",
		"CHECK (error_reason IN ('non_retryable', 'max_attempts'))",
	} {
		if !strings.Contains(dlq, sub) {
			t.Errorf("outbox_dlq migration missing %q", sub)
		}
	}
}
