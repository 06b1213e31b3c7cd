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
		t.Fatalf("no migration matching %q", pattern)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}

func TestFriendshipsMigrationContainsSchemas(t *testing.T) {
	content := readMigration(t, "*_create_friendships_table.sql")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS friendships",
		"CONSTRAINT friendships_no_self_edge CHECK (user_id <> friend_id)",
		"CREATE UNIQUE INDEX IF NOT EXISTS friendships_pair_key",
		"WHERE status != 'rejected'",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestMessagingMigrationKeepsIsReadNullable(t *testing.T) {
	content := readMigration(t, "*_create_messaging_tables.sql")

	if !strings.Contains(content, "is_read         BOOLEAN DEFAULT FALSE") {
		t.Error("is_read must stay nullable")
	}
	if strings.Contains(content, "is_read         BOOLEAN NOT NULL") {
		t.Error("is_read must not be NOT NULL")
	}
	if !strings.Contains(content, "PRIMARY KEY (conversation_id, user_id)") {
		t.Error("participants need the composite primary key")
	}
}
