package db

import (
	"context"
	"errors"
	"testing"

	"gorm.io/gorm"

	"github.com/joinhively/hively-backend/pkg/config"
)

func sqliteConfig() config.DBConfig {
	return config.DBConfig{DSN: "file::memory:?cache=shared", Driver: "sqlite"}
}

func TestNewRequiresDSN(t *testing.T) {
	if _, err := New(context.Background(), config.DBConfig{}, nil); err == nil {
		t.Fatal("expected error without DSN")
	}
}

func TestPingAndClose(t *testing.T) {
	client, err := New(context.Background(), sqliteConfig(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestWithTxRollsBackOnError(t *testing.T) {
	client, err := New(context.Background(), sqliteConfig(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer client.Close()

	if err := client.DB().Exec("CREATE TABLE tx_probe (id INTEGER PRIMARY KEY)").Error; err != nil {
		t.Fatalf("create table: %v", err)
	}

	boom := errors.New("boom")
	err = client.WithTx(context.Background(), func(tx *gorm.DB) error {
		if err := tx.Exec("INSERT INTO tx_probe (id) VALUES (1)").Error; err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	var count int64
	if err := client.DB().Table("tx_probe").Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected rollback, found %d rows", count)
	}
}
