package db

import (
	"testing"

	"fanboxviewer/internal/config"
)

func TestDialectorFor(t *testing.T) {
	cases := []struct {
		dsn  string
		want string
	}{
		{"postgres://u:p@localhost:5432/fv", "postgres"},
		{"host=localhost user=fv dbname=fv", "postgres"},
		{"fanboxviewer.db", "sqlite"},
		{"sqlite://data/fv.db", "sqlite"},
		{"", "sqlite"},
	}
	for _, tc := range cases {
		got, _ := dialectorFor(tc.dsn)
		if got != tc.want {
			t.Fatalf("dsn=%q dialect=%q want %q", tc.dsn, got, tc.want)
		}
	}
}

func TestOpenAndMigrateMemory(t *testing.T) {
	conn, err := Open(config.DBConfig{DSN: ":memory:", MaxIdleConns: 1})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer Close(conn)
	if err := AutoMigrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if !conn.Gorm.Migrator().HasTable("posts") {
		t.Fatalf("posts table missing")
	}
	if err := Ping(conn); err != nil {
		t.Fatalf("ping: %v", err)
	}
}
