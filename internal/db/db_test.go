package db

import (
	"testing"

	"github.com/pulseward/pulseward/internal/models"
)

func TestDSN(t *testing.T) {
	tests := []struct {
		name     string
		user     string
		password string
		host     string
		port     int
		database string
		want     string
	}{
		{
			name:     "no password",
			user:     "root",
			host:     "127.0.0.1",
			port:     3306,
			database: "pulseward",
			want:     "root@tcp(127.0.0.1:3306)/pulseward?parseTime=true&charset=utf8mb4",
		},
		{
			name:     "with password",
			user:     "pw",
			password: "secret",
			host:     "db.vpc.internal",
			port:     3307,
			database: "pulseward_prod",
			want:     "pw:secret@tcp(db.vpc.internal:3307)/pulseward_prod?parseTime=true&charset=utf8mb4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DSN(tt.user, tt.password, tt.host, tt.port, tt.database)
			if got != tt.want {
				t.Errorf("DSN() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAutoMigrate_SQLiteMemory(t *testing.T) {
	gdb, err := ConnectSQLite(":memory:")
	if err != nil {
		t.Fatalf("ConnectSQLite: %v", err)
	}
	if err := AutoMigrate(gdb); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}

	for _, m := range AllModels() {
		if !gdb.Migrator().HasTable(m) {
			t.Errorf("missing table for %T", m)
		}
	}

	// Smoke-test an insert through the migrated schema.
	p := models.Participant{PlatformUserID: "u-1", UserName: "alice", Timezone: "UTC", Active: true}
	if err := gdb.Create(&p).Error; err != nil {
		t.Fatalf("create participant: %v", err)
	}
	if p.ID == 0 {
		t.Error("participant ID not assigned")
	}
}
