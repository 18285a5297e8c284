package main

import (
	"strings"
	"testing"
	"time"

	"github.com/pulseward/pulseward/internal/config"
	"github.com/pulseward/pulseward/internal/models"
)

// seedCLIParticipant inserts a participant directly through the config's
// sqlite database, the same one the commands under test will open.
func seedCLIParticipant(t *testing.T, cfgPath, platformID, name string) {
	t.Helper()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		t.Fatal(err)
	}
	gormDB, err := openDB(cfg)
	if err != nil {
		t.Fatal(err)
	}
	enrolled := time.Now().Add(-24 * time.Hour)
	p := models.Participant{
		PlatformUserID: platformID,
		UserName:       name,
		Timezone:       "UTC",
		EnrolledAt:     &enrolled,
		Active:         true,
	}
	if err := gormDB.Create(&p).Error; err != nil {
		t.Fatal(err)
	}
}

func TestParticipantsListEmpty(t *testing.T) {
	cfgPath := writeTestConfig(t)
	migrateTestDB(t, cfgPath)

	out, err := runCmd(t, cfgPath, "participants", "list")
	if err != nil {
		t.Fatalf("participants list failed: %v", err)
	}
	if !strings.Contains(out, "No participants enrolled") {
		t.Errorf("expected empty-roster message, got: %s", out)
	}
}

func TestParticipantsList(t *testing.T) {
	cfgPath := writeTestConfig(t)
	migrateTestDB(t, cfgPath)
	seedCLIParticipant(t, cfgPath, "U_ALICE", "alice")
	seedCLIParticipant(t, cfgPath, "U_BOB", "bob")

	out, err := runCmd(t, cfgPath, "participants", "list")
	if err != nil {
		t.Fatalf("participants list failed: %v", err)
	}
	for _, want := range []string{"PLATFORM ID", "U_ALICE", "alice", "U_BOB"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got: %s", want, out)
		}
	}
	// Enrolled 24h ago puts them on day 2.
	if !strings.Contains(out, "2") {
		t.Errorf("expected day column, got: %s", out)
	}
}

func TestParticipantsDeactivate(t *testing.T) {
	cfgPath := writeTestConfig(t)
	migrateTestDB(t, cfgPath)
	seedCLIParticipant(t, cfgPath, "U_ALICE", "alice")

	out, err := runCmd(t, cfgPath, "participants", "deactivate", "U_ALICE")
	if err != nil {
		t.Fatalf("participants deactivate failed: %v", err)
	}
	if !strings.Contains(out, "Participant U_ALICE deactivated") {
		t.Errorf("expected deactivation confirmation, got: %s", out)
	}

	out, err = runCmd(t, cfgPath, "participants", "list")
	if err != nil {
		t.Fatalf("participants list failed: %v", err)
	}
	if !strings.Contains(out, "false") {
		t.Errorf("expected deactivated participant in roster, got: %s", out)
	}
}

func TestParticipantsDeactivateUnknown(t *testing.T) {
	cfgPath := writeTestConfig(t)
	migrateTestDB(t, cfgPath)

	_, err := runCmd(t, cfgPath, "participants", "deactivate", "U_GHOST")
	if err == nil {
		t.Fatal("expected error for unknown participant")
	}
}

func TestParticipantsDeactivateRequiresArg(t *testing.T) {
	cfgPath := writeTestConfig(t)

	_, err := runCmd(t, cfgPath, "participants", "deactivate")
	if err == nil {
		t.Fatal("expected error when platform user ID is missing")
	}
	if !strings.Contains(err.Error(), "arg") {
		t.Errorf("error = %q, want an argument-count error", err.Error())
	}
}
