package transport

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/pulseward/pulseward/internal/flows"
	"github.com/pulseward/pulseward/internal/intake"
	"github.com/pulseward/pulseward/internal/models"
	"github.com/pulseward/pulseward/internal/store"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openRouterDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(&models.Participant{}, &models.ProgramConfig{},
		&models.Submission{}, &models.AdvisoryNote{}, &models.IntakeSession{}); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func newTestRouter(t *testing.T, db *gorm.DB, operators ...string) (*Router, *MockAdapter) {
	t.Helper()
	registry, err := flows.Registry()
	if err != nil {
		t.Fatal(err)
	}

	var router *Router
	engine, err := intake.NewEngine(intake.EngineOpts{
		DB:            db,
		Flows:         registry,
		BatchDebounce: 30 * time.Millisecond,
		Sink: func(participantID uint, out intake.Outcome) {
			router.DeliverOutcome(participantID, out)
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	adapter := NewMockAdapter()
	if err := adapter.Connect(context.Background()); err != nil {
		t.Fatal(err)
	}

	router, err = NewRouter(RouterOpts{
		DB:        db,
		Engine:    engine,
		Adapter:   adapter,
		Flows:     registry,
		Operators: operators,
		BotUserID: "bot-self",
		Out:       io.Discard,
	})
	if err != nil {
		t.Fatalf("NewRouter() = %v", err)
	}
	return router, adapter
}

func inbound(userID, text string) InboundMessage {
	return InboundMessage{
		Platform:  "discord",
		ChannelID: "chan-1",
		UserID:    userID,
		UserName:  "tester",
		Text:      text,
	}
}

func waitForSent(t *testing.T, adapter *MockAdapter, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if adapter.SentCount() >= want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("adapter sent %d messages, want at least %d", adapter.SentCount(), want)
}

func TestRouterRegistersOnFirstContact(t *testing.T) {
	db := openRouterDB(t)
	r, adapter := newTestRouter(t, db)

	r.Handle(context.Background(), inbound("u1", "/start"))

	if _, err := store.ByPlatformID(db, "u1"); err != nil {
		t.Errorf("participant not registered: %v", err)
	}
	last, ok := adapter.LastSent()
	if !ok || !strings.Contains(last.Text, "registered") {
		t.Errorf("welcome reply = %q", last.Text)
	}
}

func TestRouterIgnoresSelfMessages(t *testing.T) {
	db := openRouterDB(t)
	r, adapter := newTestRouter(t, db)

	r.Handle(context.Background(), inbound("bot-self", "/start"))

	if got := adapter.SentCount(); got != 0 {
		t.Errorf("replied %d times to the bot's own message", got)
	}
}

func TestRouterChecklistFlow(t *testing.T) {
	db := openRouterDB(t)
	r, adapter := newTestRouter(t, db)
	ctx := context.Background()

	r.Handle(ctx, inbound("u1", "/checkin"))
	last, _ := adapter.LastSent()
	if !strings.Contains(last.Text, "Daily check-in") {
		t.Fatalf("first prompt = %q, want the check-in title", last.Text)
	}

	r.Handle(ctx, inbound("u1", "Before 22:00"))
	last, _ = adapter.LastSent()
	if !strings.Contains(last.Text, "2.") {
		t.Errorf("after first answer = %q, want the second question", last.Text)
	}
	if len(last.Options) == 0 {
		t.Errorf("second question carries no keyboard options")
	}
}

func TestRouterAnswerWithoutSession(t *testing.T) {
	db := openRouterDB(t)
	r, adapter := newTestRouter(t, db)

	r.Handle(context.Background(), inbound("u1", "hello there"))
	last, _ := adapter.LastSent()
	if !strings.Contains(last.Text, "No questionnaire is in progress") {
		t.Errorf("reply = %q, want the no-session hint", last.Text)
	}
}

func TestRouterTimezoneCommand(t *testing.T) {
	db := openRouterDB(t)
	r, adapter := newTestRouter(t, db)
	ctx := context.Background()

	r.Handle(ctx, inbound("u1", "/timezone Asia/Tokyo"))
	p, err := store.ByPlatformID(db, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if p.Timezone != "Asia/Tokyo" {
		t.Errorf("timezone = %q, want Asia/Tokyo", p.Timezone)
	}

	r.Handle(ctx, inbound("u1", "/timezone Mars/Olympus"))
	last, _ := adapter.LastSent()
	if !strings.Contains(last.Text, "not a valid timezone") {
		t.Errorf("reply = %q, want a validation error", last.Text)
	}
	p, _ = store.ByPlatformID(db, "u1")
	if p.Timezone != "Asia/Tokyo" {
		t.Errorf("timezone changed to %q after invalid input", p.Timezone)
	}
}

func TestRouterCancelCommand(t *testing.T) {
	db := openRouterDB(t)
	r, adapter := newTestRouter(t, db)
	ctx := context.Background()

	r.Handle(ctx, inbound("u1", "/checkin"))
	r.Handle(ctx, inbound("u1", "/cancel"))
	last, _ := adapter.LastSent()
	if !strings.Contains(last.Text, "Cancelled") {
		t.Fatalf("reply = %q, want cancellation confirmation", last.Text)
	}

	r.Handle(ctx, inbound("u1", "Before 22:00"))
	last, _ = adapter.LastSent()
	if !strings.Contains(last.Text, "No questionnaire is in progress") {
		t.Errorf("session survived /cancel: %q", last.Text)
	}
}

func TestRouterOperatorGate(t *testing.T) {
	db := openRouterDB(t)
	r, adapter := newTestRouter(t, db, "op-1")
	ctx := context.Background()

	r.Handle(ctx, inbound("u1", "/program start"))
	last, _ := adapter.LastSent()
	if !strings.Contains(last.Text, "reserved for program operators") {
		t.Fatalf("non-operator reply = %q", last.Text)
	}

	r.Handle(ctx, inbound("op-1", "/program start"))
	last, _ = adapter.LastSent()
	if !strings.Contains(last.Text, "Program started") {
		t.Fatalf("operator reply = %q", last.Text)
	}

	// Starting the program enrolls existing participants.
	p, err := store.ByPlatformID(db, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if p.EnrolledAt == nil {
		t.Error("participant not enrolled after program start")
	}

	r.Handle(ctx, inbound("op-1", "/program start"))
	last, _ = adapter.LastSent()
	if !strings.Contains(last.Text, "already running") {
		t.Errorf("restart reply = %q", last.Text)
	}
}

func TestRouterOnboardingRecordsFullName(t *testing.T) {
	db := openRouterDB(t)
	r, adapter := newTestRouter(t, db)
	ctx := context.Background()

	r.Handle(ctx, inbound("u1", "/onboarding"))
	for _, answer := range []string{
		"Avery Quinn", "+49 151 1234567", "avery", "34", "Female", "170", "65",
	} {
		r.Handle(ctx, inbound("u1", answer))
	}

	last, _ := adapter.LastSent()
	if !strings.Contains(last.Text, "Welcome to the program") {
		t.Fatalf("final reply = %q, want onboarding completion", last.Text)
	}

	p, err := store.ByPlatformID(db, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if p.FullName != "Avery Quinn" {
		t.Errorf("FullName = %q, want the onboarding answer", p.FullName)
	}
}

func TestRouterMediaBatchRoundTrip(t *testing.T) {
	db := openRouterDB(t)
	r, adapter := newTestRouter(t, db)
	ctx := context.Background()

	r.Handle(ctx, inbound("u1", "/photos_hands"))
	before := adapter.SentCount()

	part := func(key string) InboundMessage {
		msg := inbound("u1", "")
		msg.MediaKey = key
		msg.MediaKind = "photo"
		msg.BatchID = "album-1"
		return msg
	}

	// A buffered part owes no reply while the set is incomplete.
	r.Handle(ctx, part("media/h-1"))
	if got := adapter.SentCount(); got != before {
		t.Errorf("buffered part drew %d immediate replies", got-before)
	}

	r.Handle(ctx, part("media/h-2"))
	waitForSent(t, adapter, before+1)
	last, _ := adapter.LastSent()
	if !strings.Contains(last.Text, "Both photos received") {
		t.Errorf("batch completion = %q", last.Text)
	}
}

func TestRouterStrayMediaHint(t *testing.T) {
	db := openRouterDB(t)
	r, adapter := newTestRouter(t, db)

	msg := inbound("u1", "")
	msg.MediaKey = "media/x"
	msg.MediaKind = "photo"
	r.Handle(context.Background(), msg)

	last, _ := adapter.LastSent()
	if !strings.Contains(last.Text, "wasn't expecting a photo") {
		t.Errorf("stray media reply = %q", last.Text)
	}
}

func TestRouterDayGate(t *testing.T) {
	db := openRouterDB(t)
	r, adapter := newTestRouter(t, db)
	ctx := context.Background()

	r.Handle(ctx, inbound("u1", "/start"))
	enrolledAt := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	if err := store.SetProgramStart(db, enrolledAt, "test"); err != nil {
		t.Fatal(err)
	}

	restore := nowFunc
	defer func() { nowFunc = restore }()

	// Day 2: the health questionnaire (day 4) is gated.
	nowFunc = func() time.Time { return time.Date(2026, 1, 6, 12, 0, 0, 0, time.UTC) }
	r.Handle(ctx, inbound("u1", "/health"))
	last, _ := adapter.LastSent()
	if !strings.Contains(last.Text, "not scheduled for today") {
		t.Fatalf("day 2 reply = %q, want the gate message", last.Text)
	}

	// Day 4: allowed.
	nowFunc = func() time.Time { return time.Date(2026, 1, 8, 12, 0, 0, 0, time.UTC) }
	r.Handle(ctx, inbound("u1", "/health"))
	last, _ = adapter.LastSent()
	if !strings.Contains(last.Text, "Subjective health") {
		t.Errorf("day 4 reply = %q, want the questionnaire title", last.Text)
	}

	// The daily check-in is never gated.
	r.Handle(ctx, inbound("u1", "/cancel"))
	nowFunc = func() time.Time { return time.Date(2026, 1, 6, 12, 0, 0, 0, time.UTC) }
	r.Handle(ctx, inbound("u1", "/checkin"))
	last, _ = adapter.LastSent()
	if !strings.Contains(last.Text, "Daily check-in") {
		t.Errorf("check-in reply = %q", last.Text)
	}
}

func TestRouterUnknownCommand(t *testing.T) {
	db := openRouterDB(t)
	r, adapter := newTestRouter(t, db)

	r.Handle(context.Background(), inbound("u1", "/teleport"))
	last, _ := adapter.LastSent()
	if !strings.Contains(last.Text, "Unknown command") {
		t.Errorf("reply = %q", last.Text)
	}
}
