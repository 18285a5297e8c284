package advisory

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/pulseward/pulseward/internal/models"
	"github.com/pulseward/pulseward/internal/store"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// stubGenerator returns a canned reply and records prompts.
type stubGenerator struct {
	reply   string
	err     error
	prompts []string
}

func (s *stubGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

func openAdvisoryDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(&models.Participant{}, &models.Submission{},
		&models.AdvisoryNote{}); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func seedParticipant(t *testing.T, db *gorm.DB) models.Participant {
	t.Helper()
	p := models.Participant{
		PlatformUserID: "u1",
		UserName:       "tester",
		FullName:       "Avery Quinn",
		Timezone:       "UTC",
		Active:         true,
	}
	if err := db.Create(&p).Error; err != nil {
		t.Fatal(err)
	}
	return p
}

func seedSubmission(t *testing.T, db *gorm.DB, p models.Participant, qType, payload string, age time.Duration) models.Submission {
	t.Helper()
	sub := models.Submission{
		ParticipantID: p.ID,
		Type:          qType,
		Payload:       payload,
		Daily:         qType == "daily_checkin",
		CreatedAt:     time.Now().Add(-age),
	}
	if err := store.Save(db, &sub, p.Timezone); err != nil {
		t.Fatal(err)
	}
	return sub
}

func TestAdviseBuildsPromptAndSavesNote(t *testing.T) {
	db := openAdvisoryDB(t)
	p := seedParticipant(t, db)
	sub := seedSubmission(t, db, p, "daily_checkin", `{"mood":"Low","sleep_rating":"4"}`, 0)

	gen := &stubGenerator{reply: "Try an earlier bedtime tonight."}
	a, err := New(Opts{DB: db, Generator: gen})
	if err != nil {
		t.Fatalf("New() = %v", err)
	}

	advice, err := a.Advise(context.Background(), p, &sub)
	if err != nil {
		t.Fatalf("Advise() = %v", err)
	}
	if advice != "Try an earlier bedtime tonight." {
		t.Errorf("advice = %q", advice)
	}

	if len(gen.prompts) != 1 {
		t.Fatalf("generator called %d times, want 1", len(gen.prompts))
	}
	prompt := gen.prompts[0]
	for _, want := range []string{"Avery Quinn", "daily_checkin", "mood: Low", "sleep_rating: 4"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}

	var notes []models.AdvisoryNote
	if err := db.Find(&notes).Error; err != nil {
		t.Fatal(err)
	}
	if len(notes) != 1 {
		t.Fatalf("advisory notes = %d, want 1", len(notes))
	}
	if notes[0].Kind != "daily" || notes[0].SubmissionID != sub.ID {
		t.Errorf("note = %+v", notes[0])
	}
}

func TestAdviseIncludesHistory(t *testing.T) {
	db := openAdvisoryDB(t)
	p := seedParticipant(t, db)
	seedSubmission(t, db, p, "nutrition", `{"water":"2.5"}`, 48*time.Hour)
	sub := seedSubmission(t, db, p, "daily_checkin", `{"mood":"Great"}`, 0)

	gen := &stubGenerator{reply: "Keep it up."}
	a, _ := New(Opts{DB: db, Generator: gen})

	if _, err := a.Advise(context.Background(), p, &sub); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(gen.prompts[0], "water: 2.5") {
		t.Errorf("prompt missing history entry:\n%s", gen.prompts[0])
	}
}

func TestAdviseIncludesMediaKeys(t *testing.T) {
	db := openAdvisoryDB(t)
	p := seedParticipant(t, db)
	sub := models.Submission{
		ParticipantID: p.ID,
		Type:          "hands_photos",
		Payload:       `{"hands_palms":"media/photo/a.jpg"}`,
		MediaKeys:     `["media/photo/a.jpg","media/photo/b.jpg"]`,
	}
	if err := store.Save(db, &sub, p.Timezone); err != nil {
		t.Fatal(err)
	}

	gen := &stubGenerator{reply: "Nice progress."}
	a, _ := New(Opts{DB: db, Generator: gen})

	if _, err := a.Advise(context.Background(), p, &sub); err != nil {
		t.Fatal(err)
	}
	prompt := gen.prompts[0]
	for _, want := range []string{"Attached media", "media/photo/a.jpg", "media/photo/b.jpg"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestAdviseGeneratorFailure(t *testing.T) {
	db := openAdvisoryDB(t)
	p := seedParticipant(t, db)
	sub := seedSubmission(t, db, p, "daily_checkin", `{"mood":"Okay"}`, 0)

	gen := &stubGenerator{err: fmt.Errorf("quota exceeded")}
	a, _ := New(Opts{DB: db, Generator: gen})

	if _, err := a.Advise(context.Background(), p, &sub); err == nil {
		t.Fatal("expected error from failed generator")
	}

	var count int64
	db.Model(&models.AdvisoryNote{}).Count(&count)
	if count != 0 {
		t.Errorf("advisory notes = %d after failure, want 0", count)
	}
}

func TestDigestSummarizesWeek(t *testing.T) {
	db := openAdvisoryDB(t)
	p := seedParticipant(t, db)
	seedSubmission(t, db, p, "nutrition", `{"water":"2"}`, 72*time.Hour)
	seedSubmission(t, db, p, "daily_checkin", `{"mood":"Great"}`, 24*time.Hour)

	gen := &stubGenerator{reply: "A steady week overall."}
	a, _ := New(Opts{DB: db, Generator: gen})

	digest, err := a.Digest(context.Background(), p, 7)
	if err != nil {
		t.Fatalf("Digest() = %v", err)
	}
	if digest != "A steady week overall." {
		t.Errorf("digest = %q", digest)
	}
	if !strings.Contains(gen.prompts[0], "day 7") {
		t.Errorf("prompt missing program day:\n%s", gen.prompts[0])
	}

	var notes []models.AdvisoryNote
	db.Find(&notes)
	if len(notes) != 1 || notes[0].Kind != "weekly" {
		t.Errorf("notes = %+v", notes)
	}
}

func TestDigestEmptyWeek(t *testing.T) {
	db := openAdvisoryDB(t)
	p := seedParticipant(t, db)

	gen := &stubGenerator{reply: "should not be called"}
	a, _ := New(Opts{DB: db, Generator: gen})

	digest, err := a.Digest(context.Background(), p, 14)
	if err != nil {
		t.Fatalf("Digest() = %v", err)
	}
	if digest != "" {
		t.Errorf("digest = %q, want empty for a silent week", digest)
	}
	if len(gen.prompts) != 0 {
		t.Errorf("generator called %d times for an empty week", len(gen.prompts))
	}
}

func TestFormatPayloadStableOrder(t *testing.T) {
	got := formatPayload(`{"b":"2","a":"1"}`)
	want := "  a: 1\n  b: 2"
	if got != want {
		t.Errorf("formatPayload() = %q, want %q", got, want)
	}
}

func TestFormatPayloadMalformed(t *testing.T) {
	if got := formatPayload("not json"); got != "  (no answers)" {
		t.Errorf("formatPayload() = %q", got)
	}
}

func TestFormatMediaKeys(t *testing.T) {
	if got := formatMediaKeys(`["a","b"]`); got != "a, b" {
		t.Errorf("formatMediaKeys() = %q, want %q", got, "a, b")
	}
	for _, in := range []string{"", "[]", "not json"} {
		if got := formatMediaKeys(in); got != "" {
			t.Errorf("formatMediaKeys(%q) = %q, want empty", in, got)
		}
	}
}
