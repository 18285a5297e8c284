package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pulseward/pulseward/internal/models"
	"github.com/pulseward/pulseward/internal/store"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openDashboardDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(&models.Participant{}, &models.ProgramConfig{},
		&models.Submission{}, &models.AdvisoryNote{}); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func seedParticipant(t *testing.T, db *gorm.DB, platformID string, enrolledAgo time.Duration) models.Participant {
	t.Helper()
	enrolled := time.Now().Add(-enrolledAgo)
	p := models.Participant{
		PlatformUserID: platformID,
		UserName:       "tester-" + platformID,
		Timezone:       "UTC",
		EnrolledAt:     &enrolled,
		Active:         true,
	}
	if err := db.Create(&p).Error; err != nil {
		t.Fatal(err)
	}
	return p
}

func seedSubmission(t *testing.T, db *gorm.DB, p models.Participant, qType string) models.Submission {
	t.Helper()
	sub := models.Submission{
		ParticipantID: p.ID,
		Type:          qType,
		Payload:       `{"mood":"Great"}`,
		Daily:         qType == "daily_checkin",
	}
	if err := store.Save(db, &sub, p.Timezone); err != nil {
		t.Fatal(err)
	}
	return sub
}

func getJSON(t *testing.T, router http.Handler, path string, out any) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if out != nil && w.Code == http.StatusOK {
		if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
			t.Fatalf("decode %s: %v\nbody: %s", path, err, w.Body.String())
		}
	}
	return w
}

func TestStatusEndpoint(t *testing.T) {
	db := openDashboardDB(t)
	router := newRouter(db)

	p := seedParticipant(t, db, "u1", 48*time.Hour)
	seedSubmission(t, db, p, "daily_checkin")
	if err := store.SetProgramStart(db, time.Now().Add(-48*time.Hour), "test"); err != nil {
		t.Fatal(err)
	}

	var status ProgramStatus
	w := getJSON(t, router, "/api/status", &status)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if status.StartedAt == nil {
		t.Error("started_at missing")
	}
	if status.Day != 3 {
		t.Errorf("day = %d, want 3", status.Day)
	}
	if status.Participants != 1 || status.Active != 1 {
		t.Errorf("participants = %d active = %d, want 1/1", status.Participants, status.Active)
	}
	if status.Submissions != 1 {
		t.Errorf("submissions = %d, want 1", status.Submissions)
	}
}

func TestParticipantListEndpoint(t *testing.T) {
	db := openDashboardDB(t)
	router := newRouter(db)

	p1 := seedParticipant(t, db, "u1", 24*time.Hour)
	seedParticipant(t, db, "u2", 24*time.Hour)
	seedSubmission(t, db, p1, "daily_checkin")
	seedSubmission(t, db, p1, "onboarding")

	var resp struct {
		Participants []ParticipantRow `json:"participants"`
	}
	w := getJSON(t, router, "/api/participants", &resp)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if len(resp.Participants) != 2 {
		t.Fatalf("participants = %d, want 2", len(resp.Participants))
	}
	first := resp.Participants[0]
	if first.Submissions != 2 {
		t.Errorf("submissions = %d, want 2", first.Submissions)
	}
	if first.Day != 2 {
		t.Errorf("day = %d, want 2", first.Day)
	}
	if first.LastSubmission == nil {
		t.Error("last submission missing")
	}
}

func TestParticipantDetailEndpoint(t *testing.T) {
	db := openDashboardDB(t)
	router := newRouter(db)

	p := seedParticipant(t, db, "u1", 24*time.Hour)
	sub := seedSubmission(t, db, p, "daily_checkin")
	note := models.AdvisoryNote{
		ParticipantID: p.ID,
		SubmissionID:  sub.ID,
		Kind:          "daily",
		Response:      "Keep it up.",
	}
	if err := store.SaveAdvisoryNote(db, &note); err != nil {
		t.Fatal(err)
	}

	var detail ParticipantDetail
	w := getJSON(t, router, "/api/participants/1", &detail)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if len(detail.Recent) != 1 || detail.Recent[0].Type != "daily_checkin" {
		t.Errorf("recent = %+v", detail.Recent)
	}
	if len(detail.Notes) != 1 || detail.Notes[0].Response != "Keep it up." {
		t.Errorf("notes = %+v", detail.Notes)
	}
}

func TestParticipantDetailNotFound(t *testing.T) {
	db := openDashboardDB(t)
	router := newRouter(db)

	w := getJSON(t, router, "/api/participants/99", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}

	w = getJSON(t, router, "/api/participants/abc", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestSubmissionsEndpointFilters(t *testing.T) {
	db := openDashboardDB(t)
	router := newRouter(db)

	p1 := seedParticipant(t, db, "u1", 24*time.Hour)
	p2 := seedParticipant(t, db, "u2", 24*time.Hour)
	seedSubmission(t, db, p1, "daily_checkin")
	seedSubmission(t, db, p1, "onboarding")
	seedSubmission(t, db, p2, "daily_checkin")

	var all SubmissionListResult
	getJSON(t, router, "/api/submissions", &all)
	if len(all.Submissions) != 3 {
		t.Errorf("all = %d, want 3", len(all.Submissions))
	}
	if len(all.Types) != 2 {
		t.Errorf("types = %v, want 2 distinct", all.Types)
	}

	var byType SubmissionListResult
	getJSON(t, router, "/api/submissions?type=onboarding", &byType)
	if len(byType.Submissions) != 1 {
		t.Errorf("by type = %d, want 1", len(byType.Submissions))
	}

	var byParticipant SubmissionListResult
	getJSON(t, router, "/api/submissions?participant_id=2", &byParticipant)
	if len(byParticipant.Submissions) != 1 {
		t.Errorf("by participant = %d, want 1", len(byParticipant.Submissions))
	}

	w := getJSON(t, router, "/api/submissions?participant_id=bogus", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestCompletionEndpoint(t *testing.T) {
	db := openDashboardDB(t)
	router := newRouter(db)

	p1 := seedParticipant(t, db, "u1", 24*time.Hour)
	p2 := seedParticipant(t, db, "u2", 24*time.Hour)
	seedSubmission(t, db, p1, "daily_checkin")
	seedSubmission(t, db, p2, "daily_checkin")
	seedSubmission(t, db, p1, "onboarding")

	var resp struct {
		Completion []CompletionCell `json:"completion"`
	}
	getJSON(t, router, "/api/completion", &resp)
	if len(resp.Completion) != 2 {
		t.Fatalf("cells = %+v, want 2", resp.Completion)
	}
	if resp.Completion[0].Type != "daily_checkin" || resp.Completion[0].Count != 2 {
		t.Errorf("cell[0] = %+v", resp.Completion[0])
	}
}

func TestSSEConnectEvent(t *testing.T) {
	db := openDashboardDB(t)
	router := newRouter(db)

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	req = req.WithContext(ctx)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	body := w.Body.String()
	if !strings.Contains(body, "event: connected") {
		t.Errorf("body %q missing connected event", body)
	}
}
