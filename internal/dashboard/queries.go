package dashboard

import (
	"fmt"
	"time"

	"github.com/pulseward/pulseward/internal/campaign"
	"github.com/pulseward/pulseward/internal/models"
	"github.com/pulseward/pulseward/internal/store"
	"gorm.io/gorm"
)

// ProgramStatus holds the program-wide view for the overview page.
type ProgramStatus struct {
	StartedAt    *time.Time `json:"started_at"`
	Day          int        `json:"day"` // UTC program day, 0 before start
	Participants int64      `json:"participants"`
	Active       int64      `json:"active"`
	Submissions  int64      `json:"submissions"`
	Today        int64      `json:"submissions_today"`
}

// GetProgramStatus returns the overview counters.
func GetProgramStatus(db *gorm.DB) (*ProgramStatus, error) {
	startedAt, err := store.ProgramStart(db)
	if err != nil {
		return nil, err
	}

	status := &ProgramStatus{StartedAt: startedAt}
	if startedAt != nil {
		day, err := campaign.ProgramDay(time.Now(), *startedAt, "UTC")
		if err == nil {
			status.Day = day
		}
	}

	if err := db.Model(&models.Participant{}).Count(&status.Participants).Error; err != nil {
		return nil, fmt.Errorf("count participants: %w", err)
	}
	if err := db.Model(&models.Participant{}).Where("active = ?", true).
		Count(&status.Active).Error; err != nil {
		return nil, fmt.Errorf("count active: %w", err)
	}
	if err := db.Model(&models.Submission{}).Count(&status.Submissions).Error; err != nil {
		return nil, fmt.Errorf("count submissions: %w", err)
	}

	dayStart := time.Now().UTC().Truncate(24 * time.Hour)
	if err := db.Model(&models.Submission{}).Where("created_at >= ?", dayStart).
		Count(&status.Today).Error; err != nil {
		return nil, fmt.Errorf("count today: %w", err)
	}
	return status, nil
}

// ParticipantRow holds participant data for the list view.
type ParticipantRow struct {
	ID             uint       `json:"id"`
	PlatformUserID string     `json:"platform_user_id"`
	UserName       string     `json:"user_name"`
	FullName       string     `json:"full_name"`
	Timezone       string     `json:"timezone"`
	Active         bool       `json:"active"`
	EnrolledAt     *time.Time `json:"enrolled_at"`
	Day            int        `json:"day"` // 0 when unenrolled or tz broken
	Submissions    int64      `json:"submissions"`
	LastSubmission *time.Time `json:"last_submission"`
}

// ParticipantList returns every participant with program day and submission
// counters. Deactivated participants are included and flagged.
func ParticipantList(db *gorm.DB) ([]ParticipantRow, error) {
	ps, err := store.AllParticipants(db)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	rows := make([]ParticipantRow, len(ps))
	for i, p := range ps {
		rows[i] = ParticipantRow{
			ID:             p.ID,
			PlatformUserID: p.PlatformUserID,
			UserName:       p.UserName,
			FullName:       p.FullName,
			Timezone:       p.Timezone,
			Active:         p.Active,
			EnrolledAt:     p.EnrolledAt,
		}
		if p.EnrolledAt != nil {
			if day, err := campaign.ProgramDay(now, *p.EnrolledAt, p.Timezone); err == nil {
				rows[i].Day = day
			}
		}

		db.Model(&models.Submission{}).Where("participant_id = ?", p.ID).
			Count(&rows[i].Submissions)
		var latest models.Submission
		if err := db.Where("participant_id = ?", p.ID).
			Order("created_at DESC").First(&latest).Error; err == nil {
			t := latest.CreatedAt
			rows[i].LastSubmission = &t
		}
	}
	return rows, nil
}

// SubmissionRow holds submission data for display.
type SubmissionRow struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Daily     bool      `json:"daily"`
	Payload   string    `json:"payload"`
	MediaKeys string    `json:"media_keys"`
	CreatedAt time.Time `json:"created_at"`
}

// NoteRow holds an advisory exchange for display.
type NoteRow struct {
	Kind      string    `json:"kind"`
	Response  string    `json:"response"`
	CreatedAt time.Time `json:"created_at"`
}

// ParticipantDetail holds the full per-participant view.
type ParticipantDetail struct {
	ParticipantRow
	Recent []SubmissionRow `json:"recent_submissions"`
	Notes  []NoteRow       `json:"advisory_notes"`
}

// GetParticipantDetail returns one participant with their recent submissions
// and advisory notes.
func GetParticipantDetail(db *gorm.DB, id uint) (*ParticipantDetail, error) {
	var p models.Participant
	if err := db.Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}

	detail := &ParticipantDetail{
		ParticipantRow: ParticipantRow{
			ID:             p.ID,
			PlatformUserID: p.PlatformUserID,
			UserName:       p.UserName,
			FullName:       p.FullName,
			Timezone:       p.Timezone,
			Active:         p.Active,
			EnrolledAt:     p.EnrolledAt,
		},
	}
	if p.EnrolledAt != nil {
		if day, err := campaign.ProgramDay(time.Now(), *p.EnrolledAt, p.Timezone); err == nil {
			detail.Day = day
		}
	}
	db.Model(&models.Submission{}).Where("participant_id = ?", p.ID).
		Count(&detail.Submissions)

	subs, err := store.RecentSubmissions(db, p.ID, 30)
	if err != nil {
		return nil, err
	}
	detail.Recent = make([]SubmissionRow, len(subs))
	for i, s := range subs {
		detail.Recent[i] = SubmissionRow{
			ID:        s.ID,
			Type:      s.Type,
			Daily:     s.Daily,
			Payload:   s.Payload,
			MediaKeys: s.MediaKeys,
			CreatedAt: s.CreatedAt,
		}
	}
	if len(subs) > 0 {
		t := subs[0].CreatedAt
		detail.LastSubmission = &t
	}

	var notes []models.AdvisoryNote
	db.Where("participant_id = ?", p.ID).Order("created_at DESC").Limit(20).Find(&notes)
	detail.Notes = make([]NoteRow, len(notes))
	for i, n := range notes {
		detail.Notes[i] = NoteRow{Kind: n.Kind, Response: n.Response, CreatedAt: n.CreatedAt}
	}
	return detail, nil
}

// SubmissionFilters holds optional filters for the submissions list.
type SubmissionFilters struct {
	ParticipantID uint
	Type          string
}

// SubmissionListResult holds the submission list plus distinct types for
// filter dropdowns.
type SubmissionListResult struct {
	Submissions []SubmissionRow `json:"submissions"`
	Types       []string        `json:"types"`
}

// SubmissionList returns submissions matching filters, newest first.
func SubmissionList(db *gorm.DB, filters SubmissionFilters) (*SubmissionListResult, error) {
	q := db.Model(&models.Submission{})
	if filters.ParticipantID != 0 {
		q = q.Where("participant_id = ?", filters.ParticipantID)
	}
	if filters.Type != "" {
		q = q.Where("type = ?", filters.Type)
	}

	var subs []models.Submission
	if err := q.Order("created_at DESC").Limit(200).Find(&subs).Error; err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}

	result := &SubmissionListResult{
		Submissions: make([]SubmissionRow, len(subs)),
	}
	for i, s := range subs {
		result.Submissions[i] = SubmissionRow{
			ID:        s.ID,
			Type:      s.Type,
			Daily:     s.Daily,
			Payload:   s.Payload,
			MediaKeys: s.MediaKeys,
			CreatedAt: s.CreatedAt,
		}
	}

	db.Model(&models.Submission{}).Distinct("type").Order("type ASC").
		Pluck("type", &result.Types)
	return result, nil
}

// CompletionCell is one (flow, count) pair in the completion summary.
type CompletionCell struct {
	Type  string `json:"type"`
	Count int64  `json:"count"`
}

// CompletionSummary returns how many submissions exist per flow type, a quick
// read on how far the cohort has progressed.
func CompletionSummary(db *gorm.DB) ([]CompletionCell, error) {
	var cells []CompletionCell
	if err := db.Model(&models.Submission{}).
		Select("type, count(*) as count").
		Group("type").Order("type ASC").
		Find(&cells).Error; err != nil {
		return nil, fmt.Errorf("completion summary: %w", err)
	}
	return cells, nil
}
