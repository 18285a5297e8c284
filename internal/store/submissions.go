package store

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pulseward/pulseward/internal/models"
	"gorm.io/gorm"
)

// Save persists a completed submission, applying the dedupe invariant in one
// transaction: daily submissions replace same-type submissions from the same
// local calendar day; one-time submissions replace every prior submission of
// that type. The read-delete-insert sequence is indivisible with respect to
// concurrent saves for the same participant and type.
//
// tz is the participant's IANA zone, used to bound "the same calendar day".
// Failures are wrapped in ErrPersistence.
func Save(db *gorm.DB, sub *models.Submission, tz string) error {
	if sub.ParticipantID == 0 {
		return fmt.Errorf("store: save submission: participant id is required")
	}
	if sub.Type == "" {
		return fmt.Errorf("store: save submission: type is required")
	}
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now()
	}
	if sub.Payload == "" {
		sub.Payload = "{}"
	}
	if sub.MediaKeys == "" {
		sub.MediaKeys = "[]"
	}

	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc = time.UTC
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		q := tx.Where("participant_id = ? AND type = ?", sub.ParticipantID, sub.Type)
		if sub.Daily {
			dayStart, dayEnd := localDayBounds(sub.CreatedAt, loc)
			q = q.Where("created_at >= ? AND created_at < ?", dayStart, dayEnd)
		}
		if err := q.Delete(&models.Submission{}).Error; err != nil {
			return fmt.Errorf("delete superseded: %w", err)
		}
		if err := tx.Create(sub).Error; err != nil {
			return fmt.Errorf("insert: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: save %s for participant %d: %v", ErrPersistence, sub.Type, sub.ParticipantID, err)
	}
	return nil
}

// HasSubmissionOn reports whether the participant has a submission of the
// given type on the local calendar day containing at.
func HasSubmissionOn(db *gorm.DB, participantID uint, qType string, at time.Time, tz string) (bool, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return false, fmt.Errorf("store: timezone %q: %w", tz, err)
	}
	dayStart, dayEnd := localDayBounds(at, loc)

	var count int64
	if err := db.Model(&models.Submission{}).
		Where("participant_id = ? AND type = ? AND created_at >= ? AND created_at < ?",
			participantID, qType, dayStart, dayEnd).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("store: has submission: %w", err)
	}
	return count > 0, nil
}

// HasSubmissionEver reports whether the participant has ever completed the
// given type.
func HasSubmissionEver(db *gorm.DB, participantID uint, qType string) (bool, error) {
	var count int64
	if err := db.Model(&models.Submission{}).
		Where("participant_id = ? AND type = ?", participantID, qType).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("store: has submission: %w", err)
	}
	return count > 0, nil
}

// RecentSubmissions returns the participant's newest submissions, newest
// first, for advisory context.
func RecentSubmissions(db *gorm.DB, participantID uint, limit int) ([]models.Submission, error) {
	var subs []models.Submission
	if err := db.Where("participant_id = ?", participantID).
		Order("created_at DESC").Limit(limit).Find(&subs).Error; err != nil {
		return nil, fmt.Errorf("store: recent submissions: %w", err)
	}
	return subs, nil
}

// SubmissionsBetween returns a participant's submissions in [from, to),
// oldest first. Used by the weekly advisory digest.
func SubmissionsBetween(db *gorm.DB, participantID uint, from, to time.Time) ([]models.Submission, error) {
	var subs []models.Submission
	if err := db.Where("participant_id = ? AND created_at >= ? AND created_at < ?",
		participantID, from, to).
		Order("created_at ASC").Find(&subs).Error; err != nil {
		return nil, fmt.Errorf("store: submissions between: %w", err)
	}
	return subs, nil
}

// SaveAdvisoryNote records an advisory prompt/response pair.
func SaveAdvisoryNote(db *gorm.DB, note *models.AdvisoryNote) error {
	if err := db.Create(note).Error; err != nil {
		return fmt.Errorf("store: save advisory note: %w", err)
	}
	return nil
}

// localDayBounds returns the start (inclusive) and end (exclusive) of the
// calendar day containing t in loc.
func localDayBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	lt := t.In(loc)
	start := time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}
