package intake

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/pulseward/pulseward/internal/models"
	"gorm.io/gorm"
)

// SessionStore persists intake sessions and enforces the one-live-session
// invariant: at most one active session per (participant, slot). A chat
// stream can only drive one dialogue at a time, so starting any intake also
// supersedes the participant's active sessions in other slots.
type SessionStore struct {
	db *gorm.DB
}

// NewSessionStore creates a SessionStore.
func NewSessionStore(db *gorm.DB) *SessionStore {
	return &SessionStore{db: db}
}

// Start creates a new active session positioned at stepID. If an active
// session for the same slot exists and restart is false it fails with
// ErrAlreadyActive; with restart it supersedes the old session. Active
// sessions in other slots are always superseded.
func (s *SessionStore) Start(participantID uint, slot, stepID string, restart bool) (*models.IntakeSession, error) {
	var sess *models.IntakeSession

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var existing models.IntakeSession
		result := tx.Where("participant_id = ? AND slot = ? AND status = ?",
			participantID, slot, "active").First(&existing)
		if result.Error == nil && !restart {
			return ErrAlreadyActive
		}
		if result.Error != nil && result.Error != gorm.ErrRecordNotFound {
			return fmt.Errorf("check existing session: %w", result.Error)
		}

		if err := tx.Model(&models.IntakeSession{}).
			Where("participant_id = ? AND status = ?", participantID, "active").
			Update("status", "superseded").Error; err != nil {
			return fmt.Errorf("supersede stale sessions: %w", err)
		}

		sess = &models.IntakeSession{
			ParticipantID: participantID,
			Slot:          slot,
			StepID:        stepID,
			Answers:       "{}",
			MediaKeys:     "[]",
			Status:        "active",
		}
		if err := tx.Create(sess).Error; err != nil {
			return fmt.Errorf("create session: %w", err)
		}
		return nil
	})
	if err != nil {
		if err == ErrAlreadyActive {
			return nil, err
		}
		return nil, fmt.Errorf("intake: start session: %w", err)
	}
	return sess, nil
}

// Active returns the participant's live session, or ErrNoSession.
func (s *SessionStore) Active(participantID uint) (*models.IntakeSession, error) {
	var sess models.IntakeSession
	result := s.db.Where("participant_id = ? AND status = ?", participantID, "active").
		Order("created_at DESC").First(&sess)
	if result.Error == gorm.ErrRecordNotFound {
		return nil, ErrNoSession
	}
	if result.Error != nil {
		return nil, fmt.Errorf("intake: active session: %w", result.Error)
	}
	return &sess, nil
}

// Advance moves the session to stepID with the updated answers and media
// keys.
func (s *SessionStore) Advance(sessionID uint, stepID string, answers map[string]string, mediaKeys []string) error {
	answersJSON, err := json.Marshal(answers)
	if err != nil {
		return fmt.Errorf("intake: marshal answers: %w", err)
	}
	mediaJSON, err := json.Marshal(mediaKeys)
	if err != nil {
		return fmt.Errorf("intake: marshal media keys: %w", err)
	}
	result := s.db.Model(&models.IntakeSession{}).
		Where("id = ? AND status = ?", sessionID, "active").
		Updates(map[string]interface{}{
			"step_id":    stepID,
			"answers":    string(answersJSON),
			"media_keys": string(mediaJSON),
		})
	if result.Error != nil {
		return fmt.Errorf("intake: advance session %d: %w", sessionID, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNoSession
	}
	return nil
}

// Complete marks the session finished.
func (s *SessionStore) Complete(sessionID uint) error {
	now := time.Now()
	result := s.db.Model(&models.IntakeSession{}).
		Where("id = ? AND status = ?", sessionID, "active").
		Updates(map[string]interface{}{
			"status":       "completed",
			"completed_at": now,
		})
	if result.Error != nil {
		return fmt.Errorf("intake: complete session %d: %w", sessionID, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNoSession
	}
	return nil
}

// Cancel discards the participant's live session, if any. Cancelling when
// no session exists is not an error.
func (s *SessionStore) Cancel(participantID uint) error {
	if err := s.db.Model(&models.IntakeSession{}).
		Where("participant_id = ? AND status = ?", participantID, "active").
		Update("status", "cancelled").Error; err != nil {
		return fmt.Errorf("intake: cancel session: %w", err)
	}
	return nil
}

// sessionAnswers unmarshals the session's accumulated answers.
func sessionAnswers(sess *models.IntakeSession) (map[string]string, error) {
	answers := make(map[string]string)
	if sess.Answers != "" {
		if err := json.Unmarshal([]byte(sess.Answers), &answers); err != nil {
			return nil, fmt.Errorf("intake: unmarshal answers: %w", err)
		}
	}
	return answers, nil
}

// sessionMediaKeys unmarshals the session's collected media keys.
func sessionMediaKeys(sess *models.IntakeSession) ([]string, error) {
	var keys []string
	if sess.MediaKeys != "" {
		if err := json.Unmarshal([]byte(sess.MediaKeys), &keys); err != nil {
			return nil, fmt.Errorf("intake: unmarshal media keys: %w", err)
		}
	}
	return keys, nil
}
