package models

import "time"

// IntakeSession tracks a participant's position inside one questionnaire
// flow. The session store uses this model to enforce at most one active
// session per (participant, slot); starting a new intake supersedes any
// stale one.
type IntakeSession struct {
	ID            uint      `gorm:"primaryKey;autoIncrement"`
	ParticipantID uint      `gorm:"not null;index:idx_participant_slot"`
	Slot          string    `gorm:"size:64;not null;index:idx_participant_slot"`
	StepID        string    `gorm:"size:64;not null"`
	Answers       string    `gorm:"type:json"` // step id → validated answer
	MediaKeys     string    `gorm:"type:json"` // object-store keys collected so far
	Status        string    `gorm:"size:16;default:active;index"` // active, completed, cancelled, superseded
	CreatedAt     time.Time
	UpdatedAt     time.Time
	CompletedAt   *time.Time

	Participant Participant `gorm:"foreignKey:ParticipantID"`
}
