package models

import "time"

// Submission is one completed questionnaire or capture task. Daily types
// keep at most one row per (participant, type) per local calendar day;
// one-time types keep at most one row per (participant, type) ever — the
// newest always wins. The store enforces both inside a transaction.
type Submission struct {
	ID            string `gorm:"primaryKey;size:36"`
	ParticipantID uint   `gorm:"not null;index:idx_participant_type"`
	Type          string `gorm:"size:64;not null;index:idx_participant_type"`
	Payload       string `gorm:"type:json"` // step id → validated answer
	MediaKeys     string `gorm:"type:json"` // object-store keys, arrival order
	Summary       string `gorm:"type:text"`
	Daily         bool   `gorm:"default:false"`
	CreatedAt     time.Time `gorm:"index"`

	Participant Participant `gorm:"foreignKey:ParticipantID"`
}

// AdvisoryNote records one advisory exchange: the prompt built from a
// submission and the collaborator's reply. Kept separate from Submission so
// advisory failures never touch submission rows.
type AdvisoryNote struct {
	ID            uint   `gorm:"primaryKey;autoIncrement"`
	ParticipantID uint   `gorm:"not null;index"`
	SubmissionID  string `gorm:"size:36"`
	Kind          string `gorm:"size:16;default:daily"` // daily, weekly
	Prompt        string `gorm:"type:mediumtext"`
	Response      string `gorm:"type:mediumtext"`
	CreatedAt     time.Time
}
