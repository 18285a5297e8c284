package models

import "time"

// Participant is an enrolled member of the tracking program. Created on
// first contact with the bot; deactivation is a soft delete — rows are
// never physically removed.
type Participant struct {
	ID             uint   `gorm:"primaryKey;autoIncrement"`
	PlatformUserID string `gorm:"size:128;not null;uniqueIndex"`
	UserName       string `gorm:"size:64"`
	FullName       string `gorm:"size:128"`
	ChannelID      string `gorm:"size:128"`
	Timezone       string `gorm:"size:64;default:UTC"`
	EnrolledAt     *time.Time
	Active         bool `gorm:"default:true;index"`
	CreatedAt      time.Time
	UpdatedAt      time.Time

	Submissions []Submission `gorm:"foreignKey:ParticipantID"`
}

// ProgramConfig stores the single program-wide enrollment instant. One row;
// mutated only through operator actions and propagated to all participants
// at that moment.
type ProgramConfig struct {
	ID        uint `gorm:"primaryKey;autoIncrement"`
	StartedAt *time.Time
	SetBy     string `gorm:"size:64"`
	UpdatedAt time.Time
}
