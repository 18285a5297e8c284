package store

import (
	"fmt"
	"time"

	"github.com/pulseward/pulseward/internal/models"
	"gorm.io/gorm"
)

// EnsureParticipant finds or creates the participant for a platform user.
// New participants inherit the program enrollment instant if one is set, so
// people joining after program start land on the right program day.
// Existing rows get their username and channel refreshed.
func EnsureParticipant(db *gorm.DB, platformUserID, userName, channelID string) (*models.Participant, error) {
	if platformUserID == "" {
		return nil, fmt.Errorf("store: platform user id is required")
	}

	var p models.Participant
	err := db.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("platform_user_id = ?", platformUserID).First(&p)
		if result.Error == nil {
			updates := map[string]interface{}{}
			if userName != "" && userName != p.UserName {
				updates["user_name"] = userName
			}
			if channelID != "" && channelID != p.ChannelID {
				updates["channel_id"] = channelID
			}
			if len(updates) > 0 {
				if err := tx.Model(&p).Updates(updates).Error; err != nil {
					return fmt.Errorf("refresh participant: %w", err)
				}
			}
			return nil
		}
		if result.Error != gorm.ErrRecordNotFound {
			return fmt.Errorf("lookup participant: %w", result.Error)
		}

		var pc models.ProgramConfig
		var enrolledAt *time.Time
		if err := tx.First(&pc).Error; err == nil && pc.StartedAt != nil {
			t := *pc.StartedAt
			enrolledAt = &t
		}

		p = models.Participant{
			PlatformUserID: platformUserID,
			UserName:       userName,
			ChannelID:      channelID,
			Timezone:       "UTC",
			EnrolledAt:     enrolledAt,
			Active:         true,
		}
		if err := tx.Create(&p).Error; err != nil {
			return fmt.Errorf("create participant: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("store: ensure participant %s: %w", platformUserID, err)
	}
	return &p, nil
}

// ByPlatformID returns the participant for a platform user ID.
func ByPlatformID(db *gorm.DB, platformUserID string) (*models.Participant, error) {
	var p models.Participant
	result := db.Where("platform_user_id = ?", platformUserID).First(&p)
	if result.Error == gorm.ErrRecordNotFound {
		return nil, ErrNotFound
	}
	if result.Error != nil {
		return nil, fmt.Errorf("store: participant %s: %w", platformUserID, result.Error)
	}
	return &p, nil
}

// SetTimezone updates a participant's IANA timezone. The name must resolve
// via the system zone database; anything else is rejected.
func SetTimezone(db *gorm.DB, participantID uint, tz string) error {
	if _, err := time.LoadLocation(tz); err != nil {
		return fmt.Errorf("store: timezone %q: %w", tz, err)
	}
	result := db.Model(&models.Participant{}).Where("id = ?", participantID).
		Update("timezone", tz)
	if result.Error != nil {
		return fmt.Errorf("store: set timezone: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetFullName records the participant's name as collected during
// onboarding.
func SetFullName(db *gorm.DB, participantID uint, name string) error {
	result := db.Model(&models.Participant{}).Where("id = ?", participantID).
		Update("full_name", name)
	if result.Error != nil {
		return fmt.Errorf("store: set full name: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Deactivate soft-deletes a participant. The row stays; the scheduler and
// router stop serving them.
func Deactivate(db *gorm.DB, platformUserID string) error {
	result := db.Model(&models.Participant{}).
		Where("platform_user_id = ?", platformUserID).
		Update("active", false)
	if result.Error != nil {
		return fmt.Errorf("store: deactivate %s: %w", platformUserID, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ActiveParticipants returns every active participant, ordered by creation.
func ActiveParticipants(db *gorm.DB) ([]models.Participant, error) {
	var ps []models.Participant
	if err := db.Where("active = ?", true).Order("created_at ASC").Find(&ps).Error; err != nil {
		return nil, fmt.Errorf("store: active participants: %w", err)
	}
	return ps, nil
}

// AllParticipants returns every participant including deactivated ones.
func AllParticipants(db *gorm.DB) ([]models.Participant, error) {
	var ps []models.Participant
	if err := db.Order("created_at ASC").Find(&ps).Error; err != nil {
		return nil, fmt.Errorf("store: all participants: %w", err)
	}
	return ps, nil
}
