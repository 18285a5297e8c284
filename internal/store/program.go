package store

import (
	"fmt"
	"time"

	"github.com/pulseward/pulseward/internal/models"
	"gorm.io/gorm"
)

// ProgramStart returns the program-wide enrollment instant, or nil if the
// program has not been started. Read fresh on every call — the dispatcher
// never caches it beyond one tick.
func ProgramStart(db *gorm.DB) (*time.Time, error) {
	var pc models.ProgramConfig
	result := db.First(&pc)
	if result.Error == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if result.Error != nil {
		return nil, fmt.Errorf("store: program config: %w", result.Error)
	}
	return pc.StartedAt, nil
}

// StartProgram sets the enrollment instant to now and propagates it to every
// participant, current and future. Fails with ErrAlreadyStarted if an
// instant is already set; use SetProgramStart to override.
func StartProgram(db *gorm.DB, setBy string) (time.Time, error) {
	now := time.Now()
	err := db.Transaction(func(tx *gorm.DB) error {
		var pc models.ProgramConfig
		result := tx.First(&pc)
		if result.Error == nil && pc.StartedAt != nil {
			return ErrAlreadyStarted
		}
		if result.Error != nil && result.Error != gorm.ErrRecordNotFound {
			return fmt.Errorf("read program config: %w", result.Error)
		}
		return writeProgramStart(tx, &now, setBy)
	})
	if err != nil {
		return time.Time{}, fmt.Errorf("store: start program: %w", err)
	}
	return now, nil
}

// SetProgramStart sets the enrollment instant to an explicit time and
// propagates it, overriding any previous value.
func SetProgramStart(db *gorm.DB, at time.Time, setBy string) error {
	err := db.Transaction(func(tx *gorm.DB) error {
		return writeProgramStart(tx, &at, setBy)
	})
	if err != nil {
		return fmt.Errorf("store: set program start: %w", err)
	}
	return nil
}

// ResetProgram clears the enrollment instant for the program and all
// participants. Participants keep their submissions; they simply have no
// defined program day until the next start.
func ResetProgram(db *gorm.DB, setBy string) error {
	err := db.Transaction(func(tx *gorm.DB) error {
		return writeProgramStart(tx, nil, setBy)
	})
	if err != nil {
		return fmt.Errorf("store: reset program: %w", err)
	}
	return nil
}

// writeProgramStart upserts the single ProgramConfig row and propagates the
// instant to all participants inside the caller's transaction.
func writeProgramStart(tx *gorm.DB, at *time.Time, setBy string) error {
	var pc models.ProgramConfig
	result := tx.First(&pc)
	if result.Error == gorm.ErrRecordNotFound {
		pc = models.ProgramConfig{StartedAt: at, SetBy: setBy}
		if err := tx.Create(&pc).Error; err != nil {
			return fmt.Errorf("create program config: %w", err)
		}
	} else if result.Error != nil {
		return fmt.Errorf("read program config: %w", result.Error)
	} else {
		if err := tx.Model(&pc).Updates(map[string]interface{}{
			"started_at": at,
			"set_by":     setBy,
		}).Error; err != nil {
			return fmt.Errorf("update program config: %w", err)
		}
	}

	if err := tx.Model(&models.Participant{}).Where("1 = 1").
		Update("enrolled_at", at).Error; err != nil {
		return fmt.Errorf("propagate enrollment: %w", err)
	}
	return nil
}
