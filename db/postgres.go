package db

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	GormDB *gorm.DB
	once   sync.Once
)

// InitDB opens the audit database and migrates the submission tables.
func InitDB(dbuser, dbpassword, dbname string) error {
	var err error
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		getEnv("DB_HOST", "localhost"),
		getEnv("DB_USER", dbuser),
		getEnv("DB_PASS", dbpassword),
		getEnv("DB_NAME", dbname),
		getEnv("DB_PORT", "5432"),
	)

	once.Do(func() {
		GormDB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if err != nil {
			return
		}
		err = GormDB.AutoMigrate(&Submission{}, &SubmissionStep{})
	})
	return err
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

// CreateSubmission stores a new submission with its pending steps.
func CreateSubmission(ctx context.Context, submission *Submission) error {
	return GormDB.WithContext(ctx).Create(submission).Error
}

// GetSubmission loads a submission and its steps.
func GetSubmission(ctx context.Context, id uuid.UUID) (*Submission, error) {
	var submission Submission
	if err := GormDB.WithContext(ctx).Preload("Steps").First(&submission, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &submission, nil
}

// UpdateStep moves one step of a submission to a new status.
func UpdateStep(ctx context.Context, submissionID uuid.UUID, stepName, status, detail string) error {
	return GormDB.WithContext(ctx).Model(&SubmissionStep{}).
		Where("submission_id = ? AND step_name = ?", submissionID, stepName).
		Updates(map[string]any{
			"status":          status,
			"detail":          detail,
			"last_updated_at": time.Now(),
		}).Error
}

// CompleteSubmission records the final status and, for destroys, the
// itemized deletion lists.
func CompleteSubmission(ctx context.Context, submissionID uuid.UUID, status string, successful, failed []string) error {
	now := time.Now()
	return GormDB.WithContext(ctx).Model(&Submission{}).
		Where("id = ?", submissionID).
		Updates(map[string]any{
			"status":       status,
			"successful":   pqArray(successful),
			"failed":       pqArray(failed),
			"completed_at": &now,
		}).Error
}

func pqArray(items []string) pq.StringArray {
	if items == nil {
		return pq.StringArray{}
	}
	return pq.StringArray(items)
}
