// Package service provides the service layer of the attendance system:
// enrollment of identities from face images and reconciliation of session
// attendance against the enrolled roster.
package service

import (
	"context"
	"log"
	"os"

	"face-attend/internal/database"
	"face-attend/internal/extractor"
	"face-attend/internal/model/roster_model"
	"face-attend/internal/recognize"
	"face-attend/internal/repo"
	"face-attend/internal/service/attendance_service"
	"face-attend/internal/service/enroll_service"
	"face-attend/tools"
)

const (
	// pgDbEnvName is the env variable key for the PostgreSQL database name.
	pgDbEnvName = "FACE_ATTEND__PG_NAME"

	// pgDbUserName is the env variable key for the PostgreSQL database username.
	pgDbUserName = "FACE_ATTEND__PG_USER"

	// pgPassEnvName is the env variable key for the PostgreSQL database password.
	pgPassEnvName = "FACE_ATTEND__PG_PASS"

	// thresholdEnvName overrides the default match threshold.
	thresholdEnvName = "FACE_ATTEND__MATCH_THRESHOLD"

	// strictEnrollEnvName requires exactly one face per enrollment photo.
	strictEnrollEnvName = "FACE_ATTEND__STRICT_ENROLL"

	// workersEnvName sets the background reconciliation pool size.
	workersEnvName = "FACE_ATTEND__WORKERS"
)

// Service is a struct that embeds the Enrollment and Attendance interfaces
// and provides methods to interact with the attendance pipeline.
type Service struct {
	Enrollment
	Attendance
}

// NewServiceWithRepo creates a new instance of Service: it connects to the
// database, authenticates against the face API, and starts the background
// runner. Any failure here is fatal; no core operation is callable before
// initialization completes.
func NewServiceWithRepo() (srvs *Service) {
	tools.CheckEnvs(pgDbEnvName, pgDbUserName, pgPassEnvName)

	db, err := database.GetDatabase(os.Getenv(pgDbEnvName), os.Getenv(pgDbUserName), os.Getenv(pgPassEnvName))
	if err != nil {
		log.Fatalf("Error initializing database: %v", err)
	}

	ext, err := extractor.New(context.Background())
	if err != nil {
		log.Fatalf("Error initializing face api extractor: %v", err)
	}

	repo := repo.NewRepo(db)

	threshold := tools.EnvFloat(thresholdEnvName, recognize.DefaultThreshold)

	return &Service{
		Enrollment: enroll_service.New(repo, ext, enroll_service.Config{
			Threshold:        threshold,
			StrictSingleFace: tools.EnvBool(strictEnrollEnvName, false),
		}),
		Attendance: attendance_service.New(repo, ext, attendance_service.Config{
			Threshold: threshold,
			Workers:   tools.EnvInt(workersEnvName, 2),
		}),
	}
}

// Enrollment defines the interface for enrolling and looking up identities.
type Enrollment interface {
	Enroll(ctx context.Context, externalKey, displayName string, images []roster_model.ImageBlob) (identity *roster_model.Identity, err error)
	GetIdentity(externalKey string) (profile *roster_model.IdentityProfile, err error)
}

// Attendance defines the interface for session attendance reconciliation.
type Attendance interface {
	Reconcile(ctx context.Context, sessionKey string, roster []string, probes []roster_model.ImageBlob) (outcome *roster_model.Outcome, err error)
	Submit(sessionKey string, roster []string, imageRefs []string) roster_model.Ack
	GetSessionMarks(sessionKey string) (marks []roster_model.AttendanceMark, err error)
	Close()
}
