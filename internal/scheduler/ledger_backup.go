package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/DREDGV/crypto-portfolio/internal/backup"
)

// LedgerBackupJob uploads the ledger database to S3
type LedgerBackupJob struct {
	log      zerolog.Logger
	uploader *backup.Uploader
	dbPath   string
}

// NewLedgerBackupJob creates a nightly ledger backup job
func NewLedgerBackupJob(uploader *backup.Uploader, dbPath string, log zerolog.Logger) *LedgerBackupJob {
	return &LedgerBackupJob{
		log:      log.With().Str("job", "ledger_backup").Logger(),
		uploader: uploader,
		dbPath:   dbPath,
	}
}

// Name returns the job name
func (j *LedgerBackupJob) Name() string {
	return "ledger_backup"
}

// Run uploads the current ledger database file
func (j *LedgerBackupJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	return j.uploader.UploadFile(ctx, j.dbPath)
}
