package services

import (
	"context"
	"time"

	"github.com/spinlab/campaign-engine/internal/engine"
	"github.com/spinlab/campaign-engine/internal/models"
	"github.com/spinlab/campaign-engine/internal/repositories"
)

// AuditService exposes the stored attribution trail: listing, independent
// re-verification, aggregate reporting and CSV export.
type AuditService interface {
	GetLogs(ctx context.Context, campaignID string, page, limit int) ([]*models.AuditLog, int64, error)
	GetLog(ctx context.Context, logID string) (*models.AuditLog, error)
	VerifyLog(ctx context.Context, logID string) (*models.AuditLog, engine.AuditVerification, error)
	GetReport(ctx context.Context, campaignID string) (engine.AuditReport, error)
	ExportCSV(ctx context.Context, campaignID string) (string, error)
	VerifyProof(proof models.ProofOfFairness) bool
}

type auditService struct {
	auditRepo repositories.AuditLogRepository
	now       func() time.Time
}

// NewAuditService creates a new AuditService implementation
func NewAuditService(auditRepo repositories.AuditLogRepository) AuditService {
	return &auditService{
		auditRepo: auditRepo,
		now:       time.Now,
	}
}

func (s *auditService) GetLogs(ctx context.Context, campaignID string, page, limit int) ([]*models.AuditLog, int64, error) {
	logs, err := s.auditRepo.FindByCampaignID(ctx, campaignID, page, limit)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.auditRepo.CountByCampaignID(ctx, campaignID)
	if err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}

func (s *auditService) GetLog(ctx context.Context, logID string) (*models.AuditLog, error) {
	return s.auditRepo.FindByLogID(ctx, logID)
}

// VerifyLog re-checks a stored log's signature, fairness proof and counter
// consistency against the current clock
func (s *auditService) VerifyLog(ctx context.Context, logID string) (*models.AuditLog, engine.AuditVerification, error) {
	log, err := s.auditRepo.FindByLogID(ctx, logID)
	if err != nil {
		return nil, engine.AuditVerification{}, err
	}
	return log, engine.VerifyAuditLog(*log, s.now()), nil
}

func (s *auditService) GetReport(ctx context.Context, campaignID string) (engine.AuditReport, error) {
	logs, err := s.allLogs(ctx, campaignID)
	if err != nil {
		return engine.AuditReport{}, err
	}
	return engine.GenerateAuditReport(logs), nil
}

func (s *auditService) ExportCSV(ctx context.Context, campaignID string) (string, error) {
	logs, err := s.allLogs(ctx, campaignID)
	if err != nil {
		return "", err
	}
	return engine.ExportCSV(logs), nil
}

func (s *auditService) VerifyProof(proof models.ProofOfFairness) bool {
	return engine.VerifyProof(proof)
}

func (s *auditService) allLogs(ctx context.Context, campaignID string) ([]models.AuditLog, error) {
	stored, err := s.auditRepo.FindAllByCampaignID(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	logs := make([]models.AuditLog, 0, len(stored))
	for _, l := range stored {
		logs = append(logs, *l)
	}
	return logs, nil
}
