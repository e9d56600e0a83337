package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spinlab/campaign-engine/internal/models"
)

// maxAuditLogAge is how far in the past a log's timestamp may lie before
// verification flags it as suspect.
const maxAuditLogAge = 2 * 365 * 24 * time.Hour

// AuditParams is everything needed to assemble one attribution record.
type AuditParams struct {
	CampaignID            string
	ParticipantID         string
	ParticipantRank       int
	IsWinner              bool
	PrizeID               string
	PrizeName             string
	SegmentID             string
	AttributionMethod     string
	Proof                 *models.ProofOfFairness
	PrizesRemainingBefore int
	PrizesRemainingAfter  int
	Timestamp             time.Time
}

// AuditVerification is the outcome of re-checking a stored log.
type AuditVerification struct {
	IsValid  bool              `json:"isValid"`
	Errors   []string          `json:"errors,omitempty"`
	Warnings []string          `json:"warnings,omitempty"`
	Details  map[string]string `json:"details,omitempty"`
}

// AuditReport aggregates a set of logs for reporting. Pure aggregation, no
// mutation of the inputs.
type AuditReport struct {
	TotalPlays             int            `json:"totalPlays"`
	TotalWins              int            `json:"totalWins"`
	WinRate                float64        `json:"winRate"`
	PrizeDistribution      map[string]int `json:"prizeDistribution"`
	MethodDistribution     map[string]int `json:"methodDistribution"`
	DailyDistribution      map[string]int `json:"dailyDistribution"`
	AverageParticipantRank float64        `json:"averageParticipantRank"`
	UnverifiedCount        int            `json:"unverifiedCount"`
}

// auditCanonical is the canonical signed subset of a log. Field order is
// fixed; the signature is the SHA-256 of its JSON encoding.
type auditCanonical struct {
	ID                    string `json:"id"`
	Timestamp             string `json:"timestamp"`
	CampaignID            string `json:"campaignId"`
	ParticipantID         string `json:"participantId"`
	PrizeID               string `json:"prizeId"`
	IsWinner              bool   `json:"isWinner"`
	ProofHash             string `json:"proofHash"`
	PrizesRemainingBefore int    `json:"prizesRemainingBefore"`
	PrizesRemainingAfter  int    `json:"prizesRemainingAfter"`
}

// CreateAuditLog assembles and signs the record for one attribution decision.
// Verified is trivially true at creation; its real use is in later re-checks.
func CreateAuditLog(params AuditParams) (models.AuditLog, error) {
	log := models.AuditLog{
		ID:                    uuid.NewString(),
		Timestamp:             params.Timestamp,
		CampaignID:            params.CampaignID,
		ParticipantID:         params.ParticipantID,
		ParticipantRank:       params.ParticipantRank,
		IsWinner:              params.IsWinner,
		PrizeID:               params.PrizeID,
		PrizeName:             params.PrizeName,
		SegmentID:             params.SegmentID,
		AttributionMethod:     params.AttributionMethod,
		Proof:                 params.Proof,
		PrizesRemainingBefore: params.PrizesRemainingBefore,
		PrizesRemainingAfter:  params.PrizesRemainingAfter,
	}

	signature, err := signAuditLog(log)
	if err != nil {
		return models.AuditLog{}, fmt.Errorf("failed to sign audit log: %w", err)
	}
	log.Signature = signature
	log.Verified = true
	return log, nil
}

// VerifyAuditLog recomputes the expected signature and checks the log's
// internal consistency. Verification failures are itemized return values,
// never errors: failing is the point of having the check.
func VerifyAuditLog(log models.AuditLog, now time.Time) AuditVerification {
	var errs, warnings []string
	details := make(map[string]string)

	expected, err := signAuditLog(log)
	if err != nil {
		errs = append(errs, fmt.Sprintf("failed to recompute signature: %v", err))
	} else {
		details["expectedSignature"] = expected
		if expected != log.Signature {
			errs = append(errs, "signature mismatch, record may have been tampered with")
		}
	}

	if log.Timestamp.After(now) {
		errs = append(errs, "timestamp is in the future")
	} else if now.Sub(log.Timestamp) > maxAuditLogAge {
		warnings = append(warnings, "timestamp is unusually old")
	}

	if log.Proof != nil {
		if !VerifyProof(*log.Proof) {
			errs = append(errs, "proof of fairness does not verify")
		}
	}

	if log.IsWinner && log.PrizeID == "" {
		errs = append(errs, "winning record has no prize reference")
	}
	if log.PrizesRemainingAfter > log.PrizesRemainingBefore {
		errs = append(errs, "remaining prize count increased across the attribution")
	}
	if log.IsWinner && log.PrizesRemainingBefore-log.PrizesRemainingAfter != 1 {
		// Multi-unit awards are conceivable, so this is not fatal.
		warnings = append(warnings, fmt.Sprintf("winner decremented remaining by %d instead of 1",
			log.PrizesRemainingBefore-log.PrizesRemainingAfter))
	}

	return AuditVerification{
		IsValid:  len(errs) == 0,
		Errors:   errs,
		Warnings: warnings,
		Details:  details,
	}
}

// GenerateAuditReport aggregates win rate, per-prize, per-method and per-day
// distributions plus a verification summary over a set of logs.
func GenerateAuditReport(logs []models.AuditLog) AuditReport {
	report := AuditReport{
		PrizeDistribution:  make(map[string]int),
		MethodDistribution: make(map[string]int),
		DailyDistribution:  make(map[string]int),
	}

	rankSum := 0
	for _, log := range logs {
		report.TotalPlays++
		if log.IsWinner {
			report.TotalWins++
			if log.PrizeID != "" {
				report.PrizeDistribution[log.PrizeID]++
			}
		}
		report.MethodDistribution[log.AttributionMethod]++
		report.DailyDistribution[log.Timestamp.Format("2006-01-02")]++
		rankSum += log.ParticipantRank
		if !log.Verified {
			report.UnverifiedCount++
		}
	}

	if report.TotalPlays > 0 {
		report.WinRate = float64(report.TotalWins) / float64(report.TotalPlays)
		report.AverageParticipantRank = float64(rankSum) / float64(report.TotalPlays)
	}
	return report
}

var csvHeader = []string{
	"id", "timestamp", "campaignId", "participantId", "participantRank",
	"isWinner", "prizeId", "prizeName", "segmentId", "attributionMethod",
	"prizesRemainingBefore", "prizesRemainingAfter", "signature", "verified",
}

// ExportCSV flattens the logs into a fixed-column CSV, most recent last.
// Every field is quoted and embedded quotes are doubled.
func ExportCSV(logs []models.AuditLog) string {
	sorted := make([]models.AuditLog, len(logs))
	copy(sorted, logs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Timestamp.Before(sorted[j].Timestamp) })

	var b strings.Builder
	writeCSVRow(&b, csvHeader)
	for _, log := range sorted {
		writeCSVRow(&b, []string{
			log.ID,
			log.Timestamp.UTC().Format(time.RFC3339),
			log.CampaignID,
			log.ParticipantID,
			fmt.Sprintf("%d", log.ParticipantRank),
			fmt.Sprintf("%t", log.IsWinner),
			log.PrizeID,
			log.PrizeName,
			log.SegmentID,
			log.AttributionMethod,
			fmt.Sprintf("%d", log.PrizesRemainingBefore),
			fmt.Sprintf("%d", log.PrizesRemainingAfter),
			log.Signature,
			fmt.Sprintf("%t", log.Verified),
		})
	}
	return b.String()
}

func writeCSVRow(b *strings.Builder, fields []string) {
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(f, `"`, `""`))
		b.WriteByte('"')
	}
	b.WriteByte('\n')
}

func signAuditLog(log models.AuditLog) (string, error) {
	canonical := auditCanonical{
		ID:                    log.ID,
		Timestamp:             log.Timestamp.UTC().Format(time.RFC3339Nano),
		CampaignID:            log.CampaignID,
		ParticipantID:         log.ParticipantID,
		PrizeID:               log.PrizeID,
		IsWinner:              log.IsWinner,
		PrizesRemainingBefore: log.PrizesRemainingBefore,
		PrizesRemainingAfter:  log.PrizesRemainingAfter,
	}
	if log.Proof != nil {
		canonical.ProofHash = log.Proof.ResultHash
	}

	payload, err := json.Marshal(canonical)
	if err != nil {
		return "", err
	}
	digest := sha256.Sum256(payload)
	return hex.EncodeToString(digest[:]), nil
}
