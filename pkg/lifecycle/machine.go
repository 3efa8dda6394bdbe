// Package lifecycle moves garment parts through their QR-scan driven
// statuses and keeps the parent job's status in line with its parts.
package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/arnavshah/alterations-api/pkg/apperr"
	"github.com/arnavshah/alterations-api/pkg/database"
	"github.com/arnavshah/alterations-api/pkg/models"
)

const maxAttempts = 3

// Publisher receives job status events after they are committed.
type Publisher interface {
	Dispatch(event models.JobStatusEvent)
}

type ScanRequest struct {
	QRCode    string
	ScanType  models.ScanType
	ScannerID uint
	Location  string
	Notes     string
}

type ScanResult struct {
	Result    string        `json:"result"`
	Status    models.Status `json:"status"`
	PartID    uint          `json:"part_id"`
	JobStatus models.Status `json:"job_status,omitempty"`
}

type Machine struct {
	store     *database.Store
	publisher Publisher
	log       *slog.Logger
	now       func() time.Time
}

func NewMachine(store *database.Store, publisher Publisher, log *slog.Logger) *Machine {
	return &Machine{store: store, publisher: publisher, log: log, now: time.Now}
}

// Scan applies one scan event. Every scan of a known QR code leaves exactly
// one audit row. Invalid transitions are not errors: the part is left as is
// and the result says why.
func (m *Machine) Scan(ctx context.Context, req ScanRequest) (*ScanResult, error) {
	const op = "lifecycle.Scan"

	req.QRCode = strings.TrimSpace(req.QRCode)
	if req.QRCode == "" {
		return nil, fmt.Errorf("%s: %w: qr code is required", op, apperr.ErrValidation)
	}
	scanType, err := models.ParseScanType(string(req.ScanType))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	req.ScanType = scanType
	if req.ScannerID == 0 {
		return nil, fmt.Errorf("%s: %w: scanner is unknown", op, apperr.ErrUnauthenticated)
	}

	for attempt := 1; ; attempt++ {
		res, event, err := m.scanOnce(ctx, req)
		if err == nil {
			if event != nil && m.publisher != nil {
				m.publisher.Dispatch(*event)
			}
			return res, nil
		}
		if !apperr.Retryable(err) || attempt == maxAttempts {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		m.log.Debug("scan lost a race, retrying",
			slog.String("op", op),
			slog.String("qr_code", req.QRCode),
			slog.Int("attempt", attempt))
	}
}

func (m *Machine) scanOnce(ctx context.Context, req ScanRequest) (*ScanResult, *models.JobStatusEvent, error) {
	part, err := m.store.FindPartByQRCode(ctx, req.QRCode)
	if err != nil {
		return nil, nil, err
	}

	now := m.now()
	st := next(part.Status, req.ScanType)
	entry := &models.QRScanLog{
		QRCode:         req.QRCode,
		PartID:         part.ID,
		ScannedBy:      req.ScannerID,
		ScanType:       req.ScanType,
		Location:       req.Location,
		Result:         st.result,
		PreviousStatus: part.Status,
		NewStatus:      part.Status,
		Notes:          req.Notes,
		Timestamp:      now,
	}

	if !st.ok {
		if err := m.store.AppendScanLog(ctx, entry); err != nil {
			return nil, nil, err
		}
		return &ScanResult{Result: st.result, Status: part.Status, PartID: part.ID}, nil, nil
	}

	var assign *uint
	if req.ScanType == models.ScanStartWork && part.AssignedTo == nil {
		assign = &req.ScannerID
	}
	entry.NewStatus = st.to

	var (
		jobStatus models.Status
		event     *models.JobStatusEvent
	)
	err = m.store.Transaction(ctx, func(tx *database.Store) error {
		// Sibling scans of the same job wait here until this one commits,
		// so the roll-up below always reads every other finished part.
		job, err := tx.LockJob(ctx, part.JobID)
		if err != nil {
			return err
		}

		err = tx.TransitionPart(ctx, part.ID, database.PartTransition{
			From:       part.Status,
			To:         st.to,
			Version:    part.Version,
			AssignTo:   assign,
			StampField: st.stamp,
			At:         now,
		})
		if err != nil {
			return err
		}
		if err := tx.AppendScanLog(ctx, entry); err != nil {
			return err
		}

		parts, err := tx.ListPartsForJob(ctx, job.ID)
		if err != nil {
			return err
		}
		jobStatus = job.Status

		target, ok := rollUp(parts)
		if !ok || target == job.Status {
			return nil
		}
		if err := tx.CompareAndSetJobStatus(ctx, job.ID, job.Status, target); err != nil {
			return err
		}
		jobStatus = target
		event = &models.JobStatusEvent{JobID: job.ID, JobNumber: job.JobNumber, Status: target, OccurredAt: now}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	if event != nil {
		m.log.Info("job status rolled up",
			slog.Uint64("job_id", uint64(event.JobID)),
			slog.String("status", string(event.Status)))
	}
	return &ScanResult{Result: st.result, Status: st.to, PartID: part.ID, JobStatus: jobStatus}, event, nil
}

// History returns the audit trail of a part, oldest first.
func (m *Machine) History(ctx context.Context, partID uint) ([]models.QRScanLog, error) {
	if _, err := m.store.GetPart(ctx, partID); err != nil {
		return nil, fmt.Errorf("lifecycle.History: %w", err)
	}
	logs, err := m.store.ListScanLogs(ctx, partID)
	if err != nil {
		return nil, fmt.Errorf("lifecycle.History: %w", err)
	}
	return logs, nil
}

