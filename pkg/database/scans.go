package database

import (
	"context"
	"fmt"

	"github.com/arnavshah/alterations-api/pkg/models"
)

// AppendScanLog inserts an audit row. Scan logs are never updated or deleted.
func (s *Store) AppendScanLog(ctx context.Context, entry *models.QRScanLog) error {
	if err := s.conn(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("database.AppendScanLog: %w", err)
	}
	return nil
}

func (s *Store) ListScanLogs(ctx context.Context, partID uint) ([]models.QRScanLog, error) {
	var logs []models.QRScanLog
	if err := s.conn(ctx).Where("part_id = ?", partID).Order("id").Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("database.ListScanLogs: %w", err)
	}
	return logs, nil
}
