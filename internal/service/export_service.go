package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/scosmb/license-console/internal/domain/admin"
	"github.com/scosmb/license-console/internal/domain/key"
	"github.com/scosmb/license-console/internal/ierr"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

type ExportFormat string

const (
	FormatCSV   ExportFormat = "csv"
	FormatExcel ExportFormat = "excel"

	exportPageSize = 500
)

var exportHeader = []string{
	"key_code", "status", "download_count", "max_downloads",
	"customer_name", "customer_email", "customer_company",
	"created_at", "expires_at", "last_used_at",
}

type ExportService struct {
	repo   key.Repository
	logger *zap.Logger
}

func NewExportService(repo key.Repository, logger *zap.Logger) *ExportService {
	return &ExportService{
		repo:   repo,
		logger: logger.Named("ExportService"),
	}
}

// ExportKeys streams the filtered key list to w in the requested format.
// Rows carry the effective status so an export never shows a lapsed key as
// active.
func (s *ExportService) ExportKeys(ctx context.Context, caller *admin.User, status *key.Status, format ExportFormat, w io.Writer) error {
	if !caller.Can(admin.ActionExportKeys) {
		return ierr.ErrForbidden
	}

	keys, err := s.collectKeys(ctx, status)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	s.logger.Info("Exporting license keys", zap.Int("count", len(keys)), zap.String("format", string(format)))

	switch format {
	case FormatCSV:
		return s.writeCSV(w, keys, now)
	case FormatExcel:
		return s.writeExcel(w, keys, now)
	default:
		return fmt.Errorf("%w: unsupported export format %q", ierr.ErrInvalidRequest, format)
	}
}

func (s *ExportService) collectKeys(ctx context.Context, status *key.Status) ([]*key.Key, error) {
	params := key.ListParams{
		Status:    status,
		SortBy:    "created_at",
		SortOrder: "ASC",
		Limit:     exportPageSize,
		Offset:    0,
	}

	var all []*key.Key
	for {
		page, _, err := s.repo.List(ctx, params)
		if err != nil {
			s.logger.Error("Failed to page keys for export", zap.Int("offset", params.Offset), zap.Error(err))
			return nil, fmt.Errorf("repository error during export: %w", err)
		}
		all = append(all, page...)
		if len(page) < params.Limit {
			return all, nil
		}
		params.Offset += params.Limit
	}
}

func (s *ExportService) writeCSV(w io.Writer, keys []*key.Key, now time.Time) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, k := range keys {
		if err := cw.Write(exportRow(k, now)); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func (s *ExportService) writeExcel(w io.Writer, keys []*key.Key, now time.Time) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "License Keys"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to drop default sheet: %w", err)
	}

	header := make([]interface{}, len(exportHeader))
	for i, h := range exportHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header row: %w", err)
	}

	for i, k := range keys {
		row := exportRow(k, now)
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = v
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to compute cell name: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func exportRow(k *key.Key, now time.Time) []string {
	row := []string{
		k.KeyCode,
		string(k.EffectiveStatus(now)),
		strconv.Itoa(k.DownloadCount),
		strconv.Itoa(k.MaxDownloads),
		"", "", "", // customer fields filled below when present
		k.CreatedAt.UTC().Format(time.RFC3339),
		"", "",
	}
	if k.CustomerName.Valid {
		row[4] = k.CustomerName.String
	}
	if k.CustomerEmail.Valid {
		row[5] = k.CustomerEmail.String
	}
	if k.CustomerCompany.Valid {
		row[6] = k.CustomerCompany.String
	}
	if k.ExpiresAt.Valid {
		row[8] = k.ExpiresAt.Time.UTC().Format(time.RFC3339)
	}
	if k.LastUsedAt.Valid {
		row[9] = k.LastUsedAt.Time.UTC().Format(time.RFC3339)
	}
	return row
}
