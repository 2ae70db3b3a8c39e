package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"

	"github.com/scosmb/license-console/internal/domain/key"
	"github.com/scosmb/license-console/internal/handler/dto"
	"github.com/scosmb/license-console/internal/ierr"
	"github.com/scosmb/license-console/internal/storage/memstorage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

func TestExportKeysCSV(t *testing.T) {
	repo := memstorage.NewKeyRepository()
	keySvc := NewKeyService(repo, zap.NewNop())
	exportSvc := NewExportService(repo, zap.NewNop())
	caller := superAdminCaller()

	name := "ACME Corp"
	generated, err := keySvc.GenerateKeys(context.Background(), caller, &dto.GenerateKeysRequest{
		Count:        3,
		MaxDownloads: 5,
		Customer:     &dto.CustomerInfo{Name: &name},
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, exportSvc.ExportKeys(context.Background(), caller, nil, FormatCSV, &buf))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4, "header plus one row per key")

	assert.Equal(t, exportHeader, records[0])

	codes := make(map[string]bool)
	for _, row := range records[1:] {
		codes[row[0]] = true
		assert.Equal(t, string(key.StatusUnused), row[1])
		assert.Equal(t, "0", row[2])
		assert.Equal(t, "5", row[3])
		assert.Equal(t, "ACME Corp", row[4])
	}
	for _, k := range generated {
		assert.True(t, codes[k.KeyCode], "exported rows must include %s", k.KeyCode)
	}
}

func TestExportKeysCSVStatusFilter(t *testing.T) {
	repo := memstorage.NewKeyRepository()
	keySvc := NewKeyService(repo, zap.NewNop())
	exportSvc := NewExportService(repo, zap.NewNop())
	caller := superAdminCaller()

	generated, err := keySvc.GenerateKeys(context.Background(), caller, &dto.GenerateKeysRequest{Count: 2, MaxDownloads: 1})
	require.NoError(t, err)
	_, err = keySvc.RevokeKey(context.Background(), caller, generated[0].KeyCode)
	require.NoError(t, err)

	revoked := key.StatusRevoked
	var buf bytes.Buffer
	require.NoError(t, exportSvc.ExportKeys(context.Background(), caller, &revoked, FormatCSV, &buf))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, generated[0].KeyCode, records[1][0])
}

func TestExportKeysExcel(t *testing.T) {
	repo := memstorage.NewKeyRepository()
	keySvc := NewKeyService(repo, zap.NewNop())
	exportSvc := NewExportService(repo, zap.NewNop())
	caller := superAdminCaller()

	_, err := keySvc.GenerateKeys(context.Background(), caller, &dto.GenerateKeysRequest{Count: 2, MaxDownloads: 3})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, exportSvc.ExportKeys(context.Background(), caller, nil, FormatExcel, &buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("License Keys")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "key_code", rows[0][0])
}

func TestExportKeysUnsupportedFormat(t *testing.T) {
	exportSvc := NewExportService(memstorage.NewKeyRepository(), zap.NewNop())

	var buf bytes.Buffer
	err := exportSvc.ExportKeys(context.Background(), superAdminCaller(), nil, ExportFormat("pdf"), &buf)
	assert.ErrorIs(t, err, ierr.ErrInvalidRequest)
}
