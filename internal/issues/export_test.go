package issues

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestExporterWritesWorkbook(t *testing.T) {
	revokedAt := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	issues := []Issue{
		{
			ID:           uuid.New(),
			TemplateName: "Completion Certificate",
			UserID:       uuid.New(),
			CourseID:     uuid.New(),
			Code:         "ABCDEFGHJKLM",
			IssuedAt:     time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC),
		},
		{
			ID:           uuid.New(),
			TemplateName: "Completion Certificate",
			UserID:       uuid.New(),
			CourseID:     uuid.New(),
			Code:         "NPQRSTUVWXYZ",
			IssuedAt:     time.Date(2026, 1, 20, 9, 0, 0, 0, time.UTC),
			RevokedAt:    &revokedAt,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, NewExporter(DefaultExportOptions()).Write(&buf, issues))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Issues")
	require.NoError(t, err)

	require.Len(t, rows, 2, "revoked issue should be skipped by default")
	assert.Equal(t, exportColumns, rows[0])
	assert.Equal(t, "ABCDEFGHJKLM", rows[1][0])
	assert.Equal(t, "Completion Certificate", rows[1][1])
}

func TestExporterIncludesRevokedWhenAsked(t *testing.T) {
	revokedAt := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	issues := []Issue{{
		ID:           uuid.New(),
		TemplateName: "Completion Certificate",
		UserID:       uuid.New(),
		CourseID:     uuid.New(),
		Code:         "NPQRSTUVWXYZ",
		IssuedAt:     time.Date(2026, 1, 20, 9, 0, 0, 0, time.UTC),
		RevokedAt:    &revokedAt,
	}}

	opts := DefaultExportOptions()
	opts.IncludeRevoked = true

	var buf bytes.Buffer
	require.NoError(t, NewExporter(opts).Write(&buf, issues))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Issues")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "NPQRSTUVWXYZ", rows[1][0])
}
