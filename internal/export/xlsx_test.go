package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Skufu/hearttriage/internal/triage"
)

func TestWritePatients(t *testing.T) {
	rec := triage.DefaultRecord()
	rec.Age = 66
	rec.Chol = 280
	exp, err := triage.Explain(rec, triage.TierHigh)
	require.NoError(t, err)

	results := []triage.PredictionResult{{
		ID:          "PAT20240101120000",
		Timestamp:   time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
		Record:      rec,
		Tier:        triage.TierHigh,
		Probability: []float64{0.05, 0.15, 0.8},
		Explanation: exp,
	}}

	var buf bytes.Buffer
	require.NoError(t, WritePatients(&buf, results))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	header := Header()
	assert.Equal(t, header, rows[0])
	assert.Len(t, header, 2+13+6)

	row := rows[1]
	assert.Equal(t, "PAT20240101120000", row[0])
	assert.Equal(t, "66", row[2])
	assert.Equal(t, "High Risk", row[16])
	assert.Equal(t, "Age (66.0 years) is above 55; Cholesterol (280.0 mg/dL) is high (>240)", row[len(row)-1])
}

func TestWritePatients_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePatients(&buf, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
