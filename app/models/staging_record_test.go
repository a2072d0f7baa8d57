package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewStagingRecordIsPending(t *testing.T) {
	rec := NewStagingRecord(42, "Reparto los Pinos", "reparto los pinos", nil, nil, 305, SourceDescription)

	assert.Equal(t, StagingStatusPending, rec.Status)
	assert.True(t, rec.IsPending())
	assert.False(t, rec.CreatedAt.IsZero())

	rec.Status = StagingStatusApproved
	assert.False(t, rec.IsPending())
}
