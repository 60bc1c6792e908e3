// Copyright (c) 2026 Scriptorium. All rights reserved.

package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecordIDs(t *testing.T) {
	// Batch id collection must tolerate every numeric shape a driver or
	// decoded JSON hands back for the id column.
	records := []Record{
		{"id": int64(7)},
		{"id": int32(8)},
		{"id": 9},
		{"id": float64(10)},
	}

	assert.Equal(t, []int64{7, 8, 9, 10}, recordIDs(records))
	assert.Empty(t, recordIDs(nil))
}
