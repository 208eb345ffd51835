package models

import (
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord_PartsText(t *testing.T) {
	tests := []struct {
		name  string
		parts []Part
		want  string
	}{
		{"none", nil, "[]"},
		{"one", []Part{{Name: "Bolt", Quantity: 2}}, `[["Bolt",2]]`},
		{"ordered", []Part{{Name: "Nut", Quantity: 4}, {Name: "Bolt", Quantity: 0}}, `[["Nut",4],["Bolt",0]]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Record{Parts: tt.parts}.PartsText())
		})
	}
}

func TestPart_UnmarshalJSON(t *testing.T) {
	var parts []Part
	require.NoError(t, json.Unmarshal([]byte(`[["Nut",4],["Bolt",0]]`), &parts))
	assert.Equal(t, []Part{{Name: "Nut", Quantity: 4}, {Name: "Bolt", Quantity: 0}}, parts)

	var p Part
	assert.Error(t, json.Unmarshal([]byte(`["Nut"]`), &p))
}

func TestNewRecord(t *testing.T) {
	start := time.Date(2023, 8, 1, 9, 0, 0, 0, time.UTC)
	row := WindowedRow{
		WindowStart: start,
		WindowEnd:   start.Add(time.Hour),
		Event: Event{
			OrderID:    "A1",
			DateTime:   "2023-08-01T09:15:00",
			Timestamp:  start.Add(15 * time.Minute),
			Status:     "Completed",
			Cost:       12.5,
			Technician: "Jane",
		},
	}
	r := NewRecord(row)
	assert.Equal(t, "2023-08-01 09:00:00", r.DateTime)
	assert.Equal(t, start.Add(15*time.Minute), r.ObservedAt)
	assert.NotNil(t, r.Parts)
	assert.Empty(t, r.Parts)
}

func TestWindows_StartsAndLen(t *testing.T) {
	a := time.Date(2023, 8, 1, 8, 0, 0, 0, time.UTC)
	b := a.Add(time.Hour)
	w := Windows{b: {{}}, a: {{}, {}}}
	assert.Equal(t, []time.Time{a, b}, w.Starts())
	assert.Equal(t, 3, w.Len())
	assert.Empty(t, Windows{}.Starts())
}
