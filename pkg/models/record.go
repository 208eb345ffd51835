package models

import (
	"time"

	json "github.com/goccy/go-json"
)

// Record is a repair order ready to be handed to a sink. Records are built
// once and never modified; Parts is a private copy.
type Record struct {
	OrderID    string    `json:"order_id"`
	DateTime   string    `json:"date_time"`
	ObservedAt time.Time `json:"-"`
	Status     string    `json:"status"`
	Cost       float64   `json:"cost"`
	Technician string    `json:"technician"`
	Parts      []Part    `json:"parts"`
}

// NewRecord flattens a windowed row. The row's window start becomes the
// record's date_time.
func NewRecord(row WindowedRow) Record {
	parts := make([]Part, len(row.Event.Parts))
	copy(parts, row.Event.Parts)
	return Record{
		OrderID:    row.Event.OrderID,
		DateTime:   row.WindowStart.UTC().Format(DateTimeLayout),
		ObservedAt: row.Event.Timestamp,
		Status:     row.Event.Status,
		Cost:       row.Event.Cost,
		Technician: row.Event.Technician,
		Parts:      parts,
	}
}

// PartsText renders the parts list for the sink's parts column.
func (r Record) PartsText() string {
	if len(r.Parts) == 0 {
		return "[]"
	}
	b, err := json.Marshal(r.Parts)
	if err != nil {
		// Part only holds a string and an int.
		panic(err)
	}
	return string(b)
}
