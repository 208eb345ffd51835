package models

import (
	"fmt"
	"sort"
	"time"

	json "github.com/goccy/go-json"
)

// DateTimeLayout is how window starts are rendered in the date_time column.
const DateTimeLayout = "2006-01-02 15:04:05"

// Part is one line of a repair's parts list.
type Part struct {
	Name     string
	Quantity int
}

// MarshalJSON renders the part as a ["name", quantity] pair.
func (p Part) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{p.Name, p.Quantity})
}

// UnmarshalJSON reads a ["name", quantity] pair.
func (p *Part) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("part: want [name, quantity], got %s", data)
	}
	if err := json.Unmarshal(pair[0], &p.Name); err != nil {
		return err
	}
	return json.Unmarshal(pair[1], &p.Quantity)
}

// Event is one validated repair-order event read from XML.
type Event struct {
	OrderID    string
	DateTime   string    // raw text as it appeared in the document
	Timestamp  time.Time // DateTime parsed, in UTC
	Status     string
	Cost       float64
	Technician string
	Parts      []Part
}

// WindowedRow is the last event seen for an order inside one window.
type WindowedRow struct {
	WindowStart time.Time
	WindowEnd   time.Time
	Event       Event
}

// Windows maps a window start to the rows of every order that has events
// in that window.
type Windows map[time.Time][]WindowedRow

// Starts returns the window starts in ascending order.
func (w Windows) Starts() []time.Time {
	starts := make([]time.Time, 0, len(w))
	for start := range w {
		starts = append(starts, start)
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i].Before(starts[j]) })
	return starts
}

// Len returns the total number of rows across all windows.
func (w Windows) Len() int {
	n := 0
	for _, rows := range w {
		n += len(rows)
	}
	return n
}
