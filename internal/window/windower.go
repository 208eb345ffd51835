// Package window resamples each order's irregular event stream onto fixed,
// epoch-aligned windows and keeps the last event seen in every window.
//
// Windowing runs in four steps, each usable on its own:
//   - GroupByEntity splits events by order id
//   - SortByTime orders one order's events by timestamp, keeping input order on ties
//   - AssignBucket maps a timestamp to the start of its window
//   - ReduceLast keeps the last event of every populated window
//
// Regroup then merges the rows of all orders by window start. Windows are
// left-inclusive and right-exclusive, and a window with no event for an
// order produces no row for it.
package window

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/bashkirian/repair-order-pipeline/pkg/models"
)

// Instants with a nanosecond Unix time.
var (
	minTime = time.Unix(0, math.MinInt64).UTC()
	maxTime = time.Unix(0, math.MaxInt64).UTC()
)

// Entity is the events of one order, in input order until sorted.
type Entity struct {
	OrderID string
	Events  []models.Event
}

// Window groups events into windows of the given width and keeps the last
// event per order and window.
func Window(events []models.Event, width time.Duration) (models.Windows, error) {
	if width <= 0 {
		return nil, fmt.Errorf("window width %s: %w", width, models.ErrInvalidWindow)
	}
	if len(events) == 0 {
		return nil, fmt.Errorf("no data found for window %s: %w", width, models.ErrEmptyResult)
	}
	for _, ev := range events {
		if _, ok := floorNanos(ev.Timestamp, width); !ok {
			return nil, fmt.Errorf("order %s at %s has no %s window start: %w",
				ev.OrderID, ev.Timestamp.Format(time.RFC3339Nano), width, models.ErrInvalidWindow)
		}
	}

	var rows []models.WindowedRow
	for _, entity := range GroupByEntity(events) {
		SortByTime(entity.Events)
		rows = append(rows, ReduceLast(entity.Events, width)...)
	}

	windows := Regroup(rows)
	if len(windows) == 0 {
		return nil, fmt.Errorf("no data found for window %s: %w", width, models.ErrEmptyResult)
	}
	return windows, nil
}

// GroupByEntity splits events by order id. Entities are returned sorted by
// order id; each entity's events keep their input order.
func GroupByEntity(events []models.Event) []Entity {
	index := make(map[string]int)
	var entities []Entity
	for _, ev := range events {
		i, ok := index[ev.OrderID]
		if !ok {
			i = len(entities)
			index[ev.OrderID] = i
			entities = append(entities, Entity{OrderID: ev.OrderID})
		}
		entities[i].Events = append(entities[i].Events, ev)
	}
	sort.Slice(entities, func(i, j int) bool { return entities[i].OrderID < entities[j].OrderID })
	return entities
}

// SortByTime sorts events by timestamp in place. Events with equal
// timestamps keep their relative order.
func SortByTime(events []models.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})
}

// AssignBucket returns the start of the window containing ts. Windows are
// aligned to the Unix epoch, so every order shares the same boundaries.
// ts must have a representable window start; Window checks this up front.
func AssignBucket(ts time.Time, width time.Duration) time.Time {
	start, _ := floorNanos(ts, width)
	return time.Unix(0, start).UTC()
}

// floorNanos rounds ts down to a multiple of width in nanoseconds since the
// epoch. It reports false when ts or the rounded value does not fit in int64.
func floorNanos(ts time.Time, width time.Duration) (int64, bool) {
	if ts.Before(minTime) || ts.After(maxTime) {
		return 0, false
	}
	n := ts.UnixNano()
	w := int64(width)
	rem := n % w
	if rem < 0 {
		rem += w
	}
	if n < math.MinInt64+rem {
		return 0, false
	}
	return n - rem, true
}

// ReduceLast walks time-sorted events of a single order and returns one row
// per populated window holding the window's last event.
func ReduceLast(sorted []models.Event, width time.Duration) []models.WindowedRow {
	var rows []models.WindowedRow
	for _, ev := range sorted {
		start := AssignBucket(ev.Timestamp, width)
		if n := len(rows); n > 0 && rows[n-1].WindowStart.Equal(start) {
			rows[n-1].Event = ev
			continue
		}
		rows = append(rows, models.WindowedRow{
			WindowStart: start,
			WindowEnd:   start.Add(width),
			Event:       ev,
		})
	}
	return rows
}

// Regroup merges rows by window start, keeping the order rows are given in.
func Regroup(rows []models.WindowedRow) models.Windows {
	windows := make(models.Windows)
	for _, row := range rows {
		windows[row.WindowStart] = append(windows[row.WindowStart], row)
	}
	return windows
}
