// Package extractor turns raw repair-order XML documents into validated
// events.
//
// Failures are tolerated per item: a document that is not well-formed is
// skipped as a whole, an event with a missing or malformed field is skipped
// on its own, and both are reported back as a Skip. Only a batch that yields
// no event at all is an error.
package extractor

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/antchfx/xmlquery"
	"github.com/araddon/dateparse"

	"github.com/bashkirian/repair-order-pipeline/pkg/models"
)

// Reason says why an item was skipped.
type Reason string

const (
	ReasonMalformedDocument Reason = "malformed_document"
	ReasonMissingField      Reason = "missing_field"
	ReasonInvalidCost       Reason = "invalid_cost"
	ReasonInvalidDateTime   Reason = "invalid_date_time"
	ReasonInvalidPart       Reason = "invalid_part"
)

// Bucketing works on nanoseconds since the epoch.
var (
	minTime = time.Unix(0, math.MinInt64).UTC()
	maxTime = time.Unix(0, math.MaxInt64).UTC()
)

// Relative paths of the fields read from each event node.
const (
	pathOrderID    = "order_id"
	pathDateTime   = "date_time"
	pathStatus     = "status"
	pathCost       = "cost"
	pathTechnician = "repair_details/technician"
	pathParts      = "repair_details/repair_parts/part"
)

// Skip describes one item that was left out.
type Skip struct {
	Document int // index into the documents passed to Extract
	Event    int // index of the event node in its document, -1 for the whole document
	Reason   Reason
	Detail   string
}

func (s Skip) String() string {
	if s.Event < 0 {
		return fmt.Sprintf("document %d: %s: %s", s.Document, s.Reason, s.Detail)
	}
	return fmt.Sprintf("document %d event %d: %s: %s", s.Document, s.Event, s.Reason, s.Detail)
}

// Result is what Extract found: the valid events in document order, and
// everything it skipped.
type Result struct {
	Events    []models.Event
	Skipped   []Skip
	Documents int
}

// SkippedDocuments counts documents that could not be parsed at all.
func (r *Result) SkippedDocuments() int {
	n := 0
	for _, s := range r.Skipped {
		if s.Reason == ReasonMalformedDocument {
			n++
		}
	}
	return n
}

// Extract parses each document independently and collects every valid event
// node. It returns an error wrapping models.ErrEmptyResult when no document
// produced a valid event; the partial Result is returned alongside it.
func Extract(documents []string) (*Result, error) {
	res := &Result{Documents: len(documents)}
	for i, doc := range documents {
		root, err := parseDocument(doc)
		if err != nil {
			res.Skipped = append(res.Skipped, Skip{
				Document: i,
				Event:    -1,
				Reason:   ReasonMalformedDocument,
				Detail:   err.Error(),
			})
			continue
		}
		for j, node := range xmlquery.Find(root, "//event") {
			ev, skip := readEvent(node)
			if skip != nil {
				skip.Document, skip.Event = i, j
				res.Skipped = append(res.Skipped, *skip)
				continue
			}
			res.Events = append(res.Events, ev)
		}
	}
	if len(res.Events) == 0 {
		return res, fmt.Errorf("no valid event data found in %d documents: %w", len(documents), models.ErrEmptyResult)
	}
	return res, nil
}

// parseDocument parses doc and checks it has exactly one root element and
// no text around it.
func parseDocument(doc string) (*xmlquery.Node, error) {
	root, err := xmlquery.Parse(strings.NewReader(doc))
	if err != nil {
		return nil, err
	}
	elements := 0
	for n := root.FirstChild; n != nil; n = n.NextSibling {
		switch n.Type {
		case xmlquery.ElementNode:
			elements++
		case xmlquery.TextNode, xmlquery.CharDataNode:
			if strings.TrimSpace(n.Data) != "" {
				return nil, errors.New("text outside the document element")
			}
		}
	}
	switch {
	case elements == 0:
		return nil, errors.New("no root element")
	case elements > 1:
		return nil, errors.New("junk after document element")
	}
	return root, nil
}

// field is an optional text value read from a node.
type field struct {
	value string
	ok    bool
}

func lookup(node *xmlquery.Node, path string) field {
	n := xmlquery.FindOne(node, path)
	if n == nil {
		return field{}
	}
	return field{value: n.InnerText(), ok: true}
}

func attr(node *xmlquery.Node, name string) field {
	for _, a := range node.Attr {
		if a.Name.Local == name {
			return field{value: a.Value, ok: true}
		}
	}
	return field{}
}

// readEvent reads one event node. Exactly one of the returns is meaningful.
func readEvent(node *xmlquery.Node) (models.Event, *Skip) {
	fields := []struct {
		path string
		f    field
	}{
		{pathOrderID, lookup(node, pathOrderID)},
		{pathDateTime, lookup(node, pathDateTime)},
		{pathStatus, lookup(node, pathStatus)},
		{pathCost, lookup(node, pathCost)},
		{pathTechnician, lookup(node, pathTechnician)},
	}
	for _, fd := range fields {
		if !fd.f.ok || fd.f.value == "" {
			return models.Event{}, &Skip{Reason: ReasonMissingField, Detail: fd.path}
		}
	}
	orderID, dateTime, status, costText, technician :=
		fields[0].f.value, fields[1].f.value, fields[2].f.value, fields[3].f.value, fields[4].f.value

	costText = strings.TrimSpace(costText)
	cost, err := strconv.ParseFloat(costText, 64)
	if err != nil || math.IsNaN(cost) || math.IsInf(cost, 0) || strings.ContainsAny(costText, "xX") {
		return models.Event{}, &Skip{Reason: ReasonInvalidCost, Detail: fmt.Sprintf("cost %q", costText)}
	}

	ts, err := dateparse.ParseIn(strings.TrimSpace(dateTime), time.UTC)
	if err != nil {
		return models.Event{}, &Skip{Reason: ReasonInvalidDateTime, Detail: err.Error()}
	}
	if ts.Before(minTime) || ts.After(maxTime) {
		return models.Event{}, &Skip{Reason: ReasonInvalidDateTime, Detail: "out of range: " + dateTime}
	}

	parts, err := readParts(node)
	if err != nil {
		return models.Event{}, &Skip{Reason: ReasonInvalidPart, Detail: err.Error()}
	}

	return models.Event{
		OrderID:    orderID,
		DateTime:   dateTime,
		Timestamp:  ts.UTC(),
		Status:     status,
		Cost:       cost,
		Technician: technician,
		Parts:      parts,
	}, nil
}

func readParts(node *xmlquery.Node) ([]models.Part, error) {
	nodes := xmlquery.Find(node, pathParts)
	parts := make([]models.Part, 0, len(nodes))
	for i, n := range nodes {
		name := attr(n, "name")
		if !name.ok {
			return nil, fmt.Errorf("part %d: missing name", i)
		}
		qty := attr(n, "quantity")
		if !qty.ok {
			return nil, fmt.Errorf("part %d: missing quantity", i)
		}
		q, err := strconv.Atoi(strings.TrimSpace(qty.value))
		if err != nil {
			return nil, fmt.Errorf("part %d: quantity %q is not an integer", i, qty.value)
		}
		if q < 0 {
			return nil, fmt.Errorf("part %d: negative quantity %d", i, q)
		}
		parts = append(parts, models.Part{Name: name.value, Quantity: q})
	}
	return parts, nil
}
