// Package scrape extracts records from parsed HTML documents using per-field
// selector rules.
package scrape

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Field describes how to read one value relative to a root element.
type Field struct {
	Sel   string              // sub-selector; empty means the root element itself
	Attr  string              // attribute to read; empty means trimmed text
	Parse func(string) string // optional post-processing
}

// Rules maps record keys to field rules.
type Rules map[string]Field

// Record is one extracted element.
type Record map[string]string

// Scrape returns one record per element matching rootSel under sel.
func Scrape(sel *goquery.Selection, rules Rules, rootSel string) []Record {
	var records []Record
	sel.Find(rootSel).Each(func(_ int, root *goquery.Selection) {
		records = append(records, extract(root, rules))
	})
	return records
}

// Value reads a single field from sel.
func Value(sel *goquery.Selection, field Field) string {
	target := sel
	if field.Sel != "" {
		target = sel.Find(field.Sel)
	}
	target = target.First()

	var raw string
	if field.Attr != "" {
		raw, _ = target.Attr(field.Attr)
	} else {
		raw = target.Text()
	}
	raw = strings.TrimSpace(raw)

	if field.Parse != nil {
		return field.Parse(raw)
	}
	return raw
}

func extract(root *goquery.Selection, rules Rules) Record {
	rec := make(Record, len(rules))
	for key, field := range rules {
		rec[key] = Value(root, field)
	}
	return rec
}
