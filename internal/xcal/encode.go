package xcal

import (
	"fmt"
	"io"
	"strings"

	"github.com/beevik/etree"
)

// ToXML wraps the given calendars in an icalendar root element.
func ToXML(calendars ...Component) *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	root := doc.CreateElement(TagICalendar)
	root.CreateAttr("xmlns", Namespace)
	for _, cal := range calendars {
		root.AddChild(cal.ToElement())
	}
	return doc
}

// Encode writes the calendars as an indented xCal document.
func Encode(w io.Writer, calendars ...Component) error {
	doc := ToXML(calendars...)
	doc.Indent(2)
	if _, err := doc.WriteTo(w); err != nil {
		return fmt.Errorf("write xCal document: %w", err)
	}
	return nil
}

// Parse reads the calendars of an xCal document.
func Parse(doc *etree.Document) ([]Component, error) {
	if doc == nil || doc.Root() == nil {
		return nil, fmt.Errorf("empty document")
	}
	root := doc.Root()
	if root.Tag != TagICalendar {
		return nil, fmt.Errorf("invalid root tag: %s", root.Tag)
	}

	var calendars []Component
	for _, elem := range root.ChildElements() {
		c := Component{}
		c.FromElement(elem)
		calendars = append(calendars, c)
	}
	return calendars, nil
}

// Decode reads an xCal document from r.
func Decode(r io.Reader) ([]Component, error) {
	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("read xCal document: %w", err)
	}
	return Parse(doc)
}

// formatDateTime turns 20240115T100000Z into 2024-01-15T10:00:00Z. Values that do
// not look like iCalendar date-times are returned unchanged.
func formatDateTime(v string) string {
	date, clock, ok := strings.Cut(v, "T")
	if !ok {
		return formatDate(v)
	}
	utc := strings.HasSuffix(clock, "Z")
	clock = strings.TrimSuffix(clock, "Z")
	if len(date) != 8 || len(clock) != 6 {
		return v
	}
	out := formatDate(date) + "T" + clock[0:2] + ":" + clock[2:4] + ":" + clock[4:6]
	if utc {
		out += "Z"
	}
	return out
}

func formatDate(v string) string {
	if len(v) != 8 {
		return v
	}
	return v[0:4] + "-" + v[4:6] + "-" + v[6:8]
}

// parseDateTime reverses formatDateTime and formatDate.
func parseDateTime(v string) string {
	return strings.NewReplacer("-", "", ":", "").Replace(v)
}

// joinRecur rebuilds KEY=V1,V2;KEY2=V3 from recur children, keeping first-seen key
// order.
func joinRecur(elem *etree.Element) string {
	var keys []string
	values := map[string][]string{}
	for _, part := range elem.ChildElements() {
		key := strings.ToUpper(part.Tag)
		if _, seen := values[key]; !seen {
			keys = append(keys, key)
		}
		values[key] = append(values[key], part.Text())
	}
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, key+"="+strings.Join(values[key], ","))
	}
	return strings.Join(parts, ";")
}
