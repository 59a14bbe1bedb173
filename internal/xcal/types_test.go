package xcal

import (
	"bytes"
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func elementString(t *testing.T, elem *etree.Element) string {
	t.Helper()
	doc := etree.NewDocument()
	doc.AddChild(elem)
	s, err := doc.WriteToString()
	require.NoError(t, err)
	return s
}

func TestProperty_ToElement(t *testing.T) {
	tests := []struct {
		name     string
		property Property
		want     string
	}{
		{
			name:     "text defaults",
			property: Property{Name: "SUMMARY", Value: "Standup"},
			want:     `<summary><text>Standup</text></summary>`,
		},
		{
			name:     "utc date-time",
			property: Property{Name: "DTSTART", Type: TypeDateTime, Value: "20240115T100000Z"},
			want:     `<dtstart><date-time>2024-01-15T10:00:00Z</date-time></dtstart>`,
		},
		{
			name: "floating date-time with tzid",
			property: Property{
				Name:   "DTSTART",
				Type:   TypeDateTime,
				Value:  "20240115T100000",
				Params: map[string][]string{"TZID": {"Europe/Paris"}},
			},
			want: `<dtstart><parameters><tzid><text>Europe/Paris</text></tzid></parameters>` +
				`<date-time>2024-01-15T10:00:00</date-time></dtstart>`,
		},
		{
			name: "value parameter is implied by the type",
			property: Property{
				Name:   "DTSTART",
				Type:   TypeDate,
				Value:  "20240229",
				Params: map[string][]string{"VALUE": {"DATE"}},
			},
			want: `<dtstart><date>2024-02-29</date></dtstart>`,
		},
		{
			name:     "recur splits parts and lists",
			property: Property{Name: "RRULE", Type: TypeRecur, Value: "FREQ=WEEKLY;BYDAY=MO,WE;COUNT=3"},
			want: `<rrule><recur><freq>WEEKLY</freq><byday>MO</byday><byday>WE</byday>` +
				`<count>3</count></recur></rrule>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := elementString(t, tt.property.ToElement())
			assert.Equal(t, tt.want, normalizeXML(got))
		})
	}
}

func TestProperty_FromElementReversesToElement(t *testing.T) {
	props := []Property{
		{Name: "SUMMARY", Type: TypeText, Value: "Review"},
		{Name: "DTSTART", Type: TypeDateTime, Value: "20240131T100000Z"},
		{Name: "DUE", Type: TypeDate, Value: "20240201"},
		{Name: "RRULE", Type: TypeRecur, Value: "FREQ=MONTHLY;BYMONTHDAY=31;INTERVAL=2"},
		{
			Name:   "DTEND",
			Type:   TypeDateTime,
			Value:  "20240131T110000",
			Params: map[string][]string{"TZID": {"Asia/Tokyo"}},
		},
	}

	for _, want := range props {
		t.Run(want.Name, func(t *testing.T) {
			var got Property
			got.FromElement(want.ToElement())
			assert.Equal(t, want, got)
		})
	}
}

func TestEncodeAndDecode(t *testing.T) {
	cal := Component{
		Name: "VCALENDAR",
		Properties: []Property{
			{Name: "VERSION", Type: TypeText, Value: "2.0"},
			{Name: "PRODID", Type: TypeText, Value: "-//librecur//EN"},
		},
		Children: []Component{
			{
				Name: "VEVENT",
				Properties: []Property{
					{Name: "UID", Type: TypeText, Value: "a@example.com"},
					{Name: "DTSTART", Type: TypeDateTime, Value: "20240115T100000Z"},
				},
			},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, cal))

	out := normalizeXML(buf.String())
	assert.Contains(t, out, `<icalendar xmlns="urn:ietf:params:xml:ns:icalendar-2.0"><vcalendar><properties>`)
	assert.Contains(t, out, `<components><vevent>`)

	decoded, err := Decode(&buf)
	require.NoError(t, err)
	require.Len(t, decoded, 1)
	assert.Equal(t, cal, decoded[0])
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse(etree.NewDocument())
	assert.Error(t, err)

	doc := etree.NewDocument()
	doc.CreateElement("multistatus")
	_, err = Parse(doc)
	assert.ErrorContains(t, err, "invalid root tag")
}

func TestProperty_Param(t *testing.T) {
	p := Property{Params: map[string][]string{"TZID": {"UTC"}}}
	assert.Equal(t, "UTC", p.Param("tzid"))
	assert.Equal(t, "", p.Param("CN"))
}
