// Package xcal renders iCalendar components as RFC 6321 xCal documents and reads
// them back.
package xcal

import (
	"sort"
	"strings"

	"github.com/beevik/etree"
)

// Namespace is the xCal XML namespace.
const Namespace = "urn:ietf:params:xml:ns:icalendar-2.0"

// Structural xCal tag names
const (
	TagICalendar  = "icalendar"
	TagProperties = "properties"
	TagComponents = "components"
	TagParameters = "parameters"
)

// Value types used as the element wrapping a property value
const (
	TypeText     = "text"
	TypeDateTime = "date-time"
	TypeDate     = "date"
	TypeDuration = "duration"
	TypeRecur    = "recur"
	TypeInteger  = "integer"
)

// Component is an iCalendar component (VCALENDAR, VEVENT, ...). Names are kept in
// iCalendar case and lowered on output.
type Component struct {
	Name       string
	Properties []Property
	Children   []Component
}

// Property is a single iCalendar property with its value in iCalendar text form.
type Property struct {
	Name   string
	Params map[string][]string
	Type   string
	Value  string
}

// ToElement converts a Component to an etree.Element
func (c *Component) ToElement() *etree.Element {
	elem := etree.NewElement(strings.ToLower(c.Name))

	if len(c.Properties) > 0 {
		props := elem.CreateElement(TagProperties)
		for _, p := range c.Properties {
			props.AddChild(p.ToElement())
		}
	}
	if len(c.Children) > 0 {
		comps := elem.CreateElement(TagComponents)
		for _, child := range c.Children {
			comps.AddChild(child.ToElement())
		}
	}
	return elem
}

// FromElement populates a Component from an etree.Element
func (c *Component) FromElement(elem *etree.Element) {
	c.Name = strings.ToUpper(elem.Tag)
	c.Properties = nil
	c.Children = nil

	if props := elem.SelectElement(TagProperties); props != nil {
		for _, pe := range props.ChildElements() {
			p := Property{}
			p.FromElement(pe)
			c.Properties = append(c.Properties, p)
		}
	}
	if comps := elem.SelectElement(TagComponents); comps != nil {
		for _, ce := range comps.ChildElements() {
			child := Component{}
			child.FromElement(ce)
			c.Children = append(c.Children, child)
		}
	}
}

// ToElement converts a Property to an etree.Element
func (p *Property) ToElement() *etree.Element {
	elem := etree.NewElement(strings.ToLower(p.Name))

	if len(p.Params) > 0 {
		params := elem.CreateElement(TagParameters)
		names := make([]string, 0, len(p.Params))
		for name := range p.Params {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if strings.EqualFold(name, "VALUE") {
				continue
			}
			param := params.CreateElement(strings.ToLower(name))
			for _, v := range p.Params[name] {
				param.CreateElement(TypeText).SetText(v)
			}
		}
		if len(params.ChildElements()) == 0 {
			elem.RemoveChild(params)
		}
	}

	typ := p.Type
	if typ == "" {
		typ = TypeText
	}
	value := elem.CreateElement(typ)
	switch typ {
	case TypeDateTime:
		value.SetText(formatDateTime(p.Value))
	case TypeDate:
		value.SetText(formatDate(p.Value))
	case TypeRecur:
		for _, part := range strings.Split(p.Value, ";") {
			key, vals, ok := strings.Cut(part, "=")
			if !ok {
				continue
			}
			for _, v := range strings.Split(vals, ",") {
				value.CreateElement(strings.ToLower(key)).SetText(v)
			}
		}
	default:
		value.SetText(p.Value)
	}
	return elem
}

// FromElement populates a Property from an etree.Element
func (p *Property) FromElement(elem *etree.Element) {
	p.Name = strings.ToUpper(elem.Tag)
	p.Params = nil
	p.Type = ""
	p.Value = ""

	for _, child := range elem.ChildElements() {
		if child.Tag == TagParameters {
			for _, param := range child.ChildElements() {
				if p.Params == nil {
					p.Params = make(map[string][]string)
				}
				name := strings.ToUpper(param.Tag)
				for _, v := range param.ChildElements() {
					p.Params[name] = append(p.Params[name], v.Text())
				}
			}
			continue
		}

		p.Type = child.Tag
		switch child.Tag {
		case TypeDateTime, TypeDate:
			p.Value = parseDateTime(child.Text())
		case TypeRecur:
			p.Value = joinRecur(child)
		default:
			p.Value = child.Text()
		}
	}
}

// Param returns the first value of a parameter, or empty string if not found
func (p *Property) Param(name string) string {
	if vals := p.Params[strings.ToUpper(name)]; len(vals) > 0 {
		return vals[0]
	}
	return ""
}
