package junction

import (
	"fmt"
	"slices"
	"strings"

	"github.com/randalmurphal/junction/pkg/junction/config"
)

// Annotation and element names recognised by a junction.
const (
	// AnnotationAsync marks a stream for ring pipeline dispatch.
	AnnotationAsync = "Async"

	// ElementBufferSize overrides the ring capacity of an async stream.
	ElementBufferSize = "buffer.size"
)

// StreamDefinition is the declared shape of a stream.
type StreamDefinition struct {
	ID          string
	Attributes  []Attribute
	Annotations []Annotation
}

// Attribute is one declared column of a stream.
type Attribute struct {
	Name string
	Type string
}

// Annotation is a named set of key/value elements attached to a definition.
type Annotation struct {
	Name     string
	Elements []Element
}

// Element is a single annotation key/value pair.
type Element struct {
	Key   string
	Value string
}

// NewStreamDefinition returns a definition with the given id and attribute names.
// Attribute types default to "object".
func NewStreamDefinition(id string, attributes ...string) *StreamDefinition {
	def := &StreamDefinition{ID: id}
	for _, name := range attributes {
		def.Attributes = append(def.Attributes, Attribute{Name: name, Type: "object"})
	}
	return def
}

// Annotate appends an annotation and returns the definition for chaining.
func (d *StreamDefinition) Annotate(name string, elements ...Element) *StreamDefinition {
	d.Annotations = append(d.Annotations, Annotation{Name: name, Elements: elements})
	return d
}

// Arity returns the number of declared attributes.
func (d *StreamDefinition) Arity() int {
	return len(d.Attributes)
}

// Annotation returns the annotation with the given name, matched
// case-insensitively, or nil when absent. More than one match is a
// *DuplicateAnnotationError.
func (d *StreamDefinition) Annotation(name string) (*Annotation, error) {
	var found *Annotation
	for i := range d.Annotations {
		if !strings.EqualFold(d.Annotations[i].Name, name) {
			continue
		}
		if found != nil {
			return nil, &DuplicateAnnotationError{StreamID: d.ID, Annotation: name}
		}
		found = &d.Annotations[i]
	}
	return found, nil
}

// Element returns the value of the element with the given key.
func (a *Annotation) Element(key string) (string, bool) {
	for _, el := range a.Elements {
		if strings.EqualFold(el.Key, key) {
			return el.Value, true
		}
	}
	return "", false
}

// DefinitionsFromConfig decodes the "streams" list of a configuration:
//
//	streams:
//	  - id: StockStream
//	    attributes:
//	      - {name: symbol, type: string}
//	      - {name: price, type: float}
//	    annotations:
//	      - name: Async
//	        elements: {buffer.size: "256"}
func DefinitionsFromConfig(cfg config.Config) ([]*StreamDefinition, error) {
	entries := cfg.List("streams")
	defs := make([]*StreamDefinition, 0, len(entries))
	seen := make(map[string]bool, len(entries))

	for i, entry := range entries {
		id := entry.String("id", "")
		if id == "" {
			return nil, &ConfigurationError{
				StreamID: fmt.Sprintf("#%d", i),
				Message:  "stream id is required",
			}
		}
		if seen[id] {
			return nil, &ConfigurationError{StreamID: id, Message: "stream is defined more than once"}
		}
		seen[id] = true

		def := &StreamDefinition{ID: id}
		for _, attr := range entry.List("attributes") {
			name := attr.String("name", "")
			if name == "" {
				return nil, &ConfigurationError{StreamID: id, Element: "attributes", Message: "attribute name is required"}
			}
			def.Attributes = append(def.Attributes, Attribute{
				Name: name,
				Type: attr.String("type", "object"),
			})
		}
		for _, ann := range entry.List("annotations") {
			name := ann.String("name", "")
			if name == "" {
				return nil, &ConfigurationError{StreamID: id, Element: "annotations", Message: "annotation name is required"}
			}
			a := Annotation{Name: name}
			elements := ann.Sub("elements")
			keys := elements.Keys()
			slices.Sort(keys)
			for _, key := range keys {
				a.Elements = append(a.Elements, Element{
					Key:   key,
					Value: fmt.Sprint(elements.Raw()[key]),
				})
			}
			def.Annotations = append(def.Annotations, a)
		}
		defs = append(defs, def)
	}
	return defs, nil
}
