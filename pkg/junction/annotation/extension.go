// Package annotation validates extension metadata declarations and keeps a
// catalog of validated extensions.
//
// Validation is eager: Validate and Catalog.Register report the first
// problem found as a *ValidationError naming the declaring class.
package annotation

import "slices"

// Kind is the extension point an extension plugs into.
type Kind string

// Extension kinds.
const (
	KindFunction        Kind = "function"
	KindStreamProcessor Kind = "streamProcessor"
	KindStreamFunction  Kind = "streamFunction"
	KindAggregator      Kind = "aggregator"
	KindWindow          Kind = "window"
	KindSink            Kind = "sink"
	KindSinkMapper      Kind = "sinkMapper"
	KindSource          Kind = "source"
	KindSourceMapper    Kind = "sourceMapper"
	KindStore           Kind = "store"
	KindScript          Kind = "script"
)

// Kinds lists every extension kind.
var Kinds = []Kind{
	KindFunction, KindStreamProcessor, KindStreamFunction, KindAggregator, KindWindow,
	KindSink, KindSinkMapper, KindSource, KindSourceMapper, KindStore, KindScript,
}

// reservedNamespaces maps kinds whose namespace is fixed to that namespace.
var reservedNamespaces = map[Kind]string{
	KindSink:         "sink",
	KindSinkMapper:   "sinkMapper",
	KindSource:       "source",
	KindSourceMapper: "sourceMapper",
	KindStore:        "store",
}

// ReservedNamespace returns the namespace an extension of kind k must use.
func ReservedNamespace(k Kind) (string, bool) {
	ns, ok := reservedNamespaces[k]
	return ns, ok
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return slices.Contains(Kinds, k)
}

// allowsDynamic reports whether parameters of kind k may be dynamic.
func (k Kind) allowsDynamic() bool {
	return k == KindSink || k == KindSinkMapper
}

// maxReturnAttributes returns how many return attributes kind k may declare;
// -1 means no limit.
func (k Kind) maxReturnAttributes() int {
	switch k {
	case KindStreamProcessor, KindStreamFunction:
		return -1
	case KindFunction, KindAggregator, KindScript:
		return 1
	default:
		return 0
	}
}

// Extension is the metadata declared by an extension implementation.
type Extension struct {
	// Class is the fully qualified name of the declaring implementation.
	Class            string
	Kind             Kind
	Name             string
	Namespace        string
	Description      string
	Parameters       []Parameter
	ReturnAttributes []ReturnAttribute
	Examples         []string
}

// QualifiedName returns "namespace:name", or just the name without a namespace.
func (e Extension) QualifiedName() string {
	if e.Namespace == "" {
		return e.Name
	}
	return e.Namespace + ":" + e.Name
}

// Parameter describes one configurable parameter of an extension.
type Parameter struct {
	Name         string
	Description  string
	Types        []string
	Optional     bool
	Dynamic      bool
	DefaultValue string
}

// ReturnAttribute describes a value an extension produces.
type ReturnAttribute struct {
	Name        string
	Description string
	Types       []string
}
