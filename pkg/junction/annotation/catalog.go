package annotation

import (
	"fmt"

	"github.com/randalmurphal/junction/pkg/junction/config"
	"github.com/randalmurphal/junction/pkg/junction/registry"
)

// Catalog holds validated extensions keyed by qualified name.
type Catalog struct {
	entries *registry.Registry[string, Extension]
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{entries: registry.New[string, Extension]()}
}

// Register validates ext and adds it to the catalog.
func (c *Catalog) Register(ext Extension) error {
	if err := Validate(ext); err != nil {
		return err
	}
	if !c.entries.Add(ext.QualifiedName(), ext) {
		return fmt.Errorf("%w: %s declared by %s", ErrDuplicateExtension, ext.QualifiedName(), ext.Class)
	}
	return nil
}

// Lookup returns the extension registered as namespace:name.
func (c *Catalog) Lookup(namespace, name string) (Extension, bool) {
	return c.entries.Get(Extension{Namespace: namespace, Name: name}.QualifiedName())
}

// Extensions returns every registered extension in registration order.
func (c *Catalog) Extensions() []Extension {
	return c.entries.Values()
}

// Len returns the number of registered extensions.
func (c *Catalog) Len() int {
	return c.entries.Len()
}

// ExtensionsFromConfig decodes the "extensions" list of a configuration:
//
//	extensions:
//	  - class: acme.LogSink
//	    kind: sink
//	    namespace: sink
//	    name: log
//	    description: Logs events.
//	    parameters:
//	      - {name: prefix, description: Log prefix., types: [string], optional: true, default: ">"}
//	    returns:
//	      - {name: out, description: Result., types: [string]}
func ExtensionsFromConfig(cfg config.Config) []Extension {
	entries := cfg.List("extensions")
	out := make([]Extension, 0, len(entries))
	for _, e := range entries {
		ext := Extension{
			Class:       e.String("class", ""),
			Kind:        Kind(e.String("kind", "")),
			Name:        e.String("name", ""),
			Namespace:   e.String("namespace", ""),
			Description: e.String("description", ""),
			Examples:    e.StringSlice("examples", nil),
		}
		for _, p := range e.List("parameters") {
			ext.Parameters = append(ext.Parameters, Parameter{
				Name:         p.String("name", ""),
				Description:  p.String("description", ""),
				Types:        p.StringSlice("types", nil),
				Optional:     p.Bool("optional", false),
				Dynamic:      p.Bool("dynamic", false),
				DefaultValue: p.String("default", ""),
			})
		}
		for _, r := range e.List("returns") {
			ext.ReturnAttributes = append(ext.ReturnAttributes, ReturnAttribute{
				Name:        r.String("name", ""),
				Description: r.String("description", ""),
				Types:       r.StringSlice("types", nil),
			})
		}
		out = append(out, ext)
	}
	return out
}

// LoadCatalog registers every extension declared in cfg, stopping at the
// first invalid declaration.
func LoadCatalog(cfg config.Config) (*Catalog, error) {
	c := NewCatalog()
	for _, ext := range ExtensionsFromConfig(cfg) {
		if err := c.Register(ext); err != nil {
			return nil, err
		}
	}
	return c, nil
}
