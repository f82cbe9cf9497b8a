// Package schema provides a concrete schema provider for filter trees:
// entity types with typed data properties and navigation (collection)
// properties targeting other entity types.
package schema

import (
	"strings"
	"sync"

	"github.com/jvitoroc/filter"
)

// EntityType implements filter.Schema. An EntityType with no declared
// properties is anonymous: filters validated against it skip path
// resolution and type inference.
type EntityType struct {
	mu    sync.Mutex
	name  string
	props map[string]*property

	stringOptions filter.StringOptions
}

type property struct {
	dataType   filter.DataType
	target     *EntityType
	serverName string
}

func New(name string) *EntityType {
	return &EntityType{
		name:          name,
		props:         map[string]*property{},
		stringOptions: filter.DefaultStringOptions,
	}
}

// AddProperty declares a data property. It returns the type so declarations
// chain.
func (t *EntityType) AddProperty(name string, dataType filter.DataType) *EntityType {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.props[name] = &property{dataType: dataType}
	return t
}

// AddNavigation declares a navigation property: a collection of target
// elements, usable as the subject of any/all quantifiers.
func (t *EntityType) AddNavigation(name string, target *EntityType) *EntityType {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.props[name] = &property{target: target}
	return t
}

// SetServerName records the server-side spelling of a declared property.
func (t *EntityType) SetServerName(name, serverName string) *EntityType {
	t.mu.Lock()
	defer t.mu.Unlock()

	if p, ok := t.props[name]; ok {
		p.serverName = serverName
	}
	return t
}

// SetStringOptions overrides the string comparison policy of this type.
func (t *EntityType) SetStringOptions(opts filter.StringOptions) *EntityType {
	t.stringOptions = opts
	return t
}

func (t *EntityType) Name() string { return t.name }

func (t *EntityType) Anonymous() bool { return len(t.props) == 0 }

func (t *EntityType) StringOptions() filter.StringOptions { return t.stringOptions }

// ResolveProperty walks a dotted path across data and navigation
// properties. Every segment but the last must be a navigation property.
func (t *EntityType) ResolveProperty(path string) (filter.Property, bool) {
	segments := strings.Split(path, ".")

	cur := t
	for i, seg := range segments {
		p, ok := cur.props[seg]
		if !ok {
			return filter.Property{}, false
		}

		if i == len(segments)-1 {
			if p.target != nil {
				return filter.Property{IsNavigation: true, Target: p.target}, true
			}
			return filter.Property{DataType: p.dataType}, true
		}

		if p.target == nil {
			return filter.Property{}, false
		}
		cur = p.target
	}

	return filter.Property{}, false
}

// ServerPath translates each path segment to its server-side name, leaving
// segments without one unchanged.
func (t *EntityType) ServerPath(path string) string {
	segments := strings.Split(path, ".")

	cur := t
	for i, seg := range segments {
		if cur == nil {
			break
		}
		p, ok := cur.props[seg]
		if !ok {
			break
		}
		if p.serverName != "" {
			segments[i] = p.serverName
		}
		cur = p.target
	}

	return strings.Join(segments, ".")
}
