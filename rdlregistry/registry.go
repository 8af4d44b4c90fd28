// Package rdlregistry implements the Component Type Registry (spec §4.3):
// the store of declared but not yet instantiated component types.
//
// Grounded on the teacher's loader.Loader type-registration pass: types
// are collected in a first traversal before any instantiation happens,
// keyed within the lexical scope they were declared in, and looked up by
// name during the second pass rather than re-walked from source each time.
package rdlregistry

import (
	"fmt"

	"github.com/vowstar/systemrdl-toolkit/rdlast"
	"github.com/vowstar/systemrdl-toolkit/rdldiag"
)

// Registry holds every component type declaration collected during Pass 1,
// keyed by name within the scope level it was declared at. Nested type
// declarations get their own child Registry, mirroring the lexical nesting
// rule in §4.3 ("visible in the lexical scope in which they appear and any
// inner scope, but not above").
type Registry struct {
	types map[string]*rdlast.ComponentTypeDecl
	outer *Registry
}

// New constructs a registry nested inside outer (nil for the file-level
// root registry).
func New(outer *Registry) *Registry {
	return &Registry{types: make(map[string]*rdlast.ComponentTypeDecl), outer: outer}
}

// RegistryError reports a registration or lookup failure with the
// rdldiag.Kind it should surface as.
type RegistryError struct {
	Kind rdldiag.Kind
	Name string
}

func (e *RegistryError) Error() string {
	return fmt.Sprintf("%s: %q", e.Kind, e.Name)
}

// Register records a named type in this registry level. Anonymous types
// (empty Name) are keyed by their own AnonKey instead, since §4.3 permits
// "anonymous types used only once"; a caller registering an anonymous type
// should pass its AnonKey() as the name.
func (r *Registry) Register(name string, t *rdlast.ComponentTypeDecl) error {
	if _, exists := r.types[name]; exists {
		return &RegistryError{Kind: rdldiag.DuplicateType, Name: name}
	}
	r.types[name] = t
	return nil
}

// Resolve looks up name starting at this registry level and walking
// outward to the file-level root, matching the lexical visibility rule in
// §4.3.
func (r *Registry) Resolve(name string) (*rdlast.ComponentTypeDecl, error) {
	for reg := r; reg != nil; reg = reg.outer {
		if t, ok := reg.types[name]; ok {
			return t, nil
		}
	}
	return nil, &RegistryError{Kind: rdldiag.UnresolvedType, Name: name}
}

// RegisterPass performs §4.4's Pass 1: walk body recursively, registering
// every named component type it declares (and, recursively, every named
// type nested inside those bodies) without evaluating any property
// expression. Anonymous types are not registered here; they are resolved
// directly from the InstanceDecl.AnonType pointer set up by rdlast.Build,
// so no registry entry is needed for them.
func RegisterPass(reg *Registry, body []rdlast.BodyItem) error {
	for _, item := range body {
		switch t := item.(type) {
		case *rdlast.ComponentTypeDecl:
			if t.Name != "" {
				if err := reg.Register(t.Name, t); err != nil {
					return err
				}
			}
			if err := RegisterPass(reg, t.Body); err != nil {
				return err
			}
		}
	}
	return nil
}
