package resolve

import (
	"fmt"
	"strings"

	"github.com/nlstn/go-odataql/internal/metadata"
	"github.com/nlstn/go-odataql/internal/queryerrors"
)

// NameResolver maps a requested member name on an owning entity to the
// property it denotes. Implementations return a *queryerrors.ResolutionError
// when the name is unknown.
type NameResolver interface {
	ResolveName(owner *metadata.EntityMetadata, name string) (*metadata.PropertyMetadata, error)
}

// NameResolverFunc adapts a function to NameResolver.
type NameResolverFunc func(owner *metadata.EntityMetadata, name string) (*metadata.PropertyMetadata, error)

// ResolveName calls f.
func (f NameResolverFunc) ResolveName(owner *metadata.EntityMetadata, name string) (*metadata.PropertyMetadata, error) {
	return f(owner, name)
}

// ExactNames matches property names exactly.
type ExactNames struct{}

// ResolveName implements NameResolver.
func (ExactNames) ResolveName(owner *metadata.EntityMetadata, name string) (*metadata.PropertyMetadata, error) {
	if p := owner.Property(name); p != nil {
		return p, nil
	}
	return nil, unresolved(owner, name)
}

// CaseInsensitiveNames prefers an exact match and otherwise compares
// case-folded names. Two properties folding to the same name make the lookup
// ambiguous.
type CaseInsensitiveNames struct{}

// ResolveName implements NameResolver.
func (CaseInsensitiveNames) ResolveName(owner *metadata.EntityMetadata, name string) (*metadata.PropertyMetadata, error) {
	if p := owner.Property(name); p != nil {
		return p, nil
	}

	folded := metadata.FoldName(name)
	var match *metadata.PropertyMetadata
	for i := range owner.Properties {
		p := &owner.Properties[i]
		if metadata.FoldName(p.Name) != folded {
			continue
		}
		if match != nil {
			return nil, &queryerrors.ResolutionError{
				Name:    name,
				Owner:   owner.EntityName,
				Message: fmt.Sprintf("member '%s' of type '%s' is ambiguous", name, owner.EntityName),
			}
		}
		match = p
	}
	if match == nil {
		return nil, unresolved(owner, name)
	}
	return match, nil
}

// StripSuffix retries a failed lookup with Suffix removed from the requested
// name, so that "CustomerField" can address "Customer".
type StripSuffix struct {
	Suffix string
	// Next performs the actual lookups; ExactNames when nil.
	Next NameResolver
}

// ResolveName implements NameResolver.
func (s StripSuffix) ResolveName(owner *metadata.EntityMetadata, name string) (*metadata.PropertyMetadata, error) {
	next := s.Next
	if next == nil {
		next = ExactNames{}
	}
	p, err := next.ResolveName(owner, name)
	if err == nil || s.Suffix == "" || !strings.HasSuffix(name, s.Suffix) || name == s.Suffix {
		return p, err
	}
	if p, retryErr := next.ResolveName(owner, strings.TrimSuffix(name, s.Suffix)); retryErr == nil {
		return p, nil
	}
	return nil, err
}

func unresolved(owner *metadata.EntityMetadata, name string) error {
	return &queryerrors.ResolutionError{Name: name, Owner: owner.EntityName}
}
