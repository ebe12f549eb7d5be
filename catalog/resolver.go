package catalog

import "fmt"

// UnknownChipError indicates that a signature matches neither a profile nor an alias.
type UnknownChipError struct {
	Signature uint16
}

func (e *UnknownChipError) Error() string {
	return fmt.Sprintf("unknown chip: no profile or alias for signature 0x%04X", e.Signature)
}

// Resolution is the outcome of resolving a raw signature.
type Resolution struct {
	// Profile is the canonical chip profile
	Profile *ChipProfile

	// Alias is the alias that was followed, or nil for a direct match
	Alias *SignatureAlias
}

// Resolver maps raw hardware signatures to chip profiles.
type Resolver struct {
	catalog *Catalog
}

// NewResolver creates a resolver over the given catalog.
func NewResolver(c *Catalog) *Resolver {
	if c == nil {
		panic("catalog cannot be nil")
	}
	return &Resolver{catalog: c}
}

// Resolve looks the signature up directly, then through a single alias hop.
// Alias chains are not followed.
func (r *Resolver) Resolve(raw uint16) (*Resolution, error) {
	if p, ok := r.catalog.LookupBySignature(raw); ok {
		return &Resolution{Profile: p}, nil
	}

	if a, ok := r.catalog.FindAlias(raw); ok {
		if p, ok := r.catalog.LookupBySignature(a.CanonicalSignature); ok {
			return &Resolution{Profile: p, Alias: a}, nil
		}
	}

	return nil, &UnknownChipError{Signature: raw}
}
