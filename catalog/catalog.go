package catalog

import (
	"fmt"
	"sort"

	"github.com/pkg/errors"

	"github.com/moffa90/go-autoprog/ihex"
)

// Catalog is an immutable table of chip profiles and signature aliases.
//
// Catalog is safe for concurrent use.
type Catalog struct {
	profiles map[uint16]*ChipProfile
	aliases  map[uint16]*SignatureAlias
}

// New builds a catalog from the given entries. Entries are copied.
// Duplicate signatures keep the first entry; Validate reports them.
func New(profiles []ChipProfile, aliases []SignatureAlias) *Catalog {
	c := &Catalog{
		profiles: make(map[uint16]*ChipProfile, len(profiles)),
		aliases:  make(map[uint16]*SignatureAlias, len(aliases)),
	}

	for i := range profiles {
		p := profiles[i]
		if _, ok := c.profiles[p.Signature]; !ok {
			c.profiles[p.Signature] = &p
		}
	}
	for i := range aliases {
		a := aliases[i]
		if _, ok := c.aliases[a.RealSignature]; !ok {
			c.aliases[a.RealSignature] = &a
		}
	}

	return c
}

// LookupBySignature returns the profile whose signature matches exactly.
// Aliases are not consulted.
func (c *Catalog) LookupBySignature(sig uint16) (*ChipProfile, bool) {
	p, ok := c.profiles[sig]
	return p, ok
}

// FindAlias returns the alias whose real signature matches exactly.
func (c *Catalog) FindAlias(sig uint16) (*SignatureAlias, bool) {
	a, ok := c.aliases[sig]
	return a, ok
}

// Profiles returns all profiles sorted by signature.
func (c *Catalog) Profiles() []ChipProfile {
	out := make([]ChipProfile, 0, len(c.profiles))
	for _, p := range c.profiles {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Signature < out[j].Signature })
	return out
}

// Aliases returns all aliases sorted by real signature.
func (c *Catalog) Aliases() []SignatureAlias {
	out := make([]SignatureAlias, 0, len(c.aliases))
	for _, a := range c.aliases {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RealSignature < out[j].RealSignature })
	return out
}

// Validate runs the integrity checks on the catalog contents.
// Duplicates dropped by New are no longer visible here.
func (c *Catalog) Validate() error {
	return Validate(c.Profiles(), c.Aliases())
}

// Validate checks catalog integrity: name lengths, page sizes, parseable
// images, and that every alias resolves to a profile in exactly one hop.
// The built-in catalog is checked by its tests; this is for tooling.
func Validate(profiles []ChipProfile, aliases []SignatureAlias) error {
	seen := make(map[uint16]string, len(profiles))
	for _, p := range profiles {
		if p.Name == "" || len(p.Name) > MaxNameLen {
			return fmt.Errorf("profile 0x%04X: name %q must be 1-%d characters", p.Signature, p.Name, MaxNameLen)
		}
		if other, dup := seen[p.Signature]; dup {
			return fmt.Errorf("profile %s: signature 0x%04X already used by %s", p.Name, p.Signature, other)
		}
		seen[p.Signature] = p.Name

		if p.PageSize == 0 {
			return fmt.Errorf("profile %s: page size must be non-zero", p.Name)
		}
		if _, err := ihex.Parse(p.Image); err != nil {
			return errors.Wrapf(err, "profile %s: image", p.Name)
		}
	}

	realSigs := make(map[uint16]bool, len(aliases))
	for _, a := range aliases {
		if a.Name == "" || len(a.Name) > MaxNameLen {
			return fmt.Errorf("alias 0x%04X: name %q must be 1-%d characters", a.RealSignature, a.Name, MaxNameLen)
		}
		if realSigs[a.RealSignature] {
			return fmt.Errorf("alias %s: signature 0x%04X listed twice", a.Name, a.RealSignature)
		}
		realSigs[a.RealSignature] = true

		if name, ok := seen[a.RealSignature]; ok {
			return fmt.Errorf("alias %s: signature 0x%04X shadows profile %s", a.Name, a.RealSignature, name)
		}
		if _, ok := seen[a.CanonicalSignature]; !ok {
			return fmt.Errorf("alias %s: canonical signature 0x%04X is not a profile", a.Name, a.CanonicalSignature)
		}
	}

	return nil
}
