package catalog

import "fmt"

// MaxNameLen is the longest chip or alias name the catalog stores.
const MaxNameLen = 11

// FuseCategory identifies one fuse byte. The ordinal value is also the
// order fuses are written in.
type FuseCategory uint8

// Fuse categories in write order.
const (
	FuseProt     FuseCategory = 0 // memory protection (lock bits)
	FuseLow      FuseCategory = 1
	FuseHigh     FuseCategory = 2
	FuseExt      FuseCategory = 3
	FuseReserved FuseCategory = 4
)

// NumFuses is the number of fuse categories in a FuseSet.
const NumFuses = 5

// FuseCategories returns every category in write order.
func FuseCategories() []FuseCategory {
	return []FuseCategory{FuseProt, FuseLow, FuseHigh, FuseExt, FuseReserved}
}

func (c FuseCategory) String() string {
	switch c {
	case FuseProt:
		return "prot"
	case FuseLow:
		return "low"
	case FuseHigh:
		return "high"
	case FuseExt:
		return "ext"
	case FuseReserved:
		return "reserved"
	default:
		return fmt.Sprintf("fuse(%d)", uint8(c))
	}
}

// FuseSet holds one value per fuse category.
type FuseSet struct {
	Prot     byte
	Low      byte
	High     byte
	Ext      byte
	Reserved byte
}

// FuseSetFromBytes builds a FuseSet from the ordinal form
// {prot, low, high, ext, reserved}.
func FuseSetFromBytes(b [NumFuses]byte) FuseSet {
	return FuseSet{Prot: b[0], Low: b[1], High: b[2], Ext: b[3], Reserved: b[4]}
}

// Bytes returns the set in ordinal form.
func (f FuseSet) Bytes() [NumFuses]byte {
	return [NumFuses]byte{f.Prot, f.Low, f.High, f.Ext, f.Reserved}
}

// Get returns the value for one category.
func (f FuseSet) Get(c FuseCategory) (byte, bool) {
	switch c {
	case FuseProt:
		return f.Prot, true
	case FuseLow:
		return f.Low, true
	case FuseHigh:
		return f.High, true
	case FuseExt:
		return f.Ext, true
	case FuseReserved:
		return f.Reserved, true
	default:
		return 0, false
	}
}

// Each calls fn for every category in write order and stops at the first error.
func (f FuseSet) Each(fn func(FuseCategory, byte) error) error {
	for _, c := range FuseCategories() {
		v, _ := f.Get(c)
		if err := fn(c, v); err != nil {
			return err
		}
	}
	return nil
}

func (f FuseSet) String() string {
	return fmt.Sprintf("prot=0x%02X low=0x%02X high=0x%02X ext=0x%02X reserved=0x%02X",
		f.Prot, f.Low, f.High, f.Ext, f.Reserved)
}

// ChipProfile is a catalog entry: everything needed to program one chip model.
type ChipProfile struct {
	// Name is the short chip identifier, ie "atmega168"
	Name string

	// Signature is the low two bytes of the device signature
	Signature uint16

	// ProgramFuses are applied before flashing
	ProgramFuses FuseSet

	// NormalFuses are applied after flashing and hold the runtime configuration
	NormalFuses FuseSet

	// PageSize is the flash page size in bytes
	PageSize uint8

	// Image is the Intel HEX firmware text
	Image string
}

// SignatureAlias maps a chip variant onto an existing profile.
type SignatureAlias struct {
	// Name of the variant, ie "atmega168pa"
	Name string

	// RealSignature is what the variant reports in hardware
	RealSignature uint16

	// CanonicalSignature is the profile signature to use instead
	CanonicalSignature uint16
}
