package catalog

import (
	"embed"
	"sync"
)

//go:embed images/*.hex
var images embed.FS

func mustImage(name string) string {
	b, err := images.ReadFile("images/" + name + ".hex")
	if err != nil {
		panic("catalog: missing built-in image " + name)
	}
	return string(b)
}

// BuiltinProfiles returns the compiled-in chip profiles.
func BuiltinProfiles() []ChipProfile {
	return []ChipProfile{
		{
			Name:         "attiny88",
			Signature:    0x9311,
			ProgramFuses: FuseSet{Prot: 0x3F, Low: 0x6E, High: 0xDF, Ext: 0xFF},
			NormalFuses:  FuseSet{Prot: 0x3C, Low: 0xEE, High: 0xDF, Ext: 0xFF},
			PageSize:     64,
			Image:        mustImage("attiny88"),
		},
		{
			Name:         "atmega168",
			Signature:    0x9507,
			ProgramFuses: FuseSet{Prot: 0x3F, Low: 0x62, High: 0xDD, Ext: 0xF9},
			NormalFuses:  FuseSet{Prot: 0x0F, Low: 0xFF, High: 0xDD, Ext: 0xF8},
			PageSize:     128,
			Image:        mustImage("atmega168"),
		},
		{
			Name:         "atmega328p",
			Signature:    0x950F,
			ProgramFuses: FuseSet{Prot: 0x3F, Low: 0x62, High: 0xD9, Ext: 0xFF},
			NormalFuses:  FuseSet{Prot: 0x0F, Low: 0xFF, High: 0xDE, Ext: 0xFD},
			PageSize:     128,
			Image:        mustImage("atmega328p"),
		},
		{
			Name:         "atmega32u4",
			Signature:    0x9587,
			ProgramFuses: FuseSet{Prot: 0x3F, Low: 0x5E, High: 0x99, Ext: 0xF3},
			NormalFuses:  FuseSet{Prot: 0x2F, Low: 0xFF, High: 0xD8, Ext: 0xCB},
			PageSize:     128,
			Image:        mustImage("atmega32u4"),
		},
	}
}

// BuiltinAliases returns the compiled-in signature aliases.
func BuiltinAliases() []SignatureAlias {
	return []SignatureAlias{
		{Name: "atmega328", RealSignature: 0x9514, CanonicalSignature: 0x950F},
		{Name: "atmega328pb", RealSignature: 0x9516, CanonicalSignature: 0x950F},
		{Name: "atmega168pa", RealSignature: 0x9586, CanonicalSignature: 0x9507},
	}
}

var (
	builtinOnce sync.Once
	builtin     *Catalog
)

// Builtin returns the shared compiled-in catalog.
func Builtin() *Catalog {
	builtinOnce.Do(func() {
		builtin = New(BuiltinProfiles(), BuiltinAliases())
	})
	return builtin
}
