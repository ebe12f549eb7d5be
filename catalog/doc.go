// Package catalog holds the compiled-in table of chip profiles and signature
// aliases, and resolves raw hardware signatures against it.
//
// # Profiles and Aliases
//
// A ChipProfile carries everything needed to program one chip model: its
// 16-bit signature, the fuses to set before and after flashing, the flash
// page size and the Intel HEX firmware image.
//
// Many chip variants share a die with a cosmetic signature difference
// (package or voltage grade). Instead of duplicating a profile, a
// SignatureAlias maps the variant's real signature onto the canonical one.
// Resolution follows at most one alias hop.
//
// # Usage
//
//	resolver := catalog.NewResolver(catalog.Builtin())
//
//	res, err := resolver.Resolve(0x9586)
//	if err != nil {
//	    log.Fatal(err) // *catalog.UnknownChipError
//	}
//	fmt.Printf("%s (via alias %v)\n", res.Profile.Name, res.Alias != nil)
package catalog
