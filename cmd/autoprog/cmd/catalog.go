package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/moffa90/go-autoprog/catalog"
)

func newCatalogCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "catalog",
		Short: "List the built-in chip profiles and signature aliases",
		Long: `List every chip the programmer can identify, with its signature, page size
and both fuse sets, followed by the signature aliases that map chip variants
onto those profiles.`,
		Args: cobra.NoArgs,
		RunE: runCatalog,
	}
	c.Flags().Bool("validate", false, "Check catalog integrity and exit non-zero if it is inconsistent")
	return c
}

func runCatalog(cmd *cobra.Command, args []string) error {
	validate, _ := cmd.Flags().GetBool("validate")
	cat := catalog.Builtin()

	if validate {
		if err := cat.Validate(); err != nil {
			return fmt.Errorf("catalog is inconsistent: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "catalog OK")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)

	fmt.Fprintln(w, "CHIP\tSIGNATURE\tPAGE\tPROGRAM FUSES\tNORMAL FUSES")
	for _, p := range cat.Profiles() {
		fmt.Fprintf(w, "%s\t0x%04X\t%d\t% X\t% X\n",
			p.Name, p.Signature, p.PageSize, p.ProgramFuses.Bytes(), p.NormalFuses.Bytes())
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "ALIAS\tSIGNATURE\tTREATED AS")
	for _, a := range cat.Aliases() {
		target := fmt.Sprintf("0x%04X", a.CanonicalSignature)
		if p, ok := cat.LookupBySignature(a.CanonicalSignature); ok {
			target = fmt.Sprintf("%s (0x%04X)", p.Name, p.Signature)
		}
		fmt.Fprintf(w, "%s\t0x%04X\t%s\n", a.Name, a.RealSignature, target)
	}

	return w.Flush()
}
