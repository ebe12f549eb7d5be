package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/moffa90/go-autoprog/catalog"
	"github.com/moffa90/go-autoprog/ihex"
	"github.com/moffa90/go-autoprog/programmer"
)

func newImagesCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "images [chip]",
		Short: "Show how each catalog image will be written",
		Long: `Parse every built-in firmware image and show its size, address range and
the number of flash pages it takes on its chip. With a chip name, only that
image is shown; --pages lists its individual page writes.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runImages,
	}
	c.Flags().Bool("pages", false, "List each page write (requires a chip name)")
	c.Flags().String("dump", "", "Write the chip's image to this file (requires a chip name)")
	return c
}

func runImages(cmd *cobra.Command, args []string) error {
	showPages, _ := cmd.Flags().GetBool("pages")
	dump, _ := cmd.Flags().GetString("dump")

	profiles := catalog.Builtin().Profiles()
	if len(args) == 1 {
		p, err := findProfile(profiles, args[0])
		if err != nil {
			return err
		}
		profiles = []catalog.ChipProfile{p}
	} else if showPages || dump != "" {
		return fmt.Errorf("--pages and --dump need a chip name")
	}

	if dump != "" {
		if err := os.WriteFile(dump, []byte(profiles[0].Image), 0o644); err != nil {
			return fmt.Errorf("dump image: %w", err)
		}
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CHIP\tRECORDS\tBYTES\tRANGE\tPAGES")

	var pages []programmer.Page
	for _, p := range profiles {
		img, err := ihex.Parse(p.Image)
		if err != nil {
			return fmt.Errorf("%s: %w", p.Name, err)
		}
		pages, err = programmer.Paginate(img, p.PageSize)
		if err != nil {
			return fmt.Errorf("%s: %w", p.Name, err)
		}

		span := "-"
		if len(img.Records) > 0 {
			first, last := img.Records[0].Address, img.Records[0].End()
			for _, rec := range img.Records {
				if rec.Address < first {
					first = rec.Address
				}
				if rec.End() > last {
					last = rec.End()
				}
			}
			span = fmt.Sprintf("0x%04X-0x%04X", first, last-1)
		}

		fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%d x %d\n",
			p.Name, len(img.Records), img.Size(), span, len(pages), p.PageSize)
	}

	if showPages {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "PAGE\tADDRESS\tLENGTH")
		for i, pg := range pages {
			fmt.Fprintf(w, "%d\t0x%04X\t%d\n", i, pg.Address, len(pg.Data))
		}
	}

	return w.Flush()
}

func findProfile(profiles []catalog.ChipProfile, name string) (catalog.ChipProfile, error) {
	for _, p := range profiles {
		if p.Name == name {
			return p, nil
		}
	}
	return catalog.ChipProfile{}, fmt.Errorf("no chip named %q in the catalog", name)
}
