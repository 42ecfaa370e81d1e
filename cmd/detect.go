package cmd

import (
	"fmt"
	"strings"

	"github.com/Mohsinsiddi/w3probe/internal/extensions"
	"github.com/Mohsinsiddi/w3probe/internal/ui"
	"github.com/spf13/cobra"
)

var detectOnlySupported bool

var detectCmd = &cobra.Command{
	Use:   "detect <address> [extension...]",
	Short: "Detect which standard extensions a contract implements",
	Long: `Probe a contract for well-known extensions (ERC20, ERC721, ERC1155,
Ownable, ...). Without extension names every built-in extension is checked.

Examples:
  w3probe detect 0xBC4CA0EdA7647A8aB7C2061c2E118A18a936f13D
  w3probe detect 0xBC4C...f13D ERC721 ERC2981
  w3probe detect --list`,
	Args: func(cmd *cobra.Command, args []string) error {
		if list, _ := cmd.Flags().GetBool("list"); list {
			return nil
		}
		return cobra.MinimumNArgs(1)(cmd, args)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if list, _ := cmd.Flags().GetBool("list"); list {
			fmt.Println(extensionTable(extensions.Builtin()).Render())
			return nil
		}

		exts, err := pickExtensions(args[1:])
		if err != nil {
			return err
		}

		p, err := newProber()
		if err != nil {
			return err
		}
		ref, c, err := p.target(args[0])
		if err != nil {
			return err
		}

		ctx, cancel := probeContext(cmd)
		defer cancel()

		spin := ui.NewSpinner(fmt.Sprintf("Probing %d extensions on %s...", len(exts), c.Label(cfg.NetworkMode)))
		spin.Start()
		_, _, err = p.readSelectors(ctx, ref)
		if err != nil {
			spin.Stop()
			return fmt.Errorf("reading %s: %w", ref, err)
		}
		results := p.detector.DetectAll(ctx, ref, exts)
		spin.Stop()

		t := ui.NewTable([]ui.Column{
			{Title: "Extension"},
			{Title: "Supported"},
			{Title: "Match"},
			{Title: "Description"},
		})
		found := 0
		for _, r := range results {
			if r.Supported {
				found++
			} else if detectOnlySupported {
				continue
			}
			t.AddRow(ui.Row{r.Extension.Name, ui.YesNo(r.Supported), r.Extension.Match.String(), r.Extension.Description})
		}
		fmt.Println(t.Render())
		fmt.Println(ui.Meta(fmt.Sprintf("%d of %d extensions supported", found, len(results))))
		return nil
	},
}

// pickExtensions maps names to built-in extensions; no names means all.
func pickExtensions(names []string) ([]extensions.Extension, error) {
	if len(names) == 0 {
		return extensions.Builtin(), nil
	}
	exts := make([]extensions.Extension, 0, len(names))
	for _, name := range names {
		ext, ok := extensions.Find(name)
		if !ok {
			known := make([]string, 0)
			for _, e := range extensions.Builtin() {
				known = append(known, e.Name)
			}
			return nil, fmt.Errorf("unknown extension %q (known: %s)", name, strings.Join(known, ", "))
		}
		exts = append(exts, ext)
	}
	return exts, nil
}

func extensionTable(exts []extensions.Extension) *ui.Table {
	t := ui.NewTable([]ui.Column{
		{Title: "Extension"},
		{Title: "Match"},
		{Title: "Methods"},
		{Title: "Description"},
	})
	for _, e := range exts {
		t.AddRow(ui.Row{e.Name, e.Match.String(), fmt.Sprintf("%d", len(e.Methods)), e.Description})
	}
	return t
}

func init() {
	detectCmd.Flags().BoolVar(&detectOnlySupported, "supported", false, "only show supported extensions")
	detectCmd.Flags().Bool("list", false, "list the built-in extensions and exit")
}
