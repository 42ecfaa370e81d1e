package cmd

import (
	"fmt"

	"github.com/Mohsinsiddi/w3probe/internal/selectors"
	"github.com/Mohsinsiddi/w3probe/internal/ui"
	"github.com/spf13/cobra"
)

var supportsCmd = &cobra.Command{
	Use:   "supports <address> <method>...",
	Short: "Check whether a contract implements specific functions",
	Long: `Check a contract for one or more functions. Each method is either a
signature (parameter names are ignored) or a raw 4-byte selector.

The contract's bytecode is fetched once; every method is answered from the
same selector set. Exits non-zero if any method is missing.

Examples:
  w3probe supports 0xA0b8...eB48 "balanceOf(address)" "permit(address,address,uint256,uint256,uint8,bytes32,bytes32)"
  w3probe supports 0xA0b8...eB48 0x70a08231`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
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

		spin := ui.NewSpinner(fmt.Sprintf("Reading bytecode on %s...", c.Label(cfg.NetworkMode)))
		spin.Start()
		_, _, err = p.readSelectors(ctx, ref)
		spin.Stop()
		if err != nil {
			return fmt.Errorf("reading %s: %w", ref, err)
		}

		t := ui.NewTable([]ui.Column{
			{Title: "Method"},
			{Title: "Selector"},
			{Title: "Supported"},
		})
		missing := 0
		for _, method := range args[1:] {
			sel, err := selectors.SelectorOf(method)
			if err != nil {
				t.AddRow(ui.Row{method, ui.Meta("—"), ui.Err("invalid")})
				missing++
				continue
			}
			// Answered from the cache filled above.
			ok := p.selectors.HasSelector(ctx, ref, method)
			if !ok {
				missing++
			}
			t.AddRow(ui.Row{method, sel, ui.YesNo(ok)})
		}
		fmt.Println(t.Render())

		if missing > 0 {
			return fmt.Errorf("%d of %d methods not supported", missing, len(args)-1)
		}
		return nil
	},
}
