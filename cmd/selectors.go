package cmd

import (
	"errors"
	"fmt"

	"github.com/Mohsinsiddi/w3probe/internal/proxy"
	"github.com/Mohsinsiddi/w3probe/internal/selectors"
	"github.com/Mohsinsiddi/w3probe/internal/ui"
	"github.com/spf13/cobra"
)

var selectorsRaw bool

var selectorsCmd = &cobra.Command{
	Use:   "selectors <address>",
	Short: "List the function selectors a contract dispatches on",
	Long: `Read a contract's runtime bytecode, follow any proxy to its
implementation and list the 4-byte selectors found in the function
dispatcher. Known selectors are shown with their signature.

Examples:
  w3probe selectors 0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48
  w3probe selectors 0x4200000000000000000000000000000000000006 -n base
  w3probe selectors 0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48 --raw | wc -l`,
	Args: cobra.ExactArgs(1),
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

		var spin *ui.Spinner
		if !selectorsRaw {
			spin = ui.NewSpinner(fmt.Sprintf("Reading bytecode on %s...", c.Label(cfg.NetworkMode)))
			spin.Start()
		}
		sels, impl, err := p.readSelectors(ctx, ref)
		if spin != nil {
			spin.Stop()
		}

		if selectorsRaw {
			if err != nil {
				return fmt.Errorf("reading %s: %w", ref, err)
			}
			for _, s := range sels {
				fmt.Fprintln(cmd.OutOrStdout(), s)
			}
			return nil
		}

		if errors.Is(err, proxy.ErrNoCode) {
			fmt.Println(ui.Warn(fmt.Sprintf("%s has no code on %s", ref.Address.Hex(), c.Label(cfg.NetworkMode))))
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading %s: %w", ref, err)
		}

		fmt.Println(ui.KeyValueBlock("Contract", implPairs(ref.Address.Hex(), c.Label(cfg.NetworkMode), impl)))
		if len(sels) == 0 {
			fmt.Println(ui.Hint("no dispatcher selectors found; the contract may use a non-standard dispatcher"))
			return nil
		}
		fmt.Println(selectorTable(sels).Render())
		fmt.Println(ui.Meta(fmt.Sprintf("%d selectors", len(sels))))
		return nil
	},
}

func selectorTable(sels []string) *ui.Table {
	t := ui.NewTable([]ui.Column{
		{Title: "#"},
		{Title: "Selector"},
		{Title: "Signature"},
	})
	for i, s := range sels {
		sig, ok := selectors.Lookup(s)
		if !ok {
			sig = ui.Meta("unknown")
		}
		t.AddRow(ui.Row{fmt.Sprintf("%d", i+1), s, sig})
	}
	return t
}

// implPairs describes where the executing bytecode came from.
func implPairs(address, network string, impl proxy.Implementation) [][2]string {
	pairs := [][2]string{
		{"Address", ui.Addr(address)},
		{"Network", network},
	}
	if impl.IsProxy() {
		pairs = append(pairs,
			[2]string{"Proxy", ui.Val(string(impl.Kind))},
			[2]string{"Implementation", ui.Addr(impl.Address.Hex())},
		)
	} else {
		pairs = append(pairs, [2]string{"Proxy", ui.Meta("none")})
	}
	pairs = append(pairs, [2]string{"Bytecode Size", ui.Val(fmt.Sprintf("%d bytes", len(impl.Bytecode)))})
	return pairs
}

func init() {
	selectorsCmd.Flags().BoolVar(&selectorsRaw, "raw", false, "print one selector per line")
}
