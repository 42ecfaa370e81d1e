package cmd

import (
	"errors"
	"fmt"

	"github.com/Mohsinsiddi/w3probe/internal/proxy"
	"github.com/Mohsinsiddi/w3probe/internal/selectors"
	"github.com/Mohsinsiddi/w3probe/internal/ui"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
)

var codeCmd = &cobra.Command{
	Use:   "code <address>",
	Short: "Show which bytecode executes at an address",
	Long: `Query the bytecode at an address and follow proxies to the contract
that actually executes. Recognises minimal proxies (EIP-1167, EIP-7511 and
vyper/0age/0xsplits clones), EIP-1967 implementation and beacon slots, the
legacy OpenZeppelin slot and an implementation() getter.

Examples:
  w3probe code 0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48   # USDC (EIP-1967 proxy)
  w3probe code 0xd8dA6BF26964aF9D7eEd9e03E53415D37aA96045   # vitalik (EOA)`,
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

		spin := ui.NewSpinner(fmt.Sprintf("Querying bytecode on %s...", c.Label(cfg.NetworkMode)))
		spin.Start()
		impl, err := p.impls.ResolveImplementation(ctx, ref)
		spin.Stop()

		if errors.Is(err, proxy.ErrNoCode) {
			fmt.Println(ui.KeyValueBlock("Address Type", [][2]string{
				{"Address", ui.Addr(ref.Address.Hex())},
				{"Network", c.Label(cfg.NetworkMode)},
				{"Type", ui.Val("EOA (no code)")},
			}))
			return nil
		}
		if err != nil {
			return fmt.Errorf("querying code: %w", err)
		}

		pairs := implPairs(ref.Address.Hex(), c.Label(cfg.NetworkMode), impl)
		pairs = append(pairs,
			[2]string{"Selectors", ui.Val(fmt.Sprintf("%d", len(selectors.FromBytecode(impl.Bytecode))))},
			[2]string{"Preview", codePreview(impl.Bytecode)},
		)
		if explorer := c.Explorer(cfg.NetworkMode); explorer != "" {
			pairs = append(pairs, [2]string{"Explorer", ui.Meta(explorer + "/address/" + ref.Address.Hex())})
		}
		fmt.Println(ui.KeyValueBlock("Contract Code", pairs))
		return nil
	},
}

// codePreview shows the first 32 bytes of code.
func codePreview(code []byte) string {
	if len(code) > 32 {
		return hexutil.Encode(code[:32]) + "..."
	}
	return hexutil.Encode(code)
}
