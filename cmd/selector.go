package cmd

import (
	"fmt"
	"strings"

	"github.com/Mohsinsiddi/w3probe/internal/selectors"
	"github.com/Mohsinsiddi/w3probe/internal/ui"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"
)

var selectorCmd = &cobra.Command{
	Use:   "selector <signature-or-selector>",
	Short: "Compute or look up a 4-byte function selector",
	Long: `Compute a 4-byte function selector from a signature, or look up a
known selector in the built-in table.

Parameter names, the "function" keyword, whitespace and type aliases
(uint, int, byte) are normalised before hashing.

Examples:
  w3probe selector "transfer(address to, uint256 amount)"   # → 0xa9059cbb
  w3probe selector "function approve(address,uint)"         # → 0x095ea7b3
  w3probe selector 0xa9059cbb                               # → transfer(address,uint256)`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pairs, err := describeSelector(args[0])
		if err != nil {
			return err
		}
		title := "Function Selector"
		if selectors.IsSelector(args[0]) {
			title = "Selector Lookup"
		}
		fmt.Println(ui.KeyValueBlock(title, pairs))
		return nil
	},
}

// describeSelector builds the key/value rows for a signature or a selector.
func describeSelector(input string) ([][2]string, error) {
	if selectors.IsSelector(input) {
		sel := strings.ToLower(input)
		sig, ok := selectors.Lookup(sel)
		if !ok {
			sig = "unknown"
		}
		return [][2]string{
			{"Selector", sel},
			{"Signature", sig},
		}, nil
	}

	sig, err := selectors.Normalize(input)
	if err != nil {
		return nil, err
	}
	sel, err := selectors.SelectorOf(sig)
	if err != nil {
		return nil, err
	}
	return [][2]string{
		{"Signature", sig},
		{"Selector", sel},
		{"Event Topic", computeEventTopic(sig)},
	}, nil
}

// computeEventTopic hashes a canonical event signature into its topic0.
func computeEventTopic(sig string) string {
	return crypto.Keccak256Hash([]byte(sig)).Hex()
}
