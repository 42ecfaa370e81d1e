package cmd

import (
	"fmt"

	"github.com/Mohsinsiddi/w3probe/internal/chain"
	"github.com/Mohsinsiddi/w3probe/internal/ui"
	"github.com/spf13/cobra"
)

var networkCmd = &cobra.Command{
	Use:   "network",
	Short: "Manage networks",
}

var networkListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all supported chains",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := chain.NewRegistry()
		t := ui.NewTable([]ui.Column{
			{Title: "#"},
			{Title: "Name"},
			{Title: "Display"},
			{Title: "Chain ID"},
			{Title: "Testnet"},
			{Title: "Testnet ID"},
		})

		for i, c := range reg.All() {
			name := ui.ChainName(c.Name)
			if c.Name == cfg.DefaultNetwork {
				name += ui.Meta(" *")
			}
			t.AddRow(ui.Row{
				fmt.Sprintf("%d", i+1),
				name,
				c.DisplayName,
				fmt.Sprintf("%d", c.ChainID),
				c.TestnetName,
				fmt.Sprintf("%d", c.TestnetChainID),
			})
		}

		fmt.Println(t.Render())
		fmt.Printf("%s\n", ui.Meta(fmt.Sprintf("%d chains total · mode: %s · * default", len(reg.All()), cfg.NetworkMode)))
		return nil
	},
}

var networkUseCmd = &cobra.Command{
	Use:   "use <chain>",
	Short: "Set the default network",
	Long: `Set the default chain and persist it to config.

When combined with --testnet or --mainnet the network mode is also persisted.

Examples:
  w3probe network use base              # set default chain, keep current mode
  w3probe network use base --testnet    # set default chain + persist testnet mode`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := chain.NewRegistry()
		c, err := reg.GetByName(args[0])
		if err != nil {
			return fmt.Errorf("unknown chain %q, run `w3probe network list` to see all chains", args[0])
		}

		// --testnet/--mainnet already rewrote cfg.NetworkMode in PersistentPreRunE.
		cfg.DefaultNetwork = c.Name
		if err := cfg.Save(); err != nil {
			return err
		}

		fmt.Println(ui.Success(fmt.Sprintf("Default network set to %s (%s)", ui.ChainName(c.Name), cfg.NetworkMode)))
		return nil
	},
}

func init() {
	networkCmd.AddCommand(networkListCmd, networkUseCmd)
}
