package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/Mohsinsiddi/w3probe/internal/chain"
	"github.com/Mohsinsiddi/w3probe/internal/ui"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return err
		}
		fmt.Printf("%s\n\n", ui.StyleTitle.Render("Current Configuration"))
		fmt.Println(string(data))
		fmt.Println(ui.Meta("Config directory: " + cfg.Dir()))
		return nil
	},
}

var configSetDefaultNetworkCmd = &cobra.Command{
	Use:   "set-default-network [chain]",
	Short: "Set the default network (interactive picker without an argument)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := chain.NewRegistry()

		var chainName string
		if len(args) == 1 {
			chainName = args[0]
		} else {
			items := make([]ui.PickerItem, 0, len(reg.All()))
			for _, c := range reg.All() {
				items = append(items, ui.PickerItem{
					Label:    c.Name,
					SubLabel: fmt.Sprintf("%s · %d", c.DisplayName, c.ChainID),
					Value:    c.Name,
				})
			}
			picked, err := ui.PickItem("Default network", items)
			if err != nil {
				return err
			}
			if picked == "" {
				fmt.Println(ui.Meta("cancelled"))
				return nil
			}
			chainName = picked
		}

		c, err := reg.GetByName(chainName)
		if err != nil {
			return fmt.Errorf("unknown chain %q, run `w3probe network list` to see all chains", chainName)
		}
		cfg.DefaultNetwork = c.Name
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Default network set to %s", ui.ChainName(c.Name))))
		return nil
	},
}

var configSetNetworkModeCmd = &cobra.Command{
	Use:   "set-network-mode <mainnet|testnet>",
	Short: "Persist the network mode",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode := args[0]
		if mode != "mainnet" && mode != "testnet" {
			return fmt.Errorf("invalid mode %q, choose mainnet or testnet", mode)
		}
		cfg.NetworkMode = mode
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Network mode set to %s", mode)))
		return nil
	},
}

var configSetCacheSizeCmd = &cobra.Command{
	Use:   "set-cache-size <entries>",
	Short: "Set how many contracts the selector cache holds",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid cache size %q", args[0])
		}
		if err := cfg.SetCacheSize(n); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Selector cache size set to %d", n)))
		return nil
	},
}

var configSetIPFSGatewayCmd = &cobra.Command{
	Use:   "set-ipfs-gateway <url>",
	Short: "Set the gateway used for ipfs:// metadata",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.SetIPFSGateway(args[0]); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("IPFS gateway set to %s", cfg.IPFSGateway)))
		return nil
	},
}

var configSetLogLevelCmd = &cobra.Command{
	Use:   "set-log-level <trace|debug|info|warn|error>",
	Short: "Set the default log level",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.SetLogLevel(args[0]); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Log level set to %s", cfg.LogLevel)))
		return nil
	},
}

func init() {
	configCmd.AddCommand(
		configListCmd,
		configSetDefaultNetworkCmd,
		configSetNetworkModeCmd,
		configSetCacheSizeCmd,
		configSetIPFSGatewayCmd,
		configSetLogLevelCmd,
	)
}
