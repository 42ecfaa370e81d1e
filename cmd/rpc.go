package cmd

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/Mohsinsiddi/w3probe/internal/chain"
	"github.com/Mohsinsiddi/w3probe/internal/config"
	"github.com/Mohsinsiddi/w3probe/internal/rpc"
	"github.com/Mohsinsiddi/w3probe/internal/secrets"
	"github.com/Mohsinsiddi/w3probe/internal/ui"
	"github.com/spf13/cobra"
)

var (
	rpcSecret bool
	rpcCheck  bool
	rpcYes    bool
)

var rpcCmd = &cobra.Command{
	Use:   "rpc",
	Short: "Manage RPC endpoints",
}

var rpcAddCmd = &cobra.Command{
	Use:   "add <chain> <url>",
	Short: "Add a custom RPC URL for a chain",
	Long: `Add a custom RPC URL for a chain. Custom URLs are tried before the
built-in ones.

URLs that embed an API key should be added with --secret: the URL is kept
in the OS keychain and config.json only records a reference to it.

Examples:
  w3probe rpc add base https://mainnet.base.org --check
  w3probe rpc add ethereum https://eth-mainnet.g.alchemy.com/v2/KEY --secret`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		chainName, url := strings.ToLower(args[0]), strings.TrimSpace(args[1])
		reg := chain.NewRegistry()
		if _, err := reg.GetByName(chainName); err != nil {
			return fmt.Errorf("unknown chain %q", chainName)
		}
		if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
			return fmt.Errorf("RPC URL must be http(s), got %q", url)
		}

		if rpcCheck {
			ctx, cancel := context.WithTimeout(cmdContext(cmd), config.RPCSelectTimeout)
			ep, err := rpc.HealthCheck(ctx, url, 0)
			cancel()
			if err != nil || !ep.Healthy {
				return fmt.Errorf("RPC %s is not healthy: %v", maskURL(url, rpcSecret), err)
			}
			fmt.Println(ui.Success(fmt.Sprintf("healthy · %dms · block %d", ep.Latency.Milliseconds(), ep.BlockNumber)))
		}

		if rpcSecret {
			store, err := keychain()
			if err != nil {
				return err
			}
			ref, err := store.Put(chainName, url)
			if err != nil {
				return err
			}
			if err := cfg.AddSecretRPC(chainName, ref); err != nil {
				return err
			}
			if err := cfg.Save(); err != nil {
				return err
			}
			fmt.Println(ui.Success(fmt.Sprintf("Added secret RPC for %s as %s", ui.ChainName(chainName), ref)))
			return nil
		}

		if err := cfg.AddRPC(chainName, url); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Added RPC for %s: %s", ui.ChainName(chainName), url)))
		return nil
	},
}

var rpcRemoveCmd = &cobra.Command{
	Use:   "remove <chain> <url-or-ref>",
	Short: "Remove a custom or secret RPC",
	Long: `Remove a custom RPC URL, or a secret RPC given either by its
reference (as shown by rpc list) or by its URL. Removing a secret RPC also
deletes it from the keychain.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		chainName, target := strings.ToLower(args[0]), strings.TrimSpace(args[1])

		if slices.Contains(cfg.GetRPCs(chainName), target) {
			if err := cfg.RemoveRPC(chainName, target); err != nil {
				return err
			}
			if err := cfg.Save(); err != nil {
				return err
			}
			fmt.Println(ui.Success(fmt.Sprintf("Removed RPC for %s: %s", chainName, target)))
			return nil
		}

		ref := target
		if !slices.Contains(cfg.GetSecretRPCs(chainName), ref) {
			ref = secrets.Ref(chainName, target)
		}
		if !slices.Contains(cfg.GetSecretRPCs(chainName), ref) {
			return fmt.Errorf("no custom or secret RPC %q for chain %s", target, chainName)
		}

		if !rpcYes && !ui.Confirm(os.Stdin, os.Stdout, fmt.Sprintf("Delete secret RPC %s from the keychain?", ref)) {
			fmt.Println(ui.Meta("aborted"))
			return nil
		}

		store, err := keychain()
		if err != nil {
			return err
		}
		if err := store.Delete(ref); err != nil {
			return err
		}
		if err := cfg.RemoveSecretRPC(chainName, ref); err != nil {
			return err
		}
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("Removed secret RPC %s for %s", ref, chainName)))
		return nil
	},
}

var rpcListCmd = &cobra.Command{
	Use:   "list <chain>",
	Short: "List all RPCs for a chain",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := chain.NewRegistry()
		c, err := reg.GetByName(args[0])
		if err != nil {
			return fmt.Errorf("unknown chain %q", args[0])
		}

		fmt.Printf("%s\n", ui.StyleTitle.Render(fmt.Sprintf("RPCs for %s", c.DisplayName)))

		fmt.Println(ui.StyleHeader.Render("Built-in RPCs:"))
		for _, r := range c.MainnetRPCs {
			fmt.Printf("  %s %s\n", ui.Meta("(mainnet)"), r)
		}
		for _, r := range c.TestnetRPCs {
			fmt.Printf("  %s %s\n", ui.Meta("(testnet)"), r)
		}

		if custom := cfg.GetRPCs(c.Name); len(custom) > 0 {
			fmt.Println(ui.StyleHeader.Render("Custom RPCs:"))
			for _, r := range custom {
				fmt.Printf("  %s\n", r)
			}
		}
		if refs := cfg.GetSecretRPCs(c.Name); len(refs) > 0 {
			fmt.Println(ui.StyleHeader.Render("Secret RPCs (keychain):"))
			for _, r := range refs {
				fmt.Printf("  %s\n", r)
			}
		}
		return nil
	},
}

var rpcBenchmarkCmd = &cobra.Command{
	Use:   "benchmark <chain>",
	Short: "Benchmark all RPCs for a chain",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := chain.NewRegistry()
		c, err := reg.GetByName(args[0])
		if err != nil {
			return fmt.Errorf("unknown chain %q", args[0])
		}

		urls, err := rpcSource(reg, cfg, keychain)(c.ID(cfg.NetworkMode))
		if err != nil {
			return err
		}
		secret := make(map[string]bool)
		if refs := cfg.GetSecretRPCs(c.Name); len(refs) > 0 {
			if store, err := keychain(); err == nil {
				resolved, _ := secrets.Resolve(store, refs)
				for _, u := range resolved {
					secret[u] = true
				}
			}
		}

		fmt.Printf("%s\n\n", ui.StyleTitle.Render(fmt.Sprintf("Benchmarking %s RPCs...", c.Label(cfg.NetworkMode))))

		ctx, cancel := context.WithTimeout(cmdContext(cmd), config.RPCSelectTimeout+5*time.Second)
		defer cancel()

		results := rpc.BenchmarkEVM(ctx, urls)

		t := ui.NewTable([]ui.Column{
			{Title: "RPC URL", Width: 48},
			{Title: "Latency"},
			{Title: "Block #"},
			{Title: "Status"},
		})
		for _, r := range results {
			status := ui.Success("healthy")
			latency := fmt.Sprintf("%dms", r.Latency.Milliseconds())
			block := fmt.Sprintf("%d", r.BlockNumber)
			if r.Err != nil {
				status = ui.Err("down")
				latency = "—"
				block = "—"
			}
			t.AddRow(ui.Row{maskURL(r.URL, secret[r.URL]), latency, block, status})
		}
		fmt.Println(t.Render())

		algo, err := rpc.ParseAlgorithm(cfg.RPCAlgorithm)
		if err != nil {
			return err
		}
		best, err := rpc.NewPicker(algo).Pick(rpc.ResultsToEndpoints(results))
		if err != nil {
			return err
		}
		fmt.Println(ui.Hint(fmt.Sprintf("%s picks %s", algo, maskURL(best.URL, secret[best.URL]))))
		return nil
	},
}

var rpcAlgorithmCmd = &cobra.Command{
	Use:   "algorithm",
	Short: "Show or set the RPC selection algorithm",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(ui.Val(cfg.RPCAlgorithm))
		return nil
	},
}

var rpcAlgorithmSetCmd = &cobra.Command{
	Use:   "set <fastest|round-robin|failover>",
	Short: "Set the RPC selection algorithm",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		algo, err := rpc.ParseAlgorithm(args[0])
		if err != nil {
			return err
		}
		cfg.RPCAlgorithm = string(algo)
		if err := cfg.Save(); err != nil {
			return err
		}
		fmt.Println(ui.Success(fmt.Sprintf("RPC algorithm set to %q", algo)))
		return nil
	},
}

// maskURL hides everything after the host of a secret URL.
func maskURL(url string, secret bool) string {
	if !secret {
		return url
	}
	scheme, rest, ok := strings.Cut(url, "://")
	if !ok {
		return "****"
	}
	host, _, _ := strings.Cut(rest, "/")
	return scheme + "://" + host + "/****"
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func init() {
	rpcAddCmd.Flags().BoolVar(&rpcSecret, "secret", false, "store the URL in the OS keychain")
	rpcAddCmd.Flags().BoolVar(&rpcCheck, "check", false, "health-check the URL before adding it")
	rpcRemoveCmd.Flags().BoolVarP(&rpcYes, "yes", "y", false, "do not ask before deleting a secret RPC")

	rpcAlgorithmCmd.AddCommand(rpcAlgorithmSetCmd)
	rpcCmd.AddCommand(rpcAddCmd, rpcRemoveCmd, rpcListCmd, rpcBenchmarkCmd, rpcAlgorithmCmd)
}
