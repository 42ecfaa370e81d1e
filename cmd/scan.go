package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Mohsinsiddi/w3probe/internal/chain"
	"github.com/Mohsinsiddi/w3probe/internal/config"
	"github.com/Mohsinsiddi/w3probe/internal/extensions"
	"github.com/Mohsinsiddi/w3probe/internal/proxy"
	"github.com/Mohsinsiddi/w3probe/internal/ui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var scanPlain bool

var scanCmd = &cobra.Command{
	Use:   "scan <address>",
	Short: "Probe one address on every supported chain",
	Long: `Look up an address on every chain in the current network mode and
show, per chain, whether code is deployed there, which proxy pattern it
uses, how many selectors it dispatches and which extensions it supports.

Results stream in live. Press r to retry failed chains, q to quit.
Use --plain for a static table (e.g. when piping).

Examples:
  w3probe scan 0x4200000000000000000000000000000000000006
  w3probe scan 0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48 --testnet --plain`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, err := chain.ParseAddress(args[0])
		if err != nil {
			return err
		}
		p, err := newProber()
		if err != nil {
			return err
		}
		parent := cmdContext(cmd)
		if scanPlain {
			return runScanPlain(parent, p, addr)
		}
		return runScan(parent, p, addr)
	},
}

func runScan(ctx context.Context, p *prober, addr common.Address) error {
	mode := cfg.NetworkMode
	chains := p.reg.All()

	rows := make([]ui.ScanRow, len(chains))
	byName := make(map[string]chain.Chain, len(chains))
	for i, c := range chains {
		rows[i] = ui.ScanRow{
			ChainName:   c.Name,
			DisplayName: c.Label(mode),
			ChainID:     c.ID(mode),
			Status:      ui.ScanProbing,
		}
		byName[c.Name] = c
	}

	probeFn := func(chainName string) tea.Cmd {
		c := byName[chainName]
		return func() tea.Msg {
			return ui.ScanResultMsg(probeChain(ctx, p, c, addr))
		}
	}

	m := ui.NewScanModel(addr.Hex(), mode, rows, probeFn)
	prog := tea.NewProgram(m, tea.WithContext(ctx), tea.WithInput(os.Stdin), tea.WithOutput(os.Stdout))
	_, err := prog.Run()
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}

func runScanPlain(ctx context.Context, p *prober, addr common.Address) error {
	mode := cfg.NetworkMode
	chains := p.reg.All()
	results := make([]ui.ScanResult, len(chains))

	var g errgroup.Group
	g.SetLimit(8)
	for i, c := range chains {
		g.Go(func() error {
			results[i] = probeChain(ctx, p, c, addr)
			return nil
		})
	}
	g.Wait() //nolint:errcheck // probes report failures in their result

	t := ui.NewTable([]ui.Column{
		{Title: "Chain"},
		{Title: "Chain ID"},
		{Title: "Contract"},
		{Title: "Selectors"},
		{Title: "Extensions"},
	})
	found := 0
	for i, r := range results {
		c := chains[i]
		row := ui.Row{c.Label(mode), fmt.Sprintf("%d", c.ID(mode))}
		switch {
		case r.Err != nil:
			row = append(row, ui.Err("error"), "—", r.Err.Error())
		case r.NoCode:
			row = append(row, "no code", "—", "—")
		default:
			found++
			row = append(row, r.Kind, fmt.Sprintf("%d", r.Selectors), joinOrDash(r.Extensions))
		}
		t.AddRow(row)
	}
	fmt.Println(t.Render())
	fmt.Println(ui.Meta(fmt.Sprintf("%s deployed on %d of %d chains (%s)", ui.TruncateAddr(addr.Hex()), found, len(chains), mode)))
	return nil
}

// probeChain resolves the address on one chain: its selectors, the proxy
// kind recorded while fetching them, and the extensions they satisfy.
func probeChain(parent context.Context, p *prober, c chain.Chain, addr common.Address) ui.ScanResult {
	start := time.Now()
	ctx, cancel := context.WithTimeout(parent, config.ScanChainTimeout)
	defer cancel()

	ref := chain.ContractRef{ChainID: c.ID(cfg.NetworkMode), Address: addr}
	res := ui.ScanResult{ChainName: c.Name}

	// readSelectors fills the cache; DetectAll below answers from it.
	sels, impl, err := p.readSelectors(ctx, ref)
	res.Latency = time.Since(start)

	switch {
	case errors.Is(err, proxy.ErrNoCode):
		res.NoCode = true
		return res
	case err != nil:
		res.Err = err
		return res
	}

	res.Kind = string(impl.Kind)
	res.Selectors = len(sels)
	for _, r := range p.detector.DetectAll(ctx, ref, extensions.Builtin()) {
		if r.Supported {
			res.Extensions = append(res.Extensions, r.Extension.Name)
		}
	}
	return res
}

func joinOrDash(s []string) string {
	if len(s) == 0 {
		return "—"
	}
	return strings.Join(s, ", ")
}

func init() {
	scanCmd.Flags().BoolVar(&scanPlain, "plain", false, "print a static table instead of the live view")
}
