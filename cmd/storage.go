package cmd

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/Mohsinsiddi/w3probe/internal/proxy"
	"github.com/Mohsinsiddi/w3probe/internal/ui"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
)

var storageCmd = &cobra.Command{
	Use:   "storage <address> <slot>",
	Short: "Read a raw storage slot from a contract",
	Long: `Read the raw 32-byte value at a storage slot of a contract.

Slots are decimal numbers, 0x-prefixed hex, or one of the proxy slot names:
  implementation  EIP-1967 implementation slot
  beacon          EIP-1967 beacon slot
  legacy          OpenZeppelin (zeppelinos) implementation slot

The output shows the word as hex, as a decimal number and, when it looks
like one, as an address.

Examples:
  w3probe storage 0xContract 0
  w3probe storage 0xProxy implementation`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		slot, err := parseSlot(args[1])
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

		client, err := p.pool.Client(ctx, ref.ChainID)
		if err != nil {
			return err
		}

		spin := ui.NewSpinner(fmt.Sprintf("Reading storage on %s...", c.Label(cfg.NetworkMode)))
		spin.Start()
		value, err := client.GetStorageAt(ctx, ref.Address, slot)
		spin.Stop()
		if err != nil {
			return fmt.Errorf("reading storage: %w", err)
		}

		pairs := [][2]string{
			{"Contract", ui.Addr(ref.Address.Hex())},
			{"Slot", slot.Hex()},
			{"Network", c.Label(cfg.NetworkMode)},
			{"Raw (hex)", ui.Val(value.Hex())},
			{"Decimal", value.Big().String()},
		}
		if addr, ok := wordAddress(value); ok {
			pairs = append(pairs, [2]string{"As Address", ui.Addr(addr.Hex())})
		}
		if value == (common.Hash{}) {
			pairs = append(pairs, [2]string{"Note", ui.Meta("slot is empty (zero)")})
		}

		fmt.Println(ui.KeyValueBlock("Storage Read", pairs))
		return nil
	},
}

// parseSlot accepts a proxy slot name, a decimal number or 0x-prefixed hex.
func parseSlot(s string) (common.Hash, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "implementation", "eip1967":
		return proxy.ImplementationSlot, nil
	case "beacon":
		return proxy.BeaconSlot, nil
	case "legacy", "legacy-oz":
		return proxy.LegacyOZSlot, nil
	}

	n := new(big.Int)
	ok := false
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		_, ok = n.SetString(s[2:], 16)
	} else {
		_, ok = n.SetString(s, 10)
	}
	if !ok || n.Sign() < 0 || n.BitLen() > 256 {
		return common.Hash{}, fmt.Errorf("invalid slot %q, use decimal, 0x-prefixed hex or implementation/beacon/legacy", s)
	}
	return common.BigToHash(n), nil
}

// wordAddress reports the address held in a word with 12 leading zero bytes.
func wordAddress(w common.Hash) (common.Address, bool) {
	for _, b := range w[:12] {
		if b != 0 {
			return common.Address{}, false
		}
	}
	addr := common.BytesToAddress(w[12:])
	return addr, addr != (common.Address{})
}
