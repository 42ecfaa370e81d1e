package cmd

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/Mohsinsiddi/w3probe/internal/config"
	"github.com/Mohsinsiddi/w3probe/internal/ui"
	"github.com/spf13/cobra"
)

var (
	mediaField string
	mediaURIs  bool
)

var mediaCmd = &cobra.Command{
	Use:   "media <address> <tokenId>",
	Short: "Resolve the media URL of an NFT",
	Long: `Resolve an NFT's media. The token URI is read from tokenURI(uint256),
falling back to uri(uint256) (ERC-1155) and, for ids up to 65535, the
CryptoPunks punkImageSvg(uint16). The metadata JSON is fetched (ipfs://
and ar:// URIs go through the configured gateways) and its animation_url,
or image, or the field named by --field is printed.

Examples:
  w3probe media 0xBC4CA0EdA7647A8aB7C2061c2E118A18a936f13D 1
  w3probe media 0xBC4C...f13D 1 --field animation_url
  w3probe media 0xBC4C...f13D 1 --uris`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		tokenID, err := parseTokenID(args[1])
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

		parent := cmdContext(cmd)
		ctx, cancel := context.WithTimeout(parent, config.ProbeTimeout+config.MetadataTimeout)
		defer cancel()

		if mediaURIs {
			uris, err := p.media.URIs(ctx, ref, tokenID)
			if err != nil {
				return err
			}
			fmt.Println(ui.KeyValueBlock("Token URIs", [][2]string{
				{"Contract", ui.Addr(ref.Address.Hex())},
				{"Network", c.Label(cfg.NetworkMode)},
				{"Token", tokenID.String()},
				{"tokenURI", orDash(uris.TokenURI)},
				{"uri", orDash(uris.URI)},
				{"punkImageSvg", orDash(truncateURI(uris.PunkImage))},
			}))
			return nil
		}

		spin := ui.NewSpinner(fmt.Sprintf("Resolving token %s on %s...", tokenID, c.Label(cfg.NetworkMode)))
		spin.Start()
		url, err := p.media.Media(ctx, ref, tokenID, mediaField)
		spin.Stop()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), url)
		return nil
	},
}

// parseTokenID accepts a decimal or 0x-prefixed hex token id.
func parseTokenID(s string) (*big.Int, error) {
	n := new(big.Int)
	var ok bool
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		_, ok = n.SetString(s[2:], 16)
	} else {
		_, ok = n.SetString(s, 10)
	}
	if !ok || n.Sign() < 0 || n.BitLen() > 256 {
		return nil, fmt.Errorf("invalid token id %q", s)
	}
	return n, nil
}

func orDash(s string) string {
	if s == "" {
		return ui.Meta("—")
	}
	return s
}

// truncateURI keeps data: URIs readable in a key/value block.
func truncateURI(s string) string {
	if len(s) > 80 {
		return s[:77] + "..."
	}
	return s
}

func init() {
	mediaCmd.Flags().StringVar(&mediaField, "field", "", "metadata field to return (default: animation_url, then image)")
	mediaCmd.Flags().BoolVar(&mediaURIs, "uris", false, "show the raw token URIs instead of resolving media")
}
