package nft

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// The three ways an NFT contract can expose its media.
const mediaABIJSON = `[
	{"type":"function","name":"tokenURI","stateMutability":"view",
	 "inputs":[{"name":"tokenId","type":"uint256"}],
	 "outputs":[{"name":"","type":"string"}]},
	{"type":"function","name":"uri","stateMutability":"view",
	 "inputs":[{"name":"id","type":"uint256"}],
	 "outputs":[{"name":"","type":"string"}]},
	{"type":"function","name":"punkImageSvg","stateMutability":"view",
	 "inputs":[{"name":"index","type":"uint16"}],
	 "outputs":[{"name":"svg","type":"string"}]}
]`

var mediaABI = mustParseABI(mediaABIJSON)

func mustParseABI(s string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(s))
	if err != nil {
		panic(err)
	}
	return parsed
}
