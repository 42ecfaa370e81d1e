// Package extensions detects which standard interfaces a deployed contract
// implements by checking its dispatcher for the interface's selectors.
package extensions

import (
	"context"
	"strings"

	"github.com/Mohsinsiddi/w3probe/internal/chain"
	"golang.org/x/sync/errgroup"
)

// Match says how many of an extension's methods must be present.
type Match int

const (
	// MatchAll requires every method.
	MatchAll Match = iota
	// MatchAny requires at least one method.
	MatchAny
)

func (m Match) String() string {
	if m == MatchAny {
		return "any"
	}
	return "all"
}

// Extension is a named set of function signatures.
type Extension struct {
	Name        string
	Description string
	Methods     []string
	Match       Match
}

// Checker answers per-method presence. *selectors.Resolver satisfies it.
type Checker interface {
	HasSelector(ctx context.Context, ref chain.ContractRef, method string) bool
}

// Result is the outcome of probing one extension.
type Result struct {
	Extension Extension
	Supported bool
}

// Detector probes contracts for extensions.
type Detector struct {
	checker Checker
}

// NewDetector creates a Detector backed by checker.
func NewDetector(checker Checker) *Detector {
	return &Detector{checker: checker}
}

// Supports reports whether ref implements ext.
func (d *Detector) Supports(ctx context.Context, ref chain.ContractRef, ext Extension) bool {
	conds := make([]Condition, len(ext.Methods))
	for i, m := range ext.Methods {
		conds[i] = func(ctx context.Context) (bool, error) {
			return d.checker.HasSelector(ctx, ref, m), nil
		}
	}
	if ext.Match == MatchAny {
		return OneOf(ctx, conds...)
	}
	return AllOf(ctx, conds...)
}

// DetectAll probes every extension concurrently. Results keep the order of exts.
func (d *Detector) DetectAll(ctx context.Context, ref chain.ContractRef, exts []Extension) []Result {
	results := make([]Result, len(exts))
	var g errgroup.Group
	for i, ext := range exts {
		g.Go(func() error {
			results[i] = Result{Extension: ext, Supported: d.Supports(ctx, ref, ext)}
			return nil
		})
	}
	g.Wait() //nolint:errcheck // probes never fail
	return results
}

// Find returns the built-in extension with the given name, ignoring case.
func Find(name string) (Extension, bool) {
	for _, ext := range builtin {
		if strings.EqualFold(ext.Name, strings.TrimSpace(name)) {
			return ext, true
		}
	}
	return Extension{}, false
}

// Builtin returns the known extensions in display order.
func Builtin() []Extension {
	out := make([]Extension, len(builtin))
	copy(out, builtin)
	return out
}

var builtin = []Extension{
	{
		Name:        "ERC20",
		Description: "fungible token",
		Methods: []string{
			"totalSupply()",
			"balanceOf(address)",
			"transfer(address,uint256)",
			"transferFrom(address,address,uint256)",
			"approve(address,uint256)",
			"allowance(address,address)",
		},
	},
	{
		Name:        "ERC721",
		Description: "non-fungible token",
		Methods: []string{
			"balanceOf(address)",
			"ownerOf(uint256)",
			"safeTransferFrom(address,address,uint256)",
			"transferFrom(address,address,uint256)",
			"setApprovalForAll(address,bool)",
			"getApproved(uint256)",
			"isApprovedForAll(address,address)",
		},
	},
	{
		Name:        "ERC721Enumerable",
		Description: "on-chain token enumeration",
		Methods: []string{
			"totalSupply()",
			"tokenByIndex(uint256)",
			"tokenOfOwnerByIndex(address,uint256)",
		},
	},
	{
		Name:        "ERC1155",
		Description: "multi token",
		Methods: []string{
			"balanceOf(address,uint256)",
			"balanceOfBatch(address[],uint256[])",
			"setApprovalForAll(address,bool)",
			"isApprovedForAll(address,address)",
			"safeTransferFrom(address,address,uint256,uint256,bytes)",
			"safeBatchTransferFrom(address,address,uint256[],uint256[],bytes)",
		},
	},
	{
		Name:        "NFTMetadata",
		Description: "token metadata URI",
		Methods: []string{
			"tokenURI(uint256)",
			"uri(uint256)",
			"punkImageSvg(uint16)",
		},
		Match: MatchAny,
	},
	{
		Name:        "ERC165",
		Description: "interface detection",
		Methods:     []string{"supportsInterface(bytes4)"},
	},
	{
		Name:        "Ownable",
		Description: "single owner",
		Methods:     []string{"owner()"},
	},
	{
		Name:        "AccessControl",
		Description: "role based permissions",
		Methods: []string{
			"hasRole(bytes32,address)",
			"getRoleAdmin(bytes32)",
			"grantRole(bytes32,address)",
			"revokeRole(bytes32,address)",
			"renounceRole(bytes32,address)",
		},
	},
	{
		Name:        "ERC2981",
		Description: "NFT royalties",
		Methods:     []string{"royaltyInfo(uint256,uint256)"},
	},
	{
		Name:        "ERC4626",
		Description: "tokenized vault",
		Methods: []string{
			"asset()",
			"totalAssets()",
			"convertToShares(uint256)",
			"convertToAssets(uint256)",
			"deposit(uint256,address)",
			"withdraw(uint256,address,address)",
			"redeem(uint256,address,address)",
		},
	},
	{
		Name:        "Multicall",
		Description: "batched calls",
		Methods: []string{
			"multicall(bytes[])",
			"aggregate((address,bytes)[])",
			"aggregate3((address,bool,bytes)[])",
		},
		Match: MatchAny,
	},
	{
		Name:        "Permit",
		Description: "EIP-2612 signed approvals",
		Methods: []string{
			"permit(address,address,uint256,uint256,uint8,bytes32,bytes32)",
			"nonces(address)",
			"DOMAIN_SEPARATOR()",
		},
	},
	{
		Name:        "UUPS",
		Description: "upgradeable implementation",
		Methods: []string{
			"proxiableUUID()",
			"upgradeToAndCall(address,bytes)",
		},
	},
}
