package selectors

// knownSignatures seeds the reverse lookup used when printing selectors.
var knownSignatures = []string{
	// ERC-20 / ERC-2612
	"name()",
	"symbol()",
	"decimals()",
	"totalSupply()",
	"balanceOf(address)",
	"transfer(address,uint256)",
	"transferFrom(address,address,uint256)",
	"approve(address,uint256)",
	"allowance(address,address)",
	"increaseAllowance(address,uint256)",
	"decreaseAllowance(address,uint256)",
	"permit(address,address,uint256,uint256,uint8,bytes32,bytes32)",
	"nonces(address)",
	"DOMAIN_SEPARATOR()",
	"mint(address,uint256)",
	"burn(uint256)",
	"burnFrom(address,uint256)",

	// ERC-721
	"ownerOf(uint256)",
	"safeTransferFrom(address,address,uint256)",
	"safeTransferFrom(address,address,uint256,bytes)",
	"setApprovalForAll(address,bool)",
	"isApprovedForAll(address,address)",
	"getApproved(uint256)",
	"tokenURI(uint256)",
	"tokenByIndex(uint256)",
	"tokenOfOwnerByIndex(address,uint256)",

	// ERC-1155
	"balanceOf(address,uint256)",
	"balanceOfBatch(address[],uint256[])",
	"safeTransferFrom(address,address,uint256,uint256,bytes)",
	"safeBatchTransferFrom(address,address,uint256[],uint256[],bytes)",
	"uri(uint256)",

	// ERC-165 / ERC-2981 / ERC-4626
	"supportsInterface(bytes4)",
	"royaltyInfo(uint256,uint256)",
	"asset()",
	"totalAssets()",
	"deposit(uint256,address)",
	"withdraw(uint256,address,address)",
	"redeem(uint256,address,address)",
	"convertToShares(uint256)",
	"convertToAssets(uint256)",

	// Ownable / AccessControl
	"owner()",
	"transferOwnership(address)",
	"renounceOwnership()",
	"hasRole(bytes32,address)",
	"getRoleAdmin(bytes32)",
	"grantRole(bytes32,address)",
	"revokeRole(bytes32,address)",
	"renounceRole(bytes32,address)",

	// Proxies and upgrades
	"implementation()",
	"upgradeTo(address)",
	"upgradeToAndCall(address,bytes)",
	"proxiableUUID()",

	// Multicall
	"multicall(bytes[])",
	"aggregate((address,bytes)[])",
	"aggregate3((address,bool,bytes)[])",

	// Misc
	"punkImageSvg(uint16)",
	"contractURI()",
	"paused()",
	"pause()",
	"unpause()",
	"deposit()",
	"withdraw(uint256)",
	"claim()",
	"stake(uint256)",
	"getReward()",
	"exit()",

	// Uniswap V2/V3 routers
	"swapExactETHForTokens(uint256,address[],address,uint256)",
	"swapExactTokensForETH(uint256,uint256,address[],address,uint256)",
	"swapExactTokensForTokens(uint256,uint256,address[],address,uint256)",
	"swapETHForExactTokens(uint256,address[],address,uint256)",
	"swapTokensForExactTokens(uint256,uint256,address[],address,uint256)",
	"addLiquidity(address,address,uint256,uint256,uint256,uint256,address,uint256)",
	"addLiquidityETH(address,uint256,uint256,uint256,address,uint256)",
	"removeLiquidity(address,address,uint256,uint256,uint256,address,uint256)",
	"removeLiquidityETH(address,uint256,uint256,uint256,address,uint256)",
	"exactInputSingle((address,address,uint24,address,uint256,uint256,uint256,uint160))",
	"multicall(uint256,bytes[])",
}

var knownBySelector = func() map[string]string {
	m := make(map[string]string, len(knownSignatures))
	for _, sig := range knownSignatures {
		sel, err := SelectorOf(sig)
		if err != nil {
			panic(err)
		}
		if _, dup := m[sel]; !dup {
			m[sel] = sig
		}
	}
	return m
}()

// Lookup returns the canonical signature of a well-known selector.
func Lookup(selector string) (string, bool) {
	sig, ok := knownBySelector[selector]
	return sig, ok
}
