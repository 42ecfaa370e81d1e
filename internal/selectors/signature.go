package selectors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// ErrInvalidSignature is returned for text that is not a function signature.
var ErrInvalidSignature = errors.New("invalid function signature")

// typeAliases maps Solidity shorthands to their canonical ABI names.
var typeAliases = map[string]string{
	"uint":   "uint256",
	"int":    "int256",
	"byte":   "bytes1",
	"fixed":  "fixed128x18",
	"ufixed": "ufixed128x18",
}

// SelectorOf returns the 4-byte selector of a function signature, e.g.
// "balanceOf(address owner)" yields "0x70a08231". Raw selectors are
// returned lower-cased.
func SelectorOf(signature string) (string, error) {
	if IsSelector(signature) {
		return strings.ToLower(strings.TrimSpace(signature)), nil
	}
	canonical, err := Normalize(signature)
	if err != nil {
		return "", err
	}
	return hexutil.Encode(crypto.Keccak256([]byte(canonical))[:4]), nil
}

// IsSelector reports whether s is 0x followed by exactly 8 hex digits.
func IsSelector(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) != 10 || !strings.HasPrefix(strings.ToLower(s), "0x") {
		return false
	}
	for _, c := range s[2:] {
		if !isHexDigit(c) {
			return false
		}
	}
	return true
}

// Normalize reduces a human-written signature to its canonical ABI form:
//
//	"function transfer(address to, uint amount) external returns (bool)"
//	  -> "transfer(address,uint256)"
//
// Parameter names, data locations, indexed, mutability and returns clauses
// are dropped. Tuples are canonicalised recursively.
func Normalize(signature string) (string, error) {
	s := strings.TrimSpace(signature)
	if rest, ok := strings.CutPrefix(s, "function "); ok {
		s = strings.TrimSpace(rest)
	}

	open := strings.IndexByte(s, '(')
	if open < 0 {
		return "", fmt.Errorf("%w: %q has no parameter list", ErrInvalidSignature, signature)
	}
	name := strings.TrimSpace(s[:open])
	if !isIdentifier(name) {
		return "", fmt.Errorf("%w: %q has no function name", ErrInvalidSignature, signature)
	}
	end := matchParen(s, open)
	if end < 0 {
		return "", fmt.Errorf("%w: unbalanced parentheses in %q", ErrInvalidSignature, signature)
	}
	// Anything after the list ("view returns (uint8)") must still balance.
	if rest := s[end+1:]; strings.Count(rest, "(") != strings.Count(rest, ")") {
		return "", fmt.Errorf("%w: unbalanced parentheses in %q", ErrInvalidSignature, signature)
	}

	params, err := canonicalList(s[open+1 : end])
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidSignature, signature, err)
	}
	return name + "(" + params + ")", nil
}

// canonicalList canonicalises a comma separated parameter list.
func canonicalList(list string) (string, error) {
	if strings.TrimSpace(list) == "" {
		return "", nil
	}
	parts, err := splitTopLevel(list)
	if err != nil {
		return "", err
	}
	types := make([]string, len(parts))
	for i, p := range parts {
		t, err := canonicalParam(p)
		if err != nil {
			return "", err
		}
		types[i] = t
	}
	return strings.Join(types, ","), nil
}

// canonicalParam keeps only the type of one parameter declaration.
func canonicalParam(p string) (string, error) {
	p = strings.TrimSpace(p)
	if p == "" {
		return "", errors.New("empty parameter")
	}
	p = strings.TrimPrefix(p, "tuple")

	if p[0] == '(' {
		end := matchParen(p, 0)
		if end < 0 {
			return "", errors.New("unbalanced tuple")
		}
		inner, err := canonicalList(p[1:end])
		if err != nil {
			return "", err
		}
		return "(" + inner + ")" + arraySuffix(p[end+1:]), nil
	}

	typ := strings.Fields(p)[0]
	base, dims, _ := strings.Cut(typ, "[")
	if alias, ok := typeAliases[base]; ok {
		base = alias
	}
	if !isIdentifier(base) {
		return "", fmt.Errorf("bad type %q", typ)
	}
	if dims != "" {
		return base + "[" + dims, nil
	}
	return base, nil
}

// arraySuffix returns the leading "[..]" groups of s.
func arraySuffix(s string) string {
	var b strings.Builder
	for strings.HasPrefix(s, "[") {
		end := strings.IndexByte(s, ']')
		if end < 0 {
			break
		}
		b.WriteString(s[:end+1])
		s = s[end+1:]
	}
	return b.String()
}

// splitTopLevel splits on commas that are not nested inside parentheses.
func splitTopLevel(s string) ([]string, error) {
	var (
		parts []string
		depth int
		start int
	)
	for i, c := range s {
		switch c {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return nil, errors.New("unbalanced parentheses")
			}
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, errors.New("unbalanced parentheses")
	}
	return append(parts, s[start:]), nil
}

// matchParen returns the index of the ')' closing the '(' at open, or -1.
func matchParen(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, c := range s {
		switch {
		case c == '_' || c == '$':
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

func isHexDigit(c rune) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
