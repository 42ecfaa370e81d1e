// Package nft resolves where an NFT's media lives, trying every common
// on-chain URI method at once instead of guessing the token standard.
package nft

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/Mohsinsiddi/w3probe/internal/chain"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// ErrNoTokenURI is returned when neither tokenURI nor uri answers.
var ErrNoTokenURI = errors.New("could not get the URI for tokenId")

// DefaultGateway rewrites ipfs:// URIs.
const DefaultGateway = "https://ipfs.io/ipfs/"

// Caller executes read-only contract calls. *chain.EVMClient satisfies it.
type Caller interface {
	CallContract(ctx context.Context, to common.Address, data []byte) ([]byte, error)
}

// Dialer returns the Caller for a chain.
type Dialer func(ctx context.Context, chainID int64) (Caller, error)

// Client resolves NFT media and metadata.
type Client struct {
	dial    Dialer
	gateway string
	http    *http.Client
	log     zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithGateway sets the IPFS gateway prefix, e.g. "https://ipfs.io/ipfs/".
func WithGateway(gateway string) Option {
	return func(c *Client) {
		if gateway != "" && !strings.HasSuffix(gateway, "/") {
			gateway += "/"
		}
		if gateway != "" {
			c.gateway = gateway
		}
	}
}

// WithHTTPClient replaces the client used for metadata downloads.
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

// WithLogger sets the client's logger.
func WithLogger(l zerolog.Logger) Option { return func(c *Client) { c.log = l } }

// NewClient creates a Client that reaches chains through dial.
func NewClient(dial Dialer, opts ...Option) *Client {
	c := &Client{
		dial:    dial,
		gateway: DefaultGateway,
		http:    &http.Client{Timeout: 15 * time.Second},
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Media returns the media URL of token tokenID in contract ref.
//
// tokenURI, uri and punkImageSvg are called concurrently. An on-chain
// data:image/ answer from punkImageSvg wins. Otherwise the metadata behind
// tokenURI (or uri) is fetched and overrideField, when set, must name a
// string field. Without it animation_url is preferred over image.
func (c *Client) Media(ctx context.Context, ref chain.ContractRef, tokenID *big.Int, overrideField string) (string, error) {
	uris, err := c.URIs(ctx, ref, tokenID)
	if err != nil {
		return "", err
	}

	if strings.HasPrefix(uris.PunkImage, "data:image/") {
		start := strings.IndexByte(uris.PunkImage, ',') + 1
		return uris.PunkImage[:start] + encodeURIComponent(uris.PunkImage[start:]), nil
	}

	uri := uris.TokenURI
	if uri == "" {
		uri = uris.URI
	}
	if uri == "" {
		return "", fmt.Errorf("%w: %s. Make sure the contract has the proper method to fetch it", ErrNoTokenURI, tokenID)
	}

	meta, err := c.FetchMetadata(ctx, tokenID, uri)
	if err != nil {
		return "", err
	}

	if overrideField != "" {
		v, ok := meta.String(overrideField)
		if !ok {
			return "", fmt.Errorf("invalid value for %s - expected a string", overrideField)
		}
		return v, nil
	}
	if v, _ := meta.String("animation_url"); v != "" {
		return v, nil
	}
	v, _ := meta.String("image")
	return v, nil
}

// URIs holds the raw answers of the three media methods; a method that
// reverted or is missing leaves its field empty.
type URIs struct {
	TokenURI  string
	URI       string
	PunkImage string
}

// URIs calls tokenURI, uri and punkImageSvg concurrently.
func (c *Client) URIs(ctx context.Context, ref chain.ContractRef, tokenID *big.Int) (URIs, error) {
	if tokenID == nil || tokenID.Sign() < 0 {
		return URIs{}, fmt.Errorf("invalid token id %v", tokenID)
	}
	caller, err := c.dial(ctx, ref.ChainID)
	if err != nil {
		return URIs{}, err
	}

	var out URIs
	var g errgroup.Group
	g.Go(func() error {
		out.TokenURI = c.callString(ctx, caller, ref, "tokenURI", tokenID)
		return nil
	})
	g.Go(func() error {
		out.URI = c.callString(ctx, caller, ref, "uri", tokenID)
		return nil
	})
	if tokenID.IsUint64() && tokenID.Uint64() <= math.MaxUint16 {
		g.Go(func() error {
			out.PunkImage = c.callString(ctx, caller, ref, "punkImageSvg", uint16(tokenID.Uint64()))
			return nil
		})
	}
	g.Wait() //nolint:errcheck // failed calls map to ""
	return out, nil
}

// callString calls a string-returning view method, mapping every failure to "".
func (c *Client) callString(ctx context.Context, caller Caller, ref chain.ContractRef, method string, args ...interface{}) string {
	data, err := mediaABI.Pack(method, args...)
	if err != nil {
		c.log.Debug().Err(err).Str("method", method).Msg("packing call")
		return ""
	}
	out, err := caller.CallContract(ctx, ref.Address, data)
	if err != nil {
		c.log.Debug().Err(err).Str("contract", ref.Key()).Str("method", method).Msg("call failed")
		return ""
	}
	values, err := mediaABI.Unpack(method, out)
	if err != nil || len(values) == 0 {
		return ""
	}
	s, _ := values[0].(string)
	return s
}

// encodeURIComponent escapes everything except A-Z a-z 0-9 - _ . ! ~ * ' ( ).
func encodeURIComponent(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9',
			strings.IndexByte("-_.!~*'()", ch) >= 0:
			b.WriteByte(ch)
		default:
			b.WriteByte('%')
			b.WriteByte(hex[ch>>4])
			b.WriteByte(hex[ch&0x0f])
		}
	}
	return b.String()
}
