package nft

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"strings"
)

// maxMetadataSize caps a downloaded metadata document.
const maxMetadataSize = 4 << 20

// Metadata is a decoded token metadata document.
type Metadata map[string]interface{}

// String returns field as a string. ok is false when the field is missing
// or not a string.
func (m Metadata) String(field string) (string, bool) {
	s, ok := m[field].(string)
	return s, ok
}

// FetchMetadata loads the JSON document behind uri. ERC-1155 {id}
// placeholders are expanded to the 64-digit hex token id, ipfs:// and ar://
// are rewritten to HTTP gateways, and data: URIs are decoded in place.
func (c *Client) FetchMetadata(ctx context.Context, tokenID *big.Int, uri string) (Metadata, error) {
	uri = strings.TrimSpace(uri)
	if strings.Contains(uri, "{id}") {
		uri = strings.ReplaceAll(uri, "{id}", fmt.Sprintf("%064x", tokenID))
	}

	if raw, ok, err := decodeDataURI(uri); ok {
		if err != nil {
			return nil, err
		}
		return parseMetadata(raw)
	}

	target := c.ResolveScheme(uri)
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		return nil, fmt.Errorf("unsupported metadata URI %q", uri)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching metadata: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetching metadata: %s returned %s", target, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxMetadataSize))
	if err != nil {
		return nil, fmt.Errorf("reading metadata: %w", err)
	}
	return parseMetadata(body)
}

// ResolveScheme rewrites decentralised storage URIs to HTTP gateway URLs.
// Other URIs are returned unchanged.
func (c *Client) ResolveScheme(uri string) string {
	switch {
	case strings.HasPrefix(uri, "ipfs://"):
		path := strings.TrimPrefix(uri, "ipfs://")
		path = strings.TrimPrefix(path, "ipfs/")
		return c.gateway + path
	case strings.HasPrefix(uri, "ar://"):
		return "https://arweave.net/" + strings.TrimPrefix(uri, "ar://")
	default:
		return uri
	}
}

// decodeDataURI handles inline JSON. ok is false for anything else.
func decodeDataURI(uri string) (raw []byte, ok bool, err error) {
	const (
		b64   = "data:application/json;base64,"
		plain = "data:application/json,"
	)
	switch {
	case strings.HasPrefix(uri, b64):
		raw, err = base64.StdEncoding.DecodeString(uri[len(b64):])
		if err != nil {
			return nil, true, fmt.Errorf("decoding inline metadata: %w", err)
		}
		return raw, true, nil
	case strings.HasPrefix(uri, plain):
		body := uri[len(plain):]
		if unescaped, err := url.PathUnescape(body); err == nil {
			body = unescaped
		}
		return []byte(body), true, nil
	default:
		return nil, false, nil
	}
}

func parseMetadata(raw []byte) (Metadata, error) {
	var m Metadata
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parsing metadata: %w", err)
	}
	if m == nil {
		return nil, fmt.Errorf("parsing metadata: not a JSON object")
	}
	return m, nil
}
