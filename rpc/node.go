package rpc

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/dz0nda/quartz-tezos-contracts/micheline"
	"github.com/dz0nda/quartz-tezos-contracts/tezos"
	"github.com/pkg/errors"
)

func (c *Client) GetHeader(ctx context.Context, id BlockID) (*BlockHeader, error) {
	var h BlockHeader
	if err := c.Get(ctx, c.blockPath(id, "header"), &h); err != nil {
		return nil, err
	}
	return &h, nil
}

func (c *Client) GetHead(ctx context.Context) (*BlockHeader, error) {
	return c.GetHeader(ctx, Head)
}

func (c *Client) GetBlock(ctx context.Context, id BlockID) (*Block, error) {
	var b Block
	if err := c.Get(ctx, c.chainPath("blocks/%s", id), &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (c *Client) GetChainID(ctx context.Context) (tezos.ChainID, error) {
	var id tezos.ChainID
	err := c.Get(ctx, c.chainPath("chain_id"), &id)
	return id, err
}

func (c *Client) GetConstants(ctx context.Context) (*Constants, error) {
	var cst Constants
	if err := c.Get(ctx, c.blockPath(Head, "context/constants"), &cst); err != nil {
		return nil, err
	}
	return &cst, nil
}

func (c *Client) contractPath(addr tezos.Address, what string) string {
	return c.blockPath(Head, "context/contracts/%s/%s", addr, what)
}

func (c *Client) GetBalance(ctx context.Context, addr tezos.Address) (tezos.Tez, error) {
	var v Int64
	if err := c.Get(ctx, c.contractPath(addr, "balance"), &v); err != nil {
		return 0, err
	}
	return tezos.Tez(v), nil
}

func (c *Client) GetCounter(ctx context.Context, addr tezos.Address) (int64, error) {
	var v Int64
	if err := c.Get(ctx, c.contractPath(addr, "counter"), &v); err != nil {
		return 0, err
	}
	return int64(v), nil
}

// GetManagerKey returns the revealed key of an implicit account, or ok ==
// false when the key has not been revealed yet.
func (c *Client) GetManagerKey(ctx context.Context, addr tezos.Address) (key tezos.Key, ok bool, err error) {
	var s *string
	if err = c.Get(ctx, c.contractPath(addr, "manager_key"), &s); err != nil {
		return tezos.InvalidKey, false, err
	}
	if s == nil {
		return tezos.InvalidKey, false, nil
	}
	key, err = tezos.ParseKey(*s)
	return key, err == nil, err
}

func (c *Client) GetStorage(ctx context.Context, addr tezos.Address) (micheline.Prim, error) {
	var p micheline.Prim
	if err := c.Get(ctx, c.contractPath(addr, "storage"), &p); err != nil {
		return micheline.InvalidPrim, err
	}
	return p, nil
}

func (c *Client) GetScript(ctx context.Context, addr tezos.Address) (*Script, error) {
	var s Script
	if err := c.Get(ctx, c.contractPath(addr, "script"), &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// GetBigMapValue returns the value stored under the key with the given
// expression hash. A missing key matches ErrNotFound.
func (c *Client) GetBigMapValue(ctx context.Context, id int64, key tezos.ExprHash) (micheline.Prim, error) {
	var p micheline.Prim
	if err := c.Get(ctx, c.blockPath(Head, "context/big_maps/%d/%s", id, key), &p); err != nil {
		return micheline.InvalidPrim, err
	}
	return p, nil
}

// RunOperation simulates op without checking its signature and returns the
// contents with their metadata.
func (c *Client) RunOperation(ctx context.Context, chainID tezos.ChainID, op Operation) ([]Content, error) {
	var res struct {
		Contents []Content `json:"contents"`
	}
	req := runOperationRequest{Operation: op, ChainID: chainID.String()}
	if err := c.Post(ctx, c.blockPath(Head, "helpers/scripts/run_operation"), req, &res); err != nil {
		return nil, err
	}
	return res.Contents, nil
}

// RunView executes a callback view and returns the value passed to the
// callback.
func (c *Client) RunView(ctx context.Context, req RunViewRequest) (micheline.Prim, error) {
	if req.UnparsingMode == "" {
		req.UnparsingMode = "Readable"
	}
	var res runViewResponse
	if err := c.Post(ctx, c.blockPath(Head, "helpers/scripts/run_view"), req, &res); err != nil {
		return micheline.InvalidPrim, err
	}
	return res.Data, nil
}

// ForgeOperation returns the binary form of contents under branch.
func (c *Client) ForgeOperation(ctx context.Context, branch tezos.BlockHash, contents []Content) ([]byte, error) {
	var forged string
	req := forgeRequest{Branch: branch, Contents: contents}
	if err := c.Post(ctx, c.blockPath(Head, "helpers/forge/operations"), req, &forged); err != nil {
		return nil, err
	}
	b, err := hex.DecodeString(forged)
	if err != nil {
		return nil, errors.Wrap(ErrDecode, "forged operation is not hex")
	}
	return b, nil
}

// Inject broadcasts a signed operation.
func (c *Client) Inject(ctx context.Context, signed []byte) (tezos.OperationHash, error) {
	var h tezos.OperationHash
	path := fmt.Sprintf("injection/operation?chain=%s", c.Chain)
	err := c.Post(ctx, path, hex.EncodeToString(signed), &h)
	return h, err
}
