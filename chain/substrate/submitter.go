package substrate

import (
	"context"
	"fmt"

	"github.com/centrifuge/go-substrate-rpc-client/v4/types"

	"github.com/pezkuwichain/pezkuwi-pool-client/pool"
)

// Pallet calls carrying the three pool intents.
const (
	callJoinPool       = palletName + ".join_pool"
	callLeavePool      = palletName + ".leave_pool"
	callChangeCategory = palletName + ".change_category"
)

// SubmitJoin signs and submits a join intent. The returned reference is the
// extrinsic hash; confirmation is observed by later hydrations.
func (c *Client) SubmitJoin(ctx context.Context, addr string, category pool.Category) (string, error) {
	if err := c.ownsIdentity(addr); err != nil {
		return "", err
	}
	return c.submitCall(ctx, "submit_join", callJoinPool, types.NewU8(uint8(category)))
}

// SubmitLeave signs and submits a leave intent.
func (c *Client) SubmitLeave(ctx context.Context, addr string) (string, error) {
	if err := c.ownsIdentity(addr); err != nil {
		return "", err
	}
	return c.submitCall(ctx, "submit_leave", callLeavePool)
}

// SubmitRecategorize signs and submits a category change intent.
func (c *Client) SubmitRecategorize(ctx context.Context, addr string, category pool.Category) (string, error) {
	if err := c.ownsIdentity(addr); err != nil {
		return "", err
	}
	return c.submitCall(ctx, "submit_recategorize", callChangeCategory, types.NewU8(uint8(category)))
}

// submitCall builds, signs and submits one extrinsic. Extrinsics are
// immortal; the account nonce and runtime version are fetched fresh on every
// submission.
func (c *Client) submitCall(ctx context.Context, op, callName string, args ...interface{}) (string, error) {
	var ref string
	err := c.call(ctx, op, func(conn *connection) error {
		call, err := types.NewCall(conn.meta, callName, args...)
		if err != nil {
			return fmt.Errorf("failed to build call %s: %w", callName, err)
		}
		ext := types.NewExtrinsic(call)

		rv, err := conn.api.RPC.State.GetRuntimeVersionLatest()
		if err != nil {
			return fmt.Errorf("failed to fetch runtime version: %w", err)
		}

		accountKey, err := types.CreateStorageKey(conn.meta, "System", "Account", c.signer.PublicKey)
		if err != nil {
			return fmt.Errorf("failed to build account key: %w", err)
		}
		var accountInfo types.AccountInfo
		if _, err := conn.api.RPC.State.GetStorageLatest(accountKey, &accountInfo); err != nil {
			return fmt.Errorf("failed to fetch account nonce: %w", err)
		}

		opts := types.SignatureOptions{
			BlockHash:          conn.genesisHash,
			Era:                types.ExtrinsicEra{IsImmortalEra: true},
			GenesisHash:        conn.genesisHash,
			Nonce:              types.NewUCompactFromUInt(uint64(accountInfo.Nonce)),
			SpecVersion:        rv.SpecVersion,
			Tip:                types.NewUCompactFromUInt(0),
			TransactionVersion: rv.TransactionVersion,
		}
		if err := ext.Sign(*c.signer, opts); err != nil {
			return fmt.Errorf("failed to sign extrinsic: %w", err)
		}

		hash, err := conn.api.RPC.Author.SubmitExtrinsic(ext)
		if err != nil {
			return err
		}
		ref = hash.Hex()
		return nil
	})
	if err != nil {
		return "", err
	}

	c.logger.Info().
		Str("call", callName).
		Str("extrinsic", ref).
		Msg("submitted pool intent")
	return ref, nil
}
