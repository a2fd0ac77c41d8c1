package substrate

import (
	"context"

	"github.com/centrifuge/go-substrate-rpc-client/v4/types"

	"github.com/pezkuwichain/pezkuwi-pool-client/chain"
	poolerrors "github.com/pezkuwichain/pezkuwi-pool-client/errors"
	"github.com/pezkuwichain/pezkuwi-pool-client/pool"
)

// Storage rows as SCALE-encoded by the ValidatorPool pallet.

type memberRow struct {
	Account  types.AccountID
	Category types.U8
}

type performanceRow struct {
	BlocksProduced  types.U64
	BlocksMissed    types.U64
	EraPoints       types.U64
	LastActiveEra   types.U32
	ReputationScore types.U8
}

type activeSetRow struct {
	EraIndex      types.U32
	Stake         []types.AccountID
	Parliamentary []types.AccountID
	Merit         []types.AccountID
}

// readStorage fetches one storage value on conn. Absent values leave target
// untouched and report found=false.
func readStorage(conn *connection, target interface{}, item string, args ...[]byte) (bool, error) {
	key, err := types.CreateStorageKey(conn.meta, palletName, item, args...)
	if err != nil {
		return false, err
	}
	return conn.api.RPC.State.GetStorageLatest(key, target)
}

// CurrentEra returns the chain's active era index. Absent storage reads as
// era zero.
func (c *Client) CurrentEra(ctx context.Context) (uint32, error) {
	var era types.U32
	err := c.call(ctx, "current_era", func(conn *connection) error {
		_, err := readStorage(conn, &era, "CurrentEra")
		return err
	})
	return uint32(era), err
}

// EraLength returns the rotation cadence in blocks.
func (c *Client) EraLength(ctx context.Context) (uint32, error) {
	var length types.U32
	err := c.call(ctx, "era_length", func(conn *connection) error {
		_, err := readStorage(conn, &length, "EraLength")
		return err
	})
	return uint32(length), err
}

// EraStartBlock returns the first block of the active era.
func (c *Client) EraStartBlock(ctx context.Context) (uint64, error) {
	var start types.U64
	err := c.call(ctx, "era_start_block", func(conn *connection) error {
		_, err := readStorage(conn, &start, "EraStartBlock")
		return err
	})
	return uint64(start), err
}

// CurrentHeight returns the best known block height.
func (c *Client) CurrentHeight(ctx context.Context) (uint64, error) {
	var height uint64
	err := c.call(ctx, "current_height", func(conn *connection) error {
		header, err := conn.api.RPC.Chain.GetHeaderLatest()
		if err != nil {
			return err
		}
		height = uint64(header.Number)
		return nil
	})
	return height, err
}

// PoolMembers lists every registered validator with its category. A chain
// byte outside the closed category set fails the read rather than being
// silently dropped.
func (c *Client) PoolMembers(ctx context.Context) ([]chain.MemberEntry, error) {
	var rows []memberRow
	err := c.call(ctx, "pool_members", func(conn *connection) error {
		rows = nil
		_, err := readStorage(conn, &rows, "Members")
		return err
	})
	if err != nil {
		return nil, err
	}

	entries := make([]chain.MemberEntry, 0, len(rows))
	for _, row := range rows {
		category := pool.Category(row.Category)
		if !category.Valid() {
			return nil, poolerrors.ErrInvalidCategory.Wrapf(
				"chain reported category %d for %s", uint8(row.Category), row.Account.ToHexString())
		}
		entries = append(entries, chain.MemberEntry{
			Address:  row.Account.ToHexString(),
			Category: category,
		})
	}
	return entries, nil
}

// PerformanceOf returns addr's counters, found=false when the pallet holds
// no record.
func (c *Client) PerformanceOf(ctx context.Context, addr string) (pool.PerformanceRecord, bool, error) {
	id, err := accountIDFromHex(addr)
	if err != nil {
		return pool.PerformanceRecord{}, false, err
	}

	var row performanceRow
	var found bool
	err = c.call(ctx, "performance_of", func(conn *connection) error {
		var err error
		found, err = readStorage(conn, &row, "Performance", id.ToBytes())
		return err
	})
	if err != nil || !found {
		return pool.PerformanceRecord{}, false, err
	}

	return pool.PerformanceRecord{
		BlocksProduced:  uint64(row.BlocksProduced),
		BlocksMissed:    uint64(row.BlocksMissed),
		EraPoints:       uint64(row.EraPoints),
		LastActiveEra:   uint32(row.LastActiveEra),
		ReputationScore: uint8(row.ReputationScore),
	}, true, nil
}

// CurrentValidatorSet returns the active selection, found=false when the
// pallet has not published one.
func (c *Client) CurrentValidatorSet(ctx context.Context) (pool.ValidatorSet, bool, error) {
	var row activeSetRow
	var found bool
	err := c.call(ctx, "current_validator_set", func(conn *connection) error {
		var err error
		found, err = readStorage(conn, &row, "ActiveSet")
		return err
	})
	if err != nil || !found {
		return pool.ValidatorSet{}, false, err
	}

	return pool.ValidatorSet{
		EraIndex:      uint32(row.EraIndex),
		Stake:         hexAddresses(row.Stake),
		Parliamentary: hexAddresses(row.Parliamentary),
		Merit:         hexAddresses(row.Merit),
	}, true, nil
}

// SelectionHistoryOf returns the eras addr was selected in, ascending.
func (c *Client) SelectionHistoryOf(ctx context.Context, addr string) ([]uint32, error) {
	id, err := accountIDFromHex(addr)
	if err != nil {
		return nil, err
	}

	var rows []types.U32
	err = c.call(ctx, "selection_history_of", func(conn *connection) error {
		rows = nil
		_, err := readStorage(conn, &rows, "SelectionHistory", id.ToBytes())
		return err
	})
	if err != nil {
		return nil, err
	}

	eras := make([]uint32, len(rows))
	for i, row := range rows {
		eras[i] = uint32(row)
	}
	return eras, nil
}

func hexAddresses(ids []types.AccountID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.ToHexString()
	}
	return out
}
