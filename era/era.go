// Package era computes rotation timing from chain-reported era configuration.
//
// The chain rotates the active validator set every EraLength blocks. All
// values here are point-in-time reads; a State never advances on its own and
// crossing a boundary triggers no local mutation.
package era

// State captures the era configuration and chain height observed by a single
// hydration pass.
type State struct {
	EraIndex      uint32 `json:"era_index"`
	EraLength     uint32 `json:"era_length"`
	EraStartBlock uint64 `json:"era_start_block"`
	CurrentBlock  uint64 `json:"current_block"`
}

// Compute builds a State from the four chain-reported values.
func Compute(eraIndex, eraLength uint32, eraStartBlock, currentBlock uint64) State {
	return State{
		EraIndex:      eraIndex,
		EraLength:     eraLength,
		EraStartBlock: eraStartBlock,
		CurrentBlock:  currentBlock,
	}
}

// boundary is the first block of the next era.
func (s State) boundary() uint64 {
	return s.EraStartBlock + uint64(s.EraLength)
}

// BlocksRemaining returns the countdown to the next rotation boundary. It
// floors at zero: a locally observed height past the boundary means the view
// lags the chain's actual rotation, never a negative countdown.
func (s State) BlocksRemaining() uint64 {
	if s.CurrentBlock >= s.boundary() {
		return 0
	}
	return s.boundary() - s.CurrentBlock
}

// RotationCrossed reports whether the observed height has reached the
// rotation boundary of this era. Advisory only; callers use it to decide
// whether to re-poll.
func (s State) RotationCrossed() bool {
	return s.CurrentBlock >= s.boundary()
}

// Progress reports the fractional position inside the era, clamped to [0, 1].
func (s State) Progress() float64 {
	if s.EraLength == 0 {
		return 1
	}
	if s.CurrentBlock <= s.EraStartBlock {
		return 0
	}
	elapsed := s.CurrentBlock - s.EraStartBlock
	if elapsed >= uint64(s.EraLength) {
		return 1
	}
	return float64(elapsed) / float64(s.EraLength)
}
