// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

const (
	indexBits = 24
	indexMask = 1<<indexBits - 1
	blockMask = 1<<(63-indexBits) - 1
)

type sequence int64

func newSequence(blockNum uint64, index uint32) sequence {
	if blockNum&blockMask != blockNum {
		panic("block number too large")
	}
	if index&indexMask != index {
		panic("index too large")
	}
	return sequence(blockNum)<<indexBits | sequence(index)
}

func (s sequence) BlockNumber() uint64 {
	return uint64(s >> indexBits)
}

func (s sequence) Index() uint32 {
	return uint32(s & indexMask)
}

// SequenceBlock returns the block number encoded in an event sequence.
func SequenceBlock(seq int64) uint64 {
	return sequence(seq).BlockNumber()
}
