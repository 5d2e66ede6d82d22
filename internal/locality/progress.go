package locality

import (
	"errors"
	"math/big"

	"github.com/shopspring/decimal"
)

// ErrCompactedExceedsTotal is returned when a region reports more compacted
// keys than it has compacting keys.
var ErrCompactedExceedsTotal = errors.New("current compacted KVs exceed total compacting KVs")

var hundred = decimal.NewFromInt(100)

// CompactionProgress returns (total-current)*100/total rounded half-up to two
// decimal places. total must be non-zero.
func CompactionProgress(total, current uint64) (decimal.Decimal, error) {
	if total == 0 {
		panic("locality: CompactionProgress called with zero total compacting KVs")
	}
	if current > total {
		return decimal.Zero, ErrCompactedExceedsTotal
	}

	remaining := fromUint64(total - current)
	// DivRound rounds half away from zero, which is half-up for non-negative values
	return remaining.Mul(hundred).DivRound(fromUint64(total), 2), nil
}

// FormatProgress renders a percentage with exactly two fractional digits and a trailing %
func FormatProgress(p decimal.Decimal) string {
	return p.StringFixed(2) + "%"
}

func fromUint64(v uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(v), 0)
}
