package repository

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/jackc/pgx/v5/pgtype"
)

var errNullCents = errors.New("cents column is NULL")

// numericToInt64 reads a numeric(15,0) cents column. pgx may hand back the
// value with a non-zero exponent (1e3 for 1000); any fractional part is
// truncated, which cannot happen for a scale-0 column.
func numericToInt64(n pgtype.Numeric) (int64, error) {
	if !n.Valid {
		return 0, errNullCents
	}
	if n.NaN || n.InfinityModifier != pgtype.Finite {
		return 0, fmt.Errorf("cents column is not a finite number")
	}

	v := new(big.Int).Set(n.Int)
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(abs32(n.Exp))), nil)
	if n.Exp > 0 {
		v.Mul(v, scale)
	} else if n.Exp < 0 {
		v.Quo(v, scale)
	}
	if !v.IsInt64() {
		return 0, fmt.Errorf("cents value %s overflows int64", v)
	}
	return v.Int64(), nil
}

// int64ToNumeric writes a cents amount to a numeric(15,0) column.
func int64ToNumeric(cents int64) pgtype.Numeric {
	return pgtype.Numeric{Int: big.NewInt(cents), Valid: true}
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
