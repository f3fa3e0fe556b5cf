package domain

import (
	"fmt"
	"strconv"

	"github.com/cockroachdb/apd/v3"
)

// moneyContext does bid arithmetic in decimal. 275 × 1.1034 = 303.435 must
// round to 303.44.
var moneyContext = func() *apd.Context {
	c := apd.BaseContext.WithPrecision(34)
	c.Rounding = apd.RoundHalfUp
	return c
}()

var hundred = apd.New(100, 0)

// MaxAmount bounds every rate, surcharge percentage and fee on a bid.
const MaxAmount = 1_000_000_000

// BidTotal computes round2(baseRate × (1 + fsc/100) + Σ accessorials) with
// half-up rounding on the cent. Negative or non-finite inputs count as zero;
// inputs above MaxAmount are an *ErrValidation.
func BidTotal(baseRate, fsc float64, fees AccessorialFees) (float64, error) {
	if err := checkAmount("baseRate", baseRate); err != nil {
		return 0, err
	}
	if err := checkAmount("fsc", fsc); err != nil {
		return 0, err
	}
	for _, k := range AccessorialKeys {
		if err := checkAmount("accessorials."+k, fees[k]); err != nil {
			return 0, err
		}
	}

	base, err := toDecimal(ClampAmount(baseRate))
	if err != nil {
		return 0, err
	}
	surcharge, err := toDecimal(ClampAmount(fsc))
	if err != nil {
		return 0, err
	}

	factor := new(apd.Decimal)
	if _, err := moneyContext.Quo(factor, surcharge, hundred); err != nil {
		return 0, fmt.Errorf("fsc ratio: %w", err)
	}
	if _, err := moneyContext.Add(factor, factor, apd.New(1, 0)); err != nil {
		return 0, fmt.Errorf("fsc factor: %w", err)
	}

	total := new(apd.Decimal)
	if _, err := moneyContext.Mul(total, base, factor); err != nil {
		return 0, fmt.Errorf("line haul: %w", err)
	}

	for _, k := range AccessorialKeys {
		fee, err := toDecimal(ClampAmount(fees[k]))
		if err != nil {
			return 0, err
		}
		if _, err := moneyContext.Add(total, total, fee); err != nil {
			return 0, fmt.Errorf("accessorial %s: %w", k, err)
		}
	}

	rounded := new(apd.Decimal)
	if _, err := moneyContext.Quantize(rounded, total, -2); err != nil {
		return 0, fmt.Errorf("round total: %w", err)
	}
	return rounded.Float64()
}

func checkAmount(field string, v float64) error {
	if ClampAmount(v) > MaxAmount {
		return &ErrValidation{Field: field, Message: fmt.Sprintf("must not exceed %d", MaxAmount)}
	}
	return nil
}

// toDecimal converts through the shortest decimal representation of f, so
// 10.34 becomes exactly 10.34 rather than its binary approximation.
func toDecimal(f float64) (*apd.Decimal, error) {
	d, _, err := apd.NewFromString(strconv.FormatFloat(f, 'f', -1, 64))
	if err != nil {
		return nil, fmt.Errorf("decimal %v: %w", f, err)
	}
	return d, nil
}
