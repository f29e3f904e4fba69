package allocation

import (
	"errors"
	"fmt"
	"math/big"
)

var (
	// ErrZeroPrice is returned for a missing or non-positive price.
	ErrZeroPrice = errors.New("price must be greater than zero")
	// ErrDecimals is returned when the secondary token has fewer decimals than the primary.
	ErrDecimals = errors.New("secondary decimals must be >= primary decimals")
	// ErrPercent is returned for a negative claim percentage.
	ErrPercent = errors.New("claim percent must not be negative")
)

var hundred = big.NewInt(100)

// Config describes the conversion between the primary and secondary tokens.
type Config struct {
	PrimaryDecimals   uint8
	SecondaryDecimals uint8
	// Price divides the contribution once it is scaled to secondary decimals.
	Price        *big.Int
	ClaimPercent int64
}

// Calculator derives secondary allocations from primary contributions.
type Calculator struct {
	scale   *big.Int
	price   *big.Int
	percent *big.Int
}

// NewCalculator validates cfg and builds a Calculator.
func NewCalculator(cfg Config) (*Calculator, error) {
	if cfg.Price == nil || cfg.Price.Sign() <= 0 {
		return nil, ErrZeroPrice
	}
	if cfg.SecondaryDecimals < cfg.PrimaryDecimals {
		return nil, fmt.Errorf("%w: %d < %d", ErrDecimals, cfg.SecondaryDecimals, cfg.PrimaryDecimals)
	}
	if cfg.ClaimPercent < 0 {
		return nil, ErrPercent
	}

	exp := int64(cfg.SecondaryDecimals - cfg.PrimaryDecimals)
	return &Calculator{
		scale:   new(big.Int).Exp(big.NewInt(10), big.NewInt(exp), nil),
		price:   new(big.Int).Set(cfg.Price),
		percent: big.NewInt(cfg.ClaimPercent),
	}, nil
}

// Derive returns ((amount * 10^(secondary-primary)) / price) * percent / 100.
// Each step truncates, so the order of operations is fixed.
func (c *Calculator) Derive(amount *big.Int) *big.Int {
	out := new(big.Int)
	if amount == nil {
		return out
	}
	out.Mul(amount, c.scale)
	out.Quo(out, c.price)
	out.Mul(out, c.percent)
	out.Quo(out, hundred)
	return out
}

// ParsePrice parses a positive integer price.
func ParsePrice(value string) (*big.Int, error) {
	price, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return nil, fmt.Errorf("invalid price: %q", value)
	}
	if price.Sign() <= 0 {
		return nil, ErrZeroPrice
	}
	return price, nil
}
