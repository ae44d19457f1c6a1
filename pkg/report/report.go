package report

import (
	"fmt"
	"strconv"

	"zerox-swap/pkg/types"
)

// BpsToPercent converts a basis-points string to a percentage with two
// decimal digits ("6000" -> "60.00"). Malformed input is a loud error:
// silently misreporting a fee or tax figure is worse than failing.
func BpsToPercent(bps string) (string, error) {
	n, err := strconv.ParseInt(bps, 10, 64)
	if err != nil {
		return "", fmt.Errorf("invalid basis points value %q: %w", bps, err)
	}
	if n < 0 {
		return "", fmt.Errorf("negative basis points value %q", bps)
	}

	return fmt.Sprintf("%d.%02d", n/100, n%100), nil
}

// SourceShare is one liquidity source's portion of the route.
type SourceShare struct {
	Source  string
	Percent string
}

// LiquidityBreakdown summarizes how a route splits across liquidity sources.
type LiquidityBreakdown struct {
	Count  int
	Shares []SourceShare
}

// BuildLiquidityBreakdown computes each fill's percentage share, preserving
// the route order. An empty fill list yields zero sources and no shares.
func BuildLiquidityBreakdown(fills []types.Fill) (*LiquidityBreakdown, error) {
	breakdown := &LiquidityBreakdown{Count: len(fills)}

	for _, fill := range fills {
		percent, err := BpsToPercent(fill.ProportionBps)
		if err != nil {
			return nil, fmt.Errorf("fill %s: %w", fill.Source, err)
		}
		breakdown.Shares = append(breakdown.Shares, SourceShare{
			Source:  fill.Source,
			Percent: percent,
		})
	}

	return breakdown, nil
}

// TaxLine is one non-zero transfer tax entry.
type TaxLine struct {
	Token     string
	Direction string
	Percent   string
}

// BuildTaxBreakdown converts token tax metadata to percentage lines. Only
// strictly positive taxes produce a line; a missing side is skipped.
func BuildTaxBreakdown(meta *types.TokenMetadata) ([]TaxLine, error) {
	if meta == nil {
		return nil, nil
	}

	var lines []TaxLine

	appendSide := func(token string, tax *types.TokenTax) error {
		if tax == nil {
			return nil
		}
		for _, entry := range []struct {
			direction string
			bps       string
		}{
			{"Buy Tax", tax.BuyTaxBps},
			{"Sell Tax", tax.SellTaxBps},
		} {
			n, err := strconv.ParseInt(entry.bps, 10, 64)
			if err != nil {
				return fmt.Errorf("%s %s: invalid basis points value %q: %w", token, entry.direction, entry.bps, err)
			}
			if n <= 0 {
				continue
			}
			percent, err := BpsToPercent(entry.bps)
			if err != nil {
				return fmt.Errorf("%s %s: %w", token, entry.direction, err)
			}
			lines = append(lines, TaxLine{Token: token, Direction: entry.direction, Percent: percent})
		}
		return nil
	}

	if err := appendSide("Buy Token", meta.BuyToken); err != nil {
		return nil, err
	}
	if err := appendSide("Sell Token", meta.SellToken); err != nil {
		return nil, err
	}

	return lines, nil
}
