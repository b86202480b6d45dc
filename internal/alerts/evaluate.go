// Package alerts turns daily market bars into the named boolean alerts the
// regime classifier consumes.
package alerts

import (
	"time"

	"github.com/rs/zerolog/log"

	"RegimeWatch/internal/calculator"
	"RegimeWatch/internal/model"
)

// Symbols evaluated by Evaluate.
const (
	SymbolSPY  = "SPY"
	SymbolQQQ  = "QQQ"
	SymbolARKK = "ARKK"
	SymbolVIX  = "VIX"
	SymbolHYG  = "HYG"
	SymbolIEF  = "IEF"
)

const (
	spyMAPeriod = 200
	qqqMAPeriod = 100
)

// Evaluate computes the alert set from bars dated on or before cutoff.
// An indicator without enough history leaves its alerts out of the set.
func Evaluate(data model.MarketData, cutoff time.Time) model.AlertSet {
	set := model.AlertSet{}

	if bars := data.Until(SymbolSPY, cutoff); len(bars) >= spyMAPeriod {
		if last, ma, err := calculator.LastCloseVsMA(bars, spyMAPeriod); err == nil {
			set[model.AlertSPYBelow200MA] = last < ma
			set[model.AlertSPYAbove200MA] = last > ma
		}
	} else {
		skipped(SymbolSPY, len(bars), cutoff)
	}

	if bars := data.Until(SymbolQQQ, cutoff); len(bars) >= qqqMAPeriod {
		if last, ma, err := calculator.LastCloseVsMA(bars, qqqMAPeriod); err == nil {
			set[model.AlertQQQBelow100MA] = last < ma
		}
		rangeAlerts(set, bars, model.AlertQQQOffHigh, -12, model.AlertQQQOffLow, 15)
	} else {
		skipped(SymbolQQQ, len(bars), cutoff)
	}

	rangeAlerts(set, data.Until(SymbolARKK, cutoff), model.AlertARKKOffHigh, -15, model.AlertARKKOffLow, 20)
	rangeAlerts(set, data.Until(SymbolHYG, cutoff), model.AlertHYGOffHigh, -7, model.AlertHYGOffLow, 7)
	rangeAlerts(set, data.Until(SymbolIEF, cutoff), model.AlertIEFOffHigh, -3, model.AlertIEFOffLow, 5)

	if vix, err := calculator.LastClose(data.Until(SymbolVIX, cutoff)); err == nil {
		set[model.AlertVIXAbove25] = vix > 25
		set[model.AlertVIXAbove30] = vix > 30
		set[model.AlertVIXBelow20] = vix < 20
		set[model.AlertVIXBelow18] = vix < 18
	} else {
		skipped(SymbolVIX, 0, cutoff)
	}

	return set
}

// rangeAlerts sets the drawdown alert when the last close is at least
// -highPct below the rolling high, and the rally alert when it is at least
// lowPct above the rolling low.
func rangeAlerts(set model.AlertSet, bars []model.OHLCV, offHigh string, highPct float64, offLow string, lowPct float64) {
	if pct, err := calculator.PctFromHigh(bars, calculator.RangeWindow); err == nil {
		set[offHigh] = pct <= highPct
	} else {
		log.Debug().Err(err).Str("alert", offHigh).Msg("alert not evaluated")
	}
	if pct, err := calculator.PctFromLow(bars, calculator.RangeWindow); err == nil {
		set[offLow] = pct >= lowPct
	} else {
		log.Debug().Err(err).Str("alert", offLow).Msg("alert not evaluated")
	}
}

func skipped(symbol string, bars int, cutoff time.Time) {
	log.Debug().Str("symbol", symbol).Int("bars", bars).Str("cutoff", cutoff.Format(model.DateLayout)).
		Msg("insufficient data, alerts left unset")
}
