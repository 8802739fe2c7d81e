package backtest

// exitRule closes a long position when hit returns true.
type exitRule struct {
	reason ExitReason
	hit    func(pos Position, b bar) bool
}

// exitRules are evaluated top to bottom; the first hit wins.
var exitRules = []exitRule{
	{StopLoss, func(pos Position, b bar) bool { return b.close <= pos.StopPrice }},
	{TakeProfit, func(pos Position, b bar) bool { return b.close >= pos.TakeProfit }},
	{TrendBreak, func(_ Position, b bar) bool { return b.close < b.sma || b.rsi < 45 }},
}

func evaluateExit(rules []exitRule, pos Position, b bar) ExitReason {
	for _, r := range rules {
		if r.hit(pos, b) {
			return r.reason
		}
	}
	return NoExit
}
