package indicator

import (
	"testing"

	"github.com/sharavanan171081/AI-Stock-App/internal/model"
)

func series(n int) []model.PricePoint {
	out := make([]model.PricePoint, n)
	for i := range out {
		// gentle zig-zag uptrend so every indicator has a defined value
		c := 100 + float64(i) + float64(i%3)
		out[i] = bar(i, c)
	}
	return out
}

func TestCompute_LengthAndOrder(t *testing.T) {
	in := series(40)
	rows := Compute(in)
	if len(rows) != len(in) {
		t.Fatalf("len = %d, want %d", len(rows), len(in))
	}
	for i := range rows {
		if !rows[i].Date.Equal(in[i].Date) || rows[i].Close != in[i].Close {
			t.Fatalf("row %d out of order", i)
		}
		if v, ok := rows[i].Get(model.FieldClose); !ok || v != in[i].Close {
			t.Fatalf("row %d Close field not populated", i)
		}
	}
}

func TestCompute_Empty(t *testing.T) {
	if rows := Compute(nil); len(rows) != 0 {
		t.Fatalf("expected no rows, got %d", len(rows))
	}
}

func TestCompute_WarmupNulls(t *testing.T) {
	rows := Compute(series(40))

	firstDefined := map[model.Field]int{
		model.FieldSMA5:         4,
		model.FieldSMA10:        9,
		model.FieldSMA20:        19,
		model.FieldRSI14:        13,
		model.FieldMACD:         25,
		model.FieldMACDSignal:   33,
		model.FieldBBHigh:       19,
		model.FieldBBLow:        19,
		model.FieldATR14:        13,
		model.FieldRet1d:        1,
		model.FieldRet5d:        5,
		model.FieldVolChange:    1,
		model.FieldRollingVol10: 10,
	}
	for f, first := range firstDefined {
		for i := range rows {
			_, ok := rows[i].Get(f)
			if ok != (i >= first) {
				t.Errorf("%s row %d: defined=%v, want first defined at %d", f, i, ok, first)
				break
			}
		}
	}
}

func TestCompute_ZeroVolumeChangeIsNull(t *testing.T) {
	in := series(3)
	in[0].Volume = 0
	rows := Compute(in)
	if _, ok := rows[1].Get(model.FieldVolChange); ok {
		t.Error("Vol_Change after zero volume should be null")
	}
	if v, ok := rows[2].Get(model.FieldVolChange); !ok || v != 0 {
		t.Errorf("Vol_Change row 2 = %v,%v, want 0,true", v, ok)
	}
}

type panicky struct{ n int }

func (p *panicky) Name() string { return "PANIC" }
func (p *panicky) Update(model.PricePoint) {
	p.n++
	if p.n == 10 {
		panic("boom")
	}
}
func (p *panicky) Value() float64 { return 1 }
func (p *panicky) Ready() bool    { return true }
func (p *panicky) Reset()         { p.n = 0 }

func TestCompute_FailureDegradesOnlyThatColumn(t *testing.T) {
	e := NewEngine(DefaultConfigs())
	e.bind = func(cfg IndicatorConfig) binding {
		if cfg.Type == "RSI" {
			ind := &panicky{}
			return binding{ind: ind, outputs: []output{{
				field: cfg.Out[0],
				read:  func() (float64, bool) { return ind.Value(), ind.Ready() },
			}}}
		}
		return createBinding(cfg)
	}

	rows := e.Compute(series(30))
	for i := range rows {
		if _, ok := rows[i].Get(model.FieldRSI14); ok {
			t.Fatalf("row %d: RSI should be null after failure", i)
		}
	}
	if !rows[29].Has(model.FieldSMA20, model.FieldATR14, model.FieldRet5d) {
		t.Error("other columns should be unaffected")
	}
}

func TestIndicatorConfig_Label(t *testing.T) {
	cases := map[string]IndicatorConfig{
		"SMA_20":  {Type: "SMA", Period: 20},
		"RSI_14":  {Type: "RSI", Period: 14},
		"RVOL_10": {Type: "RVOL", Period: 10},
		"RET_0":   {Type: "RET"},
	}
	for want, cfg := range cases {
		if got := cfg.Label(); got != want {
			t.Errorf("Label() = %q, want %q", got, want)
		}
	}
}

func TestValidateConfigs(t *testing.T) {
	if err := ValidateConfigs(DefaultConfigs()); err != nil {
		t.Fatalf("default configs invalid: %v", err)
	}
	if err := ValidateConfigs(BacktestConfigs()); err != nil {
		t.Fatalf("backtest configs invalid: %v", err)
	}

	bad := [][]IndicatorConfig{
		{{Type: "WMA", Period: 5, Out: []model.Field{model.FieldSMA5}}},
		{{Type: "SMA", Period: 0, Out: []model.Field{model.FieldSMA5}}},
		{{Type: "BB", Period: 20, K: 2, Out: []model.Field{model.FieldBBHigh}}},
		{{Type: "SMA", Period: 5, Out: []model.Field{model.FieldClose}}},
		{{Type: "MACD", Period: 12, Fast: 26, Signal: 9, Out: []model.Field{model.FieldMACD, model.FieldMACDSignal}}},
		{
			{Type: "SMA", Period: 5, Out: []model.Field{model.FieldSMA5}},
			{Type: "SMA", Period: 6, Out: []model.Field{model.FieldSMA5}},
		},
	}
	for i, cfgs := range bad {
		if err := ValidateConfigs(cfgs); err == nil {
			t.Errorf("case %d: expected error", i)
		}
	}
}
