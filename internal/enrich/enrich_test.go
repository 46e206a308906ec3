package enrich

import (
	"math"
	"testing"

	"chartfeed/internal/model"
)

func series(values ...float64) []model.PricePoint {
	pts := make([]model.PricePoint, len(values))
	for i, v := range values {
		pts[i] = model.PricePoint{Date: "d" + itoa(i+1), Value: v}
	}
	return pts
}

func constant(n int, v float64) []model.PricePoint {
	vals := make([]float64, n)
	for i := range vals {
		vals[i] = v
	}
	return series(vals...)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	buf := [20]byte{}
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

func TestEnrich_Empty(t *testing.T) {
	if out := Enrich(nil); len(out) != 0 {
		t.Fatalf("expected empty output for nil input, got %d points", len(out))
	}
	if out := Enrich([]model.PricePoint{}); len(out) != 0 {
		t.Fatalf("expected empty output for empty input, got %d points", len(out))
	}
}

func TestEnrich_ShortSeries(t *testing.T) {
	// Below both thresholds: values pass through, indicators stay absent.
	out := Enrich(series(100, 102, 101))
	if len(out) != 3 {
		t.Fatalf("expected 3 points, got %d", len(out))
	}
	want := []float64{100, 102, 101}
	for i, p := range out {
		if p.Value != want[i] {
			t.Errorf("point %d: value got %v, want %v", i, p.Value, want[i])
		}
		if p.SMA != nil {
			t.Errorf("point %d: expected absent sma, got %v", i, *p.SMA)
		}
		if p.RSI != nil {
			t.Errorf("point %d: expected absent rsi, got %v", i, *p.RSI)
		}
	}
}

func TestEnrich_SMAThresholds(t *testing.T) {
	vals := make([]float64, 25)
	for i := range vals {
		vals[i] = float64(100 + i)
	}
	out := Enrich(series(vals...))

	for i := 0; i < SMAPeriod-1; i++ {
		if out[i].SMA != nil {
			t.Errorf("point %d: expected absent sma before the 20th point", i)
		}
	}

	// SMA at index 19 is the mean of values 0..19
	sum := 0.0
	for i := 0; i < SMAPeriod; i++ {
		sum += vals[i]
	}
	want := sum / SMAPeriod
	if out[19].SMA == nil {
		t.Fatal("point 19: expected sma present")
	}
	if math.Abs(*out[19].SMA-want) > 1e-12 {
		t.Errorf("point 19: sma got %v, want %v", *out[19].SMA, want)
	}

	for i := SMAPeriod - 1; i < len(out); i++ {
		if out[i].SMA == nil {
			t.Errorf("point %d: expected sma present", i)
		}
	}
}

func TestEnrich_RSIThresholds(t *testing.T) {
	vals := make([]float64, 16)
	for i := range vals {
		vals[i] = float64(100 + i)
	}
	out := Enrich(series(vals...))

	for i := 0; i < RSIPeriod; i++ {
		if out[i].RSI != nil {
			t.Errorf("point %d: expected absent rsi before the 14th transition", i)
		}
	}
	if out[14].RSI == nil {
		t.Fatal("point 14: expected rsi present")
	}
	if out[15].RSI == nil {
		t.Fatal("point 15: expected rsi present")
	}
}

func TestEnrich_RSIBalancedSeries(t *testing.T) {
	// 7 unit gains then 7 unit losses: avgGain == avgLoss == 0.5, rs=1, rsi=50.
	vals := []float64{100, 101, 102, 103, 104, 105, 106, 107, 106, 105, 104, 103, 102, 101, 100}
	out := Enrich(series(vals...))
	if out[14].RSI == nil {
		t.Fatal("point 14: expected rsi present")
	}
	if math.Abs(*out[14].RSI-50.0) > 1e-12 {
		t.Errorf("point 14: rsi got %v, want 50", *out[14].RSI)
	}
}

func TestEnrich_ConstantSeries(t *testing.T) {
	out := Enrich(constant(20, 50))

	if out[19].SMA == nil || *out[19].SMA != 50.0 {
		t.Errorf("point 19: sma got %v, want exactly 50", out[19].SMA)
	}

	// Zero losses invoke the rs=100 convention: rsi = 100 - 100/101,
	// just below 100 — never NaN, never exactly 100.
	want := 100.0 - 100.0/101.0
	for i := RSIPeriod; i < len(out); i++ {
		if out[i].RSI == nil {
			t.Fatalf("point %d: expected rsi present", i)
		}
		if math.Abs(*out[i].RSI-want) > 1e-12 {
			t.Errorf("point %d: rsi got %.10f, want %.10f", i, *out[i].RSI, want)
		}
	}
}

func TestEnrich_Determinism(t *testing.T) {
	vals := []float64{100, 103, 101, 99, 104, 108, 107, 105, 110, 112, 111, 109, 113, 115, 114, 116, 118, 117, 119, 121, 120, 122, 125, 124, 126}
	in := series(vals...)

	a := Enrich(in)
	b := Enrich(in)
	if len(a) != len(b) {
		t.Fatalf("length mismatch: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if !sameOpt(a[i].SMA, b[i].SMA) {
			t.Errorf("point %d: sma differs across runs", i)
		}
		if !sameOpt(a[i].RSI, b[i].RSI) {
			t.Errorf("point %d: rsi differs across runs", i)
		}
	}
}

func TestEnrich_InputNotMutated(t *testing.T) {
	in := series(100, 102, 101, 105, 104)
	in[0].Compare = map[string]float64{"SPY": 412.5}
	before := make([]model.PricePoint, len(in))
	copy(before, in)

	Enrich(in)

	for i := range in {
		if in[i].Date != before[i].Date || in[i].Value != before[i].Value {
			t.Fatalf("point %d: input mutated", i)
		}
	}
	if in[0].Compare["SPY"] != 412.5 {
		t.Fatal("comparison values mutated")
	}
}

func TestEnrich_ReEnrichIdempotent(t *testing.T) {
	vals := make([]float64, 40)
	v := 100.0
	for i := range vals {
		vals[i] = v
		if i%3 == 0 {
			v *= 1.004
		} else {
			v *= 0.998
		}
	}
	first := Enrich(series(vals...))

	// Re-enrich the raw values underlying the first pass
	raw := make([]model.PricePoint, len(first))
	for i, p := range first {
		raw[i] = p.PricePoint
	}
	second := Enrich(raw)

	for i := range first {
		if !sameOpt(first[i].SMA, second[i].SMA) {
			t.Errorf("point %d: sma not reproduced on re-enrichment", i)
		}
		if !sameOpt(first[i].RSI, second[i].RSI) {
			t.Errorf("point %d: rsi not reproduced on re-enrichment", i)
		}
	}
}

func TestEnrich_NaNPropagates(t *testing.T) {
	vals := make([]float64, 30)
	for i := range vals {
		vals[i] = float64(100 + i)
	}
	vals[5] = math.NaN()
	out := Enrich(series(vals...))

	// SMA windows containing index 5 become NaN; later windows recover.
	for i := SMAPeriod - 1; i <= 24; i++ {
		if out[i].SMA == nil || !math.IsNaN(*out[i].SMA) {
			t.Errorf("point %d: expected NaN sma (window covers the bad point)", i)
		}
	}
	for i := 25; i < len(out); i++ {
		if out[i].SMA == nil || math.IsNaN(*out[i].SMA) {
			t.Errorf("point %d: expected numeric sma after the bad point leaves the window", i)
		}
	}

	// The NaN delta enters the Wilder averages and never leaves.
	for i := RSIPeriod; i < len(out); i++ {
		if out[i].RSI == nil || !math.IsNaN(*out[i].RSI) {
			t.Errorf("point %d: expected NaN rsi", i)
		}
	}
}

func TestEnrich_CarriesCompare(t *testing.T) {
	in := series(100, 102)
	in[0].Compare = map[string]float64{"SPY": 412.5, "QQQ": 350}
	out := Enrich(in)
	if out[0].Compare["SPY"] != 412.5 || out[0].Compare["QQQ"] != 350 {
		t.Fatal("comparison values not carried into enriched output")
	}
	if out[1].Compare != nil {
		t.Fatal("unexpected comparison values on second point")
	}
}

func sameOpt(a, b *float64) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	if a == nil {
		return true
	}
	if math.IsNaN(*a) && math.IsNaN(*b) {
		return true
	}
	return *a == *b
}
