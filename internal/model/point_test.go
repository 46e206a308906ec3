package model

import (
	"encoding/json"
	"math"
	"testing"
)

func fptr(v float64) *float64 { return &v }

func TestPricePoint_MarshalInline(t *testing.T) {
	p := PricePoint{
		Date:    "2026-02-25",
		Value:   101.5,
		Compare: map[string]float64{"SPY": 412.25, "QQQ": 350},
	}
	b, err := json.Marshal(p)
	if err != nil {
		t.Fatal(err)
	}
	// Comparison keys are inlined, sorted for determinism
	want := `{"date":"2026-02-25","value":101.5,"QQQ":350,"SPY":412.25}`
	if string(b) != want {
		t.Fatalf("marshal: got %s, want %s", b, want)
	}
}

func TestPricePoint_RoundTrip(t *testing.T) {
	in := PricePoint{Date: "d1", Value: 100, Compare: map[string]float64{"SPY": 412.5}}
	b, err := json.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	var out PricePoint
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatal(err)
	}
	if out.Date != in.Date || out.Value != in.Value || out.Compare["SPY"] != 412.5 {
		t.Fatalf("round trip mismatch: %+v", out)
	}
}

func TestPricePoint_UnmarshalMissingValue(t *testing.T) {
	var p PricePoint
	if err := json.Unmarshal([]byte(`{"date":"d1"}`), &p); err != nil {
		t.Fatal(err)
	}
	if !math.IsNaN(p.Value) {
		t.Fatalf("missing value should parse as NaN, got %v", p.Value)
	}
}

func TestPricePoint_UnmarshalNonNumericValue(t *testing.T) {
	var p PricePoint
	if err := json.Unmarshal([]byte(`{"date":"d1","value":"oops"}`), &p); err != nil {
		t.Fatal(err)
	}
	if !math.IsNaN(p.Value) {
		t.Fatalf("non-numeric value should parse as NaN, got %v", p.Value)
	}
}

func TestPricePoint_UnmarshalIgnoresNonNumericExtras(t *testing.T) {
	var p PricePoint
	raw := `{"date":"d1","value":100,"SPY":412.5,"note":"hello"}`
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatal(err)
	}
	if p.Compare["SPY"] != 412.5 {
		t.Fatal("numeric extra not captured as comparison value")
	}
	if _, ok := p.Compare["note"]; ok {
		t.Fatal("non-numeric extra leaked into comparison values")
	}
}

func TestEnrichedPoint_MarshalOmitsAbsentIndicators(t *testing.T) {
	e := EnrichedPoint{PricePoint: PricePoint{Date: "d1", Value: 100}}
	b, err := json.Marshal(e)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"date":"d1","value":100}`
	if string(b) != want {
		t.Fatalf("marshal: got %s, want %s", b, want)
	}
}

func TestEnrichedPoint_MarshalWithIndicators(t *testing.T) {
	e := EnrichedPoint{
		PricePoint: PricePoint{Date: "d1", Value: 100},
		SMA:        fptr(99.5),
		RSI:        fptr(50),
	}
	b, err := json.Marshal(e)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"date":"d1","value":100,"sma":99.5,"rsi":50}`
	if string(b) != want {
		t.Fatalf("marshal: got %s, want %s", b, want)
	}
}

func TestEnrichedPoint_RoundTrip(t *testing.T) {
	in := EnrichedPoint{
		PricePoint: PricePoint{Date: "d1", Value: 100, Compare: map[string]float64{"SPY": 400}},
		SMA:        fptr(101.25),
	}
	b, err := json.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	var out EnrichedPoint
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatal(err)
	}
	if out.SMA == nil || *out.SMA != 101.25 {
		t.Fatalf("sma: got %v", out.SMA)
	}
	if out.RSI != nil {
		t.Fatalf("rsi should stay absent, got %v", *out.RSI)
	}
	if out.Compare["SPY"] != 400 {
		t.Fatal("comparison value lost in round trip")
	}
}

func TestEnrichedPoint_NaNSerializesAsNull(t *testing.T) {
	e := EnrichedPoint{
		PricePoint: PricePoint{Date: "d1", Value: math.NaN()},
		RSI:        fptr(math.NaN()),
	}
	b, err := json.Marshal(e)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"date":"d1","value":null,"rsi":null}`
	if string(b) != want {
		t.Fatalf("marshal: got %s, want %s", b, want)
	}
}

func TestStatus_JSON(t *testing.T) {
	for st, name := range map[Status]string{
		StatusDisconnected: `"Disconnected"`,
		StatusConnecting:   `"Connecting"`,
		StatusConnected:    `"Connected"`,
	} {
		b, err := json.Marshal(st)
		if err != nil {
			t.Fatal(err)
		}
		if string(b) != name {
			t.Errorf("marshal %v: got %s, want %s", st, b, name)
		}
		var back Status
		if err := json.Unmarshal(b, &back); err != nil {
			t.Fatal(err)
		}
		if back != st {
			t.Errorf("round trip %v: got %v", st, back)
		}
	}
}
