// Package model defines the data types shared across the chartfeed pipeline.
package model

import (
	"encoding/json"
	"math"
	"sort"
)

// TimeFormat is the timestamp layout used for generated points. The fraction
// is fixed-width (unlike RFC3339Nano) so timestamps sort lexically.
const TimeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// PricePoint is a single observation in a price series: a sortable timestamp
// string, the primary price, and optional comparison-series values keyed by
// symbol. Within one series points are strictly ordered by Date ascending.
type PricePoint struct {
	Date    string
	Value   float64
	Compare map[string]float64
}

// MarshalJSON inlines comparison values as extra named numeric fields, so a
// point with Compare{"SPY": 412.5} serializes as
//
//	{"date":"...","value":101.2,"SPY":412.5}
//
// which is the shape chart clients consume.
func (p PricePoint) MarshalJSON() ([]byte, error) {
	buf := make([]byte, 0, 64+24*len(p.Compare))
	buf = append(buf, `{"date":`...)
	b, err := json.Marshal(p.Date)
	if err != nil {
		return nil, err
	}
	buf = append(buf, b...)
	buf = append(buf, `,"value":`...)
	buf = appendFloat(buf, p.Value)

	// Stable key order for deterministic output
	keys := make([]string, 0, len(p.Compare))
	for k := range p.Compare {
		if k == "date" || k == "value" {
			continue // reserved field names
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		buf = append(buf, ',')
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf = append(buf, kb...)
		buf = append(buf, ':')
		buf = appendFloat(buf, p.Compare[k])
	}
	buf = append(buf, '}')
	return buf, nil
}

// UnmarshalJSON accepts the inline wire shape. A missing or non-numeric
// "value" becomes NaN rather than an error — the engine propagates it, the
// caller filters if it wants strict validation. Extra numeric fields become
// comparison values; extra non-numeric fields are ignored.
func (p *PricePoint) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	p.Date = ""
	p.Value = math.NaN()
	p.Compare = nil

	for k, v := range raw {
		switch k {
		case "date":
			var s string
			if err := json.Unmarshal(v, &s); err == nil {
				p.Date = s
			}
		case "value":
			var f float64
			if err := json.Unmarshal(v, &f); err == nil {
				p.Value = f
			}
		default:
			var f float64
			if err := json.Unmarshal(v, &f); err != nil {
				continue
			}
			if p.Compare == nil {
				p.Compare = make(map[string]float64, len(raw)-2)
			}
			p.Compare[k] = f
		}
	}
	return nil
}

// CloneCompare returns a copy of the comparison map (nil stays nil).
func (p PricePoint) CloneCompare() map[string]float64 {
	if p.Compare == nil {
		return nil
	}
	cp := make(map[string]float64, len(p.Compare))
	for k, v := range p.Compare {
		cp[k] = v
	}
	return cp
}

// EnrichedPoint is a PricePoint annotated with derived indicator values.
// SMA and RSI are nil until enough history has accumulated — absent, not zero.
type EnrichedPoint struct {
	PricePoint
	SMA *float64
	RSI *float64
}

// MarshalJSON emits the PricePoint wire shape plus "sma"/"rsi" when present.
func (e EnrichedPoint) MarshalJSON() ([]byte, error) {
	buf, err := e.PricePoint.MarshalJSON()
	if err != nil {
		return nil, err
	}
	buf = buf[:len(buf)-1] // reopen the object
	if e.SMA != nil {
		buf = append(buf, `,"sma":`...)
		buf = appendFloat(buf, *e.SMA)
	}
	if e.RSI != nil {
		buf = append(buf, `,"rsi":`...)
		buf = appendFloat(buf, *e.RSI)
	}
	buf = append(buf, '}')
	return buf, nil
}

// UnmarshalJSON parses the inline wire shape, peeling "sma"/"rsi" off before
// delegating the rest to PricePoint.
func (e *EnrichedPoint) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	e.SMA = nil
	e.RSI = nil
	if v, ok := raw["sma"]; ok {
		var f float64
		if err := json.Unmarshal(v, &f); err == nil {
			e.SMA = &f
		}
		delete(raw, "sma")
	}
	if v, ok := raw["rsi"]; ok {
		var f float64
		if err := json.Unmarshal(v, &f); err == nil {
			e.RSI = &f
		}
		delete(raw, "rsi")
	}
	rest, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	return e.PricePoint.UnmarshalJSON(rest)
}

// appendFloat serializes a float with JSON-compatible formatting. NaN and
// infinities are not representable in JSON; they serialize as null so a
// malformed point stays visible instead of breaking the whole payload.
func appendFloat(buf []byte, f float64) []byte {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return append(buf, "null"...)
	}
	b, _ := json.Marshal(f)
	return append(buf, b...)
}
