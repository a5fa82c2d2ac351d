package domain

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestPriceJSON(t *testing.T) {
	cases := []struct {
		in    string
		quote bool
		want  string
	}{
		{in: `9.99`, want: "9.99"},
		{in: `"12.5"`, want: "12.50"},
		{in: `null`, quote: true},
		{in: `"NaN"`, quote: true},
		{in: `"Infinity"`, quote: true},
	}
	for _, tc := range cases {
		var p Price
		if err := json.Unmarshal([]byte(tc.in), &p); err != nil {
			t.Fatalf("unmarshal %s: %v", tc.in, err)
		}
		if p.IsQuote() != tc.quote {
			t.Fatalf("%s: expected quote=%v", tc.in, tc.quote)
		}
		if !tc.quote && p.String() != tc.want {
			t.Fatalf("%s: expected %s, got %s", tc.in, tc.want, p.String())
		}
	}

	if _, err := json.Marshal(struct{ P Price }{}); err != nil {
		t.Fatalf("marshal: %v", err)
	}
	out, _ := json.Marshal(Priced(decimal.RequireFromString("9.99")))
	if string(out) != "9.99" {
		t.Fatalf("expected bare number, got %s", out)
	}
	out, _ = json.Marshal(QuoteRequired())
	if string(out) != "null" {
		t.Fatalf("expected null, got %s", out)
	}
}

func TestPriceInvalid(t *testing.T) {
	var p Price
	if err := json.Unmarshal([]byte(`"abc"`), &p); err == nil {
		t.Fatalf("expected error for non-numeric string")
	}
}

func TestProductIDFromLineID(t *testing.T) {
	if got := ProductIDFromLineID("p1::base"); got != "p1" {
		t.Fatalf("expected p1, got %s", got)
	}
	if got := ProductIDFromLineID("p2"); got != "p2" {
		t.Fatalf("expected p2, got %s", got)
	}
	if got := LineID("p3", ""); got != "p3::base" {
		t.Fatalf("expected p3::base, got %s", got)
	}
}

func TestProductLineForVariant(t *testing.T) {
	vp := Priced(decimal.NewFromInt(15))
	p := Product{
		ID:    "p1",
		Name:  "Crate",
		Price: Priced(decimal.NewFromInt(10)),
		Variants: []ProductVariant{
			{Key: "large", Name: "Large", Price: &vp},
		},
	}
	line := p.LineFor("large")
	if line.ID != "p1::large" || line.Name != "Crate - Large" || !line.Price.Equal(vp) {
		t.Fatalf("unexpected line %+v", line)
	}
	base := p.LineFor("")
	if base.ID != "p1::base" || !base.Price.Equal(p.Price) {
		t.Fatalf("unexpected base line %+v", base)
	}
}

func TestParseOrderStatus(t *testing.T) {
	st, err := ParseOrderStatus(" Shipped ")
	if err != nil || st != OrderShipped {
		t.Fatalf("expected shipped, got %v %v", st, err)
	}
	if _, err := ParseOrderStatus("lost"); err == nil {
		t.Fatalf("expected error for unknown status")
	}
}
