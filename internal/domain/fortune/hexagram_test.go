package fortune

import "testing"

func TestPadHexagram(t *testing.T) {
	cases := map[string]string{
		"":          "000000",
		"101":       "101000",
		"111111":    "111111",
		"10100111":  "101001",
		"1 0-1x":    "101000",
		"000000000": "000000",
	}
	for input, want := range cases {
		if got := PadHexagram(input); got != want {
			t.Fatalf("PadHexagram(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestDecodeHexagram(t *testing.T) {
	h := DecodeHexagram("101")
	if h.Code != "101000" {
		t.Fatalf("unexpected code: %s", h.Code)
	}
	if h.Lower.Name != "离" || h.Upper.Name != "坤" {
		t.Fatalf("unexpected trigrams: %s/%s", h.Upper.Name, h.Lower.Name)
	}
	if h.Name != "地火明夷" {
		t.Fatalf("unexpected name: %s", h.Name)
	}

	if got := DecodeHexagram("111111").Name; got != "乾为天" {
		t.Fatalf("unexpected name: %s", got)
	}
	if got := DecodeHexagram("000000").Name; got != "坤为地" {
		t.Fatalf("unexpected name: %s", got)
	}
}

func TestHexagramNamesComplete(t *testing.T) {
	if len(hexagramNames) != 64 {
		t.Fatalf("expected 64 hexagram names, got %d", len(hexagramNames))
	}
	for _, upper := range Trigrams {
		for _, lower := range Trigrams {
			if hexagramNames[upper.Name+lower.Name] == "" {
				t.Fatalf("missing hexagram %s%s", upper.Name, lower.Name)
			}
		}
	}
}
