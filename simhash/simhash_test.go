package simhash

import (
	"reflect"
	"testing"
)

func TestFingerprint_Deterministic(t *testing.T) {
	text := "Pro plan $49 per month with unlimited projects"
	if Fingerprint(text) != Fingerprint(text) {
		t.Error("identical texts produced different fingerprints")
	}
}

func TestFingerprint_IgnoresCaseAndMarkup(t *testing.T) {
	a := Fingerprint("## Pro Plan\n\n**$49** per month")
	b := Fingerprint("pro plan $49 PER MONTH")
	if a != b {
		t.Errorf("case and markdown decoration changed the fingerprint: distance %d", Distance(a, b))
	}
}

func TestFingerprint_PriceChangeIsSmall(t *testing.T) {
	before := "Starter $9 per month. Pro $49 per month. Enterprise contact sales. Unlimited projects and priority support."
	after := "Starter $9 per month. Pro $59 per month. Enterprise contact sales. Unlimited projects and priority support."

	if d := Distance(Fingerprint(before), Fingerprint(after)); d > 20 {
		t.Errorf("one changed price moved %d bits", d)
	}
}

func TestFingerprint_UnrelatedPagesDiffer(t *testing.T) {
	a := Fingerprint("Starter $9 per month. Pro $49 per month. Enterprise contact sales.")
	b := Fingerprint("Read our engineering blog about distributed tracing and observability")
	if d := Distance(a, b); d < 5 {
		t.Errorf("unrelated texts too close: %d", d)
	}
}

func TestFingerprint_Empty(t *testing.T) {
	for _, in := range []string{"", "   \t\n ", "** -- ##"} {
		if fp := Fingerprint(in); fp != 0 {
			t.Errorf("Fingerprint(%q) = %016x, want 0", in, fp)
		}
	}
}

func TestDistance(t *testing.T) {
	tests := []struct {
		name string
		a, b uint64
		want int
	}{
		{"identical", 0xFF, 0xFF, 0},
		{"all different", 0, ^uint64(0), 64},
		{"one bit", 0, 1, 1},
		{"two bits", 0, 3, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Distance(tt.a, tt.b); got != tt.want {
				t.Errorf("Distance(%x, %x) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestSimilar(t *testing.T) {
	fp1 := Fingerprint("basic plan includes five seats")
	fp2 := Fingerprint("a completely different text about nothing related")
	dist := Distance(fp1, fp2)

	if !Similar(fp1, fp1, 0) {
		t.Error("a fingerprint should be similar to itself at threshold 0")
	}
	if Similar(fp1, fp2, dist-1) {
		t.Errorf("should not be similar below distance %d", dist)
	}
	if !Similar(fp1, fp2, dist) {
		t.Errorf("should be similar at threshold equal to distance %d", dist)
	}
}

func TestFingerprintDOM_CopyEditKeepsStructure(t *testing.T) {
	a := `<html><body><section class="pricing"><div><h3>Pro</h3><p>$49</p></div></section></body></html>`
	b := `<html><body><section class="plans"><div><h3>Team</h3><p><strong>$59</strong></p></div></section></body></html>`

	if fa, fb := FingerprintDOM(a), FingerprintDOM(b); fa != fb {
		t.Errorf("copy edits changed the structure hash, distance %d", Distance(fa, fb))
	}
}

func TestFingerprintDOM_RedesignDiffers(t *testing.T) {
	a := `<html><body><div><h1>Plans</h1><p>One</p><p>Two</p></div></body></html>`
	b := `<html><body><table><tr><td>A</td><td>B</td></tr><tr><td>C</td><td>D</td></tr></table></body></html>`

	if d := Distance(FingerprintDOM(a), FingerprintDOM(b)); d < 3 {
		t.Errorf("different layouts too close: %d", d)
	}
}

func TestFingerprintDOM_NoTags(t *testing.T) {
	for _, in := range []string{"", "plain text only"} {
		if fp := FingerprintDOM(in); fp != 0 {
			t.Errorf("FingerprintDOM(%q) = %016x, want 0", in, fp)
		}
	}
}

func TestStructuralTagsSkipsInline(t *testing.T) {
	got := structuralTags(`<div><p>Save <strong>20%</strong><br/>today</p><ul><li>x</li></ul></div>`)
	want := []string{"div", "p", "ul", "li"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("structuralTags = %v, want %v", got, want)
	}
}

func TestShingles(t *testing.T) {
	got := shingles([]string{"a", "b", "c", "d"}, 3)
	want := []string{"a_b_c", "b_c_d"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("shingles = %v, want %v", got, want)
	}
	if shingles([]string{"a"}, 3) != nil {
		t.Error("too few tokens should yield nil")
	}
}
