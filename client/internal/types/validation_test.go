package types

import "testing"

func TestValidateIDPresent(t *testing.T) {
	t.Parallel()
	cases := []struct {
		in string
		ok bool
	}{
		{"a", true}, {"0b6f3c1e", true}, {"", false}, {"   ", false},
	}
	for _, c := range cases {
		err := ValidateIDPresent(c.in, "id")
		if c.ok && err != nil {
			t.Fatalf("expected ok for %q, got %v", c.in, err)
		}
		if !c.ok && err == nil {
			t.Fatalf("expected error for %q", c.in)
		}
	}
}

func TestValidateContent(t *testing.T) {
	t.Parallel()
	if err := ValidateContent("hello world"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ValidateContent(" \n\t"); err == nil {
		t.Fatal("expected error for blank content")
	}
}

func TestTierLabelAndDefault(t *testing.T) {
	t.Parallel()
	if got := TierPinned.Label(); got != "Pinned" {
		t.Fatalf("label = %q", got)
	}
	if got := Tier(7).Label(); got != "Tier 7" {
		t.Fatalf("unknown tier label = %q", got)
	}
	var m Memory
	if got := m.TierOr(TierSemantic); got != TierSemantic {
		t.Fatalf("absent tier = %d", got)
	}
	m.Tier = TierPtr(TierPinned)
	if got := m.TierOr(TierSemantic); got != TierPinned {
		t.Fatalf("explicit tier 0 = %d", got)
	}
}
