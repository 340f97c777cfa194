package theme

import "testing"

func TestByNameFallsBackToFlexoki(t *testing.T) {
	if got := ByName("no-such-theme"); got.Name != FlexokiDark.Name {
		t.Errorf("ByName(unknown) = %q, want %q", got.Name, FlexokiDark.Name)
	}
	if got := ByName("tokyo-night"); got.Name != "tokyo-night" {
		t.Errorf("ByName(tokyo-night) = %q", got.Name)
	}
}

func TestNamesMatchesAll(t *testing.T) {
	names := Names()
	if len(names) != len(All) {
		t.Fatalf("len(Names()) = %d, want %d", len(names), len(All))
	}
	for i, n := range names {
		if n != All[i].Name {
			t.Errorf("Names()[%d] = %q, want %q", i, n, All[i].Name)
		}
	}
}

func TestSetActive(t *testing.T) {
	defer SetActive(FlexokiDark.Name)

	SetActive("terminal")
	if Active.Name != "terminal" {
		t.Errorf("Active = %q after SetActive(terminal)", Active.Name)
	}
	if Active.Increase == Active.Decrease {
		t.Error("increase and decrease colors should differ")
	}
}

func TestThemesDistinguishComparedPeriods(t *testing.T) {
	for _, th := range All {
		for role, c := range map[string]string{
			"Surface":   string(th.Surface),
			"Increase":  string(th.Increase),
			"Decrease":  string(th.Decrease),
			"Period1":   string(th.Period1),
			"Period2":   string(th.Period2),
			"History":   string(th.History),
			"Highlight": string(th.Highlight),
			"Warning":   string(th.Warning),
			"Success":   string(th.Success),
		} {
			if c == "" {
				t.Errorf("%s: %s has no color", th.Name, role)
			}
		}
		if th.Period1 == th.Period2 {
			t.Errorf("%s: Period1 and Period2 share a color", th.Name)
		}
		if th.Increase == th.Decrease {
			t.Errorf("%s: Increase and Decrease share a color", th.Name)
		}
	}
}
