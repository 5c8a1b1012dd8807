package theme

import "testing"

func TestBuiltinsAreValid(t *testing.T) {
	seen := map[string]bool{}
	for _, th := range All {
		if !th.Valid() {
			t.Errorf("theme %s has an invalid color", th.Name)
		}
		if seen[th.Name] {
			t.Errorf("duplicate theme name %s", th.Name)
		}
		seen[th.Name] = true
	}
}

func TestLookup(t *testing.T) {
	if th, ok := Lookup("nord"); !ok || th != Nord {
		t.Fatalf("Lookup(nord) = %v, %v", th, ok)
	}
	if _, ok := Lookup("vaporwave"); ok {
		t.Fatal("Lookup should fail for unknown themes")
	}
	if len(Names()) != len(All) {
		t.Fatal("Names should list every theme")
	}
}

func TestNextWraps(t *testing.T) {
	if Next(All[len(All)-1]) != All[0] {
		t.Fatal("Next should wrap to the first theme")
	}
	if Next(DefaultDark) != DefaultLight {
		t.Fatal("Next(default-dark) should be default-light")
	}
}

func TestToggle(t *testing.T) {
	tests := []struct {
		in, want *Theme
	}{
		{DefaultDark, DefaultLight},
		{SolarizedLight, SolarizedDark},
		{CatppuccinMocha, CatppuccinLatte},
		{Nord, Nord},
	}
	for _, tt := range tests {
		if got := Toggle(tt.in); got != tt.want {
			t.Errorf("Toggle(%s) = %s, want %s", tt.in.Name, got.Name, tt.want.Name)
		}
	}
}

func TestValid(t *testing.T) {
	th := *Nord
	th.Link = "blue"
	if th.Valid() {
		t.Fatal("named colors should be rejected")
	}
	th = *DefaultDark
	th.Background = ""
	if !th.Valid() {
		t.Fatal("background is unused with a transparent background")
	}
}

func TestStylesRender(t *testing.T) {
	s := Nord.Styles()
	if s.PinIndex.Render("1") == "" || s.Link.Render("x") == "" {
		t.Fatal("styles should render text")
	}
}
