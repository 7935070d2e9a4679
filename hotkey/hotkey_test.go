package hotkey

import "testing"

func TestParseChord(t *testing.T) {
	tests := []struct {
		combo   string
		keys    int
		wantErr bool
	}{
		{"Ctrl+Alt+T", 3, false},
		{"ctrl+alt+f9", 3, false},
		{"Shift+Win+Space", 3, false},
		{"F12", 1, false},
		{"ctrl + alt + q", 3, false},
		{"", 0, true},
		{"Ctrl+Bogus", 0, true},
		{"Ctrl+F25", 0, true},
	}

	for _, tt := range tests {
		ch, err := parseChord(tt.combo)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseChord(%q) err = %v, wantErr %v", tt.combo, err, tt.wantErr)
			continue
		}
		if err == nil && len(ch.names) != tt.keys {
			t.Errorf("parseChord(%q) parsed %d keys, want %d", tt.combo, len(ch.names), tt.keys)
		}
	}
}

func TestModifiersMatchBothVariants(t *testing.T) {
	ch, err := parseChord("Ctrl+T")
	if err != nil {
		t.Fatal(err)
	}
	for _, rc := range []uint16{162, 163} {
		if ch.match(rc) != 0 {
			t.Errorf("rawcode %d should match the ctrl slot", rc)
		}
	}
	if ch.match(84) != 1 { // VK for T
		t.Errorf("rawcode 84 should match the t slot")
	}
	if ch.match(65) != -1 {
		t.Errorf("unrelated rawcode should not match")
	}
}

func TestFunctionKeyCodes(t *testing.T) {
	if got := rawcodesFor("f1"); len(got) != 1 || got[0] != 112 {
		t.Errorf("f1 = %v, want [112]", got)
	}
	if got := rawcodesFor("f24"); len(got) != 1 || got[0] != 135 {
		t.Errorf("f24 = %v, want [135]", got)
	}
}
