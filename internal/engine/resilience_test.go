package engine

import "testing"

func TestParseSignal(t *testing.T) {
	tests := []struct {
		payload    string
		wantID     string
		wantStatus bool
		wantOK     bool
	}{
		{"s-1:on", "s-1", true, true},
		{"s-1:off", "s-1", false, true},
		{"s-1:true", "s-1", true, true},
		{"s-1:false", "s-1", false, true},
		{"urn:pncp:42:on", "urn:pncp:42", true, true},
		{"s-1:maybe", "", false, false},
		{"s-1:", "", false, false},
		{":on", "", false, false},
		{"s-1", "", false, false},
	}
	for _, tt := range tests {
		id, status, ok := ParseSignal(tt.payload)
		if id != tt.wantID || status != tt.wantStatus || ok != tt.wantOK {
			t.Fatalf("ParseSignal(%q) = (%q, %v, %v), want (%q, %v, %v)",
				tt.payload, id, status, ok, tt.wantID, tt.wantStatus, tt.wantOK)
		}
	}
}

func TestSignalRoundTrip(t *testing.T) {
	for _, on := range []bool{true, false} {
		id, status, ok := ParseSignal(Signal("s-9", on))
		if !ok || id != "s-9" || status != on {
			t.Fatalf("round trip on=%v: (%q, %v, %v)", on, id, status, ok)
		}
	}
}
