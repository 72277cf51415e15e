package models

import (
	"encoding/json"
	"testing"
)

func TestParseShareKinds(t *testing.T) {
	tests := []struct {
		name    string
		kinds   []string
		want    ShareScope
		wantErr bool
	}{
		{"empty", []string{}, ShareNone, false},
		{"single", []string{"photo"}, SharePhoto, false},
		{"all", []string{"photo", "phone", "email"}, ShareAll, false},
		{"duplicates collapse", []string{"phone", "phone"}, SharePhone, false},
		{"unknown kind", []string{"address"}, ShareNone, true},
		{"mixed valid and invalid", []string{"photo", "address"}, ShareNone, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseShareKinds(tt.kinds)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseShareKinds(%v) error = %v, wantErr %v", tt.kinds, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseShareKinds(%v) = %v, want %v", tt.kinds, got, tt.want)
			}
		})
	}
}

func TestShareScopeIntersect(t *testing.T) {
	requested := SharePhoto | SharePhone
	granted := SharePhone | ShareEmail

	got := requested.Intersect(granted)
	if got != SharePhone {
		t.Errorf("Intersect = %v, want %v", got, SharePhone)
	}

	if !requested.Contains(SharePhoto) {
		t.Error("expected requested to contain photo")
	}
	if requested.Contains(ShareEmail) {
		t.Error("did not expect requested to contain email")
	}
	if !ShareNone.IsEmpty() {
		t.Error("expected empty scope to report empty")
	}
}

func TestShareScopeKindsOrder(t *testing.T) {
	kinds := ShareAll.Kinds()
	want := []string{"photo", "phone", "email"}
	if len(kinds) != len(want) {
		t.Fatalf("Kinds() = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("Kinds()[%d] = %q, want %q", i, kinds[i], want[i])
		}
	}
}

func TestShareScopeJSONRoundTrip(t *testing.T) {
	data, err := json.Marshal(SharePhoto | ShareEmail)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(data) != `["photo","email"]` {
		t.Errorf("marshal = %s", data)
	}

	var s ShareScope
	if err := json.Unmarshal([]byte(`["phone"]`), &s); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if s != SharePhone {
		t.Errorf("unmarshal = %v, want %v", s, SharePhone)
	}

	if err := json.Unmarshal([]byte(`["bogus"]`), &s); err == nil {
		t.Error("expected unmarshal of unknown kind to fail")
	}
}
