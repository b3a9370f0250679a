package docstore

import "testing"

func TestFilterMatch(t *testing.T) {
	doc := map[string]any{
		"status":      "checked_out",
		"controllers": int64(4),
		"available":   false,
		"cables":      map[string]any{"hdmi": true, "ethernet": false},
		"createdAt":   "2024-06-01T10:00:00.000Z",
	}

	tests := []struct {
		filter Filter
		want   bool
	}{
		{Where("status", Eq, "checked_out"), true},
		{Where("status", Ne, "returned"), true},
		{Where("controllers", Ge, 4), true},
		{Where("controllers", Gt, 4), false},
		{Where("controllers", Lt, 4.5), true},
		{Where("available", Eq, false), true},
		{Where("available", Eq, true), false},
		{Where("cables.hdmi", Eq, true), true},
		{Where("cables.usb", Eq, false), false},
		{Where("createdAt", Le, "2024-06-02T00:00:00.000Z"), true},
		{Where("createdAt", Gt, "2024-06-02T00:00:00.000Z"), false},
		// Missing fields never match, not even !=.
		{Where("returnedAt", Ne, "x"), false},
		// Kind mismatch only satisfies !=.
		{Where("controllers", Eq, "4"), false},
		{Where("controllers", Ne, "4"), true},
		{Where("status", Lt, 10), false},
	}

	for _, tt := range tests {
		if got := tt.filter.Match(doc); got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.filter, got, tt.want)
		}
	}
}

func TestFilterValidate(t *testing.T) {
	valid := []Filter{
		Where("status", Eq, "x"),
		Where("cables.hdmi", Eq, true),
		Where("_private", Ne, 1),
	}
	for _, f := range valid {
		if err := f.validate(); err != nil {
			t.Errorf("%s: unexpected error %v", f, err)
		}
	}

	invalid := []Filter{
		Where("", Eq, "x"),
		Where("status') OR 1=1 --", Eq, "x"),
		Where("a..b", Eq, "x"),
		Where("status", "in", "x"),
	}
	for _, f := range invalid {
		if err := f.validate(); err == nil {
			t.Errorf("%s: expected error", f)
		}
	}
}

func TestSetPath(t *testing.T) {
	fields := map[string]any{"cables": map[string]any{"hdmi": true}}
	setPath(fields, "cables.usb", true)
	setPath(fields, "location.room", "12")

	cables := fields["cables"].(map[string]any)
	if cables["hdmi"] != true || cables["usb"] != true {
		t.Errorf("unexpected cables: %v", cables)
	}
	if v, ok := lookup(fields, "location.room"); !ok || v != "12" {
		t.Errorf("expected nested map to be created, got %v", fields["location"])
	}
}
