package admin

import (
	"testing"
	"time"
)

func TestFormatLocal(t *testing.T) {
	cet := time.FixedZone("CET", 60*60)
	cases := []struct {
		input    string
		expected string
	}{
		{"2024-03-01T11:30:00Z", "01.03.2024, 12:30:00 (local time)"},
		{"2024-03-01T11:30:00.123456+00:00", "01.03.2024, 12:30:00 (local time)"},
		{"2024-03-01T13:30:00+02:00", "01.03.2024, 12:30:00 (local time)"},
		{"2024-03-01T23:30:00.5", "02.03.2024, 00:30:00 (local time)"},
		{"2024-03-01 11:30:00", "01.03.2024, 12:30:00 (local time)"},
	}
	for _, c := range cases {
		actual, ok := FormatLocal(c.input, cet)
		if !ok {
			t.Errorf("expected %q to be converted", c.input)
		}
		if actual != c.expected {
			t.Errorf("expected %q for %q, got %q", c.expected, c.input, actual)
		}
	}
}

func TestFormatLocalLeavesInvalidInput(t *testing.T) {
	for _, input := range []string{"", "yesterday", "2024-13-45T99:00:00Z", "01.03.2024, 12:30:00 (local time)"} {
		actual, ok := FormatLocal(input, time.UTC)
		if ok {
			t.Errorf("expected %q to be rejected", input)
		}
		if actual != input {
			t.Errorf("expected %q unchanged, got %q", input, actual)
		}
	}
}

func TestFormatLocalDefaultsToLocalZone(t *testing.T) {
	expected := time.Date(2024, 3, 1, 11, 30, 0, 0, time.UTC).In(time.Local).Format(LocalTimeLayout) + LocalTimeMarker
	if actual, _ := FormatLocal("2024-03-01T11:30:00Z", nil); actual != expected {
		t.Errorf("expected %q, got %q", expected, actual)
	}
}
