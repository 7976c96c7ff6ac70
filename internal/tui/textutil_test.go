package tui

import "testing"

func TestTruncateEnd(t *testing.T) {
	tests := []struct {
		in    string
		limit int
		want  string
	}{
		{"short", 10, "short"},
		{"exactly", 7, "exactly"},
		{"truncate me", 6, "trunc…"},
		{"ünïcödé text", 5, "ünïc…"},
		{"x", 0, ""},
		{"xyz", 1, "…"},
	}
	for _, tt := range tests {
		if got := truncateEnd(tt.in, tt.limit); got != tt.want {
			t.Errorf("truncateEnd(%q, %d) = %q, want %q", tt.in, tt.limit, got, tt.want)
		}
	}
}

func TestTruncateMiddle(t *testing.T) {
	got := truncateMiddle("3f2c9a10-7b1e-4c55-9d0e-a1b2c3d4e5f6", 11)
	if got != "3f2c9…4e5f6" {
		t.Errorf("unexpected %q", got)
	}
	if got := truncateMiddle("p1", 11); got != "p1" {
		t.Errorf("short ids stay intact, got %q", got)
	}
}

func TestSingleLine(t *testing.T) {
	if got := singleLine("  two\n\nlines\tand  tabs "); got != "two lines and tabs" {
		t.Errorf("unexpected %q", got)
	}
}

func TestWrapWidth(t *testing.T) {
	tests := []struct {
		width, min, max, want int
	}{
		{0, 40, 100, 100},
		{200, 40, 100, 100},
		{80, 40, 100, 72},
		{45, 40, 100, 41},
		{30, 40, 100, 26},
		{10, 40, 100, 20},
		{80, 0, 0, 40},
	}
	for _, tt := range tests {
		if got := wrapWidth(tt.width, tt.min, tt.max); got != tt.want {
			t.Errorf("wrapWidth(%d, %d, %d) = %d, want %d", tt.width, tt.min, tt.max, got, tt.want)
		}
	}
}
