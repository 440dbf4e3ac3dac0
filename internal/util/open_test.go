package util

import "testing"

func TestOpenArgs(t *testing.T) {
	t.Parallel()

	cases := []struct {
		goos string
		name string
	}{
		{"windows", "rundll32"},
		{"darwin", "open"},
		{"linux", "xdg-open"},
		{"freebsd", "xdg-open"},
	}
	for _, tc := range cases {
		name, args := openArgs(tc.goos, "/tmp/dashboard-d_1.png")
		if name != tc.name {
			t.Fatalf("%s: expected %s, got %s", tc.goos, tc.name, name)
		}
		if args[len(args)-1] != "/tmp/dashboard-d_1.png" {
			t.Fatalf("%s: target not passed last: %v", tc.goos, args)
		}
	}
}
