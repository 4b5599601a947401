package cmd

import "testing"

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		client, backend, want string
	}{
		{"(devel)", "v1.0.0", "version check skipped (development build)"},
		{"v1.2.0", "v1.2.0", "client and backend match"},
		{"v1.1.0", "v1.2.0", "client is older than the backend; consider upgrading"},
		{"v2.0.0", "v1.9.0", "backend is older than the client"},
	}
	for _, tt := range tests {
		if got := compareVersions(tt.client, tt.backend); got != tt.want {
			t.Errorf("compareVersions(%q, %q) = %q, want %q", tt.client, tt.backend, got, tt.want)
		}
	}
}
