package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.0.0", "1.0.0", 0},
		{"1.0", "1.0.0", 0},
		{"v1.0.0", "1.0.0", 0},
		{"0.7.3", "0.8.0", -1},
		{"0.8.0", "0.7.3", 1},
		{"1.0.0.1", "1.0.0", 1},
		{"0.10.0", "0.9.0", 1},
		{"abc", "0.0.0", 0},
		{"1.x.0", "1.0.0", 0},
		{"", "0.0.0", 0},
	}

	for _, tt := range tests {
		got := CompareVersions(tt.a, tt.b)
		assert.Equalf(t, tt.want, got, "CompareVersions(%q, %q)", tt.a, tt.b)

		// Antisymmetry must hold for every pair.
		assert.Equalf(t, -tt.want, CompareVersions(tt.b, tt.a), "CompareVersions(%q, %q)", tt.b, tt.a)
	}
}

func TestLatestVersion(t *testing.T) {
	assert.Equal(t, "0.8.0", LatestVersion([]string{"0.7.2", "0.8.0", "0.7.3"}))
	assert.Equal(t, "0.7.3", LatestVersion([]string{"unknown", "0.7.3", ""}))
	assert.Equal(t, "unknown", LatestVersion([]string{"unknown", "unknown"}))
	assert.Equal(t, "unknown", LatestVersion(nil))
}

func TestCheckVersionStatus(t *testing.T) {
	cfg := &VersionConfig{CurrentStable: "0.8.0", MinSupported: "0.7.3", Deprecated: "0.7.2"}

	status, severity := CheckVersionStatus("0.8.0", cfg)
	assert.Equal(t, "current", status)
	assert.Equal(t, "none", severity)

	status, severity = CheckVersionStatus("0.7.3", cfg)
	assert.Equal(t, "outdated", status)
	assert.Equal(t, "info", severity)

	status, severity = CheckVersionStatus("0.7.2", cfg)
	assert.Equal(t, "outdated", status)
	assert.Equal(t, "warning", severity)

	status, severity = CheckVersionStatus("0.6.0", cfg)
	assert.Equal(t, "deprecated", status)
	assert.Equal(t, "critical", severity)

	status, severity = CheckVersionStatus("not-a-version", cfg)
	assert.Equal(t, "unknown", status)
	assert.Equal(t, "info", severity)
}
