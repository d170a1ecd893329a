package utils

import (
	"strconv"
	"strings"

	"github.com/hashicorp/go-version"

	"pnodemon/models"
)

// CompareVersions compares two version strings segment by segment.
// Missing segments default to 0 ("1.0" == "1.0.0"), as do segments
// that fail to parse as integers. Returns <0, 0, >0.
func CompareVersions(a, b string) int {
	as := strings.Split(strings.TrimPrefix(a, "v"), ".")
	bs := strings.Split(strings.TrimPrefix(b, "v"), ".")

	n := len(as)
	if len(bs) > n {
		n = len(bs)
	}

	for i := 0; i < n; i++ {
		av, bv := 0, 0
		if i < len(as) {
			av, _ = strconv.Atoi(as[i])
		}
		if i < len(bs) {
			bv, _ = strconv.Atoi(bs[i])
		}
		if av != bv {
			if av < bv {
				return -1
			}
			return 1
		}
	}
	return 0
}

// LatestVersion reduces a set of version strings to the greatest one
// under CompareVersions. "unknown" entries are skipped; if nothing
// else remains, the result is "unknown".
func LatestVersion(versions []string) string {
	latest := models.VersionUnknown
	for _, v := range versions {
		if v == models.VersionUnknown || v == "" {
			continue
		}
		if latest == models.VersionUnknown || CompareVersions(v, latest) > 0 {
			latest = v
		}
	}
	return latest
}

// VersionConfig holds current version requirements
type VersionConfig struct {
	CurrentStable string
	MinSupported  string
	Deprecated    string
}

var DefaultVersionConfig = VersionConfig{
	CurrentStable: "0.8.0",
	MinSupported:  "0.7.3",
	Deprecated:    "0.7.2",
}

// CheckVersionStatus determines if a node version needs upgrading.
func CheckVersionStatus(nodeVersion string, config *VersionConfig) (status string, severity string) {
	if config == nil {
		config = &DefaultVersionConfig
	}

	nodeVer, err := version.NewVersion(strings.TrimPrefix(nodeVersion, "v"))
	if err != nil {
		return models.VersionUnknown, "info"
	}

	current, _ := version.NewVersion(config.CurrentStable)
	minSupported, _ := version.NewVersion(config.MinSupported)
	deprecated, _ := version.NewVersion(config.Deprecated)

	if nodeVer.LessThan(deprecated) {
		return "deprecated", "critical"
	}
	if nodeVer.LessThan(minSupported) {
		return "outdated", "warning"
	}
	if nodeVer.LessThan(current) {
		return "outdated", "info"
	}
	return "current", "none"
}
