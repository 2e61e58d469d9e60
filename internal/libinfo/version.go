/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package libinfo exposes the version of the go-crptapi module the binary is built with.
package libinfo

import (
	"debug/buildinfo"
	"regexp"
	"runtime/debug"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const libShortName = "go-crptapi"

const moduleName = "github.com/acronis/" + libShortName

// PrometheusLibVersionLabel is the const label attached to the library metrics.
const PrometheusLibVersionLabel = "go_crptapi_version"

const unknownVersion = "v0.0.0"

// AddPrometheusLibVersionLabel returns a copy of labels with the library version added.
func AddPrometheusLibVersionLabel(labels prometheus.Labels) prometheus.Labels {
	labelsCopy := make(prometheus.Labels, len(labels)+1)
	for k, v := range labels {
		labelsCopy[k] = v
	}
	labelsCopy[PrometheusLibVersionLabel] = GetLibVersion()
	return labelsCopy
}

// UserAgent returns the default User-Agent of registry requests, e.g. "go-crptapi/v1.2.0".
func UserAgent() string {
	return libShortName + "/" + GetLibVersion()
}

var libVersion string
var libVersionOnce sync.Once

// GetLibVersion returns the module version or "v0.0.0" when it's unknown (e.g. in tests).
func GetLibVersion() string {
	libVersionOnce.Do(func() {
		if buildInfo, ok := debug.ReadBuildInfo(); ok {
			libVersion = extractLibVersion(buildInfo, moduleName)
		}
		if libVersion == "" {
			libVersion = unknownVersion
		}
	})
	return libVersion
}

// extractLibVersion looks the module up among the main module and the dependencies of the build.
// Major version suffixes ("moduleName/v2") are matched too.
func extractLibVersion(buildInfo *buildinfo.BuildInfo, modName string) string {
	if buildInfo == nil {
		return ""
	}
	re := regexp.MustCompile(`^` + regexp.QuoteMeta(modName) + `(/v[0-9]+)?$`)
	if re.MatchString(buildInfo.Main.Path) && buildInfo.Main.Version != "" && buildInfo.Main.Version != "(devel)" {
		return buildInfo.Main.Version
	}
	for _, dep := range buildInfo.Deps {
		if re.MatchString(dep.Path) {
			return dep.Version
		}
	}
	return ""
}
