package core

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

const ProductName = "qsim"

var Version string

const NoVersion = "no_version_info"

// SetVersion prefers the version linked in at build time over the one in c.
func SetVersion(c *Conf, versionByBuildFlag string) {
	switch {
	case strings.TrimSpace(versionByBuildFlag) != "":
		Version = strings.TrimSpace(versionByBuildFlag)
	case strings.TrimSpace(c.Version) != "":
		Version = strings.TrimSpace(c.Version)
	default:
		Version = NoVersion
	}
	zap.L().Info(fmt.Sprintf("%s version is %s", ProductName, Version))
}

// VersionString is the product name and version, e.g. "qsim/v1.2.3".
func VersionString() string {
	v := Version
	if v == "" {
		v = NoVersion
	}
	return ProductName + "/" + v
}
