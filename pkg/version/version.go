// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"fmt"

	goversion "github.com/hashicorp/go-version"
)

// Version is set at build time with -ldflags "-X carvel.dev/mtpl/pkg/version.Version=...".
var Version = "develop"

// RequireAtLeast errors unless the running version is at least minVersion.
// Development builds satisfy any requirement.
func RequireAtLeast(minVersion string) error {
	required, err := goversion.NewVersion(minVersion)
	if err != nil {
		return fmt.Errorf("Parsing required version '%s': %s", minVersion, err)
	}
	if Version == "develop" {
		return nil
	}
	current, err := goversion.NewVersion(Version)
	if err != nil {
		return fmt.Errorf("Parsing mtpl version '%s': %s", Version, err)
	}
	if current.LessThan(required) {
		return fmt.Errorf("mtpl version %s does not meet the minimum required version %s", Version, minVersion)
	}
	return nil
}
