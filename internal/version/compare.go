package version

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// CheckMinimumVersion checks that the running engine satisfies the minimum
// version a configuration file declares. Returns nil when compatible.
//
// Rules:
//   - If the engine version is "main" (development build), the check is
//     skipped
//   - An empty minimum always passes
//   - Otherwise the engine version must be greater than or equal to the
//     minimum
func CheckMinimumVersion(engineVersion, minimumVersion string) error {
	if minimumVersion == "" {
		return nil
	}

	engineVersion = strings.TrimPrefix(engineVersion, "v")
	minimumVersion = strings.TrimPrefix(minimumVersion, "v")

	// Skip version check for "main" (development builds)
	if engineVersion == "main" {
		return nil
	}

	engineSemver, err := semver.NewVersion(engineVersion)
	if err != nil {
		return fmt.Errorf("invalid engine version '%s': %w", engineVersion, err)
	}

	minimumSemver, err := semver.NewVersion(minimumVersion)
	if err != nil {
		return fmt.Errorf("invalid minimum version '%s': %w", minimumVersion, err)
	}

	if engineSemver.LessThan(minimumSemver) {
		return fmt.Errorf("engine version %s is older than the required minimum %s",
			engineSemver.String(), minimumSemver.String())
	}

	return nil
}
