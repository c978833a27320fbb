// Package version exposes the engine version and compatibility rules for
// result artifacts produced by earlier versions.
package version

import (
	"github.com/Masterminds/semver/v3"

	"github.com/quantframe-lab/quantframe/pkg/errors"
)

// Version is the engine version stamped into every summary_stats.json.
const Version = "1.2.0"

// IsCompatible reports whether result artifacts written by engineVersion can
// be loaded by this build. Artifacts from a different major version are
// rejected; minor and patch differences are fine.
func IsCompatible(engineVersion string) (bool, error) {
	theirs, err := semver.NewVersion(engineVersion)
	if err != nil {
		return false, errors.Wrapf(errors.ErrCodeResultsIncompatible, err,
			"invalid engine version %q in results", engineVersion)
	}

	ours := semver.MustParse(Version)

	return theirs.Major() == ours.Major(), nil
}
