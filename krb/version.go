package krb

import "github.com/coreos/go-semver/semver"

func versionString(major, minor, patch uint16) string {
	v := semver.Version{
		Major: int64(major),
		Minor: int64(minor),
		Patch: int64(patch),
	}
	return v.String()
}

// CurrentVersion returns the format version this package encodes.
func CurrentVersion() semver.Version {
	return semver.Version{
		Major: int64(VersionMajor),
		Minor: int64(VersionMinor),
		Patch: int64(VersionPatch),
	}
}

// compatibleVersion reports whether a bundle at the given version can
// be decoded. Major must match exactly; minor and patch revisions are
// forward-compatible.
func compatibleVersion(major, minor, patch uint16) bool {
	bundle := semver.Version{Major: int64(major), Minor: int64(minor), Patch: int64(patch)}
	return bundle.Major == CurrentVersion().Major
}
