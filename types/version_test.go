package types //nolint:revive // types is a valid package name

import (
	"regexp"
	"testing"
)

func TestVersion_Format(t *testing.T) {
	semverRegex := regexp.MustCompile(`^\d+\.\d+\.\d+(-[a-zA-Z0-9.]+)?$`)
	if !semverRegex.MatchString(Version) {
		t.Errorf("Version %q is not a valid semver", Version)
	}
}

func TestProtocolVersion_Positive(t *testing.T) {
	if ProtocolVersion < 1 {
		t.Errorf("ProtocolVersion = %d, want >= 1", ProtocolVersion)
	}
}
