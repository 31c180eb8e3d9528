package core

import (
	"fmt"
	"strconv"
	"strings"
)

// MinServerVersion is the oldest remote version this client negotiates
// with. The gate runs once, at connect.
const MinServerVersion = "12.0.0"

// Version is a parsed semantic version. Pre-release and build metadata
// are ignored for compatibility purposes.
type Version struct {
	Major int
	Minor int
	Patch int
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// ParseVersion accepts "v1.2.3", "1.2.3", "1.2" and "1" forms.
func ParseVersion(raw string) (Version, error) {
	trimmed := strings.TrimPrefix(strings.TrimSpace(raw), "v")
	if trimmed == "" {
		return Version{}, fmt.Errorf("core: version string is required")
	}
	if idx := strings.IndexAny(trimmed, "-+"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	parts := strings.Split(trimmed, ".")
	if len(parts) > 3 {
		return Version{}, fmt.Errorf("core: version %q has too many segments", raw)
	}
	segments := [3]int{}
	for i, part := range parts {
		value, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || value < 0 {
			return Version{}, fmt.Errorf("core: version %q segment %q is invalid", raw, part)
		}
		segments[i] = value
	}
	return Version{Major: segments[0], Minor: segments[1], Patch: segments[2]}, nil
}

// Compare returns -1, 0 or 1 ordering v against other.
func (v Version) Compare(other Version) int {
	pairs := [][2]int{
		{v.Major, other.Major},
		{v.Minor, other.Minor},
		{v.Patch, other.Patch},
	}
	for _, pair := range pairs {
		if pair[0] < pair[1] {
			return -1
		}
		if pair[0] > pair[1] {
			return 1
		}
	}
	return 0
}

// CheckServerVersion gates the reported remote version against the
// configured floor. An unparseable report is treated as incompatible.
func CheckServerVersion(serverVersion, minimum string) error {
	if strings.TrimSpace(minimum) == "" {
		minimum = MinServerVersion
	}
	floor, err := ParseVersion(minimum)
	if err != nil {
		return err
	}
	reported, err := ParseVersion(serverVersion)
	if err != nil {
		return NewVersionIncompatibleError(serverVersion, floor.String())
	}
	if reported.Compare(floor) < 0 {
		return NewVersionIncompatibleError(reported.String(), floor.String())
	}
	return nil
}
