// Package release handles OpenWrt release identifiers and the download URLs
// derived from them.
package release

import (
	"fmt"
	"regexp"
	"strconv"

	owrterrors "github.com/openwrt-tools/owrtbuild/src/common/errors"
)

// Snapshot is the sentinel version naming the rolling development build.
// It is always ordered newest and never parsed.
const Snapshot = "SNAPSHOT"

// versionPattern matches YY.MM.RELEASE with an optional -rcN suffix.
// Year and month are fixed-width zero-padded, release and candidate
// counters are plain decimal with no leading zeros.
var versionPattern = regexp.MustCompile(`^(\d{2})\.(0[1-9]|1[0-2])\.(0|[1-9]\d*)(?:-rc([1-9]\d*))?$`)

// Version is a parsed OpenWrt release identifier.
// Candidate is zero for final releases and >= 1 for release candidates.
type Version struct {
	Year      int
	Month     int
	Release   int
	Candidate int
}

// Parse parses a release identifier of the form YY.MM.RELEASE[-rcN].
// The Snapshot sentinel is deliberately rejected here; callers that accept
// it must check for it before parsing.
func Parse(s string) (Version, error) {
	m := versionPattern.FindStringSubmatch(s)
	if m == nil {
		return Version{}, owrterrors.ErrVersionUnparseable.
			WithMessagef("unparseable version %q (expected YY.MM.RELEASE[-rcN])", s)
	}

	// The pattern only admits decimal digits, so Atoi cannot fail
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	rel, _ := strconv.Atoi(m[3])

	candidate := 0
	if m[4] != "" {
		candidate, _ = strconv.Atoi(m[4])
	}

	return Version{Year: year, Month: month, Release: rel, Candidate: candidate}, nil
}

// IsCandidate reports whether v is a release candidate rather than a final release
func (v Version) IsCandidate() bool {
	return v.Candidate > 0
}

// String formats the version back into its canonical identifier
func (v Version) String() string {
	s := fmt.Sprintf("%02d.%02d.%d", v.Year, v.Month, v.Release)
	if v.Candidate > 0 {
		s += fmt.Sprintf("-rc%d", v.Candidate)
	}
	return s
}

// Compare orders two versions. It returns a negative value when v is older
// than o, zero when equal, and a positive value when newer. Year, month and
// release are compared as successive tiers; a final release is newer than
// any release candidate of the same release, and between two candidates the
// higher counter wins.
func (v Version) Compare(o Version) int {
	if v.Year != o.Year {
		return cmpInt(v.Year, o.Year)
	}
	if v.Month != o.Month {
		return cmpInt(v.Month, o.Month)
	}
	if v.Release != o.Release {
		return cmpInt(v.Release, o.Release)
	}
	if v.Candidate != o.Candidate {
		// Candidate zero means final release, which outranks every candidate
		if v.Candidate == 0 {
			return 1
		}
		if o.Candidate == 0 {
			return -1
		}
		return cmpInt(v.Candidate, o.Candidate)
	}
	return 0
}

// CompareStrings orders two release identifiers, honoring the Snapshot
// sentinel. Malformed identifiers yield a version parse error instead of a
// silent misordering.
func CompareStrings(a, b string) (int, error) {
	if a == Snapshot && b == Snapshot {
		return 0, nil
	}
	if a == Snapshot {
		return 1, nil
	}
	if b == Snapshot {
		return -1, nil
	}

	va, err := Parse(a)
	if err != nil {
		return 0, err
	}
	vb, err := Parse(b)
	if err != nil {
		return 0, err
	}
	return va.Compare(vb), nil
}

func cmpInt(a, b int) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}
