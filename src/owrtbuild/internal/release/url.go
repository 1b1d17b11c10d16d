package release

import (
	"strings"

	owrterrors "github.com/openwrt-tools/owrtbuild/src/common/errors"
)

// Image Builder archive URL templates on the vendor download server.
// Placeholders: {version}, {target}, {subtarget}, {ext}.
const (
	snapshotTemplate = "https://downloads.openwrt.org" +
		"/snapshots/targets/{target}/{subtarget}" +
		"/openwrt-imagebuilder-{target}-{subtarget}.Linux-x86_64.{ext}"
	releaseTemplate = "https://downloads.openwrt.org" +
		"/releases/{version}/targets/{target}/{subtarget}" +
		"/openwrt-imagebuilder-{version}-{target}-{subtarget}.Linux-x86_64.{ext}"
)

// Archive extensions used by the vendor over time
const (
	ExtTarXz  = "tar.xz"
	ExtTarZst = "tar.zst"
)

// zstCutover is the first release shipped as tar.zst instead of tar.xz
var zstCutover = Version{Year: 24, Month: 10, Release: 0, Candidate: 1}

// ArchiveExt returns the archive extension the vendor uses for the given
// version: tar.zst for snapshots and releases at or above the cutover,
// tar.xz for everything older.
func ArchiveExt(version string) (string, error) {
	if version == Snapshot {
		return ExtTarZst, nil
	}

	v, err := Parse(version)
	if err != nil {
		return "", err
	}
	if v.Compare(zstCutover) >= 0 {
		return ExtTarZst, nil
	}
	return ExtTarXz, nil
}

// ImageBuilderURL resolves the download URL of the Image Builder archive for
// the given version and target/subtarget pair.
func ImageBuilderURL(version, target, subtarget string) (string, error) {
	ext, err := ArchiveExt(version)
	if err != nil {
		return "", err
	}

	template := releaseTemplate
	if version == Snapshot {
		template = snapshotTemplate
	}

	url := template
	url = strings.ReplaceAll(url, "{version}", version)
	url = strings.ReplaceAll(url, "{target}", target)
	url = strings.ReplaceAll(url, "{subtarget}", subtarget)
	url = strings.ReplaceAll(url, "{ext}", ext)
	return url, nil
}

// SplitTarget splits a combined "target/subtarget" identifier into its parts
func SplitTarget(combined string) (target, subtarget string, err error) {
	target, subtarget, ok := strings.Cut(combined, "/")
	if !ok || target == "" || subtarget == "" {
		return "", "", owrterrors.ErrInvalidTarget.
			WithMessagef("invalid target %q (expected target/subtarget, e.g. rockchip/armv8)", combined)
	}
	return target, subtarget, nil
}
