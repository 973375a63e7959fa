package rcs

import (
	"slices"
	"strconv"
	"strings"
)

// Version is a dotted revision number such as 1.2 or 1.2.1.3. An even
// number of components names a revision; an odd number names a branch.
// Versions are immutable: every method returns a new value.
type Version struct {
	nums []int
}

// NewVersion builds a version from its components.
func NewVersion(nums ...int) Version {
	return Version{nums: slices.Clone(nums)}
}

// ParseVersion parses a dotted version. A single trailing dot stands for
// a trailing zero, so "1.2." is "1.2.0".
func ParseVersion(s string) (Version, error) {
	if s == "" {
		return Version{}, &VersionError{Input: s, Reason: "empty version"}
	}
	if strings.HasSuffix(s, ".") {
		s += "0"
	}
	parts := strings.Split(s, ".")
	nums := make([]int, len(parts))
	for i, p := range parts {
		if p == "" {
			return Version{}, &VersionError{Input: s, Reason: "empty component"}
		}
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 || p[0] == '+' || p[0] == '-' {
			return Version{}, &VersionError{Input: s, Reason: "component " + strconv.Quote(p) + " is not a number"}
		}
		nums[i] = n
	}
	return Version{nums: nums}, nil
}

// MustParseVersion is like ParseVersion but panics on error.
func MustParseVersion(s string) Version {
	v, err := ParseVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}

// Len returns the number of components.
func (v Version) Len() int {
	return len(v.nums)
}

// DotCount returns the number of dots in the textual form.
func (v Version) DotCount() int {
	return max(len(v.nums)-1, 0)
}

// IsZero reports whether v has no components.
func (v Version) IsZero() bool {
	return len(v.nums) == 0
}

// At returns component i.
func (v Version) At(i int) int {
	return v.nums[i]
}

// Last returns the last component, or 0 for the zero version.
func (v Version) Last() int {
	if len(v.nums) == 0 {
		return 0
	}
	return v.nums[len(v.nums)-1]
}

// Components returns a copy of the components.
func (v Version) Components() []int {
	return slices.Clone(v.nums)
}

// Base returns the first n components. It never pads.
func (v Version) Base(n int) Version {
	n = min(max(n, 0), len(v.nums))
	return Version{nums: slices.Clone(v.nums[:n])}
}

// Next increments the last component.
func (v Version) Next() Version {
	if len(v.nums) == 0 {
		return Version{nums: []int{1}}
	}
	nums := slices.Clone(v.nums)
	nums[len(nums)-1]++
	return Version{nums: nums}
}

// NewBranch appends component n.
func (v Version) NewBranch(n int) Version {
	nums := make([]int, len(v.nums), len(v.nums)+1)
	copy(nums, v.nums)
	return Version{nums: append(nums, n)}
}

// IsRevision reports whether v names a single revision.
func (v Version) IsRevision() bool {
	return len(v.nums) > 0 && len(v.nums)%2 == 0
}

// IsBranchDesignator reports whether v names a branch rather than a revision.
func (v Version) IsBranchDesignator() bool {
	return len(v.nums)%2 == 1
}

// IsTrunk reports whether v lies on the trunk (at most two components).
func (v Version) IsTrunk() bool {
	return len(v.nums) <= 2
}

// OnBranch reports whether v lies on some branch.
func (v Version) OnBranch() bool {
	return len(v.nums) > 2
}

// IsGhost reports whether any component is zero. Such versions are only
// used as "latest" selectors.
func (v Version) IsGhost() bool {
	return slices.Contains(v.nums, 0)
}

// Compare orders versions lexicographically by component; a strict prefix
// sorts first.
func (v Version) Compare(o Version) int {
	return slices.Compare(v.nums, o.nums)
}

// Less reports whether v < o.
func (v Version) Less(o Version) bool {
	return v.Compare(o) < 0
}

// Greater reports whether v > o.
func (v Version) Greater(o Version) bool {
	return v.Compare(o) > 0
}

// Equal reports whether v and o have the same components.
func (v Version) Equal(o Version) bool {
	return slices.Equal(v.nums, o.nums)
}

func (v Version) String() string {
	var b strings.Builder
	for i, n := range v.nums {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(strconv.Itoa(n))
	}
	return b.String()
}
