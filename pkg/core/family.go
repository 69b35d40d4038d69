package core

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/cockroachdb/errors"
)

// =============================================================================
// Major version family
// =============================================================================

// Family identifies the major version of the framework a tier targets.
// Rules key their default options by the family tag ("vue2", "vue3").
type Family int

// Known families.
const (
	FamilyVue2 Family = iota
	FamilyVue3
)

// familyMajors maps each family to the framework major version it covers.
var familyMajors = map[Family]uint64{
	FamilyVue2: 2,
	FamilyVue3: 3,
}

// Families returns every known family, oldest first.
func Families() []Family {
	return []Family{FamilyVue2, FamilyVue3}
}

// Tag returns the key used in default-options tables, e.g. "vue3".
func (f Family) Tag() string {
	major, ok := familyMajors[f]
	if !ok {
		return "unknown"
	}
	return fmt.Sprintf("vue%d", major)
}

// String implements fmt.Stringer.
func (f Family) String() string {
	return f.Tag()
}

// Major returns the framework major version of the family.
func (f Family) Major() uint64 {
	return familyMajors[f]
}

// ParseFamily accepts a family tag ("vue2", "Vue3") or a version string
// ("3", "2.7", "v3.4.1") and returns the matching family.
func ParseFamily(s string) (Family, error) {
	raw := strings.ToLower(strings.TrimSpace(s))
	if raw == "" {
		return FamilyVue2, errors.New("empty version family")
	}

	for _, f := range Families() {
		if raw == f.Tag() {
			return f, nil
		}
	}

	v, err := semver.NewVersion(strings.TrimPrefix(raw, "vue"))
	if err != nil {
		return FamilyVue2, errors.Wrapf(err, "unknown version family %q", s)
	}
	for _, f := range Families() {
		if f.Major() == v.Major() {
			return f, nil
		}
	}
	return FamilyVue2, errors.Newf("no version family for major version %d", v.Major())
}

// MarshalText implements encoding.TextMarshaler.
func (f Family) MarshalText() ([]byte, error) {
	return []byte(f.Tag()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Family) UnmarshalText(text []byte) error {
	parsed, err := ParseFamily(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}
