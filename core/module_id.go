package core

import (
	"fmt"
	"strings"
)

// ModuleID identifies a module as name@version.
type ModuleID struct {
	Name    string
	Version string
}

// String returns the "name@version" form.
func (id ModuleID) String() string {
	return id.Name + "@" + id.Version
}

// Validate checks the name is non-empty and the version is strict semver.
func (id ModuleID) Validate() error {
	if id.Name == "" || strings.Contains(id.Name, "@") {
		return fmt.Errorf("%w: bad name %q", ErrInvalidModuleID, id.Name)
	}
	if _, err := ParseVersion(id.Version); err != nil {
		return fmt.Errorf("%w %q: %w", ErrInvalidModuleID, id.String(), err)
	}
	return nil
}

// ParseModuleID splits "name@version".
func ParseModuleID(raw string) (ModuleID, error) {
	name, version, ok := strings.Cut(raw, "@")
	if !ok {
		return ModuleID{}, fmt.Errorf("%w: %q has no version", ErrInvalidModuleID, raw)
	}
	id := ModuleID{Name: name, Version: version}
	if err := id.Validate(); err != nil {
		return ModuleID{}, err
	}
	return id, nil
}

// Requirement is a dependency on another module, optionally version-ranged.
type Requirement struct {
	Name  string
	Range string
}

// String returns "name" or "name@range".
func (r Requirement) String() string {
	if r.Range == "" {
		return r.Name
	}
	return r.Name + "@" + r.Range
}

// ParseRequirement parses "name" or "name@range".
func ParseRequirement(raw string) (Requirement, error) {
	name, rng, _ := strings.Cut(strings.TrimSpace(raw), "@")
	if name == "" {
		return Requirement{}, fmt.Errorf("%w: empty requirement %q", ErrInvalidModuleID, raw)
	}
	return Requirement{Name: name, Range: rng}, nil
}

// Matches reports whether id satisfies the requirement.
func (r Requirement) Matches(id ModuleID) bool {
	if id.Name != r.Name {
		return false
	}
	v, err := ParseVersion(id.Version)
	if err != nil {
		return false
	}
	return Satisfies(v, r.Range)
}
