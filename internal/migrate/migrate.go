// Package migrate orders schema migrations by semantic version. The SQL
// backends each keep their own list and apply what Pending returns.
package migrate

import (
	"fmt"
	"sort"

	"github.com/Masterminds/semver/v3"
)

// Migration is one forward step of a schema.
type Migration struct {
	Version string
	Up      string
}

// Latest returns the highest version in ms, or "0.0.0" for an empty list.
func Latest(ms []Migration) (string, error) {
	sorted, err := sortByVersion(ms)
	if err != nil {
		return "", err
	}
	if len(sorted) == 0 {
		return "0.0.0", nil
	}
	return sorted[len(sorted)-1].Version, nil
}

// Pending returns the migrations newer than current, oldest first. An empty
// current means nothing has been applied.
func Pending(current string, ms []Migration) ([]Migration, error) {
	if current == "" {
		current = "0.0.0"
	}
	cur, err := semver.NewVersion(current)
	if err != nil {
		return nil, fmt.Errorf("parse current schema version %q: %w", current, err)
	}
	sorted, err := sortByVersion(ms)
	if err != nil {
		return nil, err
	}
	var out []Migration
	for _, m := range sorted {
		if semver.MustParse(m.Version).GreaterThan(cur) {
			out = append(out, m)
		}
	}
	return out, nil
}

func sortByVersion(ms []Migration) ([]Migration, error) {
	type versioned struct {
		v *semver.Version
		m Migration
	}
	vs := make([]versioned, 0, len(ms))
	seen := map[string]bool{}
	for _, m := range ms {
		v, err := semver.NewVersion(m.Version)
		if err != nil {
			return nil, fmt.Errorf("parse migration version %q: %w", m.Version, err)
		}
		if seen[v.String()] {
			return nil, fmt.Errorf("duplicate migration version %s", v)
		}
		seen[v.String()] = true
		vs = append(vs, versioned{v: v, m: m})
	}
	sort.Slice(vs, func(i, j int) bool { return vs[i].v.LessThan(vs[j].v) })

	out := make([]Migration, len(vs))
	for i, x := range vs {
		out[i] = x.m
	}
	return out, nil
}
