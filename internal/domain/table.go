package domain

import (
	"fmt"
	"strings"
)

// TableSpec identifies a destination table. The zero value is not usable,
// build it with NewTableSpec or ParseTableSpec.
type TableSpec struct {
	project string
	dataset string
	table   string
}

func NewTableSpec(project, dataset, table string) (TableSpec, error) {
	if dataset == "" {
		return TableSpec{}, fmt.Errorf("table spec: dataset is required")
	}
	if table == "" {
		return TableSpec{}, fmt.Errorf("table spec: table is required")
	}
	for _, part := range []string{project, dataset, table} {
		if strings.ContainsAny(part, ".: `\"") {
			return TableSpec{}, fmt.Errorf("table spec: invalid identifier %q", part)
		}
	}
	return TableSpec{project: project, dataset: dataset, table: table}, nil
}

// ParseTableSpec accepts "project:dataset.table", "project.dataset.table" and "dataset.table".
func ParseTableSpec(s string) (TableSpec, error) {
	s = strings.TrimSpace(s)
	if project, rest, ok := strings.Cut(s, ":"); ok {
		dataset, table, ok := strings.Cut(rest, ".")
		if !ok {
			return TableSpec{}, fmt.Errorf("table spec %q: expected project:dataset.table", s)
		}
		return NewTableSpec(project, dataset, table)
	}

	parts := strings.Split(s, ".")
	switch len(parts) {
	case 2:
		return NewTableSpec("", parts[0], parts[1])
	case 3:
		return NewTableSpec(parts[0], parts[1], parts[2])
	default:
		return TableSpec{}, fmt.Errorf("table spec %q: expected [project.]dataset.table", s)
	}
}

func (t TableSpec) Project() string { return t.project }
func (t TableSpec) Dataset() string { return t.dataset }
func (t TableSpec) Table() string   { return t.table }

// WithProject returns a copy bound to project when the spec has none.
func (t TableSpec) WithProject(project string) TableSpec {
	if t.project != "" {
		return t
	}
	t.project = project
	return t
}

func (t TableSpec) IsZero() bool {
	return t.dataset == "" && t.table == ""
}

func (t TableSpec) String() string {
	if t.project == "" {
		return t.dataset + "." + t.table
	}
	return t.project + ":" + t.dataset + "." + t.table
}
