package persistence

import (
	"strings"

	"gorm.io/gorm/clause"
)

// SortColumns whitelists the columns a listing may be ordered by
type SortColumns map[string]bool

// OrderBy resolves a user supplied sort into ORDER BY columns. Unknown or empty
// fields fall back to defaultField, anything other than "asc" sorts descending,
// and id is appended so pages stay stable when the sort column has ties.
func (s SortColumns) OrderBy(field, dir, defaultField string) clause.OrderBy {
	column := strings.TrimSpace(field)
	if !s[column] {
		column = defaultField
	}
	desc := !strings.EqualFold(strings.TrimSpace(dir), "asc")

	columns := []clause.OrderByColumn{{Column: clause.Column{Name: column}, Desc: desc}}
	if column != "id" {
		columns = append(columns, clause.OrderByColumn{Column: clause.Column{Name: "id"}, Desc: desc})
	}
	return clause.OrderBy{Columns: columns}
}
