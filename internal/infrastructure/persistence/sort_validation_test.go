package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm/clause"
)

func TestSortColumns_OrderBy(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		dir      string
		column   string
		desc     bool
		tiebreak bool
	}{
		{"allowed field ascending", "reference_number", "asc", "reference_number", false, true},
		{"trimmed and case folded", "  status ", " ASC ", "status", false, true},
		{"empty uses default", "", "", "created_at", true, true},
		{"unknown uses default", "password", "asc", "created_at", false, true},
		{"injection uses default", "created_at; DELETE FROM transfer_items", "desc", "created_at", true, true},
		{"injection in direction sorts descending", "status", "ASC; DROP TABLE transfer_requests", "status", true, true},
		{"id needs no tiebreak", "id", "asc", "id", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := TransferRequestSortFields.OrderBy(tt.field, tt.dir, "created_at")

			want := []clause.OrderByColumn{{Column: clause.Column{Name: tt.column}, Desc: tt.desc}}
			if tt.tiebreak {
				want = append(want, clause.OrderByColumn{Column: clause.Column{Name: "id"}, Desc: tt.desc})
			}
			assert.Equal(t, want, order.Columns)
		})
	}
}
