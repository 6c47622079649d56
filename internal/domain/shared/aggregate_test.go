package shared

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestTenantAggregateRoot_EventsAndVersion(t *testing.T) {
	tenantID, creator := uuid.New(), uuid.New()
	root := NewTenantAggregateRoot(tenantID, &creator)

	assert.NotEqual(t, uuid.Nil, root.ID)
	assert.Equal(t, 1, root.Version)
	assert.Equal(t, tenantID, root.TenantID)
	assert.Equal(t, &creator, root.CreatedBy)
	assert.Empty(t, root.PendingEvents())

	first := NewBaseDomainEvent("First", root.ID, tenantID)
	second := NewBaseDomainEvent("Second", root.ID, tenantID)
	root.Raise(&first)
	root.Raise(&second)
	events := root.PendingEvents()
	assert.Len(t, events, 2)
	assert.Equal(t, "First", events[0].EventType())
	assert.Equal(t, root.ID, events[1].AggregateID())

	root.ClearEvents()
	assert.Empty(t, root.PendingEvents())

	before := root.UpdatedAt
	time.Sleep(time.Millisecond)
	root.MarkChanged()
	assert.Equal(t, 2, root.Version)
	assert.True(t, root.UpdatedAt.After(before))
}

func TestBaseAggregateRoot_StoredVersion(t *testing.T) {
	fresh := NewTenantAggregateRoot(uuid.New(), nil)
	assert.Equal(t, 0, fresh.StoredVersion())

	restored := RestoreAggregateRoot(NewBaseEntity(), 3)
	assert.Equal(t, 3, restored.StoredVersion())

	restored.MarkChanged()
	restored.MarkChanged()
	assert.Equal(t, 5, restored.Version)
	assert.Equal(t, 3, restored.StoredVersion())

	restored.MarkStored()
	assert.Equal(t, 5, restored.StoredVersion())
}

func TestFilter_Paged(t *testing.T) {
	tests := []struct {
		name     string
		page     int
		size     int
		wantPage int
		wantSize int
		offset   int
	}{
		{"defaults kept", 0, 0, 1, 20, 0},
		{"explicit page", 3, 10, 3, 10, 20},
		{"size capped", 2, 1000, 2, MaxPageSize, MaxPageSize},
		{"negative ignored", -1, -5, 1, 20, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := DefaultFilter().Paged(tt.page, tt.size)
			assert.Equal(t, tt.wantPage, f.Page)
			assert.Equal(t, tt.wantSize, f.PageSize)
			assert.Equal(t, tt.offset, f.Offset())
		})
	}
}
