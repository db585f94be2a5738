package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"mise/internal/core/entity"
	"mise/internal/core/id"
)

type mockCatalog struct {
	entity.BaseCatalog
	Code string `db:"code" json:"code"`
	Name string `db:"name" json:"name"`
}

func TestExtractDBColumns(t *testing.T) {
	cols := ExtractDBColumns[mockCatalog]()

	expected := []string{"id", "tenant_id", "deletion_mark", "version", "code", "name"}
	for _, col := range expected {
		assert.Contains(t, cols, col)
	}
}

func TestStructToMap(t *testing.T) {
	tenantID := id.New()
	cat := mockCatalog{
		BaseCatalog: entity.BaseCatalog{
			BaseEntity: entity.BaseEntity{
				ID:           id.New(),
				TenantID:     tenantID,
				DeletionMark: true,
				Version:      5,
			},
		},
		Code: "MAIN",
		Name: "Main Storage",
	}

	m := StructToMap(cat)

	assert.Equal(t, cat.ID, m["id"])
	assert.Equal(t, tenantID, m["tenant_id"])
	assert.Equal(t, true, m["deletion_mark"])
	assert.Equal(t, 5, m["version"])
	assert.Equal(t, "MAIN", m["code"])
	assert.Equal(t, "Main Storage", m["name"])
}

func TestStructToMapPointer(t *testing.T) {
	cat := &mockCatalog{Code: "BAR"}
	m := StructToMap(cat)
	assert.Equal(t, "BAR", m["code"])
}

func TestStructToMapNonStruct(t *testing.T) {
	assert.Nil(t, StructToMap(42))
}
