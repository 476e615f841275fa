package repositories

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/leif888/qamanage/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestNewListOptionsClampsPaging(t *testing.T) {
	opts := NewListOptions(0, 0)
	assert.Equal(t, 0, opts.Offset)
	assert.Equal(t, 20, opts.Limit)

	opts = NewListOptions(2, 500)
	assert.Equal(t, 100, opts.Limit)
	assert.Equal(t, 100, opts.Offset)
}

func TestWithSortRejectsUnknownColumns(t *testing.T) {
	opts := NewListOptions(1, 10).WithSort("name; drop table projects", "asc")
	assert.Equal(t, "sort_order ASC", opts.OrderClause("sort_order ASC"))

	opts = NewListOptions(1, 10).WithSort("name", "sideways")
	assert.Equal(t, "name asc", opts.OrderClause("created_at desc"))

	opts = NewListOptions(1, 10).WithSort("updated_at", "desc")
	assert.Equal(t, "updated_at desc", opts.OrderClause("created_at desc"))
}

func TestFindAllHonorsRequestedSort(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.Project{}); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	for _, name := range []string{"Charlie", "Alpha", "Bravo"} {
		if err := db.Create(&models.Project{Name: name, Status: "active"}).Error; err != nil {
			t.Fatalf("seed project %q: %v", name, err)
		}
	}

	repo := NewBaseRepository[models.Project](db)
	projects, total, err := repo.FindAll(context.Background(),
		NewListOptions(1, 10).WithSort("name", "asc"))
	assert.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Equal(t, []string{"Alpha", "Bravo", "Charlie"},
		[]string{projects[0].Name, projects[1].Name, projects[2].Name})
}
