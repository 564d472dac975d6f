package migrate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equipmarket/internal/database/dbtest"
)

func TestRunIsRepeatable(t *testing.T) {
	db := dbtest.Open(t)

	require.NoError(t, Run(db))
	require.NoError(t, Run(db))

	for _, table := range []string{"users", "equipment", "history"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
}

func TestQuantityCannotGoNegative(t *testing.T) {
	db := dbtest.Open(t)
	require.NoError(t, Run(db))

	err := db.Exec(`INSERT INTO equipment (name, model, manufacturer, description, price, quantity, created_at, updated_at)
		VALUES ('x', 'm', 'acme', 'd', 10, -1, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`).Error
	assert.Error(t, err)
}
