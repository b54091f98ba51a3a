package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMigrateURL(t *testing.T) {
	cases := map[string]string{
		"postgres://u:p@db:5432/x?sslmode=disable":   "pgx5://u:p@db:5432/x?sslmode=disable",
		"postgresql://u:p@db:5432/x?sslmode=disable": "pgx5://u:p@db:5432/x?sslmode=disable",
		"pgx5://u:p@db/x":                            "pgx5://u:p@db/x",
	}
	for in, want := range cases {
		assert.Equal(t, want, migrateURL(in), in)
	}
}
