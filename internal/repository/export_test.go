package repository

import "database/sql"

// Hooks for the repository_test package, which drives the store through
// the service layer.
var (
	SeedUser    = seedUser
	SeedProduct = seedProduct
)

func SharedDB() *sql.DB { return testDB }
