package repository

import (
	"fmt"

	"github.com/yourusername/tick-replay/internal/database"
)

// Repositories holds all repository implementations
type Repositories struct {
	Tick TickRepository
}

// NewRepositories creates and returns all repository implementations
func NewRepositories(db *database.DB) (*Repositories, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	return &Repositories{
		Tick: NewPostgresTickRepository(db),
	}, nil
}
