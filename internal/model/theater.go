package model

import "time"

// Theater is a physical venue containing one or more screens.
//
// Fields:
//  ID        – primary key identifier.
//  Name      – venue name.
//  Location  – free-form address or area description.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Theater struct {
	ID        uint64    // theaters.id
	Name      string    // theaters.name
	Location  string    // theaters.location
	CreatedAt time.Time // theaters.created_at
	UpdatedAt time.Time // theaters.updated_at
}
