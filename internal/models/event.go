package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Event is the single stored record. The timestamp column keeps the
// historical name create_at, which is also the JSON key clients read.
type Event struct {
	bun.BaseModel `bun:"table:events"`

	ID          int64     `bun:"id,pk,autoincrement" json:"id"`
	Description string    `bun:"description,type:varchar(100),notnull" json:"description"`
	CreatedAt   time.Time `bun:"create_at,notnull,default:current_timestamp" json:"create_at"`
}

// EventRequest is the body accepted by create and update. Description is a
// pointer so a missing or null field can be told apart from "".
type EventRequest struct {
	Description *string `json:"description"`
}
