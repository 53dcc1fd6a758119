package models

import "github.com/uptrace/bun"

// EventType tags a visit with the programme it was part of
type EventType struct {
	bun.BaseModel `bun:"table:event_types"`

	ID   int64  `bun:"id,pk" json:"id"`
	Name string `bun:"name,notnull,unique" json:"name"`
}

// SeedEventTypes is the reference set installed on a fresh database.
var SeedEventTypes = []EventType{
	{ID: 1, Name: "Meeting with writer"},
	{ID: 2, Name: "Excursion"},
	{ID: 3, Name: "Concert"},
	{ID: 4, Name: "Workshop"},
	{ID: 5, Name: "Exhibition opening"},
	{ID: 6, Name: "Lecture"},
	{ID: 7, Name: "Film screening"},
	{ID: 8, Name: "Children's program"},
}
