package models

import "time"

// Course is a purchasable training programme for a (position, sessionType)
// pair. Courses are lazily created by the reservation manager when a booking
// arrives for a pair that has no course yet.
type Course struct {
	ID          string      `bson:"id" json:"id"`
	Title       string      `bson:"title" json:"title"`
	Position    string      `bson:"position" json:"position"`
	SessionType SessionType `bson:"sessionType" json:"sessionType"`
	Price       float64     `bson:"price" json:"price"`
	Available   bool        `bson:"available" json:"available"`
	CreatedAt   time.Time   `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time   `bson:"updatedAt" json:"updatedAt"`
}
