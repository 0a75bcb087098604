package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type User struct {
	ID         primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Username   string             `json:"username" bson:"username"`
	Password   string             `json:"-" bson:"password"`
	SavedTrips []SavedTrip        `json:"savedTrips" bson:"savedTrips"`
}

// SavedTrip is owned by its user document and identified by an id assigned on append.
type SavedTrip struct {
	ID          primitive.ObjectID `json:"_id" bson:"_id"`
	Name        string             `json:"name" bson:"name"`
	Origin      string             `json:"origin" bson:"origin"`
	Destination string             `json:"destination" bson:"destination"`
	Waypoints   []Waypoint         `json:"waypoints" bson:"waypoints"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
}

// Waypoint carries just enough of a POI to locate it again.
type Waypoint struct {
	OriginalID string    `json:"originalId" bson:"originalId"`
	Name       string    `json:"name" bson:"name"`
	DataSource string    `json:"dataSource" bson:"dataSource"`
	Location   *GeoPoint `json:"location,omitempty" bson:"location,omitempty"`
}
