// Package trip holds the travel query value types shared by the dialogue,
// the train-data collaborators and the renderers.
package trip

// TrainRecord is one train returned by a search collaborator.
type TrainRecord struct {
	Name         string  `json:"name" db:"name"`
	Number       string  `json:"number" db:"number"`
	Departure    string  `json:"departure" db:"departure"`
	Arrival      string  `json:"arrival" db:"arrival"`
	Duration     string  `json:"duration" db:"duration"`
	Availability *string `json:"availability,omitempty" db:"availability"`
}

// BookingQuery is derived from a completed conversation.
type BookingQuery struct {
	Origin      string
	Destination string
	Date        TravelDate
}
