package domain

// Vehicle is a bus in the fleet.
type Vehicle struct {
	ID     int64  `json:"id"`
	Plate  string `json:"plate"`
	Brand  string `json:"brand,omitempty"`
	Model  string `json:"model,omitempty"`
	Number string `json:"number,omitempty"`
}

// Driver is a person who can be assigned to trips.
type Driver struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Route is a named origin/destination pair.
type Route struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Origin      string `json:"origin,omitempty"`
	Destination string `json:"destination,omitempty"`
}
