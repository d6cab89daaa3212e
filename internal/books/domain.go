package books

import "time"

// Book is one donated title in the catalogue.
type Book struct {
	ID          int64
	Title       string
	Author      string
	Genre       string
	Language    string
	Description string
	DonorID     int64
	IsAvailable bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Filters narrows admin book listings.
type Filters struct {
	Query       string
	IsAvailable *bool
	DonorID     *int64
}
