package catalog

import "time"

// Product is a protected catalog entity.
type Product struct {
	ID          string
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Solution is a composition of products.
type Solution struct {
	ID          string
	Name        string
	Description string
	ProductIDs  []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Customer is a protected customer record.
type Customer struct {
	ID        string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
