package model

import "time"

// Appointment stores foreign-key references and scalar fields only; the display
// fields (ClientName etc.) are filled by read-time joins, never persisted.
type Appointment struct {
	ID                string
	ClientID          string
	CompanyID         string
	ServiceID         string
	StaffID           string
	SpaceID           string
	Status            int
	PreferredStaffIDs []string
	SaleID            string
	StartTime         time.Time
	EndTime           time.Time
	Notes             string
	CreatedAt         time.Time
	UpdatedAt         time.Time

	// Joined, read-only.
	ClientName  string
	ClientEmail string
	ClientPhone string
	CompanyName string
	ServiceName string
	StaffName   string
	SpaceName   string
}

// SaleLine is a frozen snapshot of a line item at time of sale. ServiceID is set
// for service usage, VariantID for product usage; prices are never recalculated
// from the catalog afterwards.
type SaleLine struct {
	ServiceID string  `json:"serviceId,omitempty"`
	VariantID string  `json:"variantId,omitempty"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
	Discount  float64 `json:"discount"`
}

// Sale is an immutable record of a completed transaction. Rows are created once
// and never updated or deleted.
type Sale struct {
	ID            string
	CompanyID     string
	CustomerID    string
	StaffID       string
	AppointmentID string
	ServicesUsed  []SaleLine
	ProductsUsed  []SaleLine
	Subtotal      float64
	DiscountTotal float64
	Total         float64
	PaymentMethod string
	CreatedAt     time.Time

	// Joined, read-only.
	CustomerName string
	StaffName    string
}

// CompanyStaff links a user to a company. Identity fields come from the users
// join; only operational fields live on the row itself.
type CompanyStaff struct {
	ID               string
	UserID           string
	CompanyID        string
	Status           string
	Schedule         map[string]any
	EmergencyContact map[string]any
	CreatedAt        time.Time
	UpdatedAt        time.Time

	// Joined, read-only.
	Name  string
	Email string
	Phone string
}

type Company struct {
	ID        string
	OwnerID   string
	Name      string
	Address   string
	Phone     string
	Timezone  string
	CreatedAt time.Time
}

type User struct {
	ID           string
	Name         string
	Email        string
	Phone        string
	PasswordHash string
	Role         string
	CompanyID    string
	CreatedAt    time.Time
}

type Category struct {
	ID        string
	CompanyID string
	Name      string
	CreatedAt time.Time
}

type Service struct {
	ID           string
	CompanyID    string
	CategoryID   string
	Name         string
	DurationMins int
	Price        float64
	Description  string
	CreatedAt    time.Time
}

type Space struct {
	ID        string
	CompanyID string
	Name      string
	Capacity  int
	CreatedAt time.Time
}

type Product struct {
	ID          string
	CompanyID   string
	Name        string
	Description string
	CreatedAt   time.Time
	Variants    []Variant
}

type Variant struct {
	ID        string
	ProductID string
	Name      string
	Price     float64
	Stock     int
	CreatedAt time.Time
}
