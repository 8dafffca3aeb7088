package models

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Image       string          `json:"image"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	SuitableFor pq.StringArray  `json:"suitable_for"`
	Targets     pq.StringArray  `json:"targets"`
	CreatedAt   time.Time       `json:"created_at"`
}

// CartLine is one (user, product) entry. ProductName, ProductImage and
// ProductPrice are captured when the line is created and never refreshed.
type CartLine struct {
	ID           int64           `json:"id"`
	UserEmail    string          `json:"user_email"`
	ProductID    int64           `json:"product"`
	Quantity     int             `json:"quantity"`
	ProductName  string          `json:"product_name"`
	ProductImage string          `json:"product_image"`
	ProductPrice decimal.Decimal `json:"product_price"`
	Consumed     bool            `json:"ordered"`
	OrderID      *int64          `json:"order_id,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Subtotal is the snapshot price times quantity.
func (l CartLine) Subtotal() decimal.Decimal {
	return l.ProductPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type ShippingInfo struct {
	FirstName string `json:"shipping_first_name"`
	LastName  string `json:"shipping_last_name"`
	Email     string `json:"shipping_email"`
	Address   string `json:"shipping_address"`
	City      string `json:"shipping_city"`
	State     string `json:"shipping_state"`
	Zip       string `json:"shipping_zip"`
	Country   string `json:"shipping_country"`
}

type Order struct {
	ID                int64           `json:"id"`
	OrderNumber       string          `json:"order_number"`
	UserEmail         string          `json:"user_email"`
	ShippingInfo
	Total             decimal.Decimal `json:"total"`
	PaymentStatus     PaymentStatus   `json:"payment_status"`
	Status            Status          `json:"status"`
	CheckoutSessionID string          `json:"checkout_session_id,omitempty"`
	CreatedAt         time.Time       `json:"date"`
	UpdatedAt         time.Time       `json:"updated_at"`
	Version           int             `json:"version"`
	Items             []CartLine      `json:"items"`
}

type ConsultationRequest struct {
	ID                 int64            `json:"id"`
	Name               string           `json:"name"`
	Email              string           `json:"email"`
	Phone              string           `json:"phone,omitempty"`
	Concern            string           `json:"concern"`
	PreferredDate      string           `json:"preferred_date"`
	PreferredTime      string           `json:"preferred_time,omitempty"`
	AdditionalInfo     string           `json:"additional_info,omitempty"`
	AssignedConsultant string           `json:"assigned_consultant,omitempty"`
	ConfirmedDate      string           `json:"confirmed_date,omitempty"`
	ConfirmedTime      string           `json:"confirmed_time,omitempty"`
	MeetingType        MeetingType      `json:"meeting_type"`
	MeetingLink        string           `json:"meeting_link,omitempty"`
	Fee                *decimal.Decimal `json:"consultation_fee"`
	PaymentConfirmed   bool             `json:"payment_confirmed"`
	Status             Status           `json:"status"`
	SubmittedAt        time.Time        `json:"submitted_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
}

// HasFee reports whether a positive fee has been assigned.
func (c ConsultationRequest) HasFee() bool {
	return c.Fee != nil && c.Fee.IsPositive()
}

// AnalysisHistory is one classifier prediction. Rows are appended, never
// rewritten by customers.
type AnalysisHistory struct {
	ID                 int64     `json:"id"`
	UserEmail          string    `json:"user_email"`
	SkinType           string    `json:"skin_type"`
	SkinConcern        string    `json:"skin_concern"`
	PredictedCondition string    `json:"predicted_condition"`
	Confidence         *float64  `json:"confidence"`
	ImageData          string    `json:"image_data,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}

type AnalysisSummary struct {
	LastAnalysis *string `json:"last_analysis"`
	CommonIssue  *string `json:"common_issue"`
	SkinScore    *int    `json:"skin_score"`
}

type Activity struct {
	Description string `json:"description"`
}
