package entity

import "time"

// Incident types
const (
	IncidentTypeParcelDamaged   = "PARCEL_DAMAGED"
	IncidentTypeDeliveryDelayed = "DELIVERY_DELAYED"
	IncidentTypeAddressError    = "ADDRESS_ERROR"
	IncidentTypeOther           = "OTHER"
)

// Incident statuses
const (
	IncidentStatusOpen         = "OPEN"
	IncidentStatusInResolution = "IN_RESOLUTION"
	IncidentStatusResolved     = "RESOLVED"
)

// Claim statuses
const (
	ClaimStatusReceived      = "RECEIVED"
	ClaimStatusUnderAnalysis = "UNDER_ANALYSIS"
	ClaimStatusAccepted      = "ACCEPTED"
	ClaimStatusRefused       = "REFUSED"
)

// Incident is an operational problem reported against a shipment by an agent
// or driver. PhotoPath points at the stored evidence object, if any.
type Incident struct {
	ID           string    `json:"id" gorm:"primaryKey;size:32"`
	ShipmentID   string    `json:"shipment_id" gorm:"size:32;not null;index"`
	IncidentType string    `json:"incident_type" gorm:"size:50;not null"`
	Description  string    `json:"description" gorm:"type:text;not null"`
	Status       string    `json:"status" gorm:"size:50;not null;default:OPEN"`
	DateOccurred time.Time `json:"date_occurred" gorm:"not null"`
	Location     string    `json:"location" gorm:"size:255"`
	PhotoPath    string    `json:"photo_path" gorm:"size:512"`
	ReportedByID string    `json:"reported_by_id" gorm:"size:32;not null"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Shipment   *Shipment `json:"shipment,omitempty" gorm:"foreignKey:ShipmentID"`
	ReportedBy *User     `json:"reported_by,omitempty" gorm:"foreignKey:ReportedByID"`
}

func (Incident) TableName() string {
	return "incidents"
}

// Claim is a client complaint, optionally tied to an incident.
type Claim struct {
	ID          string    `json:"id" gorm:"primaryKey;size:32"`
	ClientID    string    `json:"client_id" gorm:"size:32;not null;index"`
	IncidentID  *string   `json:"incident_id" gorm:"size:32;index"`
	Reason      string    `json:"reason" gorm:"size:255;not null"`
	Description string    `json:"description" gorm:"type:text"`
	Status      string    `json:"status" gorm:"size:50;not null;default:RECEIVED"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Client   *User     `json:"client,omitempty" gorm:"foreignKey:ClientID"`
	Incident *Incident `json:"incident,omitempty" gorm:"foreignKey:IncidentID"`
}

func (Claim) TableName() string {
	return "claims"
}
