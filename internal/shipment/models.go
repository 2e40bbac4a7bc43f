// Package shipment holds the parcel domain model and the pure presentation
// helpers shared by the driver dashboard, kiosk, and tracking surfaces.
//
// Field names in stored records are a compatibility contract with existing
// data; FromRecord tolerates the legacy spellings still present in older
// records.
package shipment

import "github.com/lord-william/lalalika-logistics/internal/backend"

// Shipment statuses. Transitions between the transit states happen on the
// dispatch side; driver-facing code only moves shipments to StatusDelivered
// or StatusFailed.
const (
	StatusPending           = "pending"
	StatusPendingKiosk      = "pending_kiosk"
	StatusPickedUp          = "picked_up"
	StatusInTransit         = "in_transit"
	StatusOutForDelivery    = "out_for_delivery"
	StatusLoadedForDelivery = "loaded_for_delivery"
	StatusDelivered         = "delivered"
	StatusFailed            = "failed"
)

// Issue report statuses. Drivers create reports as StatusReportOpen; the
// remaining transitions are admin-driven.
const (
	StatusReportOpen       = "open"
	StatusReportInProgress = "in_progress"
	StatusReportResolved   = "resolved"
	StatusReportClosed     = "closed"
)

// IsCompleted reports whether a status ends a shipment's active life.
// Bucket membership on the driver dashboard is a pure function of this.
func IsCompleted(status string) bool {
	return status == StatusDelivered || status == StatusFailed
}

// Contact is a sender or recipient block.
type Contact struct {
	Name    string
	Email   string
	Phone   string
	Address string
}

// Package describes the parcel contents.
type Package struct {
	Description string
	Weight      *float64
	Notes       string
}

// TimelineEntry is one append-only status change on a shipment.
type TimelineEntry struct {
	Timestamp int64
	Status    string
	Label     string
	Actor     string
}

// CompletionDetails is set once, when a driver completes or fails a delivery.
type CompletionDetails struct {
	ConfirmedBy   string
	ConfirmedAt   int64
	FailureReason string
	SignatureURL  string
}

// Shipment is the driver/tracking-facing projection of a stored record. Raw
// keeps the full record for the address helpers, which must tolerate legacy
// field layouts.
type Shipment struct {
	ID               string
	TrackingNumber   string
	Status           string
	Source           string
	Priority         string
	DriverID         string
	CreatedAt        int64
	UpdatedAt        int64
	ScheduledDate    int64
	ExpectedDelivery int64
	Sender           Contact
	Recipient        Contact
	Package          Package
	Completion       *CompletionDetails
	Timeline         []TimelineEntry
	Raw              backend.Record
}

// Report is a driver-submitted issue report.
type Report struct {
	ID               string
	DeliveryID       string
	DriverID         string
	DriverName       string
	DriverEmail      string
	IssueType        string
	Description      string
	NeedsAssistance  bool
	PhotoURL         string
	Status           string
	ReportedAt       int64
	DeliveryTracking string
	AdminResponse    string
}

func str(rec backend.Record, key string) string {
	if v, ok := rec[key].(string); ok {
		return v
	}
	return ""
}

func i64(rec backend.Record, key string) int64 {
	switch v := rec[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	}
	return 0
}

func boolean(rec backend.Record, key string) bool {
	v, _ := rec[key].(bool)
	return v
}

func child(rec backend.Record, key string) backend.Record {
	if v, ok := rec[key].(backend.Record); ok {
		return v
	}
	return nil
}

func contactFrom(rec backend.Record) Contact {
	if rec == nil {
		return Contact{}
	}
	return Contact{
		Name:    str(rec, "name"),
		Email:   str(rec, "email"),
		Phone:   str(rec, "phone"),
		Address: str(rec, "address"),
	}
}

// FromRecord builds a Shipment from a stored record plus its push key.
func FromRecord(key string, rec backend.Record) Shipment {
	s := Shipment{
		ID:               key,
		TrackingNumber:   str(rec, "trackingNumber"),
		Status:           str(rec, "status"),
		Source:           str(rec, "source"),
		Priority:         str(rec, "priority"),
		DriverID:         str(rec, "driverId"),
		CreatedAt:        i64(rec, "createdAt"),
		UpdatedAt:        i64(rec, "updatedAt"),
		ScheduledDate:    i64(rec, "scheduledDate"),
		ExpectedDelivery: i64(rec, "expectedDelivery"),
		Sender:           contactFrom(child(rec, "sender")),
		Recipient:        contactFrom(child(rec, "recipient")),
		Raw:              rec,
	}
	if s.Status == "" {
		s.Status = StatusPending
	}
	if pkg := child(rec, "package"); pkg != nil {
		s.Package.Description = str(pkg, "description")
		s.Package.Notes = str(pkg, "notes")
		if w, ok := pkg["weight"].(float64); ok {
			s.Package.Weight = &w
		}
	}
	if cd := child(rec, "completionDetails"); cd != nil {
		s.Completion = &CompletionDetails{
			ConfirmedBy:   str(cd, "confirmedBy"),
			ConfirmedAt:   i64(cd, "confirmedAt"),
			FailureReason: str(cd, "failureReason"),
			SignatureURL:  str(cd, "signatureUrl"),
		}
	}
	if entries, ok := rec["timeline"].([]any); ok {
		for _, e := range entries {
			em, ok := e.(backend.Record)
			if !ok {
				continue
			}
			s.Timeline = append(s.Timeline, TimelineEntry{
				Timestamp: i64(em, "timestamp"),
				Status:    str(em, "status"),
				Label:     str(em, "label"),
				Actor:     str(em, "actor"),
			})
		}
	}
	return s
}

// ReportFromRecord builds a Report from a stored record plus its push key.
func ReportFromRecord(key string, rec backend.Record) Report {
	r := Report{
		ID:               key,
		DeliveryID:       str(rec, "deliveryId"),
		DriverID:         str(rec, "driverId"),
		DriverName:       str(rec, "driverName"),
		DriverEmail:      str(rec, "driverEmail"),
		IssueType:        str(rec, "issueType"),
		Description:      str(rec, "description"),
		NeedsAssistance:  boolean(rec, "needsAssistance"),
		PhotoURL:         str(rec, "photoUrl"),
		Status:           str(rec, "status"),
		ReportedAt:       i64(rec, "reportedAt"),
		DeliveryTracking: str(rec, "deliveryTracking"),
		AdminResponse:    str(rec, "adminResponse"),
	}
	if r.Status == "" {
		r.Status = StatusReportOpen
	}
	return r
}
