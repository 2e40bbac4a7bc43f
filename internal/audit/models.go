package audit

// Entry types, one per state-changing user action.
const (
	TypeDelivery = "delivery"
	TypeIssue    = "issue"
	TypeShipment = "shipment"
)

// Entry is an append-only activity record. It is a write-only sink: nothing
// in the driver- or kiosk-facing code reads it back.
type Entry struct {
	Type           string
	Status         string
	Details        string
	DriverID       string
	ShipmentID     string
	TrackingNumber string
	Timestamp      int64
}
