package shipment

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lord-william/lalalika-logistics/internal/backend"
)

func TestStatusLabel(t *testing.T) {
	tests := []struct {
		status string
		want   string
	}{
		{StatusPending, "Pending"},
		{StatusPendingKiosk, "Pending Kiosk"},
		{StatusPickedUp, "Picked Up"},
		{StatusInTransit, "In Transit"},
		{StatusOutForDelivery, "Out for Delivery"},
		{StatusLoadedForDelivery, "Loaded for Delivery"},
		{StatusDelivered, "Delivered"},
		{StatusFailed, "Delivery Failed"},
		{"quarantined", "quarantined"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusLabel(tt.status), "status %q", tt.status)
	}
}

func TestReportStatusLabel(t *testing.T) {
	assert.Equal(t, "Open", ReportStatusLabel(StatusReportOpen))
	assert.Equal(t, "In Progress", ReportStatusLabel(StatusReportInProgress))
	assert.Equal(t, "Resolved", ReportStatusLabel(StatusReportResolved))
	assert.Equal(t, "Closed", ReportStatusLabel(StatusReportClosed))
	assert.Equal(t, "Open", ReportStatusLabel("anything-else"))
	assert.Equal(t, "Open", ReportStatusLabel(""))
}

func TestFormatIssueType(t *testing.T) {
	assert.Equal(t, "Vehicle Breakdown", FormatIssueType("vehicle_breakdown"))
	assert.Equal(t, "Traffic", FormatIssueType("traffic"))
	assert.Equal(t, "Customer Unavailable", FormatIssueType("customer_unavailable"))
	assert.Equal(t, "Other", FormatIssueType(""))
}

func TestFormatAddress(t *testing.T) {
	t.Run("plain string passes through trimmed", func(t *testing.T) {
		assert.Equal(t, "12 Loop St, Cape Town", FormatAddress("  12 Loop St, Cape Town "))
	})

	t.Run("blank values render the placeholder", func(t *testing.T) {
		assert.Equal(t, "Location unavailable", FormatAddress(nil))
		assert.Equal(t, "Location unavailable", FormatAddress(""))
		assert.Equal(t, "Location unavailable", FormatAddress("   "))
		assert.Equal(t, "Location unavailable", FormatAddress([]any{}))
		assert.Equal(t, "Location unavailable", FormatAddress(map[string]any{}))
	})

	t.Run("list parts join with commas", func(t *testing.T) {
		got := FormatAddress([]any{"12 Loop St", " Cape Town ", "", 42, "8001"})
		assert.Equal(t, "12 Loop St, Cape Town, 8001", got)
	})

	t.Run("structured block renders in display order", func(t *testing.T) {
		got := FormatAddress(map[string]any{
			"city":       "Cape Town",
			"street":     "12 Loop St",
			"postalCode": "8001",
			"province":   "Western Cape",
		})
		assert.Equal(t, "12 Loop St, Cape Town, Western Cape, 8001", got)
	})

	t.Run("legacy field spellings are aliases", func(t *testing.T) {
		got := FormatAddress(map[string]any{
			"street": "12 Loop St",
			"state":  "Western Cape",
			"zip":    "8001",
		})
		assert.Equal(t, "12 Loop St, Western Cape, 8001", got)

		// Current spelling wins over its legacy alias when both exist.
		both := FormatAddress(map[string]any{
			"province": "Western Cape",
			"state":    "WC",
		})
		assert.Equal(t, "Western Cape", both)
	})
}

func TestPickupDropoffAddress(t *testing.T) {
	t.Run("prefers explicit origin and destination", func(t *testing.T) {
		s := FromRecord("ship-1", backend.Record{
			"origin":      "Warehouse A",
			"destination": "34 Main Rd, Durban",
			"sender":      backend.Record{"address": "ignored"},
			"recipient":   backend.Record{"address": "ignored"},
		})
		assert.Equal(t, "Warehouse A", PickupAddress(s))
		assert.Equal(t, "34 Main Rd, Durban", DropoffAddress(s))
	})

	t.Run("falls back to pickup and dropoff locations", func(t *testing.T) {
		s := FromRecord("ship-1", backend.Record{
			"pickupLocation":  "Kiosk 3",
			"dropoffLocation": "34 Main Rd, Durban",
		})
		assert.Equal(t, "Kiosk 3", PickupAddress(s))
		assert.Equal(t, "34 Main Rd, Durban", DropoffAddress(s))
	})

	t.Run("falls back to contact addresses", func(t *testing.T) {
		s := FromRecord("ship-1", backend.Record{
			"sender":    backend.Record{"address": "12 Loop St"},
			"recipient": backend.Record{"address": "34 Main Rd"},
		})
		assert.Equal(t, "12 Loop St", PickupAddress(s))
		assert.Equal(t, "34 Main Rd", DropoffAddress(s))
		assert.Equal(t, "12 Loop St → 34 Main Rd", RoutePath(s))
	})
}

func TestFormatContact(t *testing.T) {
	assert.Equal(t, "Ada — 082 123 4567 • ada@example.com", FormatContact(Contact{
		Name:  "Ada",
		Phone: "082 123 4567",
		Email: "ada@example.com",
	}))
	assert.Equal(t, "Ada", FormatContact(Contact{Name: "Ada"}))
	assert.Equal(t, "ada@example.com", FormatContact(Contact{Email: "ada@example.com"}))
	assert.Equal(t, "", FormatContact(Contact{}))
}

func TestFormatUnixMillis(t *testing.T) {
	assert.Equal(t, "—", FormatUnixMillis(0))
	assert.NotEqual(t, "—", FormatUnixMillis(1700000000000))
}
