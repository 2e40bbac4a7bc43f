package shipment

import (
	"fmt"
	"strings"
	"time"
)

const locationUnavailable = "Location unavailable"

// StatusLabel maps a shipment status onto its display label. Unknown
// statuses pass through unchanged so new dispatch-side states still render.
func StatusLabel(status string) string {
	switch status {
	case StatusPending:
		return "Pending"
	case StatusPendingKiosk:
		return "Pending Kiosk"
	case StatusPickedUp:
		return "Picked Up"
	case StatusInTransit:
		return "In Transit"
	case StatusOutForDelivery:
		return "Out for Delivery"
	case StatusLoadedForDelivery:
		return "Loaded for Delivery"
	case StatusDelivered:
		return "Delivered"
	case StatusFailed:
		return "Delivery Failed"
	default:
		return status
	}
}

// ReportStatusLabel maps a report status onto its display label; anything
// unrecognized renders as Open.
func ReportStatusLabel(status string) string {
	switch status {
	case StatusReportInProgress:
		return "In Progress"
	case StatusReportResolved:
		return "Resolved"
	case StatusReportClosed:
		return "Closed"
	default:
		return "Open"
	}
}

// FormatIssueType turns a snake_case issue type into Title Case for display.
func FormatIssueType(issueType string) string {
	if issueType == "" {
		return "Other"
	}
	words := strings.Split(strings.ReplaceAll(issueType, "_", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// FormatAddress renders an address of any stored shape: a plain string, a
// list of parts, or a structured block using either current or legacy field
// names. Empty input renders the unavailable placeholder.
func FormatAddress(address any) string {
	switch v := address.(type) {
	case nil:
		return locationUnavailable
	case string:
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
		return locationUnavailable
	case []any:
		var parts []string
		for _, p := range v {
			if s, ok := p.(string); ok {
				if trimmed := strings.TrimSpace(s); trimmed != "" {
					parts = append(parts, trimmed)
				}
			}
		}
		if len(parts) > 0 {
			return strings.Join(parts, ", ")
		}
		return locationUnavailable
	case map[string]any:
		parts := collectAddressParts(v)
		if len(parts) > 0 {
			return strings.Join(parts, ", ")
		}
		return locationUnavailable
	default:
		return fmt.Sprint(v)
	}
}

// collectAddressParts walks the structured field names in display order,
// covering the spellings found in historical records.
func collectAddressParts(m map[string]any) []string {
	keys := []string{
		"address", "addressLine1", "addressLine2", "street", "suburb",
		"city", "town", "province", "state", "country", "postalCode", "zip",
	}
	seen := map[string]bool{}
	var parts []string
	for _, k := range keys {
		// province/state and postalCode/zip are aliases; first hit wins.
		alias := k
		switch k {
		case "state":
			alias = "province"
		case "zip":
			alias = "postalCode"
		}
		if seen[alias] {
			continue
		}
		if s, ok := m[k].(string); ok {
			if trimmed := strings.TrimSpace(s); trimmed != "" {
				parts = append(parts, trimmed)
				seen[alias] = true
			}
		}
	}
	return parts
}

// PickupAddress resolves a shipment's origin, preferring explicit origin
// fields and falling back to the sender block.
func PickupAddress(s Shipment) string {
	if s.Raw != nil {
		if origin, ok := s.Raw["origin"]; ok && origin != nil {
			return FormatAddress(origin)
		}
		if loc, ok := s.Raw["pickupLocation"]; ok && loc != nil {
			return FormatAddress(loc)
		}
	}
	return FormatAddress(s.Sender.Address)
}

// DropoffAddress resolves a shipment's destination, preferring explicit
// destination fields and falling back to the recipient block.
func DropoffAddress(s Shipment) string {
	if s.Raw != nil {
		if dest, ok := s.Raw["destination"]; ok && dest != nil {
			return FormatAddress(dest)
		}
		if loc, ok := s.Raw["dropoffLocation"]; ok && loc != nil {
			return FormatAddress(loc)
		}
	}
	return FormatAddress(s.Recipient.Address)
}

// RoutePath renders "origin → destination" for list rows.
func RoutePath(s Shipment) string {
	return PickupAddress(s) + " → " + DropoffAddress(s)
}

// FormatContact renders "name — phone • email", omitting absent parts.
// Returns "" when the contact is entirely empty.
func FormatContact(c Contact) string {
	var parts []string
	if c.Name != "" {
		parts = append(parts, c.Name)
	}
	var detail []string
	if c.Phone != "" {
		detail = append(detail, c.Phone)
	}
	if c.Email != "" {
		detail = append(detail, c.Email)
	}
	if len(detail) > 0 {
		parts = append(parts, strings.Join(detail, " • "))
	}
	return strings.Join(parts, " — ")
}

// FormatUnixMillis renders a millisecond timestamp for display; zero renders
// as an em-dash placeholder.
func FormatUnixMillis(ms int64) string {
	if ms == 0 {
		return "—"
	}
	return time.UnixMilli(ms).Local().Format("2006-01-02 15:04")
}
