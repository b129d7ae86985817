// Package iso20022 renders a payment record into the four related ISO 20022
// message types: pain.001 (customer credit transfer initiation), pacs.008
// (FI-to-FI credit transfer), pacs.002 (payment status report) and camt.054
// (debit/credit notification). Rendering is pure: identical input with an
// identical identifier set and timestamp produces byte-identical output.
package iso20022

import (
	"github.com/iso20022-payment-hub/internal/domain/payment"
)

// MessageType discriminates the four generated document kinds
type MessageType string

const (
	MessageTypePain001 MessageType = "pain001"
	MessageTypePacs008 MessageType = "pacs008"
	MessageTypePacs002 MessageType = "pacs002"
	MessageTypeCamt054 MessageType = "camt054"
)

// MessageTypes lists the generated document kinds in rendering order
var MessageTypes = []MessageType{MessageTypePain001, MessageTypePacs008, MessageTypePacs002, MessageTypeCamt054}

// ParseMessageType converts a string into a MessageType, rejecting unknown values
func ParseMessageType(s string) (MessageType, bool) {
	switch MessageType(s) {
	case MessageTypePain001, MessageTypePacs008, MessageTypePacs002, MessageTypeCamt054:
		return MessageType(s), true
	}
	return "", false
}

// RoutingProfile holds the fixed rail-specific tokens embedded in generated
// messages: the service level code identifying processing requirements, the
// placeholder BIC used for both agents, and the clearing system reference.
type RoutingProfile struct {
	ServiceLevel      string
	BIC               string
	ClearingSystemRef string
}

// routingProfiles is a closed table keyed by rail. It is not runtime
// configurable; unknown rails are rejected at the codec boundary.
var routingProfiles = map[payment.Rail]RoutingProfile{
	payment.RailFedNow: {ServiceLevel: "URGP", BIC: "FEDNUSXXFNS", ClearingSystemRef: "FEDNOW"},
	payment.RailRTP:    {ServiceLevel: "URGP", BIC: "RTPNUSXXXXX", ClearingSystemRef: "TCH-RTP"},
	payment.RailSwift:  {ServiceLevel: "G001", BIC: "SWFTUSXXXXX", ClearingSystemRef: "SWIFT-CBPR"},
}

// RoutingFor returns the routing profile for a rail. The second return is
// false for rails outside the closed table.
func RoutingFor(rail payment.Rail) (RoutingProfile, bool) {
	profile, ok := routingProfiles[rail]
	return profile, ok
}
