// Package protocol defines the JSON wire format of the signaling relay.
//
// Inbound frames are parsed once at the boundary into one concrete type per
// message kind, so the router dispatches on Go types instead of strings.
// Outbound messages are plain structs carrying a "type" discriminator and a
// server timestamp.
package protocol
