// Package session talks to one WS-1001 console over the network.
//
// Handshake is reversed compared to usual client-server:
// - we listen TCP (default port 6500)
// - broadcast SEARCH command over UDP port 6000
// - console connects back to us, first accepted connection wins
//
// After that each NextRecord call is one query/response cycle.
// Session never reconnects, any transport or decoding failure is terminal.
package session
