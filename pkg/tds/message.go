// Package tds models the small slice of the TDS (Tabular Data Stream) token
// stream the cursor flow engine needs to reason about. Byte-level framing,
// the prelogin/SSL handshake, and the wire codecs for every SQL type are
// out of scope here and are represented only by the shapes this package
// declares — a real transport decodes bytes into these values upstream of
// the engine.
package tds

// Message is the tagged-variant every inbound TDS token implements. The
// cursor flow engine dispatches on the concrete type with a type switch
// rather than virtual methods, mirroring the reducer described by the
// engine's state machine.
type Message interface {
	isMessage()
}

// ClientMessage is an outbound request built by the rpc package. It is a
// distinct type from Message so a reducer can never accidentally forward
// something it built back to itself.
type ClientMessage interface {
	ClientMessage()
}
