// Package gateway implements a single Discord-style Gateway shard: the
// handshake, heartbeat, resume and reconnect state machine that sits between
// a raw WebSocket connection and a stream of decoded dispatch events.
//
// A Shard owns exactly one connection at a time and exposes it through
// NextEvent, a pull-based accessor modeled on a lazily-driven stream: nothing
// happens on the wire until the caller asks for the next event, and calling
// it again resumes exactly where the shard left off.
package gateway
