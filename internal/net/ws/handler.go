// Package ws is the websocket transport of the client. It reports connection
// events to a transport.Handler and owns the reconnection policy.
package ws

import "errors"

// ErrStopped is returned when sending on a connection that was stopped.
var ErrStopped = errors.New("ws: connection stopped")
