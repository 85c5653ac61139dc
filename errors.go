package rpcline

import "errors"

// ErrClosedClient is returned by every public operation once the client has
// entered Closing or Closed. It is always fatal at the call site — the
// client never recovers from it internally.
var ErrClosedClient = errors.New("client is closed")
