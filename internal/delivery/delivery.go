// Package delivery defines the contract every transport adapter satisfies.
package delivery

import "context"

// Delivery is a transport surface (HTTP today) that serves requests until
// its context is canceled or the fx lifecycle stops it.
type Delivery interface {
	Serve(ctx context.Context) error
}
