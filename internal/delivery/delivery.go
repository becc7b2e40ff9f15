// Package delivery defines the contract for inbound transports.
package delivery

import "context"

// Delivery is a long-running inbound transport such as the HTTP API.
type Delivery interface {
	Serve(ctx context.Context) error
}
