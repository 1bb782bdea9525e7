package notification

import "context"

// Gateway delivers a multicast to an external push provider.
type Gateway interface {
	Send(ctx context.Context, msg *PushMessage) (*SendResult, error)
	Name() string
}
