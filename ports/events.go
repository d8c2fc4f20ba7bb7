package ports

import "context"

// EventPublisher publishes runtime events so other processes can follow them
type EventPublisher interface {
	PublishSessionChange(ctx context.Context, sessionID string) error
	PublishNetworkChange(ctx context.Context, networkName string) error
	PublishLogout(ctx context.Context, address string, sessionID string) error
}
