// Package control implements the request/response control surface of the
// trading service.
package control

import (
	"context"

	"github.com/rxtech-lab/axon-client/internal/types"
)

// ControlClient is the control surface of the trading service. Every call is
// issued once. Failures the service reports come back as *errors.ServiceError.
type ControlClient interface {
	// Health returns the service health status. It needs no identity token.
	Health(ctx context.Context) (string, error)
	// VerifyToken returns the user id of the current identity token.
	VerifyToken(ctx context.Context) (string, error)

	// Status returns the broker link status.
	Status(ctx context.Context) (types.BrokerStatus, error)
	// Connect logs the service into the broker.
	Connect(ctx context.Context, creds types.BrokerCredentials) error
	// Disconnect drops the broker link.
	Disconnect(ctx context.Context) error
	// Balance returns the broker account balance.
	Balance(ctx context.Context) (types.Balance, error)

	// ListPairs returns the tradable pairs. It needs no identity token.
	ListPairs(ctx context.Context) ([]string, error)
	// ListStrategies returns the available strategies. It needs no identity token.
	ListStrategies(ctx context.Context) ([]string, error)

	// StartAutoSession starts an auto trading session and returns its id.
	StartAutoSession(ctx context.Context, params types.StartParams) (string, error)
	// StopAutoSession stops an auto trading session.
	StopAutoSession(ctx context.Context, sessionID string) error
	// StartSignalSession starts a signal session and returns its id.
	StartSignalSession(ctx context.Context, params types.SignalParams) (string, error)
	// StopSignalSession stops a signal session.
	StopSignalSession(ctx context.Context, sessionID string) error

	// RecentSessions returns up to limit sessions, most recent first.
	RecentSessions(ctx context.Context, limit int) ([]types.SessionRecord, error)
	// RecentTrades returns the recent trades of the user.
	RecentTrades(ctx context.Context) ([]types.TradeRecord, error)
}
