package core

import (
	"context"
	"time"

	retry "github.com/avast/retry-go"
	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"

	"github.com/bridgelabs/lane-relayer/log"
)

const (
	DefaultRelayInterval = 3 * time.Second
	DefaultStallTimeout  = 5 * time.Minute
)

// ServiceOptions tune the relay service of one lane.
type ServiceOptions struct {
	Strategy      RelayStrategy
	Limits        BatchLimits
	Thresholds    ConfirmationThresholds
	RelayInterval time.Duration
	StallTimeout  time.Duration
}

// RelayService synchronizes one lane: it runs the delivery and
// confirmation races against a source/target client pair and reconnects
// both clients whenever either race reports a connection-class failure.
type RelayService struct {
	lane   LaneID
	source SourceClient
	target TargetClient
	opts   ServiceOptions
	logger *log.RelayLogger
}

func NewRelayService(lane LaneID, source SourceClient, target TargetClient, opts ServiceOptions) *RelayService {
	if opts.Strategy == nil {
		opts.Strategy = &BasicStrategy{}
	}
	if opts.RelayInterval <= 0 {
		opts.RelayInterval = DefaultRelayInterval
	}
	if opts.StallTimeout <= 0 {
		opts.StallTimeout = DefaultStallTimeout
	}
	return &RelayService{
		lane:   lane,
		source: source,
		target: target,
		opts:   opts,
		logger: log.GetLogger().WithLane(lane.String(), source.ChainID(), target.ChainID()),
	}
}

// StartService runs the relay service until the context is canceled.
func StartService(ctx context.Context, lane LaneID, source SourceClient, target TargetClient, opts ServiceOptions) error {
	return NewRelayService(lane, source, target, opts).Start(ctx)
}

// Start runs both races, restarting them after client reconnects. It
// returns once the context is canceled or on an unrecoverable error.
func (srv *RelayService) Start(ctx context.Context) error {
	srv.logger.Info("relay service started", "strategy", srv.opts.Strategy.GetType())
	for {
		err := srv.runRaces(ctx)
		if ctx.Err() != nil {
			srv.logger.Info("relay service stopped")
			return nil
		}
		var failed *FailedClientError
		if !errors.As(err, &failed) {
			srv.logger.Error("relay service failed", err)
			return err
		}
		// A connection-class failure on either side invalidates the
		// in-memory race state of both directions: reconnect both
		// clients and start the races from scratch.
		srv.logger.Error("client connection failed, reconnecting both clients", failed.Err, "failed client", failed.Client.String())
		if err := srv.reconnect(ctx); err != nil {
			srv.logger.Error("failed to reconnect clients", err)
			return err
		}
		srv.logger.Info("clients reconnected, restarting races")
	}
}

func (srv *RelayService) runRaces(ctx context.Context) error {
	tracker := NewNonceTracker(srv.lane, srv.source, srv.target, srv.opts.Strategy, srv.opts.Limits, srv.logger)
	delivery := newDeliveryRace(srv.lane, srv.source, srv.target, tracker)
	confirmation := newConfirmationRace(srv.lane, srv.source, srv.target, srv.opts.Thresholds, srv.logger)

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return newRaceLoop(srv.lane, delivery, srv.opts.RelayInterval, srv.opts.StallTimeout, srv.logger).Run(ctx)
	})
	eg.Go(func() error {
		return newRaceLoop(srv.lane, confirmation, srv.opts.RelayInterval, srv.opts.StallTimeout, srv.logger).Run(ctx)
	})
	return eg.Wait()
}

func (srv *RelayService) reconnect(ctx context.Context) error {
	return retry.Do(func() error {
		if err := srv.source.Reconnect(ctx); err != nil {
			return errors.Wrap(err, "failed to reconnect the source client")
		}
		if err := srv.target.Reconnect(ctx); err != nil {
			return errors.Wrap(err, "failed to reconnect the target client")
		}
		return nil
	}, rtyAtt, rtyDel, rtyErr, rtyJitter, retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			srv.logger.Info(
				"retrying client reconnect",
				"attempt", n+1,
				"max attempts", rtyAttNum,
				"error", err.Error(),
			)
		}),
	)
}
