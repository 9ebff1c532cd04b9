package core

import (
	"context"
	"time"

	retry "github.com/avast/retry-go"
	"github.com/cockroachdb/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	api "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/bridgelabs/lane-relayer/internal/telemetry"
	"github.com/bridgelabs/lane-relayer/log"
)

var (
	rtyAttNum = uint(5)
	rtyAtt    = retry.Attempts(rtyAttNum)
	rtyDel    = retry.Delay(time.Millisecond * 400)
	rtyErr    = retry.LastErrorOnly(true)
	rtyJitter = retry.DelayType(retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay))
)

// race binds the generic race loop to one direction of a lane. The
// delivery race moves messages source→target, the confirmation race
// moves delivery receipts target→source; both have the shape "prove
// state of one chain, submit the proof to the other".
type race interface {
	Name() string
	SourceChainID() string
	TargetChainID() string

	SourceState(ctx context.Context) (ClientState, error)
	SourceNonces(ctx context.Context, at HeaderID) (HeaderID, ClientNonces, error)
	TargetState(ctx context.Context) (ClientState, error)
	TargetNonces(ctx context.Context, at HeaderID) (HeaderID, ClientNonces, error)

	SourceNoncesUpdated(at HeaderID, nonces ClientNonces)
	TargetNoncesUpdated(nonces ClientNonces, state *RaceState)

	SelectNoncesToDeliver(ctx context.Context, state *RaceState) (*SelectedNonces, error)
	// Prove fills selected.Proof and may narrow selected.Nonces to what
	// is actually provable.
	Prove(ctx context.Context, selected *SelectedNonces) error
	Submit(ctx context.Context, selected *SelectedNonces) (NonceRange, error)
}

type racePhase int

const (
	phaseIdle racePhase = iota
	phaseProving
	phaseSubmitting
	phaseAwaitingConfirmation
)

func (p racePhase) String() string {
	switch p {
	case phaseIdle:
		return "idle"
	case phaseProving:
		return "proving"
	case phaseSubmitting:
		return "submitting"
	case phaseAwaitingConfirmation:
		return "awaiting confirmation"
	default:
		return "unknown"
	}
}

// raceLoop drives one race direction: poll both clients, feed the nonce
// view, select work, prove it, submit it, and watch the submission until
// the target absorbs it or the stall timeout fires.
type raceLoop struct {
	lane          LaneID
	race          race
	state         RaceState
	phase         racePhase
	relayInterval time.Duration
	stallTimeout  time.Duration
	logger        *log.RelayLogger
}

func newRaceLoop(lane LaneID, r race, relayInterval, stallTimeout time.Duration, logger *log.RelayLogger) *raceLoop {
	return &raceLoop{
		lane:          lane,
		race:          r,
		relayInterval: relayInterval,
		stallTimeout:  stallTimeout,
		logger:        logger.WithRace(r.Name()),
	}
}

// Run drives the loop until the context is canceled or a client needs to
// be reconnected, in which case a FailedClientError is returned.
func (l *raceLoop) Run(ctx context.Context) error {
	l.logger.Info(
		"race loop started",
		"relay interval", l.relayInterval.String(),
		"stall timeout", l.stallTimeout.String(),
	)
	ticker := time.NewTicker(l.relayInterval)
	defer ticker.Stop()
	for {
		if err := l.step(ctx); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			l.logger.Info("race loop stopped")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (l *raceLoop) step(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "raceLoop.step",
		WithLaneAttributes(l.lane, l.race.SourceChainID(), l.race.TargetChainID()),
		trace.WithAttributes(AttributeKeyRace.String(l.race.Name())),
	)
	defer span.End()

	err := l.poll(ctx)
	if err == nil {
		err = l.advance(ctx)
	}
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		var failed *FailedClientError
		if errors.As(err, &failed) {
			return err
		}
		// Application-class failure: back off until the next tick.
		l.logger.Error("race step failed", err)
		return nil
	}
	return nil
}

// poll refreshes the race state from both clients and updates metrics.
func (l *raceLoop) poll(ctx context.Context) error {
	var srcState ClientState
	if err := l.withRetry(ctx, "query source state", func() error {
		var err error
		srcState, err = l.race.SourceState(ctx)
		return err
	}); err != nil {
		return l.raceError(FailedSourceClient, err)
	}
	l.state.BestSourceHeader = srcState.BestFinalizedHeader

	var (
		srcAt     HeaderID
		srcNonces ClientNonces
	)
	if err := l.withRetry(ctx, "query source nonces", func() error {
		var err error
		srcAt, srcNonces, err = l.race.SourceNonces(ctx, l.state.BestSourceHeader)
		return err
	}); err != nil {
		return l.raceError(FailedSourceClient, err)
	}
	l.race.SourceNoncesUpdated(srcAt, srcNonces)

	var tgtState ClientState
	if err := l.withRetry(ctx, "query target state", func() error {
		var err error
		tgtState, err = l.race.TargetState(ctx)
		return err
	}); err != nil {
		return l.raceError(FailedTargetClient, err)
	}
	l.state.BestTargetHeader = tgtState.BestHeader
	l.state.BestFinalizedSourceHeaderOnTarget = tgtState.BestFinalizedPeerHeader

	var tgtNonces ClientNonces
	if err := l.withRetry(ctx, "query target nonces", func() error {
		var err error
		_, tgtNonces, err = l.race.TargetNonces(ctx, l.state.BestTargetHeader)
		return err
	}); err != nil {
		return l.raceError(FailedTargetClient, err)
	}
	l.race.TargetNoncesUpdated(tgtNonces, &l.state)

	attrs := l.metricAttributes()
	telemetry.BestSourceNonceGauge.Set(int64(srcNonces.LatestNonce), attrs...)
	telemetry.BestTargetNonceGauge.Set(int64(tgtNonces.LatestNonce), attrs...)
	var backlog uint64
	if srcNonces.LatestNonce > tgtNonces.LatestNonce {
		backlog = srcNonces.LatestNonce - tgtNonces.LatestNonce
	}
	telemetry.BacklogSizeGauge.Set(int64(backlog), attrs...)

	return nil
}

// advance moves the selection/proof/submission pipeline as far as the
// current state allows.
func (l *raceLoop) advance(ctx context.Context) error {
	if l.state.NoncesSubmitted != nil {
		if l.stallTimeout > 0 && time.Since(l.state.SubmittedAt) >= l.stallTimeout {
			l.logger.Warn(
				"submitted nonces were not absorbed within the stall timeout, clearing them for re-selection",
				"nonces", l.state.NoncesSubmitted.String(),
				"submitted at", l.state.SubmittedAt.Format(time.RFC3339),
			)
			telemetry.StalledSubmissionsCounter.Add(ctx, 1, api.WithAttributes(l.metricAttributes()...))
			l.state.NoncesSubmitted = nil
			l.state.NoncesToSubmit = nil
			l.setPhase(phaseIdle)
		} else {
			l.setPhase(phaseAwaitingConfirmation)
			return nil
		}
	}

	if l.state.NoncesToSubmit == nil {
		l.setPhase(phaseIdle)
		selected, err := l.race.SelectNoncesToDeliver(ctx, &l.state)
		if err != nil {
			// Selection reads mostly from the source, but the rational
			// strategy also asks the target for cost estimates.
			client := FailedSourceClient
			if isTargetOrigin(err) {
				client = FailedTargetClient
			}
			return l.raceError(client, err)
		}
		if selected == nil {
			return nil
		}
		l.logger.Info(
			"selected nonces for submission",
			"nonces", selected.Nonces.String(),
			"at", selected.At.String(),
		)
		l.state.NoncesToSubmit = selected
	}

	if l.state.NoncesToSubmit.Proof == nil {
		l.setPhase(phaseProving)
		selected := l.state.NoncesToSubmit
		if err := l.withRetry(ctx, "generate proof", func() error {
			return l.race.Prove(ctx, selected)
		}); err != nil {
			// The selection may rest on state the source no longer
			// serves; drop it and re-select from fresh state.
			l.state.NoncesToSubmit = nil
			return l.raceError(FailedSourceClient, err)
		}
		if selected.Nonces.IsEmpty() {
			l.logger.Info("nothing left to prove, dropping the selection")
			l.state.NoncesToSubmit = nil
			l.setPhase(phaseIdle)
			return nil
		}
	}

	l.setPhase(phaseSubmitting)
	var accepted NonceRange
	if err := l.withRetry(ctx, "submit proof", func() error {
		var err error
		accepted, err = l.race.Submit(ctx, l.state.NoncesToSubmit)
		return err
	}); err != nil {
		l.state.NoncesToSubmit = nil
		return l.raceError(FailedTargetClient, err)
	}
	l.logger.Info("submitted proof", "nonces", accepted.String())
	telemetry.SubmittedNonceCounter.Add(ctx, int64(accepted.Len()), api.WithAttributes(l.metricAttributes()...))
	l.state.NoncesSubmitted = &accepted
	l.state.SubmittedAt = time.Now()
	l.setPhase(phaseAwaitingConfirmation)

	return nil
}

func (l *raceLoop) withRetry(ctx context.Context, name string, fn func() error) error {
	return retry.Do(fn, rtyAtt, rtyDel, rtyErr, rtyJitter, retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			l.logger.Info(
				"retrying "+name,
				"attempt", n+1,
				"max attempts", rtyAttNum,
				"error", err.Error(),
			)
		}),
	)
}

// raceError promotes connection-class failures to FailedClientError so
// the service can reconnect the clients. Other errors pass through.
func (l *raceLoop) raceError(client FailedClient, err error) error {
	if IsConnectionError(err) {
		return &FailedClientError{Client: client, Err: err}
	}
	return err
}

func (l *raceLoop) setPhase(phase racePhase) {
	if l.phase == phase {
		return
	}
	l.logger.Info("race phase changed", "from", l.phase.String(), "to", phase.String())
	l.phase = phase
}

func (l *raceLoop) metricAttributes() []attribute.KeyValue {
	return []attribute.KeyValue{
		AttributeKeyLaneID.String(l.lane.String()),
		AttributeKeyRace.String(l.race.Name()),
	}
}
