package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Call describes one finished dispatch, handed to every Observer.
type Call struct {
	Procedure string
	Kind      Kind
	Caller    *Identity
	Duration  time.Duration
	Err       error
	// Registered is false when no procedure carries the requested name.
	Registered bool
}

// Code is the outcome code of the call, "OK" on success.
func (c Call) Code() string {
	if c.Err == nil {
		return "OK"
	}
	return models.CodeOf(c.Err)
}

// Observer is the Log stage of the pipeline.
type Observer interface {
	Observe(ctx context.Context, call Call)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, call Call)

func (f ObserverFunc) Observe(ctx context.Context, call Call) { f(ctx, call) }

// LogObserver writes one structured line per call.
func LogObserver() Observer {
	return ObserverFunc(func(ctx context.Context, call Call) {
		attrs := []any{
			slog.String("procedure", call.Procedure),
			slog.String("kind", string(call.Kind)),
			slog.Duration("duration", call.Duration),
			slog.String("code", call.Code()),
		}
		switch call.Code() {
		case "OK":
			middleware.Logger.InfoContext(ctx, "rpc call", attrs...)
		case models.CodeInternal:
			attrs = append(attrs, slog.String("error", call.Err.Error()))
			middleware.Logger.ErrorContext(ctx, "rpc call", attrs...)
		default:
			middleware.Logger.WarnContext(ctx, "rpc call", attrs...)
		}
	})
}

// MetricsObserver records procedure counters and latency. Names that match
// no procedure share one label so callers cannot grow the series set.
func MetricsObserver() Observer {
	return ObserverFunc(func(_ context.Context, call Call) {
		name := call.Procedure
		if !call.Registered {
			name = observability.UnknownProcedure
		}
		observability.ObserveProcedure(name, call.Code(), call.Duration)
	})
}

// Pipeline runs Authenticate, Authorize and the procedure, then hands the
// result to each Observer.
type Pipeline struct {
	Registry      *Registry
	Authenticator Authenticator
	Authorizer    Authorizer
	Observers     []Observer
}

// Dispatch runs the named procedure. kind is the kind the transport was
// asked for; a query cannot be run as a mutation or the reverse.
func (p *Pipeline) Dispatch(ctx context.Context, name string, kind Kind, headers Headers, input json.RawMessage) (result interface{}, err error) {
	start := time.Now()
	ctx, span := observability.StartProcedureSpan(ctx, name, string(kind))
	defer span.End()

	var caller *Identity
	var registered bool
	defer func() {
		if r := recover(); r != nil {
			err = models.NewInternalError(fmt.Errorf("procedure %s panicked: %v", name, r))
			result = nil
		}
		if err != nil && models.CodeOf(err) == models.CodeInternal {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		call := Call{
			Procedure:  name,
			Kind:       kind,
			Caller:     caller,
			Duration:   time.Since(start),
			Err:        err,
			Registered: registered,
		}
		for _, o := range p.Observers {
			o.Observe(ctx, call)
		}
	}()

	proc, ok := p.Registry.Lookup(name)
	if !ok {
		return nil, models.NewNotFoundMessage(fmt.Sprintf("No procedure named %q", name))
	}
	registered = true
	if proc.Kind != kind {
		return nil, models.NewBadRequestError(fmt.Sprintf("Procedure %q is a %s", name, proc.Kind))
	}

	if p.Authenticator != nil {
		caller, err = p.Authenticator.Authenticate(ctx, headers)
		if err != nil {
			return nil, err
		}
	}
	if caller != nil {
		ctx = WithIdentity(ctx, caller)
		ctx = middleware.WithUserID(ctx, caller.UserID)
		span.SetAttributes(attribute.String("enduser.id", caller.UserID))
	}

	if p.Authorizer != nil {
		if err = p.Authorizer.Authorize(ctx, proc, caller); err != nil {
			return nil, err
		}
	}

	return proc.Handler(ctx, input)
}
