package nemis

import (
	"context"
	"errors"
	"fmt"

	"nemis-backend/lib/scrapers/nemis/core"

	"github.com/dgraph-io/badger/v4"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/nemis")

var validate = validator.New(validator.WithRequiredStructEnabled())

// Client exposes the portal's business operations over one session.
// Operations on a single client are strictly sequential, the session
// lock serializes them. Open one client per institution account for
// parallelism.
type Client struct {
	Session *core.Session

	cache searchCache
}

type ClientOptions struct {
	// optional badger db for the read-only learner search cache
	Cache *badger.DB
}

func NewClient(ctx context.Context, session *core.Session, opts ClientOptions) (*Client, error) {
	if session == nil {
		return nil, fmt.Errorf("nemis client requires a session")
	}
	return &Client{
		Session: session,
		cache:   searchCache{db: opts.Cache},
	}, nil
}

func validateRequest(req any) error {
	err := validate.Struct(req)
	if err != nil {
		return fmt.Errorf("invalid request: %w", err)
	}
	return nil
}

// withSession runs one operation body under the session lock with the
// single session-expiry recovery: one automatic re-login, one replay
// of the operation. A second expiry inside the same call is surfaced
// as a fatal authentication failure instead of looping.
func (c *Client) withSession(ctx context.Context, name string, op func(ctx context.Context) error) error {
	ctx, span := tracer.Start(ctx, name)
	defer span.End()

	c.Session.Acquire()
	defer c.Session.Release()

	err := op(ctx)
	if !errors.Is(err, core.ErrSessionExpired) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		return err
	}

	span.AddEvent("session expired mid-operation, re-logging in once")
	err = c.Session.Relogin(ctx)
	if errors.Is(err, core.ErrSessionExpired) {
		err = core.ErrAuthentication{Reason: "session expired again during recovery"}
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "re-login failed")
		return err
	}

	err = op(ctx)
	if errors.Is(err, core.ErrSessionExpired) {
		err = core.ErrAuthentication{Reason: "session expired twice within one call"}
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "replay after re-login failed")
	}
	return err
}
