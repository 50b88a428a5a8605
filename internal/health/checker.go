// Package health reports readiness through the standard gRPC health service.
package health

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const checkTimeout = 2 * time.Second

// Pinger checks connectivity to a dependency such as *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PolicyChecker checks that the authorization engine can evaluate.
type PolicyChecker interface {
	HealthCheck(ctx context.Context) error
}

// Checker checks the server's dependencies and publishes the result on a gRPC health server.
// Nil dependencies are skipped.
type Checker struct {
	db     Pinger
	policy PolicyChecker
	srv    *grpchealth.Server
	clock  clockwork.Clock
	log    logrus.FieldLogger
}

// NewChecker returns a Checker publishing to srv.
func NewChecker(db Pinger, policy PolicyChecker, srv *grpchealth.Server, clock clockwork.Clock, log logrus.FieldLogger) *Checker {
	return &Checker{db: db, policy: policy, srv: srv, clock: clock, log: log}
}

// Check runs every dependency check once and returns the first failure.
func (c *Checker) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()
	if c.db != nil {
		if err := c.db.PingContext(ctx); err != nil {
			return err
		}
	}
	if c.policy != nil {
		if err := c.policy.HealthCheck(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Update runs Check and sets the serving status of services accordingly.
func (c *Checker) Update(ctx context.Context, services ...string) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING
	if err := c.Check(ctx); err != nil {
		status = healthpb.HealthCheckResponse_NOT_SERVING
		c.log.WithError(err).Warn("health check failed")
	}
	c.srv.SetServingStatus("", status)
	for _, s := range services {
		c.srv.SetServingStatus(s, status)
	}
	return status
}

// Run updates the status every interval until ctx is done.
func (c *Checker) Run(ctx context.Context, interval time.Duration, services ...string) {
	c.Update(ctx, services...)
	ticker := c.clock.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			c.Update(ctx, services...)
		}
	}
}
