// Package health reports whether a service's dependencies answer, over the
// standard gRPC health protocol and a plain /healthz route.
package health

import (
	"context"
	"log"
	"net"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const checkTimeout = 2 * time.Second

// Check probes one dependency.
type Check func(ctx context.Context) error

type Checker struct {
	service string
	checks  map[string]Check
	srv     *health.Server

	mu   sync.Mutex
	last map[string]error
}

// New returns a checker for service; each check is also exposed as its own
// gRPC health service name.
func New(service string, checks map[string]Check) *Checker {
	return &Checker{
		service: service,
		checks:  checks,
		srv:     health.NewServer(),
		last:    map[string]error{},
	}
}

// CheckOnce runs every check and publishes the result. The overall status
// is SERVING only when all checks pass.
func (c *Checker) CheckOnce(ctx context.Context) map[string]error {
	out := make(map[string]error, len(c.checks))
	for name, check := range c.checks {
		cctx, cancel := context.WithTimeout(ctx, checkTimeout)
		out[name] = check(cctx)
		cancel()
	}

	overall := healthpb.HealthCheckResponse_SERVING
	for name, err := range out {
		st := healthpb.HealthCheckResponse_SERVING
		if err != nil {
			st = healthpb.HealthCheckResponse_NOT_SERVING
			overall = st
		}
		c.srv.SetServingStatus(name, st)
	}
	c.srv.SetServingStatus("", overall)
	c.srv.SetServingStatus(c.service, overall)

	c.mu.Lock()
	for name, err := range out {
		if (err == nil) != (c.last[name] == nil) {
			log.Printf("[health] %s %s: %v", c.service, name, errOrOK(err))
		}
	}
	c.last = out
	c.mu.Unlock()
	return out
}

func errOrOK(err error) any {
	if err == nil {
		return "ok"
	}
	return err
}

// Watch re-runs the checks every interval until ctx is done.
func (c *Checker) Watch(ctx context.Context, interval time.Duration) {
	c.CheckOnce(ctx)
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			c.srv.Shutdown()
			return
		case <-t.C:
			c.CheckOnce(ctx)
		}
	}
}

// Serve exposes the gRPC health service on addr until ctx is done.
func (c *Checker) Serve(ctx context.Context, addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	gs := grpc.NewServer()
	healthpb.RegisterHealthServer(gs, c.srv)
	go func() {
		<-ctx.Done()
		gs.GracefulStop()
	}()
	log.Printf("[health] grpc health listening on %s", addr)
	return gs.Serve(lis)
}

// Handler answers /healthz with the state of every check.
func (c *Checker) Handler() gin.HandlerFunc {
	return func(g *gin.Context) {
		res := c.CheckOnce(g.Request.Context())
		body := gin.H{"status": "ok", "service": c.service}
		checks := gin.H{}
		names := make([]string, 0, len(res))
		for name := range res {
			names = append(names, name)
		}
		sort.Strings(names)
		code := http.StatusOK
		for _, name := range names {
			if err := res[name]; err != nil {
				checks[name] = err.Error()
				code = http.StatusServiceUnavailable
				body["status"] = "degraded"
				continue
			}
			checks[name] = "ok"
		}
		body["checks"] = checks
		g.JSON(code, body)
	}
}
