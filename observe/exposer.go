package observe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

// DefaultMetricsPort is the conventional scrape port.
const DefaultMetricsPort = 9108

// metricsServer serves a prometheus registry in the background.
type metricsServer struct {
	port  int
	stop  context.CancelFunc
	group *errgroup.Group
}

// startMetricsServer listens on port (0 picks a free one) and serves /metrics
// and /healthz until ctx is done or Close is called.
func startMetricsServer(ctx context.Context, port int, reg *promclient.Registry) (*metricsServer, error) {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, fmt.Errorf("metrics listen on port %d: %w", port, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	ctx, stop := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return &metricsServer{
		port:  ln.Addr().(*net.TCPAddr).Port,
		stop:  stop,
		group: g,
	}, nil
}

// Close stops the server and waits for it to exit.
func (s *metricsServer) Close() error {
	s.stop()
	return s.group.Wait()
}
