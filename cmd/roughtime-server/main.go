// Command roughtime-server mints a set of online-key certificates and
// serves a UDP Roughtime socket, batching requests that arrive within a
// short window before building one Merkle tree and one SREP signature
// per negotiated version, per SPEC_FULL.md §C.8.
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	roughtime "github.com/Sturdy-Statistics/roughtime-protocol"
	"github.com/Sturdy-Statistics/roughtime-protocol/internal/config"
	"github.com/Sturdy-Statistics/roughtime-protocol/sig"
)

var (
	requestsServed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "roughtime_requests_served_total",
		Help: "Requests that produced a signed response.",
	})
	requestsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "roughtime_requests_dropped_total",
		Help: "Requests dropped for parse failure or an unbatchable version.",
	})
	batchSizes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "roughtime_batch_size",
		Help:    "Number of requests grouped into one batch-respond call.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 10),
	})
)

func main() {
	var (
		configPath  string
		metricsAddr string
		seedHex     string
	)

	root := &cobra.Command{
		Use:   "roughtime-server",
		Short: "Serve Roughtime UDP requests, batching within a short window",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logrus.StandardLogger()
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			longtermPrv, err := longtermKey(cfg, seedHex)
			if err != nil {
				return err
			}

			if metricsAddr != "" {
				go func() {
					log.WithField("addr", metricsAddr).Info("serving metrics")
					if err := http.ListenAndServe(metricsAddr, promhttp.Handler()); err != nil {
						log.WithError(err).Error("metrics server exited")
					}
				}()
			}

			certs, err := roughtime.Mint(longtermPrv, cfg.MintValidity, rand.Reader)
			if err != nil {
				return fmt.Errorf("minting online certs: %w", err)
			}
			log.WithFields(logrus.Fields{
				"valid_from": certs.Min,
				"valid_to":   certs.Max,
			}).Info("minted online key pair")

			return serve(cmd.Context(), cfg, certs, log)
		},
	}
	root.Flags().StringVar(&configPath, "config", "", "path to a TOML server config file")
	root.Flags().StringVar(&metricsAddr, "metrics-addr", "", "address to serve Prometheus metrics on (empty disables)")
	root.Flags().StringVar(&seedHex, "longterm-seed-hex", "", "hex-encoded 32-byte Ed25519 seed for the long-term key (random if empty)")

	if err := root.Execute(); err != nil {
		logrus.Fatal(err)
	}
}

func loadConfig(path string) (config.ServerConfig, error) {
	if path == "" {
		return config.DefaultServerConfig(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return config.ServerConfig{}, err
	}
	defer f.Close()
	return config.ReadServerConfig(f)
}

func longtermKey(cfg config.ServerConfig, seedHexFlag string) (sig.PrivateKey, error) {
	seedHex := seedHexFlag
	if seedHex == "" {
		seedHex = cfg.LongtermSeed
	}
	if seedHex == "" {
		_, prv, err := sig.GenerateKey(rand.Reader)
		return prv, err
	}
	seed, err := hex.DecodeString(seedHex)
	if err != nil {
		return sig.PrivateKey{}, fmt.Errorf("decoding longterm seed: %w", err)
	}
	return sig.NewPrivateKeyFromSeed(seed)
}

// inbound is one accepted datagram, tagged with a correlation id for
// log lines — the core never sees this UUID, per SPEC_FULL.md §B.
type inbound struct {
	raw  []byte
	peer net.Addr
	id   uuid.UUID
}

// serve runs the UDP accept loop, collecting inbound requests into a
// batch over cfg.BatchWindow before calling roughtime.RespondBatch once
// per window, per spec.md §4.12 and §5 ("benchmarks show useful
// parallelism ... by farming whole batches across worker threads").
func serve(ctx context.Context, cfg config.ServerConfig, certs roughtime.MintedCerts, log *logrus.Logger) error {
	conn, err := net.ListenPacket("udp", cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", cfg.ListenAddr, err)
	}
	defer conn.Close()
	log.WithField("addr", cfg.ListenAddr).Info("roughtime-server listening")

	pending := make(chan inbound, 1024)

	go func() {
		buf := make([]byte, 2048)
		for {
			n, peer, err := conn.ReadFrom(buf)
			if err != nil {
				log.WithError(err).Error("read error, stopping accept loop")
				close(pending)
				return
			}
			raw := make([]byte, n)
			copy(raw, buf[:n])
			pending <- inbound{raw: raw, peer: peer, id: uuid.New()}
		}
	}()

	ticker := time.NewTicker(cfg.BatchWindow)
	defer ticker.Stop()

	var mu sync.Mutex
	var batch []inbound

	flush := func() {
		mu.Lock()
		items := batch
		batch = nil
		mu.Unlock()
		if len(items) == 0 {
			return
		}
		batchSizes.Observe(float64(len(items)))

		raws := make([][]byte, len(items))
		for i, it := range items {
			raws[i] = it.raw
		}
		// cfg.MinMsgSize is the message-size floor (spec.md §6: "message
		// >= 1012 so that the packet >= 1024"); RespondBatch's
		// minSizeBytes is checked against the full packet, 12 bytes
		// longer once framed.
		responses, err := roughtime.RespondBatch(raws, cfg.MinMsgSize+12, certs, time.Now(), cfg.Radius)
		if err != nil {
			log.WithError(err).Error("batch respond failed")
			return
		}
		for i, it := range items {
			if responses[i] == nil {
				requestsDropped.Inc()
				log.WithField("request_id", it.id).Debug("dropped request")
				continue
			}
			if _, err := conn.WriteTo(responses[i], it.peer); err != nil {
				log.WithFields(logrus.Fields{"request_id": it.id, "err": err}).Warn("failed to write response")
				continue
			}
			requestsServed.Inc()
		}
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return ctx.Err()
		case it, ok := <-pending:
			if !ok {
				flush()
				return nil
			}
			mu.Lock()
			batch = append(batch, it)
			mu.Unlock()
		case <-ticker.C:
			flush()
		}
	}
}
