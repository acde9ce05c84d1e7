// Command roughtime-client sends one Roughtime request to a named
// server from a directory file and prints the validated time, per
// SPEC_FULL.md §C.8. It replaces the teacher's cmd/notary, whose
// Chain/LoadChain/VerifyChain file-notarization machinery depends on
// roughtime.Chain — itself absent from the retrieval pack (DESIGN.md).
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	roughtime "github.com/Sturdy-Statistics/roughtime-protocol"
	"github.com/Sturdy-Statistics/roughtime-protocol/internal/config"
	"github.com/Sturdy-Statistics/roughtime-protocol/sig"
	"github.com/Sturdy-Statistics/roughtime-protocol/transport"
	"github.com/Sturdy-Statistics/roughtime-protocol/version"
)

var defaultServers = `{
	"servers": [
		{
			"name": "Cloudflare",
			"publicKeyType": "ed25519",
			"publicKey": "gD63hSj3ScS+wuOeGrubXlq35N1c5Lby/S+T7MNTjxo=",
			"addresses": [
				{"protocol": "udp", "address": "roughtime.cloudflare.com:2002"}
			]
		}
	]
}`

func main() {
	var (
		serversPath string
		serverName  string
		versionFlag uint32
		timeout     time.Duration
	)

	root := &cobra.Command{
		Use:   "roughtime-client",
		Short: "Query a Roughtime server and print its validated time",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logrus.StandardLogger()

			servers, err := loadServers(serversPath)
			if err != nil {
				return err
			}
			srv, err := pickServer(servers, serverName)
			if err != nil {
				return err
			}
			longtermPub, err := srv.DecodedPublicKey()
			if err != nil {
				return err
			}
			if len(srv.Addresses) == 0 {
				return fmt.Errorf("server %q has no addresses", srv.Name)
			}
			addr := srv.Addresses[0].Address

			vers := []uint32{uint32(version.Fiducial)}
			if versionFlag != 0 {
				vers = []uint32{versionFlag}
			}
			pubKey, err := sig.NewPublicKey(longtermPub[:])
			if err != nil {
				return err
			}
			packet, chosen, nonce, err := roughtime.BuildRequest(roughtime.RequestOptions{
				Vers:              vers,
				ServerLongtermPub: &longtermPub,
			})
			if err != nil {
				return fmt.Errorf("building request: %w", err)
			}
			log.WithFields(logrus.Fields{"server": srv.Name, "version": chosen}).Info("sending request")

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			resp, _, err := transport.Send(ctx, addr, packet, transport.Options{Log: log})
			if err != nil {
				return fmt.Errorf("sending request: %w", err)
			}

			validated, err := roughtime.ValidateResponse(roughtime.Exchange{
				RequestNonce:   nonce,
				RequestBytes:   packet,
				Response:       resp,
				ServerLongterm: pubKey,
				ObservedAt:     time.Now(),
			})
			if err != nil {
				return fmt.Errorf("validating response: %w", err)
			}
			fmt.Printf("%s: midpoint=%s radius=%s\n", srv.Name, validated.Midpoint.Format(time.RFC3339Nano), validated.Radius)
			return nil
		},
	}
	root.Flags().StringVar(&serversPath, "servers", "", "path to a servers.json directory (defaults to a built-in list)")
	root.Flags().StringVar(&serverName, "server", "Cloudflare", "name of the server to query")
	root.Flags().Uint32Var(&versionFlag, "version", 0, "protocol version to request (0 = fiducial default)")
	root.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "overall request timeout")

	if err := root.Execute(); err != nil {
		logrus.Fatal(err)
	}
}

func loadServers(path string) (*config.ServersJSON, error) {
	if path == "" {
		return config.ReadServersJSON(strings.NewReader(defaultServers))
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return config.ReadServersJSON(f)
}

func pickServer(servers *config.ServersJSON, name string) (config.Server, error) {
	for _, s := range servers.Servers {
		if s.Name == name {
			return s, nil
		}
	}
	return config.Server{}, fmt.Errorf("no server named %q in directory", name)
}
