package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"os"
	"os/signal"
	"syscall"

	"go-intents/internal/app"
	"go-intents/internal/clients"
	"go-intents/internal/config"
	"go-intents/internal/dto"
	"go-intents/internal/events"
	"go-intents/internal/services"
	"go-intents/internal/signer"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func main() {
	_ = godotenv.Load()

	ctl := &cli.App{
		Name:  "intentctl",
		Usage: "encode intents and solutions offline, follow solution events",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "path to config.yaml", EnvVars: []string{"CONFIG_PATH"}},
			&cli.StringFlag{Name: "network", Aliases: []string{"n"}, Usage: "network name (default network when empty)"},
		},
		Before: func(c *cli.Context) error {
			if err := config.LoadConfig(c.String("config")); err != nil {
				return err
			}
			app.ConfigureLogging(config.AppConfig.Log)
			return nil
		},
		Commands: []*cli.Command{
			encodeCommand(),
			solutionCommand(),
			watchCommand(),
		},
	}

	if err := ctl.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func encodeCommand() *cli.Command {
	return &cli.Command{
		Name:      "encode",
		Usage:     "Encode an intent request (JSON) and print its encodings",
		ArgsUsage: "<intent.json>",
		Action: func(c *cli.Context) error {
			var req dto.IntentRequest
			if err := readJSON(c.Args().First(), &req); err != nil {
				return err
			}
			svc, err := intentService(c.String("network"))
			if err != nil {
				return err
			}
			intent, err := svc.BuildIntent(c.Context, req)
			if err != nil {
				return err
			}
			encoded, err := svc.Describe(intent)
			if err != nil {
				return err
			}
			return printJSON(encoded)
		},
	}
}

func solutionCommand() *cli.Command {
	return &cli.Command{
		Name:      "solution",
		Usage:     "Build a solution request (JSON) and print the handleIntents calldata",
		ArgsUsage: "<solution.json>",
		Action: func(c *cli.Context) error {
			var req dto.SubmitSolutionRequest
			if err := readJSON(c.Args().First(), &req); err != nil {
				return err
			}
			svc, err := intentService(c.String("network"))
			if err != nil {
				return err
			}
			solution, err := svc.BuildSolution(c.Context, req, new(big.Int))
			if err != nil {
				return err
			}
			callData, err := solution.Pack()
			if err != nil {
				return err
			}

			out := dto.SubmitSolutionResponse{
				Success:     true,
				Network:     svc.Network(),
				BlockNumber: solution.BlockNumber().String(),
				CallData:    hexutil.Encode(callData),
			}
			for _, intent := range solution.Intents() {
				encoded, err := svc.Describe(intent)
				if err != nil {
					return err
				}
				out.Intents = append(out.Intents, *encoded)
			}
			return printJSON(out)
		},
	}
}

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Print solution lifecycle events published on NATS",
		Action: func(c *cli.Context) error {
			cfg := config.AppConfig.NATS
			if cfg.URL == "" {
				return cli.Exit("nats.url (or NATS_URL) is not configured", 1)
			}
			client, err := clients.NewNATSClient(cfg)
			if err != nil {
				return err
			}
			defer client.Close()

			sub, err := client.Subscribe(events.SubjectSolutionAll, func(subject string, data []byte) {
				evt, err := events.DecodeSolutionEvent(data)
				if err != nil {
					logrus.WithError(err).WithField("subject", subject).Warn("Skipping message")
					return
				}
				fmt.Printf("%s  %-10s %-8s %s tx=%s gas=%d %s\n",
					evt.Timestamp.Format("15:04:05"), evt.Status, evt.Network, evt.SubmissionID, evt.TxHash, evt.GasUsed, evt.Error)
			})
			if err != nil {
				return err
			}
			defer func() { _ = sub.Unsubscribe() }()

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
			<-stop
			return nil
		},
	}
}

// intentService builds an offline intent service; the network's private key
// signs intents that ask for it.
func intentService(network string) (*services.IntentService, error) {
	cfg, err := config.AppConfig.Network(network)
	if err != nil {
		return nil, err
	}
	name := network
	if name == "" {
		name = cfg.Name
	}

	var intentSigner services.IntentSigner
	if cfg.PrivateKey != "" {
		s, err := signer.NewPrivateKeySigner(cfg.PrivateKey)
		if err != nil {
			return nil, err
		}
		intentSigner = s
	}
	return services.NewIntentService(name, *cfg, intentSigner)
}

func readJSON(path string, v interface{}) error {
	if path == "" {
		return cli.Exit("missing request file argument", 1)
	}
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
