// Package main is a small end-to-end demonstration of the rpcline client:
// it dials the TCP reference transport, logs in, sends a handful of
// requests, and prints every lifecycle state transition as it happens.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/risa-org/rpcline"
	"github.com/risa-org/rpcline/handler"
	"github.com/risa-org/rpcline/message"
	"github.com/risa-org/rpcline/metrics"
	"github.com/risa-org/rpcline/transport"
	"github.com/risa-org/rpcline/transport/tcp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var flags struct {
	addr           string
	user           string
	pass           string
	asks           int
	connectTimeout time.Duration
	askTimeout     time.Duration
	verbose        bool
}

var rootCmd = &cobra.Command{
	Use:   "rpcline-demo",
	Short: "Connect to an rpcline TCP server, log in, and send a few requests",
	RunE:  run,
}

func init() {
	rootCmd.Flags().StringVar(&flags.addr, "addr", "127.0.0.1:9000", "TCP address of the rpcline server")
	rootCmd.Flags().StringVar(&flags.user, "user", "demo", "login username")
	rootCmd.Flags().StringVar(&flags.pass, "pass", "demo", "login password")
	rootCmd.Flags().IntVar(&flags.asks, "asks", 3, "number of send-and-wait requests to issue after login")
	rootCmd.Flags().DurationVar(&flags.connectTimeout, "connect-timeout", 5*time.Second, "dial + login handshake deadline")
	rootCmd.Flags().DurationVar(&flags.askTimeout, "ask-timeout", 2*time.Second, "per-request send-and-wait deadline")
	rootCmd.Flags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable debug-level logging")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

type loginPayload struct {
	user string
	pass string
}

func loginMessage(params transport.Params) message.Message {
	p := params.Payload.(loginPayload)
	return message.NewRequest([]byte(p.user + ":" + p.pass))
}

func classifyLogin(resp message.Response) (ok bool, failed bool) {
	p, isPayloader := resp.(message.Payloader)
	if isPayloader && string(p.Bytes()) == "OK" {
		return true, false
	}
	return false, true
}

func run(cmd *cobra.Command, args []string) error {
	level := zerolog.InfoLevel
	if flags.verbose {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).
		With().Timestamp().Logger()

	dial := tcp.NewFactory(flags.addr, log)
	disconnected := handler.NewDisconnected(dial, loginMessage, classifyLogin, log)
	client := rpcline.New(disconnected, log, metrics.Noop())
	defer client.Close()

	go watchStates(client, log)

	ctx, cancel := context.WithTimeout(cmd.Context(), flags.connectTimeout)
	defer cancel()

	params := transport.Params{
		ConnectTimeout: flags.connectTimeout,
		Payload:        loginPayload{user: flags.user, pass: flags.pass},
	}
	result, err := client.Connect(ctx, params)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	if result.Kind != handler.ConnectSucceeded {
		return fmt.Errorf("login rejected (kind=%v, cause=%v)", result.Kind, result.Cause)
	}

	for i := 0; i < flags.asks; i++ {
		req := message.NewRequest([]byte(fmt.Sprintf("ping-%d", i)))
		resp, err := client.SendAndWait(cmd.Context(), req, flags.askTimeout)
		if err != nil {
			log.Error().Err(err).Int("i", i).Msg("request failed")
			continue
		}
		log.Info().Int("i", i).Stringer("response_id", resp.ID()).Msg("got response")
	}

	return nil
}

func watchStates(client *rpcline.Client, log zerolog.Logger) {
	for s := range client.State() {
		log.Info().Stringer("state", s).Msg("state transition")
	}
}
