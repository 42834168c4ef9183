package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"document-qa/internal/config"
	"document-qa/internal/server"
	"document-qa/internal/session"
)

const configFilePath = "./configs/config.yaml"

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		logLevel   string
		cfg        *config.Config
	)

	root := &cobra.Command{
		Use:           "document-qa",
		Short:         "Ask questions about a document",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.LoadConfig(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}
			setupLogger(cfg.LogLevel)
			log.Debug().Str("config", configPath).Msg("Loaded config")
			return nil
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", configFilePath, "Path to the YAML config file")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	cfgFn := func() *config.Config { return cfg }
	root.AddCommand(newServeCmd(cfgFn), newAskCmd(cfgFn), newChatCmd(cfgFn))
	return root
}

func setupLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Caller().Logger()
}

func newServeCmd(cfg func() *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg())
			if err != nil {
				return err
			}
			defer a.Close()

			sessions, err := session.NewManager(cfg().Session.MaxSessions)
			if err != nil {
				return err
			}
			return server.New(&cfg().Server, a.orchestrator, sessions).Run(ctx)
		},
	}
}

func newAskCmd(cfg func() *config.Config) *cobra.Command {
	var filePath, question string
	cmd := &cobra.Command{
		Use:   "ask",
		Short: "Answer a single question, optionally about a document",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, cfg())
			if err != nil {
				return err
			}
			defer a.Close()

			s := session.New("cli")
			if filePath != "" {
				if err := a.uploadFile(ctx, s, filePath); err != nil {
					return err
				}
			}
			ex := a.orchestrator.Ask(ctx, s, question)
			fmt.Fprintln(cmd.OutOrStdout(), ex.Answer)
			return ex.Err
		},
	}
	cmd.Flags().StringVar(&filePath, "file", "", "Path to the document file")
	cmd.Flags().StringVar(&question, "question", "", "Question to be answered")
	_ = cmd.MarkFlagRequired("question")
	return cmd
}

func newChatCmd(cfg func() *config.Config) *cobra.Command {
	var filePath string
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat about a document in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg())
			if err != nil {
				return err
			}
			defer a.Close()

			err = runChat(ctx, a, session.New("chat"), filePath, cmd.InOrStdin(), cmd.OutOrStdout())
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().StringVar(&filePath, "file", "", "Path to a document to load before chatting")
	return cmd
}
