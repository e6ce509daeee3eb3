package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/goliatone/go-forms/pkg/loader"
	"github.com/goliatone/go-forms/pkg/model"
	"github.com/goliatone/go-forms/pkg/renderers/tui"
)

// errInvalid makes the process exit with status 1 without printing an error;
// the command has already written the validation report.
var errInvalid = errors.New("form is invalid")

type app struct {
	v      *viper.Viper
	logger *slog.Logger
	// driver overrides the terminal prompt driver.
	driver tui.PromptDriver
}

func newRootCmd() *cobra.Command {
	return newApp(nil).rootCmd()
}

func newApp(driver tui.PromptDriver) *app {
	v := viper.New()
	v.SetEnvPrefix("FORMS")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return &app{v: v, driver: driver}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "forms",
		Short: "Render, validate and collect declarative forms",
		Long: `forms loads a JSON, YAML or TOML form document and renders it as HTML,
validates a store against it, prompts for values in the terminal or serves it
over HTTP.

Every flag can also be set through a FORMS_ prefixed environment variable,
e.g. FORMS_CONFIG=form.yaml or FORMS_LOG_LEVEL=debug.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.v.BindPFlags(cmd.Flags()); err != nil {
				return err
			}
			if err := a.v.BindPFlags(cmd.InheritedFlags()); err != nil {
				return err
			}
			logger, err := newLogger(cmd.ErrOrStderr(), a.v.GetString("log-level"))
			if err != nil {
				return err
			}
			a.logger = logger
			return nil
		},
	}

	root.PersistentFlags().StringP("config", "c", "", "form document (.json, .yaml, .yml or .toml)")
	root.PersistentFlags().String("log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(
		a.renderCmd(),
		a.validateCmd(),
		a.promptCmd(),
		a.serveCmd(),
	)
	return root
}

func newLogger(w io.Writer, level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q: %w", level, err)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}

func (a *app) loadConfigs() ([]model.Config, error) {
	path := strings.TrimSpace(a.v.GetString("config"))
	if path == "" {
		return nil, errors.New("provide a form document with --config")
	}
	configs, err := loader.LoadFile(path)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("form document loaded", slog.String("path", path), slog.Int("configs", len(configs)))
	return configs, nil
}

// loadStore reads the JSON store named by --store. No flag means an empty
// store.
func (a *app) loadStore() (model.Store, error) {
	path := strings.TrimSpace(a.v.GetString("store"))
	if path == "" {
		return model.Store{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read store: %w", err)
	}
	store := model.Store{}
	if err := json.Unmarshal(data, &store); err != nil {
		return nil, fmt.Errorf("parse store %s: %w", path, err)
	}
	return store, nil
}

func (a *app) write(cmd *cobra.Command, data []byte) error {
	path := strings.TrimSpace(a.v.GetString("output"))
	if path == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	a.logger.Info("output written", slog.String("path", path))
	return nil
}
