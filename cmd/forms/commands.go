package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	forms "github.com/goliatone/go-forms"
	"github.com/goliatone/go-forms/pkg/httpform"
	"github.com/goliatone/go-forms/pkg/model"
	"github.com/goliatone/go-forms/pkg/render"
	"github.com/goliatone/go-forms/pkg/renderers/tui"
	"github.com/goliatone/go-forms/pkg/renderers/vanilla"
)

func (a *app) renderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a form document as HTML",
		Example: `  forms render --config form.yaml
  forms render --config form.yaml --store values.json --validate --output form.html`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configs, err := a.loadConfigs()
			if err != nil {
				return err
			}
			store, err := a.loadStore()
			if err != nil {
				return err
			}
			registry, err := forms.NewRegistry(forms.Setup{Logger: a.logger})
			if err != nil {
				return err
			}
			html, err := forms.Render(cmd.Context(), registry, vanilla.Name, configs, store, a.v.GetBool("validate"), render.RenderOptions{
				Action: a.v.GetString("action"),
				Method: a.v.GetString("method"),
			})
			if err != nil {
				return err
			}
			return a.write(cmd, html)
		},
	}
	cmd.Flags().String("store", "", "JSON file holding the current values")
	cmd.Flags().Bool("validate", false, "surface every validation error")
	cmd.Flags().String("action", "", "form action URL")
	cmd.Flags().String("method", "post", "form method; verbs other than GET/POST add a _method field")
	cmd.Flags().StringP("output", "o", "", "output file (stdout when empty)")
	return cmd
}

func (a *app) validateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a store against a form document",
		Long: `Prints one {"id", "error"} record per visible field as JSON. The exit
status is 1 when any field is invalid.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configs, err := a.loadConfigs()
			if err != nil {
				return err
			}
			store, err := a.loadStore()
			if err != nil {
				return err
			}
			errs := render.New(configs, render.WithLogger(a.logger)).Validate(store)
			if errs == nil {
				errs = []render.FieldError{}
			}
			report, err := json.MarshalIndent(errs, "", "  ")
			if err != nil {
				return err
			}
			if err := a.write(cmd, append(report, '\n')); err != nil {
				return err
			}
			if !render.Valid(errs) {
				return errInvalid
			}
			return nil
		},
	}
	cmd.Flags().String("store", "", "JSON file holding the values to validate")
	cmd.Flags().StringP("output", "o", "", "output file (stdout when empty)")
	return cmd
}

func (a *app) promptCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prompt",
		Short: "Collect form values interactively in the terminal",
		RunE: func(cmd *cobra.Command, _ []string) error {
			configs, err := a.loadConfigs()
			if err != nil {
				return err
			}
			store, err := a.loadStore()
			if err != nil {
				return err
			}

			options := []tui.Option{
				tui.WithOutputFormat(tui.OutputFormat(a.v.GetString("format"))),
				tui.WithMaxRetries(a.v.GetInt("retries")),
				tui.WithLogger(a.logger),
				tui.WithTheme(tui.Theme{ErrorPrefix: "✗ "}),
			}
			driver := a.driver
			if driver == nil {
				driver = tui.NewSurveyDriver(cmd.ErrOrStderr())
			}
			options = append(options, tui.WithPromptDriver(driver))

			renderer, err := tui.New(options...)
			if err != nil {
				return err
			}
			collected, err := renderer.Run(cmd.Context(), render.New(configs, render.WithLogger(a.logger)), store, nil)
			if err != nil {
				return err
			}
			out, err := renderer.Serialize(collected)
			if err != nil {
				return err
			}
			return a.write(cmd, append(out, '\n'))
		},
	}
	cmd.Flags().String("store", "", "JSON file with initial values")
	cmd.Flags().StringP("format", "f", string(tui.OutputFormatJSON), "output format (json, form, pretty)")
	cmd.Flags().Int("retries", tui.DefaultMaxRetries, "times an invalid field is asked again")
	cmd.Flags().StringP("output", "o", "", "output file (stdout when empty)")
	return cmd
}

func (a *app) serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a form document over HTTP",
		Example: `  forms serve --config form.yaml --addr :8080
  FORMS_ADDR=127.0.0.1:9000 forms serve -c form.toml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			router, err := a.router()
			if err != nil {
				return err
			}
			srv := &http.Server{
				Addr:              a.v.GetString("addr"),
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
			}
			return a.serve(cmd.Context(), srv)
		},
	}
	cmd.Flags().String("addr", ":8080", "listen address")
	cmd.Flags().String("store", "", "JSON file with initial values")
	cmd.Flags().String("redirect", "", "redirect target after a successful submit")
	return cmd
}

func (a *app) router() (http.Handler, error) {
	configs, err := a.loadConfigs()
	if err != nil {
		return nil, err
	}
	initial, err := a.loadStore()
	if err != nil {
		return nil, err
	}
	renderer, err := vanilla.New()
	if err != nil {
		return nil, err
	}

	store := httpform.NewMemoryStore(initial)
	redirect := a.v.GetString("redirect")
	handler, err := httpform.New(configs, renderer,
		httpform.WithStore(store),
		httpform.WithLogger(a.logger),
		httpform.WithFormOptions(render.WithLogger(a.logger)),
		httpform.WithOnSubmit(func(ctx context.Context, values model.Store) (string, error) {
			a.logger.InfoContext(ctx, "submission accepted", slog.Int("keys", len(values)))
			return redirect, nil
		}),
	)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Get("/store", func(w http.ResponseWriter, r *http.Request) {
		values, err := store.Load(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(values); err != nil {
			a.logger.Warn("encode store", slog.String("error", err.Error()))
		}
	})
	r.Handle("/", handler)
	return r, nil
}

// serve runs srv until ctx is cancelled, then shuts it down gracefully.
func (a *app) serve(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	a.logger.Info("serving form", slog.String("addr", srv.Addr))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
