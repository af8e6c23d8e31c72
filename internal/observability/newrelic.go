package observability

import (
	"fmt"

	"github.com/labstack/echo/v4"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/rs/zerolog"

	"github.com/Rob--W/pdfjs-telemetry/internal/config"
)

// NewApplication starts the New Relic agent when a license key is
// configured. Returns nil without error when observability is disabled.
func NewApplication(cfg *config.ObservabilityConfig, logger zerolog.Logger) (*newrelic.Application, error) {
	if !cfg.Enabled() {
		logger.Debug().Msg("apm disabled, no license key")
		return nil, nil
	}
	app, err := newrelic.NewApplication(
		newrelic.ConfigAppName(cfg.AppName),
		newrelic.ConfigLicense(cfg.License),
		func(c *newrelic.Config) {
			c.Labels = map[string]string{"env": cfg.Environment}
		},
	)
	if err != nil {
		return nil, fmt.Errorf("new relic application: %w", err)
	}
	logger.Info().Str("app", cfg.AppName).Msg("apm enabled")
	return app, nil
}

// Transaction wraps each request in a New Relic transaction. With a nil
// application it is a pass-through.
func Transaction(app *newrelic.Application) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if app == nil {
				return next(c)
			}
			txn := app.StartTransaction(c.Request().Method + " " + c.Path())
			defer txn.End()

			txn.SetWebRequestHTTP(c.Request())
			c.Response().Writer = txn.SetWebResponse(c.Response().Writer)
			c.SetRequest(c.Request().WithContext(newrelic.NewContext(c.Request().Context(), txn)))

			err := next(c)
			if err != nil {
				txn.NoticeError(err)
			}
			return err
		}
	}
}
