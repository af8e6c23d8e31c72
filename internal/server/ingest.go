package server

import (
	"io"

	"github.com/labstack/echo/v4"

	"github.com/Rob--W/pdfjs-telemetry/internal/model"
	"github.com/Rob--W/pdfjs-telemetry/internal/observability"
	"github.com/Rob--W/pdfjs-telemetry/internal/response"
)

const (
	headerDeduplicationID  = "Deduplication-ID"
	headerExtensionVersion = "Extension-Version"
)

// handleIngest accepts one telemetry ping. The payload lives entirely in
// request headers; a valid ping is appended to the sink and answered with
// 204. Invalid pings get a bare 400 with no hint of which check failed.
func (s *Server) handleIngest(c echo.Context) error {
	// Content-Length bodies over the limit never reach this point. Chunked
	// bodies are only caught by reading, so drain before validating.
	if _, err := io.Copy(io.Discard, c.Request().Body); err != nil {
		return err
	}

	rec := model.LogRecord{
		DeduplicationID:  c.Request().Header.Get(headerDeduplicationID),
		ExtensionVersion: c.Request().Header.Get(headerExtensionVersion),
		UserAgent:        c.Request().UserAgent(),
	}
	if err := rec.Validate(); err != nil {
		s.metrics.RecordRequest(observability.OutcomeRejected)
		return response.BadRequest(c)
	}

	if err := s.sink.Append(rec); err != nil {
		s.logger.Error().Err(err).Msg("append failed")
		s.metrics.RecordAppendFailure()
		s.metrics.RecordRequest(observability.OutcomeFailed)
		return response.InternalError(c)
	}

	s.metrics.RecordRequest(observability.OutcomeAccepted)
	return response.NoContent(c)
}

func (s *Server) handleRobots(c echo.Context) error {
	return response.Robots(c)
}
