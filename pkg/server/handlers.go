package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/addisonbair/mdraid-sidecars/pkg/log"
	"github.com/addisonbair/mdraid-sidecars/pkg/raid"
	"github.com/addisonbair/mdraid-sidecars/pkg/status"
)

type arrayResponse struct {
	Severity status.Severity  `json:"severity"`
	Message  string           `json:"message"`
	Array    *raid.ArrayState `json:"array"`
}

func (s *Server) healthz(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// getStatus runs a full check. OK and WARNING answer 200 so that a plain
// HTTP probe only trips on critical arrays.
func (s *Server) getStatus(ctx echo.Context) error {
	rep, err := s.checker.Report(ctx.Request().Context())
	if err != nil {
		log.Error().Err(err).Msg("RAID check failed")
		return ctx.JSON(http.StatusInternalServerError, map[string]interface{}{
			"severity": status.Unknown,
			"error":    raid.Describe(err),
		})
	}

	code := http.StatusOK
	if rep.Severity >= status.Critical {
		code = http.StatusServiceUnavailable
	}
	return ctx.JSON(code, rep)
}

func (s *Server) getArray(ctx echo.Context) error {
	target, err := raid.ParseTarget(ctx.Param("name"))
	if err != nil || target.All {
		return ctx.JSON(http.StatusBadRequest, map[string]string{
			"error": "invalid MD device name",
		})
	}

	st, err := s.checker.Reader.ReadArray(ctx.Request().Context(), target.Name)
	if err != nil {
		switch {
		case errors.Is(err, raid.ErrTargetGone):
			return ctx.JSON(http.StatusNotFound, map[string]string{
				"error": "MD device not found",
			})
		case errors.Is(err, raid.ErrReadTimeout):
			return ctx.JSON(http.StatusGatewayTimeout, map[string]string{
				"error": err.Error(),
			})
		}
		log.Error().Err(err).Str("array", target.Name).Msg("Failed to read array")
		return ctx.JSON(http.StatusInternalServerError, map[string]string{
			"error": raid.Describe(err),
		})
	}

	sev, msg := raid.Evaluate(st, s.checker.SpareOK)
	return ctx.JSON(http.StatusOK, arrayResponse{Severity: sev, Message: msg, Array: st})
}
