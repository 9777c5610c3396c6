package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.temporal.io/sdk/client"
)

// RegisterRoutes wires the pipeline API. Every route re-resolves the
// Temporal client so the service degrades cleanly while Temporal is down.
func RegisterRoutes(e *echo.Echo, h *Handler, getClient func() client.Client) {
	withClient := func(fn func(echo.Context, client.Client) error) echo.HandlerFunc {
		return func(c echo.Context) error {
			temporalClient := getClient()
			if temporalClient == nil {
				return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "Temporal client not available"})
			}
			return fn(c, temporalClient)
		}
	}

	e.POST("/v1/pipelines/:prefix/create", withClient(func(c echo.Context, tc client.Client) error {
		return h.SubmitPipeline(c, tc, ModeCreate)
	}))
	e.POST("/v1/pipelines/:prefix/destroy", withClient(func(c echo.Context, tc client.Client) error {
		return h.SubmitPipeline(c, tc, ModeDestroy)
	}))
	e.POST("/v1/pipelines/:prefix/recreate", withClient(func(c echo.Context, tc client.Client) error {
		return h.SubmitPipeline(c, tc, ModeRecreate)
	}))
	e.GET("/v1/pipelines/:prefix/verify", withClient(h.RunVerify))
	e.GET("/v1/status/:submission_id", withClient(h.GetSubmissionStatus))
}
