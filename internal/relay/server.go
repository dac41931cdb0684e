package relay

import (
	"errors"
	"net/http"
	"os"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Server exposes the coordinator inbox over HTTP so an out-of-process
// trigger UI can reach it.
type Server struct {
	Coordinator *Coordinator
	Submitter   *Submitter
	Echo        *echo.Echo
}

func NewServer(coord *Coordinator, sub *Submitter) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	allowedOrigins := []string{"http://localhost:5173", "http://localhost:3000"}
	if extra := os.Getenv("CORS_ORIGINS"); extra != "" {
		for _, o := range strings.Split(extra, ",") {
			o = strings.TrimSpace(o)
			if o != "" {
				allowedOrigins = append(allowedOrigins, o)
			}
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: allowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	s := &Server{Coordinator: coord, Submitter: sub, Echo: e}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.Echo.GET("/health", s.handleHealth)
	s.Echo.POST("/relay", s.handleRelay)
	s.Echo.POST("/submit", s.handleSubmit)
}

func (s *Server) Start(port string) error {
	return s.Echo.Start(":" + port)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRelay(c echo.Context) error {
	var req Request
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request envelope")
	}

	resp, err := s.Coordinator.Relay(c.Request().Context(), req)
	if err != nil {
		// Relay failures are part of the protocol, not transport errors:
		// the caller gets a well-formed failure response.
		return c.JSON(http.StatusOK, Fail(err))
	}
	return c.JSON(http.StatusOK, resp)
}

type submitRequest struct {
	IDs []string `json:"ids"`
	URL string   `json:"url,omitempty"`
}

func (s *Server) handleSubmit(c echo.Context) error {
	var req submitRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid submit request")
	}

	result, err := s.Submitter.Submit(c.Request().Context(), req.IDs, req.URL)
	switch {
	case errors.Is(err, ErrEmptySelection):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrSubmissionBusy):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, result)
}
