package server

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"burnbank-stats/internal/burnbank/cache"
	"burnbank-stats/internal/burnbank/config"
	"burnbank-stats/internal/burnbank/model"
	"burnbank-stats/internal/burnbank/service"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// Server 面向 UI 的只读 JSON API，只做参数解析和编解码，
// 业务全部落在聚合服务层。
type Server struct {
	*echo.Echo
	cfg      config.ServerConfig
	registry *model.Registry
	burns    *service.BurnStatsService
	bank     *service.BankService
	holders  *service.HolderService
	rcache   *cache.ResultCache
	logger   *zap.Logger
}

func New(
	cfg config.ServerConfig,
	registry *model.Registry,
	burns *service.BurnStatsService,
	bank *service.BankService,
	holders *service.HolderService,
	rcache *cache.ResultCache,
	logger *zap.Logger,
) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = sonicSerializer{}
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	s := &Server{e, cfg, registry, burns, bank, holders, rcache, logger}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.GET("/status", s.GetStatus)
	s.GET("/tokens", s.GetTokens)
	s.GET("/tokens/:id/burns", s.GetBurns)
	s.GET("/tokens/:id/bank", s.GetBank)
	s.GET("/tokens/:id/holders", s.GetHolders)
	s.DELETE("/tokens/:id/cache", s.ClearCache)
}

// Run 启动 HTTP 服务
func (s *Server) Run() error {
	s.logger.Info("Starting API server", zap.String("addr", s.cfg.ListenAddr))
	if err := s.Start(s.cfg.ListenAddr); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("api server: %w", err)
	}
	return nil
}

func (s *Server) token(c echo.Context) (*model.Token, error) {
	token, ok := s.registry.ByID(c.Param("id"))
	if !ok {
		return nil, echo.NewHTTPError(http.StatusNotFound, "unknown token")
	}
	return token, nil
}

type statusResponse struct {
	Status string   `json:"status"`
	Tokens []string `json:"tokens"`
}

func (s *Server) GetStatus(c echo.Context) error {
	resp := statusResponse{Status: "ok"}
	for _, token := range s.registry.All() {
		resp.Tokens = append(resp.Tokens, token.ID)
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) GetTokens(c echo.Context) error {
	return c.JSON(http.StatusOK, s.registry.All())
}

func (s *Server) GetBurns(c echo.Context) error {
	token, err := s.token(c)
	if err != nil {
		return err
	}

	days := 7
	if raw := c.QueryParam("days"); raw != "" {
		days, err = strconv.Atoi(raw)
		if err != nil || days < 1 || days > 90 {
			return echo.NewHTTPError(http.StatusBadRequest, "days must be an integer between 1 and 90")
		}
	}

	data, err := s.burns.FetchAllBurnData(c.Request().Context(), token, days)
	if err != nil {
		s.logger.Error("burn data fetch failed", zap.String("token", token.ID), zap.Error(err))
		return echo.NewHTTPError(http.StatusBadGateway, "failed to fetch burn data")
	}
	return c.JSON(http.StatusOK, data)
}

func (s *Server) GetBank(c echo.Context) error {
	token, err := s.token(c)
	if err != nil {
		return err
	}
	if !token.HasBank() {
		return echo.NewHTTPError(http.StatusNotFound, "token has no burn bank")
	}

	data, err := s.bank.All(c.Request().Context(), token)
	if err != nil {
		s.logger.Error("bank data fetch failed", zap.String("token", token.ID), zap.Error(err))
		return echo.NewHTTPError(http.StatusBadGateway, "failed to fetch bank data")
	}
	return c.JSON(http.StatusOK, data)
}

type holdersResponse struct {
	HoldersCount *int64 `json:"holders_count"`
}

func (s *Server) GetHolders(c echo.Context) error {
	token, err := s.token(c)
	if err != nil {
		return err
	}
	count := s.holders.HolderCount(c.Request().Context(), token)
	return c.JSON(http.StatusOK, holdersResponse{HoldersCount: count})
}

func (s *Server) ClearCache(c echo.Context) error {
	token, err := s.token(c)
	if err != nil {
		return err
	}
	s.rcache.Invalidate(c.Request().Context(), token.ID)
	return c.NoContent(http.StatusNoContent)
}

// Stop 优雅关闭
func (s *Server) Stop(ctx context.Context) error {
	return s.Shutdown(ctx)
}
