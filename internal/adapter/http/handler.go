package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"sarsim/internal/app/action"
	"sarsim/internal/app/episode"
	"sarsim/internal/app/observe"
	"sarsim/internal/app/ports"
	"sarsim/internal/app/replay"
	"sarsim/internal/app/status"
	"sarsim/internal/config"
	"sarsim/internal/domain/grid"
	"sarsim/internal/domain/rescue"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

type Handler struct {
	EpisodeUC episode.UseCase
	ObserveUC observe.UseCase
	ActionUC  action.UseCase
	StatusUC  status.UseCase
	ReplayUC  replay.UseCase
	KPI       kpiSnapshotProvider
	Index     episodeIndex

	// CORSOrigins limits browser access; empty allows any origin.
	CORSOrigins []string
}

func (h Handler) RegisterRoutes(s *server.Hertz) {
	s.Use(corsPolicy{origins: h.CORSOrigins}.middleware())

	s.POST("/api/episodes", h.startEpisode)
	episodes := s.Group("/api/episodes")
	episodes.GET("/:id", h.getEpisode)
	episodes.POST("/:id/run", h.runEpisode)
	episodes.POST("/:id/stop", h.stopEpisode)
	episodes.GET("/:id/snapshot", h.snapshot)
	episodes.GET("/:id/events", h.events)

	agents := episodes.Group("/:id/agents/:agent")
	agents.POST("/observe", h.observe)
	agents.POST("/suggest", h.suggest)
	agents.POST("/step", h.step)
	agents.POST("/reset", h.reset)

	s.GET("/ops/kpi", h.kpi)
	s.GET("/ops/episodes", h.indexedEpisodes)
}

type startRequest struct {
	Config config.Overrides `json:"config"`
}

type runRequest struct {
	MaxSteps int `json:"max_steps"`
}

type stepRequest struct {
	Action string `json:"action"`
}

var ErrInvalidAgentID = errors.New("agent id must be a non-negative integer")

func (h Handler) startEpisode(c context.Context, ctx *app.RequestContext) {
	if err := validateBody(startSchema, ctx.Request.Body()); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_body", err.Error())
		return
	}
	var body startRequest
	if err := decodeJSON(ctx, &body); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}

	resp, err := h.EpisodeUC.Start(c, episode.StartRequest{Overrides: body.Config})
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusCreated, resp)
}

func (h Handler) getEpisode(c context.Context, ctx *app.RequestContext) {
	rec, err := h.EpisodeUC.Get(c, episode.GetRequest{EpisodeID: ctx.Param("id")})
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, rec)
}

func (h Handler) runEpisode(c context.Context, ctx *app.RequestContext) {
	if err := validateBody(runSchema, ctx.Request.Body()); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_body", err.Error())
		return
	}
	var body runRequest
	if err := decodeJSON(ctx, &body); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}

	resp, err := h.EpisodeUC.Run(c, episode.RunRequest{
		EpisodeID: ctx.Param("id"),
		MaxSteps:  body.MaxSteps,
	})
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, resp)
}

func (h Handler) stopEpisode(c context.Context, ctx *app.RequestContext) {
	rec, err := h.EpisodeUC.Stop(c, episode.StopRequest{EpisodeID: ctx.Param("id")})
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, rec)
}

func (h Handler) snapshot(c context.Context, ctx *app.RequestContext) {
	resp, err := h.StatusUC.Execute(c, status.Request{EpisodeID: ctx.Param("id")})
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, resp)
}

func (h Handler) events(c context.Context, ctx *app.RequestContext) {
	limit, _ := strconv.Atoi(string(ctx.Query("limit")))
	fromTick, _ := strconv.Atoi(string(ctx.Query("from_tick")))
	toTick, _ := strconv.Atoi(string(ctx.Query("to_tick")))
	resp, err := h.ReplayUC.Execute(c, replay.Request{
		EpisodeID: ctx.Param("id"),
		Limit:     limit,
		FromTick:  fromTick,
		ToTick:    toTick,
	})
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, resp)
}

func (h Handler) observe(c context.Context, ctx *app.RequestContext) {
	agentID, err := agentParam(ctx)
	if err != nil {
		writeError(ctx, err)
		return
	}
	resp, err := h.ObserveUC.Execute(c, observe.Request{EpisodeID: ctx.Param("id"), AgentID: agentID})
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, resp)
}

func (h Handler) suggest(c context.Context, ctx *app.RequestContext) {
	agentID, err := agentParam(ctx)
	if err != nil {
		writeError(ctx, err)
		return
	}
	resp, err := h.ObserveUC.Suggest(c, observe.Request{EpisodeID: ctx.Param("id"), AgentID: agentID})
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, resp)
}

func (h Handler) step(c context.Context, ctx *app.RequestContext) {
	agentID, err := agentParam(ctx)
	if err != nil {
		writeError(ctx, err)
		return
	}
	if err := validateBody(stepSchema, ctx.Request.Body()); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_body", err.Error())
		return
	}
	var body stepRequest
	if err := decodeJSON(ctx, &body); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}

	resp, err := h.ActionUC.Execute(c, action.Request{
		EpisodeID: ctx.Param("id"),
		AgentID:   agentID,
		Action:    body.Action,
	})
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, resp)
}

func (h Handler) reset(c context.Context, ctx *app.RequestContext) {
	agentID, err := agentParam(ctx)
	if err != nil {
		writeError(ctx, err)
		return
	}
	resp, err := h.ActionUC.Reset(c, action.ResetRequest{EpisodeID: ctx.Param("id"), AgentID: agentID})
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, resp)
}

type kpiSnapshotProvider interface {
	SnapshotAny() any
}

func (h Handler) kpi(_ context.Context, ctx *app.RequestContext) {
	if h.KPI == nil {
		writeErrorBody(ctx, consts.StatusNotFound, "not_configured", "kpi provider not configured")
		return
	}
	ctx.JSON(consts.StatusOK, h.KPI.SnapshotAny())
}

type episodeIndex interface {
	RecentAny(ctx context.Context, limit int) (any, error)
}

func (h Handler) indexedEpisodes(c context.Context, ctx *app.RequestContext) {
	if h.Index == nil {
		writeErrorBody(ctx, consts.StatusNotFound, "not_configured", "episode index not configured")
		return
	}
	limit, _ := strconv.Atoi(string(ctx.Query("limit")))
	out, err := h.Index.RecentAny(c, limit)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, out)
}

func agentParam(ctx *app.RequestContext) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(ctx.Param("agent")))
	if err != nil || id < 0 {
		return 0, ErrInvalidAgentID
	}
	return id, nil
}

func decodeJSON(ctx *app.RequestContext, out any) error {
	body := ctx.Request.Body()
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}

func writeError(ctx *app.RequestContext, err error) {
	switch {
	case errors.Is(err, rescue.ErrInvalidAction):
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_action", err.Error())
	case errors.Is(err, rescue.ErrIllegalAction):
		writeErrorBody(ctx, consts.StatusBadRequest, "illegal_action", err.Error())
	case errors.Is(err, rescue.ErrUnknownAgent), errors.Is(err, ErrInvalidAgentID):
		writeErrorBody(ctx, consts.StatusBadRequest, "unknown_agent", err.Error())
	case errors.Is(err, config.ErrInvalidConfig),
		errors.Is(err, rescue.ErrInvalidOptions),
		errors.Is(err, rescue.ErrInvalidLayout),
		errors.Is(err, grid.ErrInvalidGrid):
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_config", err.Error())
	case errors.Is(err, action.ErrInvalidRequest),
		errors.Is(err, episode.ErrInvalidRequest),
		errors.Is(err, observe.ErrInvalidRequest),
		errors.Is(err, replay.ErrInvalidRequest),
		errors.Is(err, status.ErrInvalidRequest):
		writeErrorBody(ctx, consts.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, ports.ErrNotFound):
		writeErrorBody(ctx, consts.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, rescue.ErrEpisodeDone), errors.Is(err, episode.ErrEpisodeFinished):
		writeErrorBody(ctx, consts.StatusConflict, "episode_finished", err.Error())
	case errors.Is(err, ports.ErrConflict):
		writeErrorBody(ctx, consts.StatusConflict, "conflict", err.Error())
	default:
		writeErrorBody(ctx, consts.StatusInternalServerError, "internal_error", "internal error")
	}
}

func writeErrorBody(ctx *app.RequestContext, status int, code, message string) {
	ctx.JSON(status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
