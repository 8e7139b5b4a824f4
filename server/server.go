// Package server 提供片段序列选择的 HTTP 接口。
package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rushteam/scenekit/core"
	"github.com/rushteam/scenekit/feature"
	"github.com/rushteam/scenekit/pkg/logger"
	"github.com/rushteam/scenekit/service"
)

// Selector 是 HTTP 层依赖的选择能力
type Selector interface {
	PredictSegmentSequence(ctx context.Context, userID, movieID int64, vctx core.ViewingContext) (*service.SequenceResult, error)
	GetAlternativeVariants(ctx context.Context, userID, movieID int64, sceneIndex, topN int, vctx core.ViewingContext) ([]service.Alternative, error)
	ModelVersion() string
}

type sequenceRequest struct {
	UserID     int64  `json:"user_id" binding:"required"`
	MovieID    int64  `json:"movie_id" binding:"required"`
	DeviceType string `json:"device_type"`
}

type alternativesRequest struct {
	UserID     int64  `json:"user_id" binding:"required"`
	MovieID    int64  `json:"movie_id" binding:"required"`
	SceneIndex *int   `json:"scene_index" binding:"required,gte=0"`
	TopN       *int   `json:"top_n" binding:"omitempty,gte=0"` // 缺省时使用默认值，0 返回空列表
	DeviceType string `json:"device_type"`
}

type handler struct {
	selector Selector
	monitor  *feature.Monitor
}

// Option 路由可选配置
type Option func(*handler)

// WithMonitor 挂载 GET /debug/features，输出推理特征的列分布
func WithMonitor(m *feature.Monitor) Option {
	return func(h *handler) {
		h.monitor = m
	}
}

// NewRouter 注册全部路由。mode 为 gin 模式（debug / release / test）。
func NewRouter(sel Selector, log *logger.Logger, mode string, opts ...Option) *gin.Engine {
	if mode != "" {
		gin.SetMode(mode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), AccessLog(log))

	h := &handler{selector: sel}
	for _, opt := range opts {
		opt(h)
	}
	r.POST("/predict_sequence", h.predictSequence)
	r.POST("/sequence", h.sequence)
	r.POST("/alternatives", h.alternatives)
	r.GET("/healthz", h.healthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if h.monitor != nil {
		r.GET("/debug/features", h.features)
	}
	return r
}

// viewing 使用请求到达时间作为观看时间
func viewing(device string) core.ViewingContext {
	return core.ViewingContext{DeviceType: device}
}

// predictSequence 仅返回按场景顺序排列的版本 ID
func (h *handler) predictSequence(c *gin.Context) {
	var req sequenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	res, err := h.selector.PredictSegmentSequence(c.Request.Context(), req.UserID, req.MovieID, viewing(req.DeviceType))
	if err != nil {
		writeError(c, err)
		return
	}
	setCacheHeader(c, res)
	c.JSON(http.StatusOK, gin.H{"variant_sequence": res.VariantIDs()})
}

func (h *handler) sequence(c *gin.Context) {
	var req sequenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	res, err := h.selector.PredictSegmentSequence(c.Request.Context(), req.UserID, req.MovieID, viewing(req.DeviceType))
	if err != nil {
		writeError(c, err)
		return
	}
	setCacheHeader(c, res)
	c.JSON(http.StatusOK, res)
}

// CacheHeader 标记序列结果是否来自缓存（hit / miss）
const CacheHeader = "X-Cache"

func setCacheHeader(c *gin.Context, res *service.SequenceResult) {
	if res.Cached {
		c.Header(CacheHeader, "hit")
		return
	}
	c.Header(CacheHeader, "miss")
}

func (h *handler) alternatives(c *gin.Context) {
	var req alternativesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBindError(c, err)
		return
	}
	topN := service.DefaultTopN
	if req.TopN != nil {
		topN = *req.TopN
	}
	alts, err := h.selector.GetAlternativeVariants(c.Request.Context(), req.UserID, req.MovieID, *req.SceneIndex, topN, viewing(req.DeviceType))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, alts)
}

func (h *handler) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "model_version": h.selector.ModelVersion()})
}

func (h *handler) features(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"columns": h.monitor.Snapshot()})
}
