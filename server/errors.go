package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/rushteam/scenekit/core"
)

// errorBody 是所有错误响应的结构
type errorBody struct {
	Error string `json:"error"`
}

// statusOf 把领域错误映射为 HTTP 状态码
func statusOf(err error) int {
	switch {
	case core.IsInvalid(err):
		return http.StatusBadRequest
	case core.IsNotFound(err):
		return http.StatusNotFound
	case core.IsUnavailable(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError 写出错误响应
func writeError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(statusOf(err), errorBody{Error: err.Error()})
}

// writeBindError 请求体无法解析或校验失败，返回 400
func writeBindError(c *gin.Context, err error) {
	_ = c.Error(err)
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		msgs := make([]string, 0, len(ve))
		for _, fe := range ve {
			msgs = append(msgs, fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag()))
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, errorBody{Error: "invalid request: " + strings.Join(msgs, "; ")})
		return
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, errorBody{Error: "invalid request body: " + err.Error()})
}
