package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/campusbot/campusbot/internal/pkg/errcode"
	appErr "github.com/campusbot/campusbot/internal/pkg/errors"
	"github.com/campusbot/campusbot/internal/pkg/response"
)

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	logutil.GetLogger(c.Request.Context()).Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	switch {
	case appErr.IsNotFound(err):
		response.Error(c, errcode.ErrNotFound, err.Error())
	case err == appErr.ErrInvalid:
		response.Error(c, errcode.ErrInvalid, "invalid request")
	case err == appErr.ErrTooMany:
		response.Error(c, errcode.ErrTooMany, "too many requests")
	case err == appErr.ErrSearchFailure:
		response.Error(c, errcode.ErrSearchFailure, "search failed")
	case appErr.IsGenerationFailure(err):
		response.Error(c, errcode.ErrGenerationFailed, "generation failed")
	default:
		response.Error(c, errcode.ErrInternal, "internal error")
	}
}
