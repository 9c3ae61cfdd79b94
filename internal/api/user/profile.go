package user

import (
	"net/http"

	"donation-backend/internal/errors"
	"donation-backend/internal/middleware"
	"donation-backend/internal/service"
	"donation-backend/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ProfileHandler struct {
	userService service.UserServiceInterface
}

func NewProfileHandler(userService service.UserServiceInterface) *ProfileHandler {
	return &ProfileHandler{userService}
}

func (h *ProfileHandler) GetProfile(c *gin.Context) {
	principal, _ := middleware.PrincipalFrom(c)
	user, err := h.userService.GetUserByID(c.Request.Context(), principal.UserID)
	if err != nil {
		util.Logger.Error("获取用户资料失败", zap.Error(err))
		errors.HandleError(c, err)
		return
	}

	errors.HandleSuccess(c, http.StatusOK, gin.H{
		"user": user,
	}, "")
}
