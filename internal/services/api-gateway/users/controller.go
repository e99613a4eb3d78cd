package users

import (
	"net/http"

	"github.com/NordCoder/Restora/internal/obs"
	"github.com/NordCoder/Restora/internal/services/api-gateway/apierr"
	"github.com/NordCoder/Restora/internal/services/api-gateway/auth"
	"github.com/NordCoder/Restora/internal/services/api-gateway/notifications"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Controller struct {
	log *zap.Logger
	uc  *Usecase
}

func NewController(log *zap.Logger, uc *Usecase) *Controller {
	return &Controller{log: obs.Component(log, "api.users"), uc: uc}
}

// Register mounts registration on public and follower routes on targets.
func (ctl *Controller) Register(public, targets *gin.RouterGroup) {
	public.POST("/users", ctl.register)
	targets.PUT("/:type/:id/followers/me", ctl.follow)
	targets.DELETE("/:type/:id/followers/me", ctl.unfollow)
}

type registerRequest struct {
	Name  string `json:"name" binding:"required,max=200"`
	Email string `json:"email" binding:"required,email"`
}

func (ctl *Controller) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierr.BadRequest(c, err)
		return
	}
	u, err := ctl.uc.Register(c.Request.Context(), req.Name, req.Email)
	if err != nil {
		apierr.Write(c, err)
		return
	}
	obs.WithTrace(c.Request.Context(), ctl.log).Info("user registered", zap.Int64("uid", u.ID))
	c.JSON(http.StatusCreated, u)
}

func (ctl *Controller) follow(c *gin.Context) {
	uid, _ := auth.UserIDFromCtx(c.Request.Context())
	ref, err := notifications.TargetParam(c)
	if err != nil {
		apierr.BadRequest(c, err)
		return
	}
	if err := ctl.uc.Follow(c.Request.Context(), uid, ref); err != nil {
		apierr.Write(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (ctl *Controller) unfollow(c *gin.Context) {
	uid, _ := auth.UserIDFromCtx(c.Request.Context())
	ref, err := notifications.TargetParam(c)
	if err != nil {
		apierr.BadRequest(c, err)
		return
	}
	if _, err := ctl.uc.Unfollow(c.Request.Context(), uid, ref); err != nil {
		apierr.Write(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
