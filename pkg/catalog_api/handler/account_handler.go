package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/vitrine-motors/vitrine-api/pkg/catalog_api/middleware"
	"github.com/vitrine-motors/vitrine-api/pkg/catalog_api/models"
	"github.com/vitrine-motors/vitrine-api/pkg/catalog_api/services"
)

const sessionCookieMaxAge = 30 * 24 * 60 * 60

// AccountAPIController binds the auth and profile endpoints to the
// AccountService.
type AccountAPIController struct {
	Service *services.AccountService
}

func NewAccountAPIController(s *services.AccountService) *AccountAPIController {
	return &AccountAPIController{Service: s}
}

// Login handles POST /auth/login. The token goes out in the body and in the
// session cookie so both the SPA and plain fetch callers work.
func (c *AccountAPIController) Login(ctx *gin.Context, in *models.LoginInput) (*models.LoginResponse, error) {
	resp, err := c.Service.Login(ctx.Request.Context(), in)
	if err != nil {
		return nil, err
	}
	ctx.SetCookie(middleware.SessionCookie, resp.Token, sessionCookieMaxAge, "/", "", true, true)
	return resp, nil
}

// Logout handles POST /auth/logout
func (c *AccountAPIController) Logout(ctx *gin.Context) (*models.SuccessResponse, error) {
	ctx.SetCookie(middleware.SessionCookie, "", -1, "/", "", true, true)
	return &models.SuccessResponse{Success: true}, nil
}

// Me handles GET /admin/me
func (c *AccountAPIController) Me(ctx *gin.Context) (*models.AdminProfile, error) {
	return c.Service.Profile(ctx.Request.Context(), middleware.AdminID(ctx))
}

// UpdateMe handles PUT /admin/me
func (c *AccountAPIController) UpdateMe(ctx *gin.Context, in *models.UpdateProfileInput) (*models.SuccessResponse, error) {
	if err := c.Service.UpdateProfile(ctx.Request.Context(), middleware.AdminID(ctx), in); err != nil {
		return nil, err
	}
	return &models.SuccessResponse{Success: true}, nil
}
