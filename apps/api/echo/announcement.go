package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/atlantis/core/announcement"
	"github.com/trezcool/atlantis/core/user"
)

type announcementApi struct {
	svc      *announcement.Service
	usrSvc   *user.Service
	validate *validator.Validate
}

// registerAnnouncementAPI mounts the admin-only announcement endpoints. g must authenticate active users.
func registerAnnouncementAPI(g *echo.Group, svc *announcement.Service, usrSvc *user.Service, validate *validator.Validate) {
	api := announcementApi{svc: svc, usrSvc: usrSvc, validate: validate}

	ag := g.Group("/announcements", adminMiddleware())
	ag.GET("", api.query)
	ag.POST("", api.send)
	ag.GET("/:id", api.get)
}

func (api *announcementApi) send(ctx echo.Context) error {
	var data announcement.NewAnnouncement
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAnnouncement")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	author, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return err
	}
	a, err := api.svc.Send(data, author)
	if err != nil {
		return errors.Wrap(err, "sending announcement")
	}
	return ctx.JSON(http.StatusCreated, a)
}

func (api *announcementApi) query(ctx echo.Context) error {
	list, err := api.svc.QueryAll()
	if err != nil {
		return errors.Wrap(err, "querying announcements")
	}
	if list == nil {
		list = []announcement.Announcement{}
	}
	return ctx.JSON(http.StatusOK, list)
}

func (api *announcementApi) get(ctx echo.Context) error {
	a, err := api.svc.GetByID(ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting announcement")
	}
	return ctx.JSON(http.StatusOK, a)
}
