package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/atlantis/core"
	"github.com/trezcool/atlantis/core/reservation"
	"github.com/trezcool/atlantis/core/user"
)

type reservationApi struct {
	svc      *reservation.Service
	usrSvc   *user.Service
	validate *validator.Validate
}

// registerReservationAPI mounts the reservation endpoints. g must authenticate active users.
func registerReservationAPI(g *echo.Group, svc *reservation.Service, usrSvc *user.Service, validate *validator.Validate) {
	api := reservationApi{svc: svc, usrSvc: usrSvc, validate: validate}

	rg := g.Group("/reservations")
	rg.GET("/mine", api.mine)

	adm := rg.Group("", adminMiddleware())
	adm.GET("", api.query)
	adm.POST("", api.create)
	adm.GET("/:id", api.get)
	adm.PUT("/:id/status", api.setStatus)
}

func (api *reservationApi) create(ctx echo.Context) error {
	var data reservation.NewReservation
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewReservation")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	r, err := api.svc.Create(data)
	if err != nil {
		return errors.Wrap(err, "creating reservation")
	}
	return ctx.JSON(http.StatusCreated, r)
}

func (api *reservationApi) list(ctx echo.Context, filter reservation.QueryFilter) error {
	list, err := api.svc.Query(filter)
	if err != nil {
		return errors.Wrap(err, "querying reservations")
	}
	if list == nil {
		list = []reservation.Reservation{}
	}
	return ctx.JSON(http.StatusOK, list)
}

func (api *reservationApi) query(ctx echo.Context) error {
	return api.list(ctx, reservation.QueryFilter{
		Status:    ctx.QueryParam("status"),
		StudentID: ctx.QueryParam("student_id"),
		CoachID:   ctx.QueryParam("coach_id"),
	})
}

// mine lists the sessions the current student attends or the current coach teaches.
func (api *reservationApi) mine(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return err
	}
	filter := reservation.QueryFilter{Status: ctx.QueryParam("status")}
	switch {
	case usr.IsStudent():
		filter.StudentID = usr.ID
	case usr.IsCoach():
		filter.CoachID = usr.ID
	default:
		return ctx.JSON(http.StatusOK, []reservation.Reservation{})
	}
	return api.list(ctx, filter)
}

func (api *reservationApi) get(ctx echo.Context) error {
	r, err := api.svc.GetByID(ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting reservation")
	}
	return ctx.JSON(http.StatusOK, r)
}

func (api *reservationApi) setStatus(ctx echo.Context) error {
	var data reservation.SetStatus
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SetStatus")
	}
	data.Status = core.CleanString(data.Status, true /* lower */)
	if err := api.validate.Struct(data); err != nil {
		return err
	}

	r, err := api.svc.SetStatus(ctx.Param("id"), data.Status)
	if err != nil {
		return errors.Wrap(err, "setting reservation status")
	}
	return ctx.JSON(http.StatusOK, r)
}
