package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/atlantis/core/cart"
	"github.com/trezcool/atlantis/core/checkout"
)

type checkoutApi struct {
	carts *cart.Registry
	svc   *checkout.Service
}

func registerCheckoutAPI(g *echo.Group, carts *cart.Registry, svc *checkout.Service) {
	api := checkoutApi{carts: carts, svc: svc}
	g.POST("/checkout", api.checkout)
}

func (api *checkoutApi) checkout(ctx echo.Context) error {
	var form checkout.Form
	if err := ctx.Bind(&form); err != nil {
		return errors.Wrap(err, "binding to checkout.Form")
	}
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	engine := api.carts.Get(ctx.Request().Context(), claims.Subject)
	receipt, err := api.svc.Checkout(ctx.Request().Context(), engine, form)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, receipt)
}
