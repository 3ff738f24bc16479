package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/atlantis/core/cart"
	"github.com/trezcool/atlantis/core/catalog"
)

type cartApi struct {
	carts    *cart.Registry
	plans    *catalog.Catalog
	validate *validator.Validate
}

func registerCartAPI(g *echo.Group, carts *cart.Registry, plans *catalog.Catalog, validate *validator.Validate) {
	api := cartApi{carts: carts, plans: plans, validate: validate}

	cg := g.Group("/cart")
	cg.GET("", api.retrieve)
	cg.DELETE("", api.clear)
	cg.POST("/items", api.addItem)
	cg.PATCH("/items/:id", api.updateItem)
	cg.DELETE("/items/:id", api.removeItem)
}

// engine returns the cart of the authenticated user.
func (api *cartApi) engine(ctx echo.Context) (*cart.Engine, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "getting context claims")
	}
	return api.carts.Get(ctx.Request().Context(), claims.Subject), nil
}

func (api *cartApi) view(ctx echo.Context, code int, engine *cart.Engine) error {
	return ctx.JSON(code, cart.NewView(engine.Snapshot(), api.plans))
}

func hasItem(engine *cart.Engine, id string) bool {
	for _, l := range engine.Items() {
		if l.ID == id {
			return true
		}
	}
	return false
}

// Handlers

func (api *cartApi) retrieve(ctx echo.Context) error {
	engine, err := api.engine(ctx)
	if err != nil {
		return err
	}
	return api.view(ctx, http.StatusOK, engine)
}

func (api *cartApi) addItem(ctx echo.Context) error {
	var data AddItemRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AddItemRequest")
	}
	if err := api.validate.Struct(data); err != nil {
		return err
	}

	cand, err := api.plans.Candidate(data.PlanID)
	if err != nil {
		return err
	}
	engine, err := api.engine(ctx)
	if err != nil {
		return err
	}
	if err = engine.AddItem(ctx.Request().Context(), cand); err != nil {
		return errors.Wrap(err, "adding cart item")
	}
	return api.view(ctx, http.StatusOK, engine)
}

func (api *cartApi) updateItem(ctx echo.Context) error {
	var data UpdateItemRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateItemRequest")
	}
	if err := api.validate.Struct(data); err != nil {
		return err
	}

	engine, err := api.engine(ctx)
	if err != nil {
		return err
	}
	id := ctx.Param("id")
	if !hasItem(engine, id) {
		return errItemNotInCart
	}
	if err = engine.UpdateQuantity(ctx.Request().Context(), id, data.Delta); err != nil {
		return errors.Wrap(err, "updating cart item")
	}
	return api.view(ctx, http.StatusOK, engine)
}

func (api *cartApi) removeItem(ctx echo.Context) error {
	engine, err := api.engine(ctx)
	if err != nil {
		return err
	}
	id := ctx.Param("id")
	if !hasItem(engine, id) {
		return errItemNotInCart
	}
	if err = engine.RemoveItem(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "removing cart item")
	}
	return api.view(ctx, http.StatusOK, engine)
}

func (api *cartApi) clear(ctx echo.Context) error {
	engine, err := api.engine(ctx)
	if err != nil {
		return err
	}
	if err = engine.Clear(ctx.Request().Context()); err != nil {
		return errors.Wrap(err, "clearing cart")
	}
	return ctx.NoContent(http.StatusNoContent)
}

type (
	AddItemRequest struct {
		PlanID string `json:"plan_id" validate:"notblank"`
	}

	UpdateItemRequest struct {
		Delta int `json:"delta" validate:"required"` // non-zero
	}
)
