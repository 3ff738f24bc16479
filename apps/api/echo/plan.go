package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/atlantis/core"
	"github.com/trezcool/atlantis/core/catalog"
)

type planApi struct {
	plans *catalog.Catalog
}

func registerPlanAPI(g *echo.Group, plans *catalog.Catalog) {
	api := planApi{plans: plans}
	g.GET("/plans", api.query)
}

type PlansResponse struct {
	Currency string         `json:"currency"`
	Plans    []catalog.Plan `json:"plans"`
}

func (api *planApi) query(ctx echo.Context) error {
	plans := api.plans.All()
	if cat := core.CleanString(ctx.QueryParam("category"), true /* lower */); cat != "" {
		plans = api.plans.ByCategory(cat)
	}
	return ctx.JSON(http.StatusOK, PlansResponse{Currency: api.plans.Currency(), Plans: plans})
}
