package tests

import (
	"context"
	"math"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/trezcool/atlantis/apps/api/echo"
	"github.com/trezcool/atlantis/core/cart"
	"github.com/trezcool/atlantis/core/catalog"
	"github.com/trezcool/atlantis/core/user"
)

type cartView struct {
	Items []struct {
		ID        string
		Name      string
		Quantity  int
		UnitPrice string
		Subtotal  string
		Plan      *cart.Enrichment
	}
	TotalItems int
	TotalPrice string
}

func getCart(t *testing.T, app *testApp, token string) cartView {
	t.Helper()
	req, rec := newAuthRequest(http.MethodGet, "/v1/cart", token)
	app.do(req, rec)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var view cartView
	unmarshal(t, rec, &view)
	return view
}

func Test_planApi_query(t *testing.T) {
	app := setup(t)

	t.Run("all", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/plans")
		app.do(req, rec)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp PlansResponse
		unmarshal(t, rec, &resp)
		assert.Equal(t, "MDL", resp.Currency)
		assert.Len(t, resp.Plans, len(app.plans.All()))
	})

	t.Run("by category", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/plans?category=PRO")
		app.do(req, rec)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp PlansResponse
		unmarshal(t, rec, &resp)
		require.NotEmpty(t, resp.Plans)
		for _, p := range resp.Plans {
			assert.Equal(t, catalog.CategoryPro, p.Category)
		}
	})

	t.Run("unknown category", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/plans?category=deep-end")
		app.do(req, rec)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"currency":"MDL","plans":[]}`, rec.Body.String())
	})
}

func Test_cartApi_auth(t *testing.T) {
	app := setup(t)

	runHTTPTests(t, app, []httpTest{
		{name: "view", path: "/v1/cart", wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errMissingToken)},
		{name: "add", method: http.MethodPost, path: "/v1/cart/items", wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errMissingToken)},
		{name: "clear", method: http.MethodDelete, path: "/v1/cart", wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errMissingToken)},
		{name: "checkout", method: http.MethodPost, path: "/v1/checkout", wantCode: http.StatusUnauthorized, wantData: marshalObj(t, errMissingToken)},
		{
			name: "invalid token", path: "/v1/cart", token: "not.a.jwt",
			wantCode: http.StatusUnauthorized, wantData: marshalObj(t, httpErr{Error: "invalid or expired jwt"}),
		},
	})
}

func Test_cartApi(t *testing.T) {
	app := setup(t)
	student := app.createUser(t, "Ion Rusu", "ion@atlantis.md", user.RoleStudent)
	token := app.token(t, student)

	add := func(planID string) *cartView {
		req, rec := newAuthRequest(http.MethodPost, "/v1/cart/items", token, marshalObj(t, AddItemRequest{PlanID: planID}))
		app.do(req, rec)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var view cartView
		unmarshal(t, rec, &view)
		return &view
	}

	t.Run("empty", func(t *testing.T) {
		view := getCart(t, app, token)
		assert.Empty(t, view.Items)
		assert.Equal(t, 0, view.TotalItems)
		assert.Equal(t, "0", view.TotalPrice)
	})

	t.Run("add", func(t *testing.T) {
		add("plan1")
		view := add("plan1")
		require.Len(t, view.Items, 1)
		assert.Equal(t, 2, view.Items[0].Quantity)
		assert.Equal(t, "900", view.Items[0].UnitPrice)
		assert.Equal(t, "1800", view.Items[0].Subtotal)
		require.NotNil(t, view.Items[0].Plan)
		assert.Equal(t, 4, view.Items[0].Plan.Sessions)

		view = add("plan3")
		assert.Equal(t, 3, view.TotalItems)
		assert.Equal(t, "4300", view.TotalPrice)
	})

	runHTTPTests(t, app, []httpTest{
		{
			name: "add unknown plan", method: http.MethodPost, path: "/v1/cart/items", token: token,
			body: []byte(`{"plan_id": "plan404"}`), wantCode: http.StatusNotFound, wantData: marshalObj(t, httpErr{Error: "plan not found"}),
		},
		{
			name: "add without plan", method: http.MethodPost, path: "/v1/cart/items", token: token,
			body: []byte(`{"plan_id": "  "}`), wantCode: http.StatusBadRequest, wantData: marshalObj(t, map[string]string{"plan_id": "this field is required"}),
		},
		{
			name: "update zero delta", method: http.MethodPatch, path: "/v1/cart/items/plan1", token: token,
			body: []byte(`{"delta": 0}`), wantCode: http.StatusBadRequest, wantData: marshalObj(t, map[string]string{"delta": "this field is required"}),
		},
		{
			name: "update item not in cart", method: http.MethodPatch, path: "/v1/cart/items/plan2", token: token,
			body: []byte(`{"delta": 1}`), wantCode: http.StatusNotFound, wantData: marshalObj(t, httpErr{Error: "item not in cart"}),
		},
		{
			name: "remove item not in cart", method: http.MethodDelete, path: "/v1/cart/items/plan2", token: token,
			wantCode: http.StatusNotFound, wantData: marshalObj(t, httpErr{Error: "item not in cart"}),
		},
	})

	t.Run("update", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPatch, "/v1/cart/items/plan1", token, []byte(`{"delta": -1}`))
		app.do(req, rec)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		view := getCart(t, app, token)
		assert.Equal(t, 2, view.TotalItems)
		assert.Equal(t, "3400", view.TotalPrice)

		// dropping to zero removes the line
		req, rec = newAuthRequest(http.MethodPatch, "/v1/cart/items/plan1", token, []byte(`{"delta": -5}`))
		app.do(req, rec)
		require.Equal(t, http.StatusOK, rec.Code)

		view = getCart(t, app, token)
		require.Len(t, view.Items, 1)
		assert.Equal(t, "plan3", view.Items[0].ID)
	})

	t.Run("update saturates", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPatch, "/v1/cart/items/plan3", token, []byte(`{"delta": 9223372036854775807}`))
		app.do(req, rec)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		view := getCart(t, app, token)
		require.Len(t, view.Items, 1)
		assert.Equal(t, math.MaxInt, view.Items[0].Quantity)

		req, rec = newAuthRequest(http.MethodPatch, "/v1/cart/items/plan3", token, []byte(`{"delta": -9223372036854775806}`))
		app.do(req, rec)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, 1, getCart(t, app, token).TotalItems)
	})

	t.Run("persisted per user", func(t *testing.T) {
		data, err := app.storage.Get(context.Background(), app.carts.Key(student.ID))
		require.NoError(t, err)

		lines, err := cart.Decode(data)
		require.NoError(t, err)
		require.Len(t, lines, 1)
		assert.Equal(t, "plan3", lines[0].ID)

		other := app.createUser(t, "Ana Popescu", "ana@atlantis.md", user.RoleCoach)
		assert.Empty(t, getCart(t, app, app.token(t, other)).Items)
	})

	t.Run("remove", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/cart/items/plan3", token)
		app.do(req, rec)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, getCart(t, app, token).Items)
	})

	t.Run("clear", func(t *testing.T) {
		add("plan2")

		req, rec := newAuthRequest(http.MethodDelete, "/v1/cart", token)
		app.do(req, rec)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Empty(t, getCart(t, app, token).Items)

		_, err := app.storage.Get(context.Background(), app.carts.Key(student.ID))
		assert.Equal(t, cart.ErrNoCart, err)
	})
}
