package tests

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/trezcool/atlantis/apps/api/echo"
	"github.com/trezcool/atlantis/core/cart"
	"github.com/trezcool/atlantis/core/checkout"
	"github.com/trezcool/atlantis/core/user"
)

func checkoutForm() checkout.Form {
	return checkout.Form{
		Name:       "Ion Rusu",
		Email:      "ion@atlantis.md",
		Phone:      "+373 69 123 456",
		CardNumber: "5500 0000 0000 0004",
		CardHolder: "ION RUSU",
		Expiry:     "11/29",
		CVV:        "321",
	}
}

func addToCart(t *testing.T, app *testApp, token string, planIDs ...string) {
	t.Helper()
	for _, id := range planIDs {
		req, rec := newAuthRequest(http.MethodPost, "/v1/cart/items", token, marshalObj(t, AddItemRequest{PlanID: id}))
		app.do(req, rec)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}
}

func Test_checkoutApi(t *testing.T) {
	app := setup(t)
	student := app.createUser(t, "Ion Rusu", "ion@atlantis.md", user.RoleStudent)
	token := app.token(t, student)

	runHTTPTests(t, app, []httpTest{
		{
			name: "empty cart", method: http.MethodPost, path: "/v1/checkout", token: token, body: marshalObj(t, checkoutForm()),
			wantCode: http.StatusConflict, wantData: marshalObj(t, httpErr{Error: "your cart is empty"}),
		},
	})

	addToCart(t, app, token, "plan1", "plan1", "plan2")

	t.Run("invalid form", func(t *testing.T) {
		form := checkoutForm()
		form.Email = "ion.atlantis.md"
		form.CardNumber = "5500 0000"
		form.Expiry = "13/29"

		req, rec := newAuthRequest(http.MethodPost, "/v1/checkout", token, marshalObj(t, form))
		app.do(req, rec)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{
			"email": "invalid email address",
			"card_number": "incomplete card number",
			"expiry": "invalid expiry date"
		}`, rec.Body.String())

		assert.Equal(t, 3, getCart(t, app, token).TotalItems, "cart untouched")
		assert.Empty(t, app.mailSvc.SentMessages())
	})

	t.Run("success", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/checkout", token, marshalObj(t, checkoutForm()))
		app.do(req, rec)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var receipt struct {
			ID         string
			Reference  string
			TotalItems int
			TotalPrice string
			Currency   string
			CardBrand  string
			CardLast4  string
			Email      string
			Items      []cart.Line
		}
		unmarshal(t, rec, &receipt)
		assert.NotEmpty(t, receipt.ID)
		assert.NotEmpty(t, receipt.Reference)
		assert.Equal(t, 3, receipt.TotalItems)
		assert.Equal(t, "3600", receipt.TotalPrice)
		assert.Equal(t, "MDL", receipt.Currency)
		assert.Equal(t, checkout.BrandMastercard, receipt.CardBrand)
		assert.Equal(t, "0004", receipt.CardLast4)
		assert.Len(t, receipt.Items, 2)
		assert.NotContains(t, rec.Body.String(), "card_number", "card details are never echoed")
		assert.NotContains(t, rec.Body.String(), "cvv")

		assert.Empty(t, getCart(t, app, token).Items)
		_, err := app.storage.Get(context.Background(), app.carts.Key(student.ID))
		assert.Equal(t, cart.ErrNoCart, err)

		sent := app.mailSvc.SentMessages()
		require.Len(t, sent, 1)
		assert.Equal(t, "ion@atlantis.md", sent[0].To[0].Address)
		assert.True(t, strings.Contains(sent[0].TextContent, "3600 MDL"), sent[0].TextContent)
	})
}

// gatedProcessor blocks every charge until release is closed.
type gatedProcessor struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (p *gatedProcessor) Charge(ctx context.Context, _ checkout.Charge) (checkout.PaymentResult, error) {
	p.once.Do(func() { close(p.started) })
	select {
	case <-p.release:
		return checkout.PaymentResult{Reference: "ref-1", ProcessedAt: time.Now().UTC()}, nil
	case <-ctx.Done():
		return checkout.PaymentResult{}, ctx.Err()
	}
}

func Test_checkoutApi_inProgress(t *testing.T) {
	processor := &gatedProcessor{started: make(chan struct{}), release: make(chan struct{})}
	app := setup(t, processor)
	student := app.createUser(t, "Ion Rusu", "ion@atlantis.md", user.RoleStudent)
	token := app.token(t, student)
	addToCart(t, app, token, "plan3")

	done := make(chan int)
	go func() {
		req, rec := newAuthRequest(http.MethodPost, "/v1/checkout", token, marshalObj(t, checkoutForm()))
		app.ServeHTTP(rec, req)
		done <- rec.Code
	}()
	<-processor.started

	req, rec := newAuthRequest(http.MethodPost, "/v1/checkout", token, marshalObj(t, checkoutForm()))
	app.do(req, rec)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{"error":"a checkout is already in progress for this cart"}`, rec.Body.String())

	close(processor.release)
	assert.Equal(t, http.StatusCreated, <-done)
}
