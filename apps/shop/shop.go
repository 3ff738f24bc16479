package main

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/atlantis/core/cart"
	"github.com/trezcool/atlantis/core/checkout"
)

var (
	errNotInCart   = errors.New("plan not in cart")
	errInvalidForm = errors.New("invalid checkout details")
)

func (cli *commandLine) listPlans(category string) error {
	plans := cli.plans.All()
	if category != "" {
		plans = cli.plans.ByCategory(category)
	}
	_, _ = fmt.Fprintln(cli.out, renderPlans(plans, cli.plans.Currency()))
	return nil
}

func (cli *commandLine) show() error {
	view := cart.NewView(cli.engine.Snapshot(), cli.plans)
	_, _ = fmt.Fprintln(cli.out, renderCart(view, cli.plans.Currency()))
	return nil
}

func (cli *commandLine) inCart(id string) bool {
	for _, l := range cli.engine.Items() {
		if l.ID == id {
			return true
		}
	}
	return false
}

func (cli *commandLine) add(ctx context.Context, id string) error {
	c, err := cli.plans.Candidate(id)
	if err != nil {
		return err
	}
	if err = cli.engine.AddItem(ctx, c); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(cli.out, successStyle.Render("added "+c.Name))
	return cli.show()
}

func (cli *commandLine) remove(ctx context.Context, id string) error {
	if !cli.inCart(id) {
		return errNotInCart
	}
	if err := cli.engine.RemoveItem(ctx, id); err != nil {
		return err
	}
	return cli.show()
}

func (cli *commandLine) update(ctx context.Context, id string, delta int) error {
	if !cli.inCart(id) {
		return errNotInCart
	}
	if err := cli.engine.UpdateQuantity(ctx, id, delta); err != nil {
		return err
	}
	return cli.show()
}

func (cli *commandLine) clear(ctx context.Context) error {
	if err := cli.engine.Clear(ctx); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(cli.out, successStyle.Render("cart cleared"))
	return nil
}

// checkout pays for the cart. Invalid form fields are listed and reported as errInvalidForm.
func (cli *commandLine) checkout(ctx context.Context, form checkout.Form) error {
	receipt, err := cli.checkoutSvc.Checkout(ctx, cli.engine, form)
	if err != nil {
		var vErrs validator.ValidationErrors
		if errors.As(err, &vErrs) {
			_, _ = fmt.Fprintln(cli.out, renderFieldErrors(vErrs, cli.translator))
			return errInvalidForm
		}
		return err
	}
	_, _ = fmt.Fprintln(cli.out, renderReceipt(receipt))
	return nil
}
