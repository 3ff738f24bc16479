package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/atlantis/core"
	"github.com/trezcool/atlantis/core/cart"
	"github.com/trezcool/atlantis/core/catalog"
	"github.com/trezcool/atlantis/core/checkout"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#1E90FF"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA"))
	strikeStyle  = mutedStyle.Strikethrough(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#2ECC71"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	boxStyle     = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)
)

func price(amount fmt.Stringer, currency string) string {
	return amount.String() + " " + currency
}

func renderPlans(plans []catalog.Plan, currency string) string {
	if len(plans) == 0 {
		return mutedStyle.Render("no plans")
	}
	rows := make([]string, 0, len(plans)+1)
	rows = append(rows, titleStyle.Render("PLANS"))
	for _, p := range plans {
		line := fmt.Sprintf("%-6s %s · %d sessions · %s  ", p.ID, p.Name, p.Sessions, p.Duration)
		eff := p.EffectivePrice()
		if !eff.Equal(p.Price) {
			line += strikeStyle.Render(p.Price.String()) + " "
		}
		rows = append(rows, line+price(eff, currency))
	}
	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func renderCart(view cart.View, currency string) string {
	if len(view.Items) == 0 {
		return boxStyle.Render(mutedStyle.Render("your cart is empty"))
	}
	rows := make([]string, 0, len(view.Items)+3)
	rows = append(rows, titleStyle.Render(fmt.Sprintf("CART · %d items", view.TotalItems)))
	for _, l := range view.Items {
		line := fmt.Sprintf("%-6s %s  %d x %s = %s", l.ID, l.Name, l.Quantity, l.UnitPrice, price(l.Subtotal, currency))
		if l.Plan != nil {
			line += mutedStyle.Render(fmt.Sprintf("  (%s, %d sessions)", l.Plan.Category, l.Plan.Sessions))
		}
		rows = append(rows, line)
	}
	rows = append(rows, "", titleStyle.Render("Total: "+price(view.TotalPrice, currency)))
	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func renderReceipt(r checkout.Receipt) string {
	card := "card ending in " + r.CardLast4
	if r.CardBrand != "" {
		card = r.CardBrand + " " + card
	}
	rows := []string{
		successStyle.Bold(true).Render("Payment accepted"),
		fmt.Sprintf("Order %s", r.ID),
		fmt.Sprintf("Paid %s with %s", price(r.TotalPrice, r.Currency), card),
		mutedStyle.Render(fmt.Sprintf("%d items · reference %s · %s", r.TotalItems, r.Reference, r.PaidAt.Format("2006-01-02 15:04 MST"))),
	}
	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func renderFieldErrors(errs validator.ValidationErrors, translator ut.Translator) string {
	fldErrs := core.TranslateErrors(errs, translator)
	fields := make([]string, 0, len(fldErrs))
	for f := range fldErrs {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	lines := make([]string, 0, len(fields))
	for _, f := range fields {
		lines = append(lines, errorStyle.Render(f+": "+fldErrs[f]))
	}
	return strings.Join(lines, "\n")
}
