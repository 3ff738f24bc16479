package checkout

import (
	"context"
	_ "embed"
	"net/mail"
	"sync"
	texttmpl "text/template"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/trezcool/atlantis/core"
	"github.com/trezcool/atlantis/core/cart"
)

var (
	// errors
	ErrEmptyCart          = errors.New("your cart is empty")
	ErrCheckoutInProgress = errors.New("a checkout is already in progress for this cart")

	//go:embed templates/receipt.txt
	receiptText     string
	receiptTemplate = texttmpl.Must(texttmpl.New("receipt").Parse(receiptText))
)

type (
	Deps struct {
		Validate  *validator.Validate
		Processor PaymentProcessor
		MailSvc   core.EmailService // optional
		Logger    core.Logger       // optional
		AppName   string
		Currency  string
	}

	// Receipt describes a completed checkout.
	Receipt struct {
		ID         string          `json:"id"`
		Reference  string          `json:"reference"`
		Items      []cart.Line     `json:"items"`
		TotalItems int             `json:"totalItems"`
		TotalPrice decimal.Decimal `json:"totalPrice"`
		Currency   string          `json:"currency"`
		CardBrand  string          `json:"cardBrand,omitempty"`
		CardLast4  string          `json:"cardLast4"`
		Name       string          `json:"name"`
		Email      string          `json:"email"`
		PaidAt     time.Time       `json:"paidAt"` // UTC
	}

	Service struct {
		deps Deps

		mu       sync.Mutex
		inFlight map[*cart.Engine]struct{}
	}
)

func NewService(deps Deps) *Service {
	if deps.Processor == nil {
		deps.Processor = NewSimulatedProcessor(0)
	}
	return &Service{deps: deps, inFlight: make(map[*cart.Engine]struct{})}
}

func (svc *Service) acquire(engine *cart.Engine) bool {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	if _, busy := svc.inFlight[engine]; busy {
		return false
	}
	svc.inFlight[engine] = struct{}{}
	return true
}

func (svc *Service) release(engine *cart.Engine) {
	svc.mu.Lock()
	delete(svc.inFlight, engine)
	svc.mu.Unlock()
}

// Checkout pays for the current content of engine's cart and clears it.
// The cart is left untouched unless the payment succeeds.
func (svc *Service) Checkout(ctx context.Context, engine *cart.Engine, form Form) (Receipt, error) {
	if !svc.acquire(engine) {
		return Receipt{}, ErrCheckoutInProgress
	}
	defer svc.release(engine)

	snap := engine.Snapshot()
	if snap.IsEmpty() {
		return Receipt{}, ErrEmptyCart
	}
	if err := form.Validate(svc.deps.Validate); err != nil {
		return Receipt{}, err
	}

	res, err := svc.deps.Processor.Charge(ctx, Charge{
		Amount:     snap.TotalPrice,
		Currency:   svc.deps.Currency,
		CardNumber: core.Digits(form.CardNumber),
		CardHolder: form.CardHolder,
		Expiry:     form.Expiry,
		CVV:        form.CVV,
	})
	if err != nil {
		return Receipt{}, errors.Wrap(err, "processing payment")
	}

	if err = engine.Clear(ctx); err != nil {
		// payment went through: the in-memory cart is empty, only the stored record lingers
		svc.warn("checkout: could not erase stored cart", err)
	}

	receipt := Receipt{
		ID:         uuid.NewString(),
		Reference:  res.Reference,
		Items:      snap.Items,
		TotalItems: snap.TotalItems,
		TotalPrice: snap.TotalPrice,
		Currency:   svc.deps.Currency,
		CardBrand:  DetectBrand(form.CardNumber),
		CardLast4:  form.CardLast4(),
		Name:       form.Name,
		Email:      form.Email,
		PaidAt:     res.ProcessedAt,
	}
	svc.sendReceipt(receipt)
	return receipt, nil
}

func (svc *Service) sendReceipt(r Receipt) {
	if svc.deps.MailSvc == nil {
		return
	}
	svc.deps.MailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: r.Name, Address: r.Email}},
		Subject:      "Your order confirmation",
		TextTemplate: receiptTemplate,
		TemplateData: struct {
			AppName string
			Receipt Receipt
		}{svc.deps.AppName, r},
	})
}

func (svc *Service) warn(msg string, err error) {
	if svc.deps.Logger != nil {
		svc.deps.Logger.Warn(msg, err)
	}
}
