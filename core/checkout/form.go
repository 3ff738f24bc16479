package checkout

import (
	"regexp"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/atlantis/core"
)

// Brands
const (
	BrandVisa       = "VISA"
	BrandMastercard = "Mastercard"
	BrandAmex       = "Amex"
)

var (
	// custom validation tags & texts
	emailTag  = "email_at"
	emailText = "invalid email address"

	phoneTag       = "phone_digits"
	phoneText      = "invalid phone number"
	phoneMinDigits = 9

	cardNumberTag    = "card_digits"
	cardNumberText   = "incomplete card number"
	cardNumberDigits = 16

	expiryTag   = "card_expiry"
	expiryText  = "invalid expiry date"
	expiryRegex = regexp.MustCompile(`^(0[1-9]|1[0-2])/[0-9]{2}$`)

	cvvTag       = "cvv_digits"
	cvvText      = "invalid CVV"
	cvvMinDigits = 3

	mastercardRegex = regexp.MustCompile(`^5[1-5]`)
	amexRegex       = regexp.MustCompile(`^3[47]`)
)

// Form holds the personal and payment details collected at checkout.
// It is never persisted.
type Form struct {
	Name       string `json:"name" validate:"notblank"`
	Email      string `json:"email" validate:"email_at"`
	Phone      string `json:"phone" validate:"phone_digits"`
	CardNumber string `json:"card_number" validate:"card_digits"`
	CardHolder string `json:"card_holder" validate:"notblank"`
	Expiry     string `json:"expiry" validate:"card_expiry"`
	CVV        string `json:"cvv" validate:"cvv_digits"`
}

func (f *Form) clean() {
	f.Name = core.CleanString(f.Name)
	f.Email = core.CleanString(f.Email, true /* lower */)
	f.Phone = core.CleanString(f.Phone)
	f.CardNumber = core.CleanString(f.CardNumber)
	f.CardHolder = core.CleanString(f.CardHolder)
	f.Expiry = core.CleanString(f.Expiry)
	f.CVV = core.CleanString(f.CVV)
}

// Validate cleans the form and returns validator.ValidationErrors on failure.
func (f *Form) Validate(validate *validator.Validate) error {
	f.clean()
	return validate.Struct(f)
}

// CardLast4 returns the last 4 digits of the card number.
func (f Form) CardLast4() string {
	d := core.Digits(f.CardNumber)
	if len(d) <= 4 {
		return d
	}
	return d[len(d)-4:]
}

// InitValidators registers the checkout validators and their messages.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(emailTag, emailValidation)
	core.RegisterCustomTranslation(validate, translator, emailTag, emailText)

	_ = validate.RegisterValidation(phoneTag, minDigitsValidation(phoneMinDigits))
	core.RegisterCustomTranslation(validate, translator, phoneTag, phoneText)

	_ = validate.RegisterValidation(cardNumberTag, exactDigitsValidation(cardNumberDigits))
	core.RegisterCustomTranslation(validate, translator, cardNumberTag, cardNumberText)

	_ = validate.RegisterValidation(expiryTag, expiryValidation)
	core.RegisterCustomTranslation(validate, translator, expiryTag, expiryText)

	_ = validate.RegisterValidation(cvvTag, minDigitsValidation(cvvMinDigits))
	core.RegisterCustomTranslation(validate, translator, cvvTag, cvvText)
}

// Custom Validators

func emailValidation(fl validator.FieldLevel) bool {
	return strings.Contains(fl.Field().String(), "@")
}

func minDigitsValidation(min int) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return len(core.Digits(fl.Field().String())) >= min
	}
}

func exactDigitsValidation(n int) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return len(core.Digits(fl.Field().String())) == n
	}
}

func expiryValidation(fl validator.FieldLevel) bool {
	v := fl.Field().String()
	return len(v) == 5 && expiryRegex.MatchString(v)
}

// Input helpers

// FormatCardNumber keeps at most 16 digits and groups them by 4.
func FormatCardNumber(s string) string {
	d := core.Digits(s)
	if len(d) > cardNumberDigits {
		d = d[:cardNumberDigits]
	}
	groups := make([]string, 0, 4)
	for len(d) > 4 {
		groups = append(groups, d[:4])
		d = d[4:]
	}
	if d != "" {
		groups = append(groups, d)
	}
	return strings.Join(groups, " ")
}

// FormatExpiry keeps at most 4 digits and inserts the MM/YY slash once there are at least 3.
func FormatExpiry(s string) string {
	d := core.Digits(s)
	if len(d) > 4 {
		d = d[:4]
	}
	if len(d) >= 3 {
		return d[:2] + "/" + d[2:]
	}
	return d
}

// DetectBrand guesses the card brand from its leading digits. Unknown brands yield "".
func DetectBrand(cardNumber string) string {
	d := core.Digits(cardNumber)
	switch {
	case strings.HasPrefix(d, "4"):
		return BrandVisa
	case mastercardRegex.MatchString(d):
		return BrandMastercard
	case amexRegex.MatchString(d):
		return BrandAmex
	}
	return ""
}
