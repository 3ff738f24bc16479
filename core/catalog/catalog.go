package catalog

import (
	_ "embed"
	"os"
	"sort"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/trezcool/atlantis/core"
	"github.com/trezcool/atlantis/core/cart"
)

// Categories
const (
	CategoryStandard   = "standard"
	CategoryPro        = "pro"
	CategoryIndividual = "individual"
	CategoryTransport  = "transport"
)

var (
	//go:embed plans.yaml
	defaultPlans []byte

	AllCategories = []string{CategoryStandard, CategoryPro, CategoryIndividual, CategoryTransport}

	// errors
	ErrPlanNotFound = errors.New("plan not found")
)

// Plan is a purchasable subscription product.
type Plan struct {
	ID            string           `json:"id" yaml:"id"`
	Name          string           `json:"name" yaml:"name"`
	Sessions      int              `json:"sessions" yaml:"sessions"`
	Duration      string           `json:"duration" yaml:"duration"`
	Price         decimal.Decimal  `json:"price" yaml:"price"`
	DiscountPrice *decimal.Decimal `json:"discount_price" yaml:"discount_price"`
	Category      string           `json:"category" yaml:"category"`
}

// EffectivePrice is the discount price when set and lower than the list price.
func (p Plan) EffectivePrice() decimal.Decimal {
	return cart.EffectivePrice(p.Price, p.DiscountPrice)
}

// Candidate returns what gets added to a cart for this plan.
func (p Plan) Candidate() cart.Candidate {
	c := cart.Candidate{ID: p.ID, Name: p.Name, Price: p.Price}
	if p.DiscountPrice != nil {
		dp := *p.DiscountPrice
		c.DiscountPrice = &dp
	}
	return c
}

type file struct {
	Currency string `yaml:"currency"`
	Plans    []Plan `yaml:"plans"`
}

// Catalog is a read-only, ordered set of plans.
type Catalog struct {
	currency string
	plans    []Plan
	byID     map[string]int
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := parse(defaultPlans)
	if err != nil {
		panic(errors.Wrap(err, "parsing embedded catalog"))
	}
	return c
}

// Load reads a YAML catalog from path. An empty path returns Default().
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading catalog")
	}
	c, err := parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing catalog %s", path)
	}
	return c, nil
}

// New builds a catalog from plans, keeping their order.
func New(currency string, plans ...Plan) (*Catalog, error) {
	c := &Catalog{
		currency: currency,
		plans:    make([]Plan, 0, len(plans)),
		byID:     make(map[string]int, len(plans)),
	}
	for _, p := range plans {
		p.ID = core.CleanString(p.ID)
		p.Name = core.CleanString(p.Name)
		switch {
		case p.ID == "":
			return nil, errors.New("plan id is required")
		case p.Name == "":
			return nil, errors.Errorf("plan %q: name is required", p.ID)
		case !p.Price.IsPositive():
			return nil, errors.Errorf("plan %q: price must be positive", p.ID)
		case p.DiscountPrice != nil && p.DiscountPrice.IsNegative():
			return nil, errors.Errorf("plan %q: discount price cannot be negative", p.ID)
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, errors.Errorf("plan %q: duplicate id", p.ID)
		}
		c.byID[p.ID] = len(c.plans)
		c.plans = append(c.plans, p)
	}
	return c, nil
}

func parse(data []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return New(f.Currency, f.Plans...)
}

func (c *Catalog) Currency() string { return c.currency }

// All returns a copy of every plan in catalog order.
func (c *Catalog) All() []Plan {
	plans := make([]Plan, len(c.plans))
	copy(plans, c.plans)
	return plans
}

func (c *Catalog) Lookup(id string) (Plan, error) {
	if idx, ok := c.byID[id]; ok {
		return c.plans[idx], nil
	}
	return Plan{}, ErrPlanNotFound
}

// ByCategory returns the plans of the given category, in catalog order.
func (c *Catalog) ByCategory(category string) []Plan {
	plans := make([]Plan, 0)
	for _, p := range c.plans {
		if p.Category == category {
			plans = append(plans, p)
		}
	}
	return plans
}

// Candidate looks up a plan and returns its cart candidate.
func (c *Catalog) Candidate(id string) (cart.Candidate, error) {
	p, err := c.Lookup(id)
	if err != nil {
		return cart.Candidate{}, err
	}
	return p.Candidate(), nil
}

// Categories returns the distinct categories present in the catalog, sorted.
func (c *Catalog) Categories() []string {
	seen := make(map[string]bool)
	cats := make([]string, 0, len(AllCategories))
	for _, p := range c.plans {
		if !seen[p.Category] {
			seen[p.Category] = true
			cats = append(cats, p.Category)
		}
	}
	sort.Strings(cats)
	return cats
}

// Enrichment implements cart.PlanSource.
func (c *Catalog) Enrichment(id string) (cart.Enrichment, bool) {
	p, err := c.Lookup(id)
	if err != nil {
		return cart.Enrichment{}, false
	}
	return cart.Enrichment{Sessions: p.Sessions, Duration: p.Duration, Category: p.Category}, true
}
