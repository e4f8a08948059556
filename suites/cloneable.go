package suites

import (
	"context"
	"fmt"
	"math"

	"github.com/nomis52/goexample/clone"
	"github.com/nomis52/goexample/suite"
)

// MoneyCloneableName is the catalog name of the MoneyCloneable suite.
const MoneyCloneableName = "MoneyCloneableExample"

// Purse is a fixture that copies itself through clone.Cloneable.
type Purse struct {
	Amount   int    `yaml:"amount" json:"amount"`
	Currency string `yaml:"currency" json:"currency"`

	cloned bool
}

var _ clone.Cloneable = (*Purse)(nil)

// NewPurse returns a purse holding amount in currency.
func NewPurse(amount int, currency string) *Purse {
	return &Purse{Amount: amount, Currency: currency}
}

// Add returns a new purse with amount added, held in currency.
func (p *Purse) Add(amount int, currency string) *Purse {
	return NewPurse(p.Amount+amount, currency)
}

// Clone implements clone.Cloneable.
func (p *Purse) Clone() any {
	return &Purse{Amount: p.Amount, Currency: p.Currency, cloned: true}
}

// Cloned reports whether p was produced by Clone.
func (p *Purse) Cloned() bool {
	return p.cloned
}

// MoneyCloneable is createWallet -> deposit -> convert over a Cloneable
// fixture.
func MoneyCloneable() (*suite.Definition, error) {
	return suite.NewBuilder(MoneyCloneableName).
		Example("createWallet", func(context.Context, ...any) (any, error) {
			return NewPurse(0, "CHF"), nil
		}).
		Example("deposit", func(_ context.Context, args ...any) (any, error) {
			p, err := purseArg(args)
			if err != nil {
				return nil, err
			}
			out := p.Add(50, "CHF")
			return out, expect(out.Amount == 50, "want 50 CHF, got %d", out.Amount)
		}, suite.Given("createWallet")).
		Example("convert", func(_ context.Context, args ...any) (any, error) {
			p, err := purseArg(args)
			if err != nil {
				return nil, err
			}
			if err := expect(p.Amount == 50, "want 50, got %d", p.Amount); err != nil {
				return nil, err
			}
			out := p.Add(int(math.Round(float64(p.Amount)*0.92))-p.Amount, "EUR")
			return out, expect(out.Currency == "EUR", "want EUR, got %s", out.Currency)
		}, suite.Given("deposit")).
		Build()
}

func purseArg(args []any) (*Purse, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("want 1 argument, got %d", len(args))
	}
	p, ok := args[0].(*Purse)
	if !ok {
		return nil, fmt.Errorf("argument is %T, not *Purse", args[0])
	}
	return p, nil
}
