package suites

import (
	"context"
	"math"

	"github.com/nomis52/goexample/example"
	"github.com/nomis52/goexample/runner"
	"github.com/nomis52/goexample/suite"
)

// MoneyName is the catalog name of the Money suite.
const MoneyName = "MoneyExample"

// Cash is a plain value fixture copied structurally between examples.
type Cash struct {
	Amount   int    `yaml:"amount" json:"amount"`
	Currency string `yaml:"currency" json:"currency"`
}

type moneyExamples struct{}

func (moneyExamples) Empty() (Cash, error) {
	cash := Cash{Amount: 0, Currency: "CHF"}
	return cash, expect(cash.Amount == 0, "empty cash holds %d", cash.Amount)
}

func (moneyExamples) AddDollars(cash Cash) (Cash, error) {
	out := Cash{Amount: cash.Amount + 10, Currency: "USD"}
	return out, expect(out.Amount == 10, "want 10 USD, got %d", out.Amount)
}

func (moneyExamples) Convert(ctx context.Context, cash Cash) (Cash, error) {
	out := Cash{Amount: int(math.Round(float64(cash.Amount) * 0.92)), Currency: "EUR"}
	runner.Logger(ctx).Debug("converted", "from", cash.Currency, "to", out.Currency, "amount", out.Amount)
	return out, expect(out.Currency == "EUR", "want EUR, got %s", out.Currency)
}

// Money is the linear chain empty -> addDollars -> convert, bound to
// methods by reflection.
func Money() (*suite.Definition, error) {
	return suite.FromStruct(MoneyName, moneyExamples{},
		example.Metadata{Name: "empty", Method: "Empty"},
		example.Metadata{Name: "addDollars", Method: "AddDollars", Given: []string{"empty"}},
		example.Metadata{Name: "convert", Method: "Convert", Given: []string{"addDollars"}},
	)
}
