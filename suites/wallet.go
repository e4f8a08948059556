package suites

import (
	"github.com/nomis52/goexample/example"
	"github.com/nomis52/goexample/suite"
)

// WalletName is the catalog name of the Wallet suite.
const WalletName = "WalletExample"

type walletExamples struct{}

func (walletExamples) Empty() Cash {
	return Cash{Amount: 0, Currency: "CHF"}
}

func (walletExamples) DepositMoney(c Cash) Cash {
	return Cash{Amount: c.Amount + 50, Currency: c.Currency}
}

func (walletExamples) Withdraw(c Cash) (Cash, error) {
	out := Cash{Amount: c.Amount - 20, Currency: c.Currency}
	return out, expect(out.Amount == 30, "want 30 %s, got %d", out.Currency, out.Amount)
}

// Wallet carries descriptions and tags into its report. The deposit
// example is backed by the DepositMoney method.
func Wallet() (*suite.Definition, error) {
	return suite.FromStruct(WalletName, walletExamples{},
		example.Metadata{Name: "empty", Method: "Empty",
			Description: "Empty wallet with zero balance", Tags: []string{"setup"}},
		example.Metadata{Name: "deposit", Method: "DepositMoney", Given: []string{"empty"},
			Description: "Deposit 50 CHF", Tags: []string{"mutation"}},
		example.Metadata{Name: "withdraw", Method: "Withdraw", Given: []string{"deposit"},
			Tags: []string{"mutation"}},
	)
}
