package suites

import (
	"errors"

	"github.com/nomis52/goexample/example"
	"github.com/nomis52/goexample/suite"
)

// BrokenChainName is the catalog name of the BrokenChain suite.
const BrokenChainName = "BrokenChainExample"

// ErrIntentional is the failure raised by failingStep.
var ErrIntentional = errors.New("intentional failure in producer")

// Payload is the fixture passed along the broken chain.
type Payload struct {
	Value int `yaml:"value" json:"value"`
}

type brokenChainExamples struct{}

func (brokenChainExamples) Setup() Payload {
	return Payload{Value: 42}
}

func (brokenChainExamples) FailingStep(p Payload) (Payload, error) {
	if err := expect(p.Value == 42, "want 42, got %d", p.Value); err != nil {
		return Payload{}, err
	}
	return Payload{}, ErrIntentional
}

func (brokenChainExamples) Downstream(Payload) (Payload, error) {
	return Payload{}, errors.New("downstream must not run")
}

// BrokenChain is setup -> failingStep -> downstream where failingStep always
// fails, so downstream is skipped.
func BrokenChain() (*suite.Definition, error) {
	return suite.FromStruct(BrokenChainName, brokenChainExamples{},
		example.Metadata{Name: "setup", Method: "Setup"},
		example.Metadata{Name: "failingStep", Method: "FailingStep", Given: []string{"setup"},
			Description: "fails on purpose"},
		example.Metadata{Name: "downstream", Method: "Downstream", Given: []string{"failingStep"},
			Description: "skipped because its producer failed"},
	)
}
