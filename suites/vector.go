package suites

import (
	"context"
	"errors"
	"fmt"

	"github.com/nomis52/goexample/suite"
)

// VectorName is the catalog name of the Vector suite.
const VectorName = "VectorExample"

// Vec2 is a pointer fixture, so sibling arguments must arrive as distinct
// copies.
type Vec2 struct {
	X int `yaml:"x" json:"x"`
	Y int `yaml:"y" json:"y"`
}

// Vector is the diamond origin -> (moveRight, moveUp) -> addVectors,
// registered explicitly through a Builder.
func Vector() (*suite.Definition, error) {
	return suite.NewBuilder(VectorName).
		Example("origin", func(context.Context, ...any) (any, error) {
			return &Vec2{}, nil
		}).
		Example("moveRight", func(_ context.Context, args ...any) (any, error) {
			v, err := vecArg(args, 0)
			if err != nil {
				return nil, err
			}
			out := &Vec2{X: v.X + 10, Y: v.Y}
			return out, expect(out.X == 10, "want x=10, got %d", out.X)
		}, suite.Given("origin")).
		Example("moveUp", func(_ context.Context, args ...any) (any, error) {
			v, err := vecArg(args, 0)
			if err != nil {
				return nil, err
			}
			out := &Vec2{X: v.X, Y: v.Y + 5}
			return out, expect(out.Y == 5, "want y=5, got %d", out.Y)
		}, suite.Given("origin")).
		Example("addVectors", func(_ context.Context, args ...any) (any, error) {
			right, err := vecArg(args, 0)
			if err != nil {
				return nil, err
			}
			up, err := vecArg(args, 1)
			if err != nil {
				return nil, err
			}
			if right == up {
				return nil, errors.New("producers handed out the same vector")
			}
			out := &Vec2{X: right.X + up.X, Y: right.Y + up.Y}
			return out, expect(*out == Vec2{X: 10, Y: 5}, "want (10,5), got (%d,%d)", out.X, out.Y)
		}, suite.Given("moveRight", "moveUp"), suite.Description("sums two independently moved vectors")).
		Build()
}

func vecArg(args []any, i int) (*Vec2, error) {
	if i >= len(args) {
		return nil, fmt.Errorf("missing argument %d", i)
	}
	v, ok := args[i].(*Vec2)
	if !ok {
		return nil, fmt.Errorf("argument %d is %T, not *Vec2", i, args[i])
	}
	return v, nil
}
