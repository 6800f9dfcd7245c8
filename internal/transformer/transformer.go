// Package transformer turns joined source rows into cleaned passengers.
//
// Every stage takes a collection and returns a new one; inputs are never
// modified in place.
package transformer

import "titanic/internal/schema"

// Transformer is a single stage over cleaned passengers.
type Transformer interface {
	Apply([]schema.Passenger) []schema.Passenger
}

// Func adapts a plain function to Transformer.
type Func func([]schema.Passenger) []schema.Passenger

// Apply implements Transformer.
func (f Func) Apply(in []schema.Passenger) []schema.Passenger { return f(in) }

// Chain is an ordered list of transformers.
type Chain []Transformer

// Apply runs each transformer in order, feeding the output of one into the next.
func (c Chain) Apply(in []schema.Passenger) []schema.Passenger {
	out := in
	for _, t := range c {
		out = t.Apply(out)
	}
	return out
}
