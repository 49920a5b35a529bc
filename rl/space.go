package rl

import "math/rand"

// Space describes a domain of values, either observations or actions.
type Space[T any] interface {
	// Sample draws a uniformly random element of the space.
	Sample(rng *rand.Rand) T
	// Contains reports whether x is a member of the space.
	Contains(x T) bool
}

// Discrete is a finite space over Hash-keyed elements.
type Discrete[T interface{ Hash() string }] struct {
	Elements []T
}

func NewDiscrete[T interface{ Hash() string }](elements ...T) *Discrete[T] {
	return &Discrete[T]{Elements: elements}
}

func (d *Discrete[T]) Sample(rng *rand.Rand) T {
	return d.Elements[rng.Intn(len(d.Elements))]
}

func (d *Discrete[T]) Contains(x T) bool {
	for _, e := range d.Elements {
		if e.Hash() == x.Hash() {
			return true
		}
	}
	return false
}

func (d *Discrete[T]) Len() int {
	return len(d.Elements)
}
