package nnmodel

import (
	"fmt"
)

// Factory constructs one model variant. A factory that fails must not leak
// partially-constructed state: any accelerator session it opened gets closed
// before it returns.
type Factory func(cfg FactoryConfig) (Model, error)

// The catalog is the closed registry of model variants. Each variant file
// registers its factory from init(), and carries a build tag (no_classification,
// no_detectors, no_reid) that excludes it from the build: requesting an
// excluded class fails with ErrUnsupportedModelClass, distinct from a class
// string the enum has never heard of.
var catalog = map[Class]Factory{}

func register(class Class, factory Factory) {
	if _, dup := catalog[class]; dup {
		panic(fmt.Sprintf("duplicate model catalog registration for %v", class))
	}
	catalog[class] = factory
}

// Supported returns true if the class is registered in this build.
func Supported(class Class) bool {
	_, ok := catalog[class]
	return ok
}

// Create instantiates a model of the given class.
func Create(class Class, cfg FactoryConfig) (Model, error) {
	if _, known := classNames[class]; !known {
		return nil, fmt.Errorf("%w: %v", ErrUnknownModelClass, class)
	}
	factory, ok := catalog[class]
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedModelClass, class)
	}
	model, err := factory(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v %q: %w", ErrModelInit, class, cfg.Name, err)
	}
	return model, nil
}
