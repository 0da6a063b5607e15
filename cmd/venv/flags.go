package main

import (
	"github.com/aspect-build/rules-py/pkg/logging"
	"github.com/aspect-build/rules-py/pkg/population"
)

// modeValue is a pflag.Value for population.Mode.
type modeValue struct {
	mode *population.Mode
}

func (v modeValue) String() string {
	if v.mode == nil {
		return ""
	}
	return v.mode.String()
}

func (v modeValue) Set(s string) error {
	mode, err := population.ParseMode(s)
	if err != nil {
		return err
	}
	*v.mode = mode
	return nil
}

func (modeValue) Type() string { return "mode" }

// collisionStrategyValue is a pflag.Value for
// population.CollisionResolutionStrategy.
type collisionStrategyValue struct {
	strategy *population.CollisionResolutionStrategy
}

func (v collisionStrategyValue) String() string {
	if v.strategy == nil {
		return ""
	}
	return v.strategy.String()
}

func (v collisionStrategyValue) Set(s string) error {
	strategy, err := population.ParseCollisionResolutionStrategy(s)
	if err != nil {
		return err
	}
	*v.strategy = strategy
	return nil
}

func (collisionStrategyValue) Type() string { return "strategy" }

// colorValue is a pflag.Value for logging.Color.
type colorValue struct {
	color *logging.Color
	name  *string
}

func (v colorValue) String() string {
	if v.name == nil {
		return ""
	}
	return *v.name
}

func (v colorValue) Set(s string) error {
	color, err := logging.ParseColor(s)
	if err != nil {
		return err
	}
	*v.color = color
	*v.name = s
	return nil
}

func (colorValue) Type() string { return "color" }
