package tools

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/isdmx/toolbelt/config"
)

// Dice implements the roll_dice tool
type Dice struct {
	logger   *zap.Logger
	maxDice  int
	maxSides int
	roll     func(sides int) int
}

// DiceOption defines a functional option for Dice
type DiceOption func(*Dice)

// WithRollFn sets the roll function for Dice (used in tests for
// deterministic rolls)
func WithRollFn(roll func(sides int) int) DiceOption {
	return func(d *Dice) {
		d.roll = roll
	}
}

// NewDice creates a new Dice tool
func NewDice(logger *zap.Logger, cfg *config.Config, opts ...DiceOption) *Dice {
	d := &Dice{
		logger:   logger,
		maxDice:  cfg.Dice.MaxDice,
		maxSides: cfg.Dice.MaxSides,
		roll: func(sides int) int {
			return rand.IntN(sides) + 1
		},
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Roll rolls count dice with the given number of sides and formats the result
func (d *Dice) Roll(count, sides int) (string, error) {
	if count < 1 || count > d.maxDice {
		return "", fmt.Errorf("count must be within [1, %d], got: %d", d.maxDice, count)
	}
	if sides < 2 || sides > d.maxSides {
		return "", fmt.Errorf("sides must be within [2, %d], got: %d", d.maxSides, sides)
	}

	rolls := make([]string, count)
	total := 0
	for i := range count {
		r := d.roll(sides)
		rolls[i] = strconv.Itoa(r)
		total += r
	}

	d.logger.Debug("dice rolled",
		zap.Int("count", count),
		zap.Int("sides", sides),
		zap.Int("total", total))

	return fmt.Sprintf("Rolled %dd%d: %s (total %d)", count, sides, strings.Join(rolls, ", "), total), nil
}
