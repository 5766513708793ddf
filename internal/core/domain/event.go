package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// EventStatus is the lifecycle state of a decision event.
type EventStatus string

const (
	EventPending  EventStatus = "PENDING"
	EventResolved EventStatus = "RESOLVED"
)

// EffectKind discriminates the closed set of choice effects. There is no
// open-ended effects map: every effect is one of these kinds and is validated
// when the event is defined, not when it is applied.
type EffectKind string

const (
	EffectCashDelta         EffectKind = "CASH_DELTA"
	EffectRiskModifierDelta EffectKind = "RISK_MODIFIER_DELTA"
	EffectFlagSet           EffectKind = "FLAG_SET"
)

// Effect is one typed consequence of a choice. Only the fields matching Kind
// are significant.
type Effect struct {
	Kind          EffectKind      `json:"kind"`
	CashDelta     decimal.Decimal `json:"cashDelta,omitempty"`
	Modifier      string          `json:"modifier,omitempty"`
	ModifierDelta float64         `json:"modifierDelta,omitempty"`
	Flag          string          `json:"flag,omitempty"`
	FlagValue     bool            `json:"flagValue,omitempty"`
}

// Validate checks the effect is well formed for its kind.
func (e Effect) Validate() error {
	switch e.Kind {
	case EffectCashDelta:
		if e.CashDelta.IsZero() {
			return fmt.Errorf("cash delta effect requires a nonzero amount")
		}
	case EffectRiskModifierDelta:
		if e.Modifier == "" {
			return fmt.Errorf("risk modifier effect requires a modifier name")
		}
	case EffectFlagSet:
		if e.Flag == "" {
			return fmt.Errorf("flag effect requires a flag name")
		}
	default:
		return fmt.Errorf("unknown effect kind %q", e.Kind)
	}
	return nil
}

// EventChoice is one selectable option of a decision event.
type EventChoice struct {
	ChoiceID string   `json:"choiceID"`
	Label    string   `json:"label"`
	Effects  []Effect `json:"effects"`
}

// DecisionEvent is a timed decision put to the player. If it is still pending
// once the deadline month has passed, the default choice is applied exactly
// once by the turn scheduler. After resolution the event is read-only.
type DecisionEvent struct {
	EventID          string        `json:"eventID"`
	CompanyID        string        `json:"companyID"` // company the effects apply to
	Title            string        `json:"title"`
	Description      string        `json:"description"`
	Choices          []EventChoice `json:"choices"`
	DefaultChoiceID  string        `json:"defaultChoiceID"`
	DeadlineMonth    int           `json:"deadlineMonth"`
	DeadlineYear     int           `json:"deadlineYear"`
	Status           EventStatus   `json:"status"`
	ResolvedChoiceID string        `json:"resolvedChoiceID,omitempty"`
}

// Choice returns the choice with the given ID.
func (e DecisionEvent) Choice(choiceID string) (EventChoice, bool) {
	for _, c := range e.Choices {
		if c.ChoiceID == choiceID {
			return c, true
		}
	}
	return EventChoice{}, false
}

// Expired reports whether the deadline lies strictly before the given
// month/year.
func (e DecisionEvent) Expired(month, year int) bool {
	if e.DeadlineYear != year {
		return e.DeadlineYear < year
	}
	return e.DeadlineMonth < month
}

// Validate checks the event definition: at least one choice, unique choice
// IDs, well-formed effects, and a default choice that exists.
func (e DecisionEvent) Validate() error {
	if len(e.Choices) == 0 {
		return fmt.Errorf("event requires at least one choice")
	}
	if e.DeadlineMonth < 1 || e.DeadlineMonth > 12 {
		return fmt.Errorf("deadline month %d out of range", e.DeadlineMonth)
	}
	seen := make(map[string]struct{}, len(e.Choices))
	for _, c := range e.Choices {
		if c.ChoiceID == "" {
			return fmt.Errorf("choice requires an ID")
		}
		if _, dup := seen[c.ChoiceID]; dup {
			return fmt.Errorf("duplicate choice ID %q", c.ChoiceID)
		}
		seen[c.ChoiceID] = struct{}{}
		for _, eff := range c.Effects {
			if err := eff.Validate(); err != nil {
				return fmt.Errorf("choice %q: %w", c.ChoiceID, err)
			}
		}
	}
	if _, ok := e.Choice(e.DefaultChoiceID); !ok {
		return fmt.Errorf("default choice %q not among choices", e.DefaultChoiceID)
	}
	return nil
}
