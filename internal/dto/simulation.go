package dto

import (
	"github.com/shopspring/decimal"

	"github.com/ledgertycoon/ledger_tycoon/internal/core/domain"
)

// PurchaseInventoryRequest is the payload for a manual inventory purchase.
type PurchaseInventoryRequest struct {
	ProductID string          `json:"productID" binding:"required"`
	Quantity  int64           `json:"quantity" binding:"required"`
	UnitCost  decimal.Decimal `json:"unitCost"`
}

// SetPriceRequest is the payload for a player price change.
type SetPriceRequest struct {
	ProductID string          `json:"productID" binding:"required"`
	Price     decimal.Decimal `json:"price" binding:"required"`
}

// ResolveEventRequest is the payload for an explicit event resolution.
type ResolveEventRequest struct {
	ChoiceID string `json:"choiceID" binding:"required"`
}

// CreateEventEffectRequest is one typed effect of an event choice.
type CreateEventEffectRequest struct {
	Kind          domain.EffectKind `json:"kind" binding:"required"`
	CashDelta     decimal.Decimal   `json:"cashDelta"`
	Modifier      string            `json:"modifier"`
	ModifierDelta float64           `json:"modifierDelta"`
	Flag          string            `json:"flag"`
	FlagValue     bool              `json:"flagValue"`
}

// CreateEventChoiceRequest is one selectable option of an event definition.
type CreateEventChoiceRequest struct {
	ChoiceID string                     `json:"choiceID" binding:"required"`
	Label    string                     `json:"label" binding:"required"`
	Effects  []CreateEventEffectRequest `json:"effects" binding:"dive"`
}

// CreateEventRequest defines a new decision event for a company.
type CreateEventRequest struct {
	CompanyID       string                     `json:"companyID" binding:"required"`
	Title           string                     `json:"title" binding:"required"`
	Description     string                     `json:"description"`
	Choices         []CreateEventChoiceRequest `json:"choices" binding:"required,min=1,dive"`
	DefaultChoiceID string                     `json:"defaultChoiceID" binding:"required"`
	DeadlineMonth   int                        `json:"deadlineMonth" binding:"required,min=1,max=12"`
	DeadlineYear    int                        `json:"deadlineYear" binding:"required"`
}

// ToDomainEvent maps a creation request to an unvalidated domain event.
func (r CreateEventRequest) ToDomainEvent() domain.DecisionEvent {
	choices := make([]domain.EventChoice, len(r.Choices))
	for i, c := range r.Choices {
		effects := make([]domain.Effect, len(c.Effects))
		for j, e := range c.Effects {
			effects[j] = domain.Effect{
				Kind:          e.Kind,
				CashDelta:     e.CashDelta,
				Modifier:      e.Modifier,
				ModifierDelta: e.ModifierDelta,
				Flag:          e.Flag,
				FlagValue:     e.FlagValue,
			}
		}
		choices[i] = domain.EventChoice{ChoiceID: c.ChoiceID, Label: c.Label, Effects: effects}
	}
	return domain.DecisionEvent{
		CompanyID:       r.CompanyID,
		Title:           r.Title,
		Description:     r.Description,
		Choices:         choices,
		DefaultChoiceID: r.DefaultChoiceID,
		DeadlineMonth:   r.DeadlineMonth,
		DeadlineYear:    r.DeadlineYear,
	}
}

// TurnSummaryResponse mirrors domain.TurnSummary for the API.
type TurnSummaryResponse struct {
	Month     int                    `json:"month"`
	Year      int                    `json:"year"`
	Log       []string               `json:"log"`
	NewEvents []domain.DecisionEvent `json:"newEvents"`
	GameOver  bool                   `json:"gameOver"`
}
