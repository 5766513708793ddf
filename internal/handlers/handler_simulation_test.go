package handlers_test

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/ledgertycoon/ledger_tycoon/internal/core/domain"
)

// products fetches the catalog for a game.
func (s *HandlerTestSuite) products(gameID string) []domain.Product {
	w := s.request(http.MethodGet, "/api/v1/games/"+gameID+"/products", "")
	s.Require().Equal(http.StatusOK, w.Code)
	var products []domain.Product
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &products))
	s.Require().NotEmpty(products)
	return products
}

func (s *HandlerTestSuite) TestSetPrice() {
	gameID, playerID := s.createGame()
	widget := s.products(gameID)[2] // WIDGET-001, base cost 10
	path := fmt.Sprintf("/api/v1/games/%s/companies/%s/prices", gameID, playerID)

	w := s.request(http.MethodPut, path, fmt.Sprintf(`{"productID": %q, "price": "18.50"}`, widget.ProductID))
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var ps domain.PriceState
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &ps))
	s.Equal("18.5", ps.Price.String())

	// Below base cost is rejected.
	w = s.request(http.MethodPut, path, fmt.Sprintf(`{"productID": %q, "price": "9"}`, widget.ProductID))
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *HandlerTestSuite) TestListPrices() {
	gameID, playerID := s.createGame()
	widget := s.products(gameID)[2]
	path := fmt.Sprintf("/api/v1/games/%s/companies/%s/prices", gameID, playerID)

	w := s.request(http.MethodPut, path, fmt.Sprintf(`{"productID": %q, "price": "18.50"}`, widget.ProductID))
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w = s.request(http.MethodGet, path, "")
	s.Require().Equal(http.StatusOK, w.Code)

	var prices []domain.PriceState
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &prices))
	s.Require().Len(prices, 3, "one standing offer per catalog product")
	priced := make(map[string]string, len(prices))
	for _, ps := range prices {
		priced[ps.ProductID] = ps.Price.String()
	}
	s.Equal("18.5", priced[widget.ProductID])
}

func (s *HandlerTestSuite) TestPurchaseAndReorder() {
	gameID, playerID := s.createGame()
	widget := s.products(gameID)[2]

	path := fmt.Sprintf("/api/v1/games/%s/companies/%s/purchases", gameID, playerID)
	w := s.request(http.MethodPost, path, fmt.Sprintf(`{"productID": %q, "quantity": 100}`, widget.ProductID))
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var pos domain.InventoryPosition
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &pos))
	s.Equal(int64(100), pos.Quantity)
	s.Equal("10", pos.WAC.String(), "zero unit cost falls back to base cost")

	w = s.request(http.MethodPost, path, fmt.Sprintf(`{"productID": %q, "quantity": -5}`, widget.ProductID))
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.request(http.MethodGet, fmt.Sprintf("/api/v1/games/%s/companies/%s/inventory/%s/reorder", gameID, playerID, widget.ProductID), "")
	s.Require().Equal(http.StatusOK, w.Code)
	var reorder struct {
		Forecast        float64 `json:"forecast"`
		SafetyStock     float64 `json:"safetyStock"`
		ReorderQuantity int64   `json:"reorderQuantity"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &reorder))
	s.Positive(reorder.Forecast)
}

func (s *HandlerTestSuite) TestEventLifecycle() {
	gameID, playerID := s.createGame()
	path := fmt.Sprintf("/api/v1/games/%s/events", gameID)

	body := fmt.Sprintf(`{
		"companyID": %q,
		"title": "Insurance offer",
		"choices": [
			{"choiceID": "accept", "label": "Accept", "effects": [{"kind": "CASH_DELTA", "cashDelta": "-1000"}]},
			{"choiceID": "decline", "label": "Decline", "effects": []}
		],
		"defaultChoiceID": "decline",
		"deadlineMonth": 3,
		"deadlineYear": 1
	}`, playerID)

	w := s.request(http.MethodPost, path, body)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var ev domain.DecisionEvent
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &ev))
	s.Require().NotEmpty(ev.EventID)

	w = s.request(http.MethodGet, path, "")
	s.Require().Equal(http.StatusOK, w.Code)
	var pending []domain.DecisionEvent
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &pending))
	s.Len(pending, 1)

	w = s.request(http.MethodPost, path+"/"+ev.EventID+"/resolve", `{"choiceID": "accept"}`)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w = s.request(http.MethodGet, fmt.Sprintf("/api/v1/games/%s/companies/%s/accounts/1000", gameID, playerID), "")
	s.Require().Equal(http.StatusOK, w.Code)
	var account domain.Account
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &account))
	s.Equal("99000", account.Balance.String())

	// Resolving again conflicts with the archived event.
	w = s.request(http.MethodPost, path+"/"+ev.EventID+"/resolve", `{"choiceID": "accept"}`)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *HandlerTestSuite) TestConditionsEndpoint() {
	gameID, _ := s.createGame()

	w := s.request(http.MethodGet, "/api/v1/games/"+gameID+"/conditions", "")
	s.Require().Equal(http.StatusOK, w.Code)

	var conditions []domain.MarketCondition
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &conditions))
	s.Empty(conditions, "probabilities are zeroed in tests")
}
