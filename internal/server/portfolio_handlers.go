package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/DREDGV/crypto-portfolio/internal/domain"
	"github.com/DREDGV/crypto-portfolio/internal/ledger"
)

// handleListPositions returns live positions rebuilt from the ledger
// GET /api/portfolio/positions
func (s *Server) handleListPositions(w http.ResponseWriter, r *http.Request) {
	positions, err := s.portfolio.ListPositions(r.Context())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if positions == nil {
		positions = []domain.Position{}
	}

	s.writeJSON(w, http.StatusOK, positions)
}

// handlePortfolioStats returns aggregate portfolio statistics
// GET /api/portfolio/stats
func (s *Server) handlePortfolioStats(w http.ResponseWriter, r *http.Request) {
	portfolioStats, err := s.portfolio.GetStats(r.Context())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, portfolioStats)
}

// handleListTransactions lists ledger entries in replay order
// GET /api/transactions?coin=&strategy=&type=&from=&to=
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	filter := ledger.Filter{
		Coin:     r.URL.Query().Get("coin"),
		Strategy: domain.Strategy(r.URL.Query().Get("strategy")),
		Type:     domain.TxType(r.URL.Query().Get("type")),
	}
	if from := r.URL.Query().Get("from"); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid 'from' timestamp")
			return
		}
		filter.From = t
	}
	if to := r.URL.Query().Get("to"); to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid 'to' timestamp")
			return
		}
		filter.To = t
	}

	txs, err := s.portfolio.Transactions(filter)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if txs == nil {
		txs = []domain.Transaction{}
	}

	s.writeJSON(w, http.StatusOK, txs)
}

// handleGetTransaction returns one transaction by id
// GET /api/transactions/{id}
func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	tx, err := s.portfolio.GetTransaction(chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, tx)
}

// handleAddTransaction records a new ledger transaction
// POST /api/transactions
func (s *Server) handleAddTransaction(w http.ResponseWriter, r *http.Request) {
	var tx domain.Transaction
	if err := json.NewDecoder(r.Body).Decode(&tx); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if tx.Timestamp.IsZero() {
		tx.Timestamp = time.Now().UTC()
	}

	if err := s.portfolio.AddTransaction(&tx); err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, tx)
}

// handleUpdateTransaction replaces a transaction by identity
// PUT /api/transactions/{id}
func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var tx domain.Transaction
	if err := json.NewDecoder(r.Body).Decode(&tx); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	tx.ID = chi.URLParam(r, "id")

	if err := s.portfolio.UpdateTransaction(&tx); err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, tx)
}

// handleDeleteTransaction removes a transaction by identity
// DELETE /api/transactions/{id}
func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.portfolio.DeleteTransaction(chi.URLParam(r, "id")); err != nil {
		s.writeDomainError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handleSearchSymbols searches the coin catalog
// GET /api/symbols/search?q=
func (s *Server) handleSearchSymbols(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	results := s.portfolio.SearchSymbols(query)
	if results == nil {
		results = []domain.SymbolInfo{}
	}

	s.writeJSON(w, http.StatusOK, results)
}

// handleGetQuote resolves a price through the provider chain. The chain
// is total, so this always answers with a quote.
// GET /api/prices/{symbol}
func (s *Server) handleGetQuote(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(chi.URLParam(r, "symbol"))
	if symbol == "" {
		s.writeError(w, http.StatusBadRequest, "symbol is required")
		return
	}

	quote := s.portfolio.GetQuote(r.Context(), symbol)
	s.writeJSON(w, http.StatusOK, quote)
}
