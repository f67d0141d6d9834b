package httpapi

import (
	"errors"
	"net/http"
	"strings"

	chi "github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tinoosan/fintrack/internal/errs"
)

// pathID parses the {id} route parameter.
func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, errs.Invalid("invalid id")
	}
	return id, nil
}

// existsMsg surfaces duplicate names the way they are stored (upper-cased).
func existsMsg(name string) string {
	return strings.ToUpper(strings.TrimSpace(name)) + " already exists"
}

func (s *Server) createBank(w http.ResponseWriter, r *http.Request) {
	var req bankRequest
	if err := decodeJSON(r, &req); err != nil {
		s.serviceErr(w, r, err)
		return
	}
	b, err := s.accountSvc.CreateBank(r.Context(), userID(r), req.Name, req.InitialBalance)
	if errors.Is(err, errs.ErrExists) {
		writeErr(w, http.StatusBadRequest, existsMsg(req.Name))
		return
	}
	if err != nil {
		s.serviceErr(w, r, err)
		return
	}
	toJSON(w, http.StatusCreated, toBankResponse(b))
}

func (s *Server) listBanks(w http.ResponseWriter, r *http.Request) {
	banks, err := s.accountSvc.ListBanks(r.Context(), userID(r))
	if err != nil {
		s.serviceErr(w, r, err)
		return
	}
	toJSON(w, http.StatusOK, toBankResponses(banks))
}

func (s *Server) updateBank(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.serviceErr(w, r, err)
		return
	}
	var req bankRequest
	if err := decodeJSON(r, &req); err != nil {
		s.serviceErr(w, r, err)
		return
	}
	b, err := s.accountSvc.UpdateBank(r.Context(), userID(r), id, req.Name, req.InitialBalance)
	if errors.Is(err, errs.ErrExists) {
		writeErr(w, http.StatusBadRequest, existsMsg(req.Name))
		return
	}
	if err != nil {
		s.serviceErr(w, r, err)
		return
	}
	toJSON(w, http.StatusOK, toBankResponse(b))
}

func (s *Server) deleteBank(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.serviceErr(w, r, err)
		return
	}
	if err := s.accountSvc.DeleteBank(r.Context(), userID(r), id); err != nil {
		s.serviceErr(w, r, err)
		return
	}
	toJSON(w, http.StatusOK, deleteResponse{Success: true, Message: "Bank deleted"})
}

func (s *Server) createCard(w http.ResponseWriter, r *http.Request) {
	var req cardRequest
	if err := decodeJSON(r, &req); err != nil {
		s.serviceErr(w, r, err)
		return
	}
	c, err := s.accountSvc.CreateCard(r.Context(), userID(r), req.Name, req.CreditLimit)
	if errors.Is(err, errs.ErrExists) {
		writeErr(w, http.StatusBadRequest, existsMsg(req.Name))
		return
	}
	if err != nil {
		s.serviceErr(w, r, err)
		return
	}
	toJSON(w, http.StatusCreated, toCardResponse(c))
}

func (s *Server) listCards(w http.ResponseWriter, r *http.Request) {
	cards, err := s.accountSvc.ListCards(r.Context(), userID(r))
	if err != nil {
		s.serviceErr(w, r, err)
		return
	}
	toJSON(w, http.StatusOK, toCardResponses(cards))
}

func (s *Server) updateCard(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.serviceErr(w, r, err)
		return
	}
	var req cardRequest
	if err := decodeJSON(r, &req); err != nil {
		s.serviceErr(w, r, err)
		return
	}
	c, err := s.accountSvc.UpdateCard(r.Context(), userID(r), id, req.Name, req.CreditLimit)
	if errors.Is(err, errs.ErrExists) {
		writeErr(w, http.StatusBadRequest, existsMsg(req.Name))
		return
	}
	if err != nil {
		s.serviceErr(w, r, err)
		return
	}
	toJSON(w, http.StatusOK, toCardResponse(c))
}

func (s *Server) deleteCard(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.serviceErr(w, r, err)
		return
	}
	if err := s.accountSvc.DeleteCard(r.Context(), userID(r), id); err != nil {
		s.serviceErr(w, r, err)
		return
	}
	toJSON(w, http.StatusOK, deleteResponse{Success: true, Message: "Credit card deleted"})
}

func (s *Server) getCash(w http.ResponseWriter, r *http.Request) {
	cb, err := s.accountSvc.Cash(r.Context(), userID(r))
	if errors.Is(err, errs.ErrNotFound) {
		// no cash row yet reads as a zero balance
		toJSON(w, http.StatusOK, cashResponse{Balance: decimal.Zero, InitialBalance: decimal.Zero})
		return
	}
	if err != nil {
		s.serviceErr(w, r, err)
		return
	}
	toJSON(w, http.StatusOK, toCashResponse(cb))
}

func (s *Server) setCash(w http.ResponseWriter, r *http.Request) {
	var req cashRequest
	if err := decodeJSON(r, &req); err != nil {
		s.serviceErr(w, r, err)
		return
	}
	cb, err := s.accountSvc.SetCash(r.Context(), userID(r), req.Balance)
	if err != nil {
		s.serviceErr(w, r, err)
		return
	}
	toJSON(w, http.StatusOK, toCashResponse(cb))
}
