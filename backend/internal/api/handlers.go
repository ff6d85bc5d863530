package api

import (
	"net/http"
	"strings"

	"github.com/satsarcade/sats-arcade/internal/arcade"
	"github.com/satsarcade/sats-arcade/internal/wallet"
)

func (s *Server) sessionResponse() SessionResponse {
	snap := s.wallet.Snapshot()
	return SessionResponse{
		Snapshot:    snap,
		NetworkName: wallet.DisplayName(snap.Session.Network),
		BalanceBTC:  wallet.FormatBTC(snap.Session.Balance.Total),
	}
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.sessionResponse())
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	if _, err := s.wallet.Connect(r.Context()); err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.sessionResponse())
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.errorHandler.HandleValidationError(w, r, "body", err.Error())
		return
	}
	if err := s.wallet.Refresh(r.Context(), req.Force); err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.sessionResponse())
}

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	var req SendRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.errorHandler.HandleValidationError(w, r, "body", err.Error())
		return
	}
	amount, err := wallet.ParseAmount(req.Amount, req.Unit)
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	address := strings.TrimSpace(req.Address)
	txid, err := s.wallet.SendBitcoin(r.Context(), address, amount)
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, SendResponse{TxID: txid, AmountSats: amount, Address: address})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.wallet.Logout(r.Context())
	s.writeJSON(w, http.StatusOK, s.sessionResponse())
}

func (s *Server) handleGuest(w http.ResponseWriter, r *http.Request) {
	s.wallet.PlayAsGuest()
	s.writeJSON(w, http.StatusOK, s.sessionResponse())
}

func (s *Server) handleListChains(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, ChainsResponse{Chains: wallet.Chains()})
}

func (s *Server) handleListShips(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, ShipsResponse{Ships: arcade.Ships()})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.arcade.Profile()
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleSelectShip(w http.ResponseWriter, r *http.Request) {
	var req SelectShipRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.errorHandler.HandleValidationError(w, r, "body", err.Error())
		return
	}
	if strings.TrimSpace(req.ID) == "" {
		s.errorHandler.HandleValidationError(w, r, "id", "ship id is required")
		return
	}
	ship, err := s.arcade.SelectShip(req.ID)
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, ship)
}

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	var req ScoreRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.errorHandler.HandleValidationError(w, r, "body", err.Error())
		return
	}
	best, record, err := s.arcade.RecordScore(req.Score)
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, ScoreResponse{HighScore: best, NewRecord: record})
}
