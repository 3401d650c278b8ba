package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ziadkadry99/kompas/internal/chatbot"
	"github.com/ziadkadry99/kompas/internal/conversation"
)

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Response string `json:"response"`
}

type historyResponse struct {
	ChatHistory []conversation.Turn `json:"chat_history"`
}

type healthResponse struct {
	Status string        `json:"status"`
	Stats  chatbot.Stats `json:"stats"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Stats: s.bot.Stats()})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	res, err := s.bot.IndexCorpus(r.Context())
	if err != nil {
		s.logger.Error("indexing documents", "error", err)
		writeError(w, http.StatusInternalServerError, "An error occurred while indexing documents")
		return
	}
	s.logger.Info("documents indexed",
		"new_files", res.NewFiles, "new_chunks", res.NewChunks, "total_chunks", res.TotalChunks)
	writeJSON(w, http.StatusOK, messageResponse{Message: "Documents indexed successfully"})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	reply, err := s.bot.Chat(r.Context(), req.Message)
	if errors.Is(err, chatbot.ErrEmptyMessage) {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	if err != nil {
		s.logger.Error("processing chat request", "error", err)
		writeError(w, http.StatusInternalServerError, "An error occurred while processing the chat request")
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{Response: reply})
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, historyResponse{ChatHistory: s.bot.History()})
}

func (s *Server) handleSetHistory(w http.ResponseWriter, r *http.Request) {
	var turns []conversation.Turn
	if err := json.NewDecoder(r.Body).Decode(&turns); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := s.bot.SetHistory(turns)
	if errors.Is(err, conversation.ErrInvalidTurnRole) {
		writeError(w, http.StatusBadRequest, "chat history contains an invalid role")
		return
	}
	if err != nil {
		s.logger.Error("setting chat history", "error", err)
		writeError(w, http.StatusInternalServerError, "An error occurred while setting the chat history")
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Chat history updated successfully"})
}

func (s *Server) handleResetHistory(w http.ResponseWriter, r *http.Request) {
	s.bot.ResetHistory()
	writeJSON(w, http.StatusOK, messageResponse{Message: "Chat history reset successfully"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}
