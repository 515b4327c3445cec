package dto

import "inboxpilot-backend/internal/connection/domain"

type AuthorizeRequest struct {
	Purpose   string          `json:"purpose"`
	Frequency *int            `json:"frequency"`
	SendMode  domain.SendMode `json:"sendMode"`
	RevealAI  *bool           `json:"reveal_ai"`
}

type AuthorizeResponse struct {
	URL string `json:"url"`
}

type ConnectedResponse struct {
	Connected []*domain.ConnectedMailbox `json:"connected"`
}
