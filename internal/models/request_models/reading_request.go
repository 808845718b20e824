package request_models

type DrawReadingRequest struct {
	SpreadID string `json:"spread_id" binding:"required"`
	Question string `json:"question"`
}
