package dto

// UnreadCountResponse respuesta de GET /notifications/user/:userId/unread-count.
type UnreadCountResponse struct {
	Count int `json:"count"`
}

// BulkResultResponse respuesta de operaciones masivas (read-all, clear-read).
type BulkResultResponse struct {
	Message  string `json:"message"`
	Affected int    `json:"affected"`
}
