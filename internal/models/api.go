package models

// ChatTurn is one prior exchange entry supplied by the widget.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Message   string     `json:"message" binding:"required"`
	History   []ChatTurn `json:"history"`
	Language  string     `json:"language"`
	SessionID string     `json:"session_id"`
}

type ChatResponse struct {
	Reply        string `json:"reply"`
	Language     string `json:"language"`
	SessionID    string `json:"session_id"`
	Grounded     bool   `json:"grounded"`
	ResponseTime int    `json:"response_time_ms"`
}

type PageRequest struct {
	Title      string `json:"title" binding:"required"`
	Content    string `json:"content"`
	Path       string `json:"path" binding:"required"`
	ImageURL   string `json:"image_url"`
	Icon       string `json:"icon"`
	BgColor    string `json:"bg_color"`
	IsSubmenu  bool   `json:"is_submenu"`
	ParentPath string `json:"parent_path"`
	Published  bool   `json:"published"`
	IsParent   bool   `json:"is_parent"`
}

type TranslateRequest struct {
	Languages []string `json:"languages"`
	Overwrite bool     `json:"overwrite"`
}

type FeedbackRequest struct {
	Helpful           *bool  `json:"helpful"`
	CorrectedResponse string `json:"corrected_response"`
}

type RebuildResponse struct {
	Chunks  int    `json:"chunks"`
	Errors  int    `json:"errors"`
	Message string `json:"message"`
}
