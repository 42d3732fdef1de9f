package apihandlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"searchmark/internal/app"
	"searchmark/internal/folder"
	"searchmark/internal/models"
)

type APIHandler struct {
	App *app.App
}

func NewAPIHandler(a *app.App) *APIHandler {
	return &APIHandler{App: a}
}

type analyzeRequest struct {
	URL string `json:"url"`
}

type analyzeResponse struct {
	URL      string   `json:"url"`
	Title    string   `json:"title"`
	Summary  string   `json:"summary"`
	Keywords []string `json:"keywords,omitempty"`
	CostUSD  float64  `json:"cost_usd"`
	Attempts int      `json:"attempts"`
}

// AnalyzeHandler runs the summarize task for a URL.
func (h *APIHandler) AnalyzeHandler(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	if req.URL == "" {
		BadRequest(c, "missing required field: url")
		return
	}

	summary, result, err := h.App.Analyze(c.Request.Context(), req.URL)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": analyzeResponse{
		URL:      req.URL,
		Title:    summary.Title,
		Summary:  summary.Summary,
		Keywords: summary.Keywords,
		CostUSD:  result.TotalCostUSD,
		Attempts: len(result.Attempts),
	}})
}

type recommendRequest struct {
	URL       string           `json:"url"`
	Folders   []*folder.Folder `json:"folders"`
	NewFolder bool             `json:"new_folder"`
}

type recommendResponse struct {
	URL           string   `json:"url"`
	Title         string   `json:"title"`
	Summary       string   `json:"summary"`
	FolderID      string   `json:"folder_id,omitempty"`
	FolderPath    string   `json:"folder_path,omitempty"`
	NewFolderName string   `json:"new_folder_name,omitempty"`
	Reasoning     string   `json:"reasoning"`
	Confidence    *float64 `json:"confidence,omitempty"`
	CostUSD       float64  `json:"cost_usd"`
	Attempts      int      `json:"attempts"`
}

// RecommendHandler runs the full analyze-then-classify flow against the
// caller-supplied folder structure.
func (h *APIHandler) RecommendHandler(c *gin.Context) {
	var req recommendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	if req.URL == "" {
		BadRequest(c, "missing required field: url")
		return
	}
	if len(req.Folders) == 0 {
		BadRequest(c, "missing required field: folders")
		return
	}

	rec, err := h.App.Recommend(c.Request.Context(), req.URL, req.Folders, req.NewFolder)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": recommendResponse{
		URL:           req.URL,
		Title:         rec.Summary.Title,
		Summary:       rec.Summary.Summary,
		FolderID:      rec.FolderID,
		FolderPath:    rec.FolderPath,
		NewFolderName: rec.NewFolderName,
		Reasoning:     rec.Reasoning,
		Confidence:    rec.Confidence,
		CostUSD:       rec.Result.TotalCostUSD,
		Attempts:      len(rec.Result.Attempts),
	}})
}

// respondError maps pipeline failures onto HTTP statuses. Terminal
// inference failures carry their taxonomy and cost diagnostics; everything
// else is a plain error envelope.
func respondError(c *gin.Context, err error) {
	var terminal *models.TerminalError
	if errors.As(err, &terminal) {
		cost := terminal.TotalCostUSD
		c.JSON(http.StatusBadGateway, errorResponse{Error: APIError{
			Code:     "inference_failed",
			Message:  terminal.Error(),
			Kind:     string(terminal.Kind),
			CostUSD:  &cost,
			Attempts: len(terminal.Attempts),
		}})
		return
	}
	if errors.Is(err, models.ErrConfiguration) {
		Internal(c, err.Error())
		return
	}
	UnprocessableEntity(c, err.Error())
}
