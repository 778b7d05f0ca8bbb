package handlers

import (
	"log/slog"
	"net/http"

	"github.com/SscSPs/school_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/school_ledger/internal/core/ports/services"
	"github.com/SscSPs/school_ledger/internal/dto"
	"github.com/SscSPs/school_ledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

// journalHandler handles posting, reading and reversing journal entries.
type journalHandler struct {
	journalService portssvc.JournalSvcFacade
}

// newJournalHandler creates a new journalHandler.
func newJournalHandler(js portssvc.JournalSvcFacade) *journalHandler {
	return &journalHandler{
		journalService: js,
	}
}

// registerJournalRoutes registers routes related to the journal.
func registerJournalRoutes(rg *gin.RouterGroup, journalService portssvc.JournalSvcFacade) {
	h := newJournalHandler(journalService)

	journal := rg.Group("/journal")
	{
		journal.POST("", h.postEntry)
		journal.GET("", h.listEntries)
		journal.GET("/:id", h.getEntry)
		journal.POST("/:id/reverse", h.reverseEntry)
	}
}

func (h *journalHandler) postEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.PostEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request format", err)
		return
	}

	creatorUserID, ok := requireUserID(c)
	if !ok {
		return
	}

	logger = logger.With(
		slog.String("creator_user_id", creatorUserID),
		slog.String("source_type", string(req.SourceType)),
		slog.String("source_id", req.SourceID))
	logger.Info("Received request to post journal entry", slog.Int("line_count", len(req.Lines)))

	entry, err := h.journalService.Post(c.Request.Context(), req, creatorUserID)
	if err != nil {
		respondError(c, err, "post journal entry")
		return
	}

	logger.Info("Journal entry posted", slog.String("entry_id", entry.ID), slog.String("period_id", entry.PeriodID))
	c.JSON(http.StatusCreated, dto.ToJournalEntryResponse(entry))
}

func (h *journalHandler) getEntry(c *gin.Context) {
	entry, err := h.journalService.GetEntry(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "retrieve journal entry")
		return
	}
	c.JSON(http.StatusOK, dto.ToJournalEntryResponse(entry))
}

func (h *journalHandler) listEntries(c *gin.Context) {
	var params dto.ListJournalParams
	if err := c.ShouldBindQuery(&params); err != nil {
		badRequest(c, "Invalid query parameters", err)
		return
	}

	from, err := optionalDateQuery(c, "from")
	if err != nil {
		badRequest(c, "Invalid from date", err)
		return
	}
	to, err := optionalDateQuery(c, "to")
	if err != nil {
		badRequest(c, "Invalid to date", err)
		return
	}

	filter := domain.JournalFilter{
		From:        from,
		To:          to,
		SourceType:  domain.SourceType(params.SourceType),
		SourceID:    params.SourceID,
		AccountCode: params.AccountCode,
		PeriodID:    params.PeriodID,
	}
	var nextToken *string
	if params.NextToken != "" {
		nextToken = &params.NextToken
	}

	page, err := h.journalService.ListEntries(c.Request.Context(), filter, params.Limit, nextToken)
	if err != nil {
		respondError(c, err, "list journal entries")
		return
	}
	c.JSON(http.StatusOK, dto.ToListJournalResponse(page))
}

func (h *journalHandler) reverseEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	entryID := c.Param("id")

	var req dto.ReverseEntryRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "Invalid request format", err)
			return
		}
	}

	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	reversal, err := h.journalService.Reverse(c.Request.Context(), entryID, req, userID)
	if err != nil {
		respondError(c, err, "reverse journal entry")
		return
	}

	logger.Info("Journal entry reversed",
		slog.String("entry_id", entryID),
		slog.String("reversal_id", reversal.ID),
		slog.String("user_id", userID))
	c.JSON(http.StatusCreated, dto.ToJournalEntryResponse(reversal))
}
