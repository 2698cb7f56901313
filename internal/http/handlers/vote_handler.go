// Vote HTTP handler.
//
// Exposes POST /items/{id}/vote. Voting is toggle-style: repeating the same
// vote clears it, and voting the opposite direction switches it in one step.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/qshare/go-queue-backend/internal/services"
)

// VoteRequest is the JSON payload for casting a vote.
type VoteRequest struct {
	// Value is the vote direction: 1 (upvote) or -1 (downvote).
	Value int `json:"value" binding:"required" example:"1"`
}

// VoteResponse reports the item's tallies and the caller's stored vote after
// the toggle resolves. MyVote is 0 when the toggle cleared the vote.
type VoteResponse struct {
	ItemID    string `json:"item_id"`
	Upvotes   int    `json:"upvotes"`
	Downvotes int    `json:"downvotes"`
	NetVotes  int    `json:"net_votes"`
	MyVote    int    `json:"my_vote"`
}

// ApplyVote godoc
// @ID          applyVote
// @Summary     Cast, switch, or clear a vote on a queue item
// @Description Toggle semantics: repeating the same vote removes it; the opposite vote replaces it.
// @Tags        Votes
// @Accept      json
// @Produce     json
// @Param       X-User-ID  header  string  false "User ID (demo header)" example(user123)
// @Param       id         path    string  true  "Queue item ID (UUID)" format(uuid)
// @Param       body       body    handlers.VoteRequest true "Vote payload"
// @Success     200  {object} handlers.VoteResponse
// @Failure     400  {object} handlers.ErrorResponse "Invalid vote value"
// @Failure     404  {object} handlers.ErrorResponse "Item not found"
// @Failure     409  {object} handlers.ErrorResponse "Item already played or concurrent conflict"
// @Router      /items/{id}/vote [post]
func (h *Handlers) ApplyVote(c *gin.Context) {
	var req VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "value must be 1 or -1")
		return
	}

	uid := userID(c)
	item, err := h.voteSvc.Apply(c.Request.Context(), uid, c.Param("id"), req.Value)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidVote):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "value must be 1 or -1")
		case errors.Is(err, services.ErrItemNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "queue item not found")
		case errors.Is(err, services.ErrItemPlayed):
			fail(c, http.StatusConflict, ErrCodeItemPlayed, "item has already been played")
		case errors.Is(err, services.ErrVoteConflict):
			fail(c, http.StatusConflict, ErrCodeConflict, "vote raced with another request, retry")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}

	ok(c, http.StatusOK, VoteResponse{
		ItemID:    item.ID,
		Upvotes:   item.Upvotes,
		Downvotes: item.Downvotes,
		NetVotes:  item.NetVotes,
		MyVote:    h.storedVote(c, item.ID, uid),
	})
}

// storedVote recovers the caller's vote after the toggle resolved. Lookup
// failures report 0 rather than failing the response.
func (h *Handlers) storedVote(c *gin.Context, itemID, uid string) int {
	v, err := h.voteSvc.Stored(c.Request.Context(), uid, itemID)
	if err != nil {
		return 0
	}
	return v
}
