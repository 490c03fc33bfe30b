package usecase

import (
	"context"
	"log/slog"

	"welfare-advisor/internal/domain"
)

// DetailView is the open benefit detail. Base is the card the user picked;
// Detail stays nil until the backend answers.
type DetailView struct {
	Base    domain.RecommendationItem
	Detail  *domain.BenefitDetail
	Loading bool
	Err     string
}

// Support falls back to the card summary when the backend has no support text.
func (d DetailView) Support() string {
	if d.Detail != nil && d.Detail.Support != "" {
		return d.Detail.Support
	}
	return d.Base.Summary
}

// OpenDetail selects item on the shared selection and loads its detail. A
// result that arrives after the view was closed or replaced is dropped.
func (c *TurnController) OpenDetail(ctx context.Context, item domain.RecommendationItem) {
	if item.BenefitID == "" {
		return
	}
	c.board.Select(item.BenefitID)

	c.mu.Lock()
	c.detailSeq++
	seq := c.detailSeq
	c.detail = &DetailView{Base: item, Loading: true}
	c.mu.Unlock()

	d, err := c.backend.FetchBenefitDetail(ctx, item.BenefitID)

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.detailSeq || c.detail == nil {
		return
	}
	c.detail.Loading = false
	if err != nil {
		ue := newError(ErrorDetail, "fetch_benefit_detail", err)
		c.detail.Err = ue.UserMessage()
		slog.Warn("benefit detail failed", "benefit_id", item.BenefitID, "err", err)
		return
	}
	c.detail.Detail = &d
}

// CloseDetail closes the detail view. The selection is left as is.
func (c *TurnController) CloseDetail() {
	c.mu.Lock()
	c.detail = nil
	c.detailSeq++
	c.mu.Unlock()
}
