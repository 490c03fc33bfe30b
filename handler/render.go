package handler

import (
	"welfare-advisor/internal/domain"
)

// renderMessages prints bot messages added since the last call. User
// messages are not echoed.
func (h *Handler) renderMessages() {
	st := h.chat.State()
	if h.printed > len(st.Messages) {
		h.printed = 0
	}
	for _, m := range st.Messages[h.printed:] {
		if m.Sender != domain.SenderBot {
			continue
		}
		h.printf("봇: %s\n", m.Text)
		if len(m.Recommendations) == 0 {
			continue
		}
		h.printf("  TOP3 추천 (위험도 %s)\n", st.RiskLevel)
		h.renderCards(m.Recommendations)
		h.printf("  /select <번호> 로 상세 정보를, /map 으로 위치를 볼 수 있어요.\n")
	}
	h.printed = len(st.Messages)
}

// renderCards prints one line per item. The selected item is starred, as its
// pin is on the map.
func (h *Handler) renderCards(items []domain.RecommendationItem) {
	for i, it := range items {
		mark := " "
		if h.board.IsSelected(it.BenefitID) {
			mark = "*"
		}
		h.printf("  %s%d. %s [%s] %.2f\n", mark, i+1, it.Title, it.Category, it.Score)
		if it.Summary != "" {
			h.printf("      %s\n", it.Summary)
		}
	}
}

func (h *Handler) renderDetail() {
	d := h.chat.State().Detail
	if d == nil {
		h.printf("열린 상세 정보가 없어요.\n")
		return
	}
	title := d.Base.Title
	if title == "" {
		title = "정책 정보"
	}
	h.printf("== %s ==\n", title)
	switch {
	case d.Loading:
		h.printf("상세 정보를 불러오는 중입니다...\n")
		return
	case d.Err != "":
		h.printf("! %s\n", d.Err)
		return
	}
	var detail domain.BenefitDetail
	if d.Detail != nil {
		detail = *d.Detail
	}
	row := func(label, value string) {
		if value != "" {
			h.printf("%s: %s\n", label, value)
		}
	}
	row("주관 기관", detail.Institution)
	row("지원 내용", d.Support())
	row("신청 조건", detail.Conditions)
	row("필요 서류", detail.Documents)
	row("공식 페이지", detail.URL)
}
