package usecase

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"welfare-advisor/internal/domain"
)

func TestError_MessageAndUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := newError(ErrorNetworkFailure, "send_chat", cause)
	require.Equal(t, "usecase: NETWORK_FAILURE (send_chat): boom", err.Error())
	require.ErrorIs(t, err, cause)

	bare := newError(ErrorAuthRequired, "missing_user_id", nil)
	require.Equal(t, "usecase: AUTH_REQUIRED (missing_user_id)", bare.Error())

	var nilErr *Error
	require.Empty(t, nilErr.Error())
	require.Nil(t, nilErr.Unwrap())
	require.Empty(t, nilErr.UserMessage())
}

func TestUserMessage(t *testing.T) {
	tests := map[ErrorCode]string{
		ErrorAuthRequired:      "로그인이 필요해요.",
		ErrorNetworkFailure:    "메시지 전송에 실패했습니다. 네트워크 상태를 확인해 주세요.",
		ErrorMalformedResponse: "답변을 불러오지 못했어요.",
		ErrorDetail:            "정책 상세 정보를 불러오지 못했습니다.",
		ErrorNotFound:          "사용자를 찾지 못했어요. ID를 확인해주세요.",
		ErrorRegistration:      "사용자 등록에 실패했습니다.",
	}
	for code, want := range tests {
		require.Equal(t, want, newError(code, "r", nil).UserMessage(), code)
	}

	wrapped := fmt.Errorf("cli: %w", newError(ErrorDetail, "r", nil))
	require.Equal(t, "정책 상세 정보를 불러오지 못했습니다.", UserMessage(wrapped))
	require.Empty(t, UserMessage(errors.New("plain")))
}

func TestBuildHistory(t *testing.T) {
	msgs := []domain.Message{
		{Sender: domain.SenderBot, Text: "안녕하세요"},
		{Sender: domain.SenderUser, Text: "주거 지원"},
		{Sender: domain.SenderBot, Text: "추천", Recommendations: []domain.RecommendationItem{{BenefitID: "A"}}},
	}
	require.Equal(t, []domain.ConversationTurn{
		{Role: domain.RoleAssistant, Message: "안녕하세요"},
		{Role: domain.RoleUser, Message: "주거 지원"},
		{Role: domain.RoleAssistant, Message: "추천"},
	}, BuildHistory(msgs))
	require.Empty(t, BuildHistory(nil))
	require.NotNil(t, BuildHistory(nil))
}
