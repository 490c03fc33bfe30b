package usecase

import "welfare-advisor/internal/domain"

// BuildHistory projects the message log into the turns sent to the backend.
// It is rebuilt from the log on every send.
func BuildHistory(messages []domain.Message) []domain.ConversationTurn {
	turns := make([]domain.ConversationTurn, 0, len(messages))
	for _, m := range messages {
		role := domain.RoleAssistant
		if m.Sender == domain.SenderUser {
			role = domain.RoleUser
		}
		turns = append(turns, domain.ConversationTurn{Role: role, Message: m.Text})
	}
	return turns
}
