package domain

// Sender identifies who authored a displayed message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Role is the speaker role the chat API expects in conversation history.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of the displayed chat log. Messages are never edited
// after they are appended.
type Message struct {
	Sender          Sender
	Text            string
	Recommendations []RecommendationItem
}

// ConversationTurn is the outbound history shape sent with every chat request.
type ConversationTurn struct {
	Role    Role   `json:"role"`
	Message string `json:"message"`
}

// RiskLevel is the server-declared risk classification of the conversation.
type RiskLevel string

const (
	RiskLow  RiskLevel = "LOW"
	RiskMid  RiskLevel = "MID"
	RiskHigh RiskLevel = "HIGH"
)

// ParseRiskLevel maps a server value to a RiskLevel, falling back to RiskLow
// for empty or unknown input.
func ParseRiskLevel(s string) RiskLevel {
	switch RiskLevel(s) {
	case RiskMid, "MEDIUM":
		return RiskMid
	case RiskHigh:
		return RiskHigh
	default:
		return RiskLow
	}
}
