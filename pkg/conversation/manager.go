package conversation

// Manager defines the interface for high-level conversation management operations.
type Manager interface {
	GetConversation() Conversation
	AppendMessages(msgs ...*Message)
	GetMessage(id string) (*Message, bool)
	SaveToFile(filename string) error
}
