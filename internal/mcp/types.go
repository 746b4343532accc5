// Package mcp exposes the document assistant as Model Context Protocol tools.
package mcp

// SearchDocumentInput defines the input parameters for the search_document tool.
type SearchDocumentInput struct {
	// Query is the semantic search query.
	Query string `json:"query" jsonschema:"required,description=The semantic search query to run against the document"`
	// ConversationID scopes the search to one ingested document.
	ConversationID string `json:"conversation_id" jsonschema:"required,description=The conversation ID returned when the document was ingested"`
	// TopK is the maximum number of chunks to return.
	TopK int `json:"top_k,omitempty" jsonschema:"minimum=1,maximum=20,default=4,description=Maximum number of chunks to return"`
}

// SearchDocumentOutput contains the matching chunks.
type SearchDocumentOutput struct {
	// Results is the list of matching chunks, best first.
	Results []ChunkResult `json:"results"`
	// Message provides informational context (e.g., "No matching chunks found").
	Message string `json:"message,omitempty"`
}

// ChunkResult is a single chunk match from semantic search.
type ChunkResult struct {
	// Text is the chunk's content.
	Text string `json:"text"`
	// Source is the originating document's filename.
	Source string `json:"source"`
	// Score is the cosine similarity score (0-1).
	Score float32 `json:"score"`
}

// AskDocumentInput defines the input parameters for the ask_document tool.
type AskDocumentInput struct {
	// Query is the question to answer from the document.
	Query string `json:"query" jsonschema:"required,description=The question to answer using the ingested document"`
	// ConversationID scopes the question to one ingested document.
	ConversationID string `json:"conversation_id" jsonschema:"required,description=The conversation ID returned when the document was ingested"`
}

// AskDocumentOutput contains the grounded answer.
type AskDocumentOutput struct {
	// Answer is the answer grounded in the retrieved chunks.
	Answer string `json:"answer"`
}

// DeleteConversationInput defines the input parameters for the
// delete_conversation tool.
type DeleteConversationInput struct {
	// ConversationID identifies the conversation whose vectors to remove.
	ConversationID string `json:"conversation_id" jsonschema:"required,description=The conversation ID whose indexed document should be deleted"`
}

// DeleteConversationOutput confirms the deletion.
type DeleteConversationOutput struct {
	// Deleted indicates the namespace was removed.
	Deleted bool `json:"deleted"`
	// ConversationID echoes the deleted conversation.
	ConversationID string `json:"conversation_id"`
}
