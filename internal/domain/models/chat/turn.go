package chat

// Turn roles for structured conversation history
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Content block type constants
const (
	BlockTypeText  = "text"
	BlockTypeImage = "image"
)

// ConversationTurn is one role-tagged entry in the structured history used
// by conversational-turn model families. Legacy-completion families use the
// flat prompt transcript instead; exactly one of the two representations is
// authoritative per conversation.
type ConversationTurn struct {
	Role    string         `json:"role"`
	Content []ContentBlock `json:"content"`
}

// ContentBlock is a tagged variant: text or image. BlockType selects which
// of the remaining fields are meaningful.
type ContentBlock struct {
	BlockType  string `json:"type"`
	Text       string `json:"text,omitempty"`
	MediaType  string `json:"media_type,omitempty"`
	Base64Data string `json:"base64_data,omitempty"`
}

// TextBlock builds a text content block.
func TextBlock(text string) ContentBlock {
	return ContentBlock{BlockType: BlockTypeText, Text: text}
}

// ImageBlock builds an image content block from a base64 payload.
func ImageBlock(mediaType, base64Data string) ContentBlock {
	return ContentBlock{BlockType: BlockTypeImage, MediaType: mediaType, Base64Data: base64Data}
}

// UserTurn builds a user turn from input text plus any attached images.
// Image blocks precede the text block, matching the order the
// conversational-turn API expects.
func UserTurn(text string, images []Image) ConversationTurn {
	blocks := make([]ContentBlock, 0, len(images)+1)
	for _, img := range images {
		blocks = append(blocks, ImageBlock(img.MediaType, img.Base64Data))
	}
	blocks = append(blocks, TextBlock(text))
	return ConversationTurn{Role: RoleUser, Content: blocks}
}

// AssistantTurn builds an assistant turn holding a single text block.
func AssistantTurn(text string) ConversationTurn {
	return ConversationTurn{Role: RoleAssistant, Content: []ContentBlock{TextBlock(text)}}
}
