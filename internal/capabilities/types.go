package capabilities

// Family classifies a model identifier by API style.
type Family string

const (
	// FamilyConversational exchanges structured role-tagged turns with
	// multi-part content blocks (text/image).
	FamilyConversational Family = "conversational"

	// FamilyCompletion exchanges a single flat prompt string and returns a
	// flat completion string.
	FamilyCompletion Family = "completion"

	// FamilyImage produces image bytes from a text prompt.
	FamilyImage Family = "image"
)

// Subtype identifies the concrete response shape within a family. The set is
// closed: decoders switch exhaustively over these values.
type Subtype string

const (
	SubtypeClaude          Subtype = "claude"           // conversational turns
	SubtypeTitan           Subtype = "titan"            // results[0].outputText
	SubtypeLegacyChat      Subtype = "legacy_chat"      // completion
	SubtypeLlama           Subtype = "llama"            // generation, outputs[0].text fallback
	SubtypeMistral         Subtype = "mistral"          // outputs[0].text
	SubtypeAI21            Subtype = "ai21"             // completions[0].data.text
	SubtypeCohereCommand   Subtype = "cohere_command"   // generations[0].text
	SubtypeCohereEmbed     Subtype = "cohere_embed"     // embeddings[0] vector
	SubtypeTitanEmbed      Subtype = "titan_embed"      // embedding vector
	SubtypeJambaInstruct   Subtype = "jamba_instruct"   // choices[0].message.content
	SubtypeTitanImage      Subtype = "titan_image"      // images[0] base64
	SubtypeStableDiffusion Subtype = "stable_diffusion" // artifacts[0].base64

	// SubtypeUnknown is the designated fallback for unrecognized model ids.
	// It decodes to an error message rather than failing classification.
	SubtypeUnknown Subtype = "unknown"
)

// PromptStyle selects the flat-prompt turn formatting for completion models.
type PromptStyle string

const (
	// PromptStyleHuman appends turns as "\nHuman: ..." / "\nAssistant: ...".
	PromptStyleHuman PromptStyle = "human"

	// PromptStyleLlama3 appends turns as "user\n\n..." / "assistant\n\n...".
	PromptStyleLlama3 PromptStyle = "llama3"
)

// ModelCapabilities is one row of the classification table: a substring
// pattern plus everything orchestration needs to know about matching models.
type ModelCapabilities struct {
	// Pattern is matched as a substring against the lowercased model id.
	// Order in the table matters; the first matching row wins.
	Pattern string `yaml:"pattern" json:"pattern"`

	DisplayName string `yaml:"display_name" json:"display_name"`

	Family  Family  `yaml:"family" json:"family"`
	Subtype Subtype `yaml:"subtype" json:"subtype"`

	// Streaming is the default streaming preference; a persisted
	// per-conversation override takes precedence.
	Streaming bool `yaml:"streaming" json:"streaming"`

	// PromptStyle is only meaningful for FamilyCompletion.
	PromptStyle PromptStyle `yaml:"prompt_style,omitempty" json:"prompt_style,omitempty"`
}

// ProviderCapabilities is the on-disk shape of a provider's pattern table.
type ProviderCapabilities struct {
	Provider string              `yaml:"provider" json:"provider"`
	Patterns []ModelCapabilities `yaml:"patterns" json:"patterns"`
}
