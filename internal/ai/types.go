package ai

// TailorMode selects which document parts a tailoring call produces.
type TailorMode string

const (
	TailorModeFull  TailorMode = "full"
	TailorModeCV    TailorMode = "cv"
	TailorModeCover TailorMode = "cover"
)

// TailorResult is the structured output of a tailoring call. Which fields are
// populated depends on the mode.
type TailorResult struct {
	CVBullets   []string `json:"cvBullets,omitempty"`
	CoverLetter string   `json:"coverLetter,omitempty"`
	Summary     string   `json:"summary,omitempty"`
}

// BulletInstruction is the kind of edit applied to a single CV bullet.
type BulletInstruction string

const (
	BulletShorten    BulletInstruction = "shorten"
	BulletAddMetrics BulletInstruction = "metrics"
	BulletRephrase   BulletInstruction = "rephrase"
)

// ReplyTone adjusts the register of a generated email reply.
type ReplyTone string

const (
	ToneFormal   ReplyTone = "formal"
	ToneFriendly ReplyTone = "friendly"
	ToneConcise  ReplyTone = "concise"
)

// chat completions wire types

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}
