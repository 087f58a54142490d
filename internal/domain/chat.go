package domain

// ChatRequest is the body the front end sends on POST /v1/chat.
type ChatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// ChatResponse is everything the front end needs to render a turn: the reply
// plus the session facts its tabs display (stage, recommendations, order id).
type ChatResponse struct {
	Reply           string    `json:"reply"`
	SessionID       string    `json:"session_id"`
	Stage           Stage     `json:"stage"`
	Recommendations []Product `json:"recommendations,omitempty"`
	OrderID         string    `json:"order_id,omitempty"`
}

// ReplyFacts is the structured decision plus retrieved facts handed to the
// optional reply phraser. The phraser may rephrase but must only reference
// facts present here; CanonicalReply is always a safe fallback.
type ReplyFacts struct {
	Message        string   `json:"message"`
	Rule           string   `json:"rule"`
	Stage          Stage    `json:"stage"`
	CanonicalReply string   `json:"canonical_reply"`
	Facts          []string `json:"facts,omitempty"`
}
