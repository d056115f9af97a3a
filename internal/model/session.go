package model

// CreateSessionRequest is the intake payload: candidate identity plus the
// target section and, for gated variants, the access code.
type CreateSessionRequest struct {
	SectionID  string `json:"section_id" binding:"required,min=1,max=64"`
	FirstName  string `json:"first_name" binding:"required,min=1,max=100"`
	LastName   string `json:"last_name" binding:"required,min=1,max=100"`
	Phone      string `json:"phone" binding:"required,min=5,max=32"`
	AccessCode string `json:"access_code" binding:"omitempty,len=4,numeric"`
}

// SetAnswerRequest replaces one answer slot.
type SetAnswerRequest struct {
	Value string `json:"value" binding:"max=500"`
}

// VerifyCodeRequest is the standalone admission check payload.
type VerifyCodeRequest struct {
	Code string `json:"code" binding:"required,len=4,numeric"`
}
