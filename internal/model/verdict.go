package model

// Verdict is the pass/fail result of one judged step
type Verdict struct {
	Title      string `json:"title"`
	Success    bool   `json:"success"`
	Diagnostic string `json:"diagnostic"`
}

// Pass builds a successful verdict
func Pass(title, diagnostic string) Verdict {
	return Verdict{Title: title, Success: true, Diagnostic: diagnostic}
}

// Fail builds a failed verdict
func Fail(title, diagnostic string) Verdict {
	return Verdict{Title: title, Success: false, Diagnostic: diagnostic}
}
