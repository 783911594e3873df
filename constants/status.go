package constants

// SessionState is the state of a report session.
type SessionState string

// Stable values, exposed over HTTP as-is.
const (
	SessionIdle      SessionState = "IDLE"      // collecting files and customer name
	SessionAnalyzing SessionState = "ANALYZING" // extraction in flight
	SessionReview    SessionState = "REVIEW"    // report data available for download
)

// CredentialKey is the well-known key the Gemini API key is stored under.
const CredentialKey = "gemini_api_key"
