package interfaces

// Severity classifies a presentation log line.
type Severity string

const (
	SevBuy    Severity = "buy"
	SevSell   Severity = "sell"
	SevSignal Severity = "signal"
	SevAction Severity = "action"
	SevError  Severity = "error"
)

// Presenter receives fire-and-forget UI side effects. Implementations must
// never block the caller.
type Presenter interface {
	Log(sev Severity, msg string)
	Notify(sev Severity, msg string)
	Refresh(what string) // portfolio, positions, watchlist, chart
}
