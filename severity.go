package understory

// Severity ranks how prominently a diagnostic is surfaced. SevDefault on a
// Finding means "no override": the pass resolves the severity from the
// profile at finalization.
type Severity uint8

const (
	SevDefault Severity = iota
	SevHint
	SevInfo
	SevWarning
	SevError
)

func (s Severity) String() string {
	switch s {
	case SevDefault:
		return "default"
	case SevHint:
		return "hint"
	case SevInfo:
		return "info"
	case SevWarning:
		return "warning"
	case SevError:
		return "error"
	default:
		return "unknown"
	}
}

// ParseSeverity converts a severity name to its value. Unknown names map to
// SevDefault with ok=false.
func ParseSeverity(name string) (Severity, bool) {
	switch name {
	case "hint":
		return SevHint, true
	case "info":
		return SevInfo, true
	case "warning":
		return SevWarning, true
	case "error":
		return SevError, true
	default:
		return SevDefault, false
	}
}
