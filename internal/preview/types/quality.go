package types

// QualityLevel is a discrete rendering fidelity tier. Levels are totally
// ordered; the adaptive controller only ever moves one step at a time.
type QualityLevel int

const (
	QualityLow QualityLevel = iota
	QualityMedium
	QualityHigh
	QualityUltra
)

// String returns the string representation of QualityLevel
func (q QualityLevel) String() string {
	switch q {
	case QualityLow:
		return "low"
	case QualityMedium:
		return "medium"
	case QualityHigh:
		return "high"
	case QualityUltra:
		return "ultra"
	default:
		return "unknown"
	}
}

// ParseQualityLevel converts a config string to a QualityLevel.
func ParseQualityLevel(s string) (QualityLevel, bool) {
	switch s {
	case "low":
		return QualityLow, true
	case "medium":
		return QualityMedium, true
	case "high":
		return QualityHigh, true
	case "ultra":
		return QualityUltra, true
	default:
		return QualityMedium, false
	}
}

// StepUp returns the next level up, clamped at ultra.
func (q QualityLevel) StepUp() QualityLevel {
	if q >= QualityUltra {
		return QualityUltra
	}
	return q + 1
}

// StepDown returns the next level down, clamped at low.
func (q QualityLevel) StepDown() QualityLevel {
	if q <= QualityLow {
		return QualityLow
	}
	return q - 1
}
