package util

// Envelope is the wire shape shared by every endpoint: errors carry a stable
// machine-readable code next to the human message, successes wrap their
// payload under "data".
type Envelope map[string]any

func Error(code, message string) Envelope {
	return Envelope{
		"success":   false,
		"errorCode": code,
		"message":   message,
	}
}

func Data(value any) Envelope {
	return Envelope{
		"success": true,
		"data":    value,
	}
}
