package reports

import (
	"context"
	"strings"
)

// fakeEngine returns canned response bodies and records every payload it
// was asked to post
type fakeEngine struct {
	body     string
	err      error
	payloads []string
}

func (f *fakeEngine) Post(ctx context.Context, payload string) (string, error) {
	f.payloads = append(f.payloads, payload)
	if f.err != nil {
		return "", f.err
	}
	return f.body, nil
}

// lastPayload returns the most recent request body, empty if none was sent
func (f *fakeEngine) lastPayload() string {
	if len(f.payloads) == 0 {
		return ""
	}
	return f.payloads[len(f.payloads)-1]
}

func payloadContains(payload, fragment string) bool {
	return strings.Contains(payload, fragment)
}
