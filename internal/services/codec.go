package services

import "strings"

// A scheduled reminder is stored inside Slack as one flat text blob:
//
//	<mention line>\n<header line>\n<body…>
//
// The mention line may be empty. The list view parses the blob back with
// DecodeText, so the two must stay in step.

// EncodeText serializes a reminder into the flat text blob.
func EncodeText(mention, header, body string) string {
	return mention + "\n" + header + "\n" + body
}

// DecodeText splits a blob into its mention line and body, discarding the
// header. ok is false when the blob has fewer than three lines.
func DecodeText(raw string) (mention, body string, ok bool) {
	parts := strings.SplitN(raw, "\n", 3)
	if len(parts) < 3 {
		return "", "", false
	}
	return parts[0], parts[2], true
}

// MentionOf formats a user mention, or "" for an empty ID.
func MentionOf(userID string) string {
	if userID == "" {
		return ""
	}
	return "<@" + userID + ">"
}
