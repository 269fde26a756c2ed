package telemetry

import (
	"fmt"
	"strings"
)

// TagQueue is the tag key carrying the full queue name.
const TagQueue = "queue"

// DeriveTags expands a dot-delimited queue name into a hierarchy of tags:
// progressively longer suffix tokens, read right to left, plus the full name
// under the "queue" key. For "a.b.c":
//
//	token0: "c"
//	token1: "b.c"
//	token2: "a.b.c"
//	queue:  "a.b.c"
//
// The same fixed tag set is used on every emission for the queue.
func DeriveTags(queue string) map[string]string {
	tags := map[string]string{TagQueue: queue}

	parts := strings.Split(queue, ".")
	for i := range parts {
		suffix := strings.Join(parts[len(parts)-1-i:], ".")
		tags[fmt.Sprintf("token%d", i)] = suffix
	}
	return tags
}
