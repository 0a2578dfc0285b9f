package mqtt

import "strings"

// MatchTopic reports whether topic matches filter, honouring the + and #
// wildcards. Wildcard captures are returned in order; # captures the rest.
func MatchTopic(filter, topic string) ([]string, bool) {
	f := strings.Split(filter, "/")
	t := strings.Split(topic, "/")

	var captures []string
	for i, part := range f {
		switch part {
		case "#":
			if i != len(f)-1 {
				return nil, false
			}
			return append(captures, strings.Join(t[i:], "/")), true
		case "+":
			if i >= len(t) || t[i] == "" {
				return nil, false
			}
			captures = append(captures, t[i])
		default:
			if i >= len(t) || t[i] != part {
				return nil, false
			}
		}
	}
	if len(f) != len(t) {
		return nil, false
	}
	return captures, true
}
