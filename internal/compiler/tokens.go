package compiler

// EstimateTokens approximates the token count of chars characters using
// the chars/4 heuristic. Returns 0 for 0, at least 1 otherwise.
func EstimateTokens(chars int) int {
	if chars <= 0 {
		return 0
	}
	if t := chars / 4; t > 0 {
		return t
	}
	return 1
}
