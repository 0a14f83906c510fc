package langroute

// MismatchMessage renders the same "please switch language" text the router
// itself produces for a strict mismatch. The pipeline calls this when the
// classifier reports a mismatch, so the two call sites that can report a
// language mismatch cannot drift apart.
func MismatchMessage() string {
	return "Whoops! You wrote in a different language than the one you selected. Please choose the language you want me to respond in on the side panel so I can ensure the best translation for you!"
}
