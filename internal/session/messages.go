package session

import "medidecode/internal/llmclient"

// User-facing copy lives here so the UI never sees raw provider or
// library error strings. The strings are stable and keyed only off the
// fault kind.

func submitMessage(err error) string {
	switch llmclient.KindOf(err) {
	case llmclient.KindOverloaded:
		return "The analysis service is experiencing high demand. Please try again in a moment."
	case llmclient.KindRateLimited:
		return "Too many requests right now. Please wait a moment and try again."
	case llmclient.KindNetwork:
		return "Could not reach the analysis service. Check your connection and try again."
	case llmclient.KindBlocked:
		return "This document could not be processed. Please make sure it is a clear medical document."
	case llmclient.KindInput:
		return "The uploaded file is empty or unsupported. Please upload a clear photo or PDF of the document."
	case llmclient.KindUnreadable, llmclient.KindContract:
		return "Analysis failed. The image might be too blurry or incomplete. Please try again with a clearer photo."
	default:
		return "Something went wrong during analysis. Please try again."
	}
}

func translateMessage(err error) string {
	switch llmclient.KindOf(err) {
	case llmclient.KindOverloaded, llmclient.KindRateLimited:
		return "Translation is unavailable right now because the service is busy. Showing the previous language."
	case llmclient.KindNetwork:
		return "Translation failed due to a connection problem. Showing the previous language."
	default:
		return "Translation failed. Showing the previous language."
	}
}
