// Package interpret turns free-text scheduling requests into meeting drafts
// using a text-completion model.
//
// The model is asked for a JSON object; the answer is searched for the first
// balanced object, decoded and shape-checked with go-playground/validator
// before anything downstream sees it. OpenAI and Gemini backends are
// provided; any Completer works.
package interpret
