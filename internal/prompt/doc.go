// Package prompt implements operator interaction for gitpush.
//
// Menus and questions are written to any io.Writer and answers are read from
// any io.Reader, so every interactive flow can be scripted in tests. AskUntil
// provides the bounded retry loop used wherever an answer may be invalid.
package prompt
