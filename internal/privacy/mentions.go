// Package privacy rewrites generated text before it is published.
package privacy

import "regexp"

// mentionRe matches @user and @user@host. Word characters are Unicode
// letters, marks, digits and underscore; the host part may also contain dots.
var mentionRe = regexp.MustCompile(`(@[\p{L}\p{M}\p{N}_]+)(@[\p{L}\p{M}\p{N}_.]+)?`)

// SanitizeMentions wraps every mention in <plain></plain> so that posting
// the text does not notify the accounts it names.
func SanitizeMentions(text string) string {
	return mentionRe.ReplaceAllString(text, "<plain>$1$2</plain>")
}
