package browserlogin

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// the sign-in form renders its validation messages in an alert region
// or in an element with a generated class containing "error"
const failureMessageSelector = `[role="alert"], [class*="errorMessage"], [class*="error-message"], [class*="loginPage-styles__error"]`

// loginFailureMessage extracts the message the sign-in page shows after a rejected login.
func loginFailureMessage(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	var message string
	doc.Find(failureMessageSelector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text := strings.TrimSpace(whitespaceRegex.ReplaceAllString(s.Text(), " "))
		if text == "" {
			return true
		}
		message = text
		return false
	})
	return message
}
