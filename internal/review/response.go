package review

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"review-scout/internal/similarity"
)

// replyOpeners are canonical phrases organizations open replies with. A node
// whose text starts with one of these is a response, not a second review.
var replyOpeners = []string{
	"спасибо за отзыв", "спасибо за ваш отзыв", "благодарим за отзыв",
	"благодарим вас за отзыв", "уважаемый клиент", "уважаемая",
	"уважаемый", "добрый день! спасибо",
	"thank you for your review", "thank you for the review",
	"thanks for your review", "dear customer", "we appreciate your feedback",
}

// officialMarkers are structural hints an explicit "official response" badge
// sits on or near the node.
var officialMarkers = []string{
	".official-answer", ".official-response", ".org-answer",
	"[data-official]", "[data-official-answer]",
}

// openerWindowRunes is how deep into the text an opener may sit; replies
// sometimes lead with a greeting before the canonical phrase.
const openerWindowRunes = 80

// ResponseDetector decides whether a review-view node is the organization's
// own reply. Detection takes priority over rating-based classification: a
// response node is never emitted as a Review even when a numeric rating
// happens to sit nearby.
type ResponseDetector struct {
	orgName string // normalized listing name
}

// NewResponseDetector builds a detector for one listing.
func NewResponseDetector(listingName string) *ResponseDetector {
	return &ResponseDetector{orgName: similarity.NormalizedString(listingName)}
}

// IsResponse reports whether the node is an organization reply.
// Any one signal is enough: author matching the listing's own name (with
// corporate prefix and industry words stripped), text opening with a reply
// phrase, or an explicit official-response marker on the node.
func (d *ResponseDetector) IsResponse(node *goquery.Selection, author, text string) bool {
	if d.authorIsOrganization(author) {
		return true
	}
	if hasReplyOpener(text) {
		return true
	}
	return hasOfficialMarker(node)
}

func (d *ResponseDetector) authorIsOrganization(author string) bool {
	if author == "" || d.orgName == "" {
		return false
	}
	norm := similarity.NormalizedString(author)
	if norm == "" {
		return false
	}
	if norm == d.orgName {
		return true
	}
	// "Администратор Смарт Хоум" style authors still belong to the org.
	return strings.Contains(norm, d.orgName)
}

func hasReplyOpener(text string) bool {
	lowered := strings.ToLower(strings.TrimSpace(text))
	runes := []rune(lowered)
	if len(runes) > openerWindowRunes {
		lowered = string(runes[:openerWindowRunes])
	}
	for _, opener := range replyOpeners {
		if strings.Contains(lowered, opener) {
			return true
		}
	}
	return false
}

func hasOfficialMarker(node *goquery.Selection) bool {
	if node == nil {
		return false
	}
	for _, marker := range officialMarkers {
		if node.Is(marker) || node.Find(marker).Length() > 0 {
			return true
		}
	}
	return false
}
