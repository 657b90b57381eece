package agent

import (
	"regexp"
	"strings"
)

// Intent is the closed set of caller workflows the agent handles.
type Intent string

const (
	IntentBook         Intent = "book"
	IntentReschedule   Intent = "reschedule"
	IntentCancel       Intent = "cancel"
	IntentConfirm      Intent = "confirm"
	IntentAvailability Intent = "availability"
	IntentRecall       Intent = "recall"
	IntentPlanned      Intent = "planned"
	IntentASAP         Intent = "asap"
	IntentUnknown      Intent = "unknown"
)

// intentRule pairs an intent with the phrases that signal it. Rules are
// checked in order; earlier rules win because their phrasing is more
// specific than a generic booking request.
type intentRule struct {
	intent   Intent
	pattern  *regexp.Regexp
	keywords []string
}

var intentRules = []intentRule{
	{
		intent:  IntentReschedule,
		pattern: regexp.MustCompile(`(?i)\b(reschedul|move my|change my appointment|push (it |my appointment )?back|different (day|time) for my appointment)`),
		keywords: []string{"reschedule", "rebook"},
	},
	{
		intent:  IntentCancel,
		pattern: regexp.MustCompile(`(?i)\b(cancel|can'?t make (it|my appointment)|cannot make|won'?t be able to (make|come)|need to miss)`),
		keywords: []string{"cancel"},
	},
	{
		intent:  IntentConfirm,
		pattern: regexp.MustCompile(`(?i)\b(confirm|i('| a)?m here|i('| ha)?ve arrived|checking in|see you (then|there))`),
		keywords: []string{"confirm", "confirming"},
	},
	{
		intent:  IntentASAP,
		pattern: regexp.MustCompile(`(?i)\b(asap|as soon as possible|cancellation list|short[- ]notice list|waiting list|wait ?list|anything sooner|call me if (something|a slot) opens)`),
		keywords: []string{"asap", "sooner"},
	},
	{
		intent:  IntentRecall,
		pattern: regexp.MustCompile(`(?i)\b(cleaning|hygien|recall|check[- ]?up|due for (a|my))`),
		keywords: []string{"cleaning", "hygiene", "recall"},
	},
	{
		intent:  IntentPlanned,
		pattern: regexp.MustCompile(`(?i)\b(treatment plan|planned (treatment|appointment|work)|crown|the work (we|the doctor) discussed)`),
		keywords: []string{"treatment"},
	},
	{
		intent:  IntentAvailability,
		pattern: regexp.MustCompile(`(?i)\b(availab|opening|open slots?|free (time|slot)|what times|when (can|could) (i|you)|any (times?|slots?))`),
		keywords: []string{"availability", "openings"},
	},
	{
		intent:  IntentBook,
		pattern: regexp.MustCompile(`(?i)\b(book|schedule|make an appointment|set ?up an appointment|come in|see the (dentist|doctor)|need an appointment)`),
		keywords: []string{"book", "schedule", "appointment"},
	},
}

// ClassifyIntent maps an utterance to a workflow. Pattern match wins; a
// keyword fallback catches terse messages like "cancel please".
func ClassifyIntent(text string) Intent {
	msg := strings.ToLower(strings.TrimSpace(text))
	if msg == "" {
		return IntentUnknown
	}

	for _, rule := range intentRules {
		if rule.pattern.MatchString(msg) {
			return rule.intent
		}
	}
	for _, rule := range intentRules {
		for _, kw := range rule.keywords {
			if strings.Contains(msg, kw) {
				return rule.intent
			}
		}
	}
	return IntentUnknown
}
