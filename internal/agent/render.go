package agent

import (
	"fmt"
	"strings"
	"time"

	"github.com/ascendia-dental/frontdesk/internal/office"
	"github.com/ascendia-dental/frontdesk/internal/schedule"
)

const (
	replyLayout = "Monday, January 2 at 3:04 PM"

	apologyReply = "I'm sorry, I'm having trouble reaching our scheduling system right now. " +
		"Please call the office directly and we'll get you taken care of."

	whoIsCallingReply = "Happy to help with that! Can I get your full name and the phone number on your account?"

	unknownReply = "I can help you book, reschedule, cancel, or confirm an appointment, or check when we have openings. What would you like to do?"

	pastTimeReply = "That time has already passed. What day and time would work for you going forward?"
)

// renderSlotOptions formats candidate slots as a numbered list the caller can
// pick from by replying with a number.
func renderSlotOptions(slots []schedule.CandidateSlot, snap *office.Snapshot, lead string) string {
	if len(slots) == 0 {
		return "I don't see any openings in that range. Would another week work for you?"
	}

	var b strings.Builder
	b.WriteString(lead)
	b.WriteString("\n")
	for i, slot := range slots {
		b.WriteString(fmt.Sprintf("%d. %s", i+1, slot.Start.Format(replyLayout)))
		if name, ok := snap.ProviderName(slot.ProviderID); ok {
			b.WriteString(" with " + name)
		}
		b.WriteString("\n")
	}
	b.WriteString("Reply with a number and I'll get you booked.")
	return b.String()
}

// renderBookingConfirmation always names the provider. Confirmations without a
// provider name read like errors to callers, so the name is non-optional.
func renderBookingConfirmation(start time.Time, providerName string) string {
	return fmt.Sprintf("You're all set! Your appointment with %s is booked for %s. See you then!",
		providerName, start.Format(replyLayout))
}

func renderRescheduleConfirmation(start time.Time, providerName string) string {
	return fmt.Sprintf("Done! Your appointment with %s has been moved to %s.",
		providerName, start.Format(replyLayout))
}

func renderCancelConfirmation(start time.Time) string {
	return fmt.Sprintf("Your appointment on %s has been cancelled. We'd love to see you again soon; just text us when you're ready to rebook.",
		start.Format(replyLayout))
}

func renderConfirmReply(start time.Time, providerName string) string {
	return fmt.Sprintf("Thanks for confirming! We'll see you on %s with %s.",
		start.Format(replyLayout), providerName)
}

func renderConflictReply(start time.Time, alternatives string) string {
	head := fmt.Sprintf("Unfortunately %s just got taken.", start.Format(replyLayout))
	if alternatives == "" {
		return head + " Is there another day that works for you?"
	}
	return head + " " + alternatives
}

func renderNoUpcomingReply(action string) string {
	return fmt.Sprintf("I don't see an upcoming appointment on your account to %s. Would you like to book one?", action)
}

func renderASAPReply(start time.Time) string {
	return fmt.Sprintf("You're on our short-notice list! Your %s appointment stays put, and we'll reach out the moment something sooner opens up.",
		start.Format(replyLayout))
}
