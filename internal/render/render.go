// Package render owns every user-facing text the bot sends.
package render

import (
	"fmt"
	"strings"

	"github.com/m3rciful/trainbot/core/telegram/format"
	"github.com/m3rciful/trainbot/internal/trip"
)

// MaxTrains caps how many records a results message lists.
const MaxTrains = 10

const separator = "━━━━━━━━━━━━━━━━━━━━"

// Reply is a single outbound message.
type Reply struct {
	Text           string
	Markdown       bool
	NoPreview      bool
	RemoveKeyboard bool
}

// Greeting opens a conversation and asks for the origin station.
func Greeting(firstName string) Reply {
	name := strings.TrimSpace(firstName)
	if name == "" {
		name = "there"
	}
	return Reply{Text: fmt.Sprintf("👋 Hello %s!\n\n"+
		"🚂 Welcome to Train Search Bot!\n\n"+
		"I can help you find available trains between stations.\n\n"+
		"📍 Please enter the FROM station name:\n"+
		"(Example: Mumbai, Delhi, Bangalore)", name)}
}

// AskOrigin re-prompts for the origin after an empty answer.
func AskOrigin() Reply {
	return Reply{Text: "📍 Please enter the FROM station name:\n(Example: Mumbai, Delhi, Bangalore)"}
}

// AskDestination confirms the origin and asks for the destination.
func AskDestination(origin string) Reply {
	return Reply{Text: fmt.Sprintf("✅ From: %s\n\n📍 Now enter the TO station name:", origin)}
}

// AskDate confirms both stations and asks for the travel date.
func AskDate(origin, destination string) Reply {
	return Reply{Text: fmt.Sprintf("✅ From: %s\n✅ To: %s\n\n"+
		"📅 Enter travel date (DD-MM-YYYY):\n"+
		"(Example: 15-01-2026)", origin, destination)}
}

// InvalidDate restates the required date format.
func InvalidDate() Reply {
	return Reply{Text: "❌ Invalid date format!\nPlease use DD-MM-YYYY format (Example: 15-01-2026)"}
}

// Searching acknowledges a valid query before the lookup starts.
func Searching() Reply {
	return Reply{Text: "🔍 Searching for trains... Please wait..."}
}

// NoResults is sent when the collaborator returned nothing or failed.
func NoResults() Reply {
	return Reply{Text: "❌ No trains found or unable to fetch data.\n\n" +
		"Please check:\n" +
		"• Station names are correct\n" +
		"• Date is valid\n" +
		"• Try again with different stations\n\n" +
		"Type /start to search again."}
}

// Cancelled acknowledges /cancel and clears any custom keyboard.
func Cancelled() Reply {
	return Reply{Text: "❌ Search cancelled.\nType /start to search again.", RemoveKeyboard: true}
}

// Help describes the commands. It is state independent.
func Help() Reply {
	return Reply{Markdown: true, Text: "🚂 *Train Search Bot Help*\n\n" +
		"*Commands:*\n" +
		"/start - Start searching for trains\n" +
		"/help - Show this help message\n" +
		"/cancel - Cancel current search\n\n" +
		"*How to use:*\n" +
		"1. Type /start\n" +
		"2. Enter FROM station\n" +
		"3. Enter TO station\n" +
		"4. Enter date (DD-MM-YYYY)\n" +
		"5. Get train list with booking link\n\n" +
		"Happy journey! 🎫"}
}

// Idle answers text that arrives outside a conversation.
func Idle() Reply {
	return Reply{Text: "Type /start to search for trains or /help for instructions."}
}

// UnknownCommand answers an unsupported command inside a conversation.
func UnknownCommand() Reply {
	return Reply{Text: "🤔 Unknown command. Reply to the last question, or use /cancel to stop."}
}

// Results lists up to MaxTrains records in collaborator order followed by
// the booking link.
func Results(q trip.BookingQuery, trains []trip.TrainRecord, link string) Reply {
	var b strings.Builder
	b.WriteString("🚂 *Available Trains*\n\n")
	fmt.Fprintf(&b, "📍 *From:* %s\n", format.MD(q.Origin))
	fmt.Fprintf(&b, "📍 *To:* %s\n", format.MD(q.Destination))
	fmt.Fprintf(&b, "📅 *Date:* %s\n", q.Date.String())
	b.WriteString(separator + "\n\n")

	if len(trains) > MaxTrains {
		trains = trains[:MaxTrains]
	}
	for i, tr := range trains {
		fmt.Fprintf(&b, "*%d. %s* (%s)\n", i+1, format.MD(tr.Name), format.MD(tr.Number))
		fmt.Fprintf(&b, "   🕐 Departure: %s\n", format.MD(tr.Departure))
		fmt.Fprintf(&b, "   🕐 Arrival: %s\n", format.MD(tr.Arrival))
		fmt.Fprintf(&b, "   ⏱ Duration: %s\n", format.MD(tr.Duration))
		if format.Present(tr.Availability) {
			fmt.Fprintf(&b, "   💺 %s\n", format.MD(strings.TrimSpace(*tr.Availability)))
		}
		b.WriteString("\n")
	}

	b.WriteString(separator + "\n")
	b.WriteString("🎫 *Book Your Ticket:*\n")
	fmt.Fprintf(&b, "👉 [Click here to book on MakeMyTrip](%s)\n\n", link)
	b.WriteString("Type /start to search again.")

	return Reply{Text: b.String(), Markdown: true, NoPreview: true}
}
