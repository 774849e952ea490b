package conversation

import (
	"fmt"
	"strings"

	"github.com/neexbeast/getaway-planner/internal/preferences"
)

var questions = map[preferences.Field]string{
	preferences.FieldVibe:          "What vibe are you after? Beach Bliss, Mountain Escape, Adventure Rush or Peaceful Retreat?",
	preferences.FieldDepartureCity: "Which city will you be travelling from?",
	preferences.FieldBudget:        "What's your total budget for the trip, in ₹?",
	preferences.FieldDates:         "Which dates are you planning to travel?",
	preferences.FieldInterests:     "What do you both enjoy? Food, culture, water sports, sunsets, nightlife, wellness, nature?",
}

func questionsMessage(destination string, missing []preferences.Field) string {
	var b strings.Builder
	if destination != "" {
		fmt.Fprintf(&b, "%s is a great choice! A few quick questions so I can plan it properly:\n", destination)
	} else {
		b.WriteString("I'd love to help you plan a new getaway! Tell me a little about the trip:\n")
	}
	for i, f := range missing {
		fmt.Fprintf(&b, "\n%d. %s", i+1, questions[f])
	}
	return b.String()
}

func comparisonMessage(n int) string {
	switch n {
	case 0:
		return "No destinations match those preferences. Try adjusting your budget, dates or departure city."
	case 1:
		return "Here's the destination that best matches your preferences."
	default:
		return fmt.Sprintf("Here are the top %d destinations for you, ranked by how well they match your preferences.", n)
	}
}
