package nlu

import (
	"fmt"
	"strings"
	"time"
)

type Intent string

const (
	IntentGreeting  Intent = "greeting"
	IntentTime      Intent = "time"
	IntentDate      Intent = "date"
	IntentWeekday   Intent = "weekday"
	IntentWeather   Intent = "weather"
	IntentIdentity  Intent = "identity"
	IntentWellBeing Intent = "well_being"
	IntentThanks    Intent = "thanks"
	IntentFarewell  Intent = "farewell"
	IntentHelp      Intent = "help"
	IntentFallback  Intent = "fallback"
)

type rule struct {
	intent   Intent
	keywords []string
	reply    func(text string, now time.Time) string
}

func fixed(s string) func(string, time.Time) string {
	return func(string, time.Time) string { return s }
}

// rules is checked top to bottom against the lower-cased utterance with
// plain substring tests. Order decides overlaps: "hello, thanks" is a greeting.
var rules = []rule{
	{IntentGreeting, []string{"hello", "hi", "hey", "greetings"}, fixed("Hello! How can I help you today?")},
	{IntentTime, []string{"time"}, func(_ string, now time.Time) string {
		return "The current time is " + now.Format("03:04 PM")
	}},
	{IntentDate, []string{"date", "today"}, func(_ string, now time.Time) string {
		return "Today is " + now.Format("January 02, 2006")
	}},
	{IntentWeekday, []string{"day"}, func(_ string, now time.Time) string {
		return "Today is " + now.Format("Monday")
	}},
	{IntentWeather, []string{"weather"}, fixed("I don't have access to weather data right now, but I hope it's nice where you are!")},
	{IntentIdentity, []string{"your name", "who are you"}, fixed("I'm your AI Voice Assistant, here to help you!")},
	{IntentWellBeing, []string{"how are you"}, fixed("I'm doing great, thank you for asking! How can I help you?")},
	{IntentThanks, []string{"thank", "thanks", "appreciate"}, fixed("You're very welcome! Happy to help!")},
	{IntentFarewell, []string{"bye", "goodbye", "see you", "exit"}, fixed("Goodbye! Have a wonderful day!")},
	{IntentHelp, []string{"help"}, fixed("I can tell you the time, date, day, or just chat with you. Try asking me something!")},
}

// Echo is the reply used when no rule matches.
func Echo(text string) string {
	return fmt.Sprintf("You said: %s. I'm learning more commands every day!", text)
}

// Match returns the first rule that fires for text together with its reply.
func Match(text string, now time.Time) (Intent, string) {
	t := strings.ToLower(text)

	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(t, kw) {
				return r.intent, r.reply(text, now)
			}
		}
	}

	return IntentFallback, Echo(text)
}

// Dispatcher answers recognized text with canned replies.
type Dispatcher struct {
	Now func() time.Time
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{Now: time.Now}
}

func (d *Dispatcher) Respond(text string) string {
	_, reply := d.Match(text)
	return reply
}

func (d *Dispatcher) Match(text string) (Intent, string) {
	now := time.Now
	if d.Now != nil {
		now = d.Now
	}
	return Match(text, now())
}
