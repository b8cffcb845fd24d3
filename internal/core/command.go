package core

import (
	"strings"

	"botlab.dev/assistant-bot/internal/channel"
)

// CommandKind tags the closed set of inbound command variants. Inbound
// text and callback payloads are decoded into commands at the gateway
// boundary; the dialogue manager never branches on raw button labels.
type CommandKind int

const (
	CommandFreeText CommandKind = iota
	CommandMenu
	CommandInline
)

type MenuAction string

const (
	MenuStart     MenuAction = "start"
	MenuHelp      MenuAction = "help"
	MenuWeather   MenuAction = "weather"
	MenuReminder  MenuAction = "reminder"
	MenuMood      MenuAction = "mood"
	MenuCalories  MenuAction = "calories"
	MenuWiki      MenuAction = "wiki"
	MenuTranslate MenuAction = "translate"
	MenuFeedback  MenuAction = "feedback"
	MenuGame      MenuAction = "game"
	MenuNews      MenuAction = "news"
	MenuStats     MenuAction = "stats"
	MenuLanguage  MenuAction = "language"
	MenuCancel    MenuAction = "cancel"
)

type Command struct {
	Kind CommandKind

	// Menu is set for CommandMenu.
	Menu MenuAction
	// ChoiceKind/ChoiceValue are set for CommandInline ("mood"/"lang").
	ChoiceKind  string
	ChoiceValue string
	// Text is set for CommandFreeText.
	Text string
}

// Keyboard button labels, matching what the main keyboard shows.
const (
	labelWeather   = "🌤 Погода"
	labelReminder  = "⏰ Напоминание"
	labelMood      = "😊 Настроение"
	labelCalories  = "🍏 Калории"
	labelWiki      = "📖 Википедия"
	labelTranslate = "🌍 Перевод"
	labelFeedback  = "📝 Отзыв"
	labelGame      = "🎲 Игра"
	labelNews      = "📰 Новости"
	labelStats     = "📊 Статистика"
	labelLanguage  = "🌐 Язык"
	labelCancel    = "❌ Отмена"
)

var menuByText = map[string]MenuAction{
	"/start":       MenuStart,
	"/help":        MenuHelp,
	"/weather":     MenuWeather,
	labelWeather:   MenuWeather,
	"/remind":      MenuReminder,
	labelReminder:  MenuReminder,
	"/mood":        MenuMood,
	labelMood:      MenuMood,
	"/calories":    MenuCalories,
	labelCalories:  MenuCalories,
	"/wiki":        MenuWiki,
	labelWiki:      MenuWiki,
	"/translate":   MenuTranslate,
	labelTranslate: MenuTranslate,
	"/feedback":    MenuFeedback,
	labelFeedback:  MenuFeedback,
	"/game":        MenuGame,
	labelGame:      MenuGame,
	"/news":        MenuNews,
	labelNews:      MenuNews,
	"/stats":       MenuStats,
	labelStats:     MenuStats,
	"/language":    MenuLanguage,
	labelLanguage:  MenuLanguage,
	"/cancel":      MenuCancel,
	labelCancel:    MenuCancel,
}

// DecodeText turns an inbound message text into a command.
func DecodeText(text string) Command {
	trimmed := strings.TrimSpace(text)
	if action, ok := menuByText[trimmed]; ok {
		return Command{Kind: CommandMenu, Menu: action}
	}
	return Command{Kind: CommandFreeText, Text: trimmed}
}

// DecodeCallback turns an inline-button callback payload ("kind:value")
// into a command. Payloads without a namespace are treated as free text.
func DecodeCallback(data string) Command {
	kind, value, ok := strings.Cut(data, ":")
	if !ok || kind == "" || value == "" {
		return Command{Kind: CommandFreeText, Text: data}
	}
	return Command{Kind: CommandInline, ChoiceKind: kind, ChoiceValue: value}
}

// MainKeyboard is the persistent reply keyboard shown on /start.
func MainKeyboard() *channel.Keyboard {
	return &channel.Keyboard{
		Buttons: [][]channel.Button{
			{{Label: labelWeather}, {Label: labelReminder}, {Label: labelMood}},
			{{Label: labelCalories}, {Label: labelWiki}, {Label: labelTranslate}},
			{{Label: labelGame}, {Label: labelNews}, {Label: labelStats}},
			{{Label: labelFeedback}, {Label: labelLanguage}, {Label: labelCancel}},
		},
	}
}

var moodLabels = []string{"Отлично", "Хорошо", "Нормально", "Грустно", "Ужасно"}

func MoodKeyboard() *channel.Keyboard {
	row := make([]channel.Button, 0, len(moodLabels))
	for _, m := range moodLabels {
		row = append(row, channel.Button{Label: m, Data: "mood:" + m})
	}
	return &channel.Keyboard{Buttons: [][]channel.Button{row}, Inline: true}
}

// languageNames maps accepted language spellings to the provider code.
var languageNames = map[string]string{
	"en": "en", "английский": "en", "english": "en",
	"ru": "ru", "русский": "ru", "russian": "ru",
	"de": "de", "немецкий": "de", "german": "de",
	"fr": "fr", "французский": "fr", "french": "fr",
	"es": "es", "испанский": "es", "spanish": "es",
}

func LanguageKeyboard() *channel.Keyboard {
	return &channel.Keyboard{
		Buttons: [][]channel.Button{{
			{Label: "🇬🇧 EN", Data: "lang:en"},
			{Label: "🇷🇺 RU", Data: "lang:ru"},
			{Label: "🇩🇪 DE", Data: "lang:de"},
			{Label: "🇫🇷 FR", Data: "lang:fr"},
			{Label: "🇪🇸 ES", Data: "lang:es"},
		}},
		Inline: true,
	}
}

// languageCode resolves free-text language input to a provider code.
func languageCode(input string) (string, bool) {
	code, ok := languageNames[strings.ToLower(strings.TrimSpace(input))]
	return code, ok
}
