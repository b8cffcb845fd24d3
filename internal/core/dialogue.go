package core

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"botlab.dev/assistant-bot/internal/channel"
	"botlab.dev/assistant-bot/internal/intent"
	"botlab.dev/assistant-bot/internal/session"
	"botlab.dev/assistant-bot/internal/store"
)

// Canned reply texts. External-service and store failures always surface
// as one of these, never as raw errors.
const (
	msgStoreFailure    = "Что-то пошло не так с хранилищем. Попробуй ещё раз чуть позже."
	msgExternalFailure = "Сервис сейчас недоступен, попробуй позже."
	msgUnknown         = "Я пока не знаю, как на это ответить."
	msgCancelled       = "Ок, вернулись в главное меню."
	msgFlowBroken      = "Кажется, мы сбились. Давай начнём сценарий заново."

	msgAskCity          = "Какой город тебя интересует?"
	msgAskReminderText  = "О чём напомнить?"
	msgAskMinutes       = "Через сколько минут напомнить?"
	msgBadMinutes       = "Нужно число минут, например 30. Попробуй ещё раз."
	msgAskMood          = "Какое у тебя настроение?"
	msgAskMoodNote      = "Хочешь добавить заметку? Отправь «-», чтобы пропустить."
	msgMoodSaved        = "Записал. Спасибо, что поделился!"
	msgAskFood          = "Что ты съел(а)?"
	msgAskCalories      = "Сколько в этом калорий?"
	msgBadCalories      = "Нужно целое число калорий. Попробуй ещё раз."
	msgAskWikiQuery     = "Что поискать в Википедии?"
	msgAskTranslateText = "Какой текст перевести?"
	msgAskTargetLang    = "На какой язык перевести?"
	msgBadLanguage      = "Не знаю такой язык. Выбери кнопкой или укажи код, например en."
	msgAskFeedback      = "Напиши свой отзыв — я передам его разработчику."
	msgFeedbackThanks   = "Спасибо за отзыв!"
	msgGameStart        = "Я загадал число от 1 до 100. Попробуй угадать!"
	msgGameNotNumber    = "Это не похоже на число. Назови число от 1 до 100."
	msgGameHigher       = "Больше!"
	msgGameLower        = "Меньше!"
	msgLanguageChoose   = "Выбери язык интерфейса:"
)

// Reply is one outbound message the dispatcher should send.
type Reply struct {
	Text     string
	Keyboard *channel.Keyboard
}

// Profile carries the sender identity fields the channel attaches to
// every inbound update.
type Profile struct {
	FirstName string
	LastName  string
	Username  string
}

// Event is one decoded inbound interaction.
type Event struct {
	UserID  string
	Profile Profile
	Command Command
}

// DialogueManager is the per-user state machine. It is driven only by the
// dispatcher goroutine; the session store it owns is therefore free of
// locks. Durable writes go through the injected store, external lookups
// through the injected responders.
type DialogueManager struct {
	store      store.Store
	sessions   *session.Store
	classifier *intent.Classifier
	responders Responders

	rng *rand.Rand
	now func() time.Time
}

func NewDialogueManager(st store.Store, sessions *session.Store, classifier *intent.Classifier, responders Responders) *DialogueManager {
	return &DialogueManager{
		store:      st,
		sessions:   sessions,
		classifier: classifier,
		responders: responders,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
		now:        time.Now,
	}
}

// Handle processes one event and returns the replies to send. It never
// returns an error: every failure class maps to a user-facing reply.
func (m *DialogueManager) Handle(ctx context.Context, ev Event) []Reply {
	user, err := m.store.GetOrCreateUser(ev.UserID, ev.Profile.FirstName, ev.Profile.LastName, ev.Profile.Username)
	if err != nil {
		log.Printf("store: get-or-create user %s: %v", ev.UserID, err)
		return []Reply{{Text: msgStoreFailure}}
	}
	if err := m.store.IncrementMessageCount(ev.UserID); err != nil {
		log.Printf("store: increment message count for %s: %v", ev.UserID, err)
	}

	sess := m.sessions.Get(ev.UserID)

	switch ev.Command.Kind {
	case CommandMenu:
		return m.handleMenu(ctx, user, sess, ev.Command.Menu)
	case CommandInline:
		return m.handleInline(ctx, ev.UserID, sess, ev.Command)
	default:
		return m.handleText(ctx, ev.UserID, sess, ev.Command.Text)
	}
}

func (m *DialogueManager) handleMenu(ctx context.Context, user *store.User, sess *session.Session, action MenuAction) []Reply {
	// A menu tap abandons whatever flow was in progress.
	sess.Reset()

	switch action {
	case MenuStart:
		name := user.FirstName
		if name == "" {
			name = user.Username
		}
		greeting := fmt.Sprintf("Привет, %s! Я твой ассистент. Выбери действие на клавиатуре или просто напиши мне.", name)
		return []Reply{{Text: greeting, Keyboard: MainKeyboard()}}

	case MenuHelp:
		return []Reply{{Text: helpText()}}

	case MenuCancel:
		return []Reply{{Text: msgCancelled, Keyboard: MainKeyboard()}}

	case MenuWeather:
		sess.State = session.StateAwaitingCity
		return []Reply{{Text: msgAskCity}}

	case MenuReminder:
		sess.State = session.StateAwaitingReminderText
		return []Reply{{Text: msgAskReminderText}}

	case MenuMood:
		sess.State = session.StateAwaitingMoodLabel
		return []Reply{{Text: msgAskMood, Keyboard: MoodKeyboard()}}

	case MenuCalories:
		sess.State = session.StateAwaitingFoodName
		return []Reply{{Text: msgAskFood}}

	case MenuWiki:
		sess.State = session.StateAwaitingWikiQuery
		return []Reply{{Text: msgAskWikiQuery}}

	case MenuTranslate:
		sess.State = session.StateAwaitingTranslateText
		return []Reply{{Text: msgAskTranslateText}}

	case MenuFeedback:
		sess.State = session.StateAwaitingFeedback
		return []Reply{{Text: msgAskFeedback}}

	case MenuGame:
		sess.Game = &session.Game{Target: m.rng.Intn(100) + 1}
		sess.State = session.StateAwaitingNumberGuess
		return []Reply{{Text: msgGameStart}}

	case MenuNews:
		if m.responders.News == nil {
			return []Reply{{Text: msgExternalFailure}}
		}
		text, err := m.responders.News(ctx, "")
		if err != nil {
			log.Printf("news responder: %v", err)
			return []Reply{{Text: msgExternalFailure}}
		}
		return []Reply{{Text: text}}

	case MenuStats:
		return m.statsReply(user.ID)

	case MenuLanguage:
		text := msgLanguageChoose
		if lang, err := m.store.GetLanguagePreference(user.ID); err == nil && lang != "" {
			text = fmt.Sprintf("Сейчас выбран: %s. %s", lang, msgLanguageChoose)
		}
		return []Reply{{Text: text, Keyboard: LanguageKeyboard()}}

	default:
		return []Reply{{Text: msgUnknown}}
	}
}

func (m *DialogueManager) handleInline(ctx context.Context, userID string, sess *session.Session, cmd Command) []Reply {
	switch cmd.ChoiceKind {
	case "mood":
		if sess.State != session.StateAwaitingMoodLabel {
			return []Reply{{Text: msgCancelled}}
		}
		sess.Scratch = session.MoodScratch{Label: cmd.ChoiceValue}
		sess.State = session.StateAwaitingMoodNote
		return []Reply{{Text: msgAskMoodNote}}

	case "lang":
		if sess.State == session.StateAwaitingTargetLanguage {
			return m.finishTranslate(ctx, sess, cmd.ChoiceValue)
		}
		if err := m.store.SetLanguagePreference(userID, cmd.ChoiceValue); err != nil {
			log.Printf("store: set language for %s: %v", userID, err)
			return []Reply{{Text: msgStoreFailure}}
		}
		return []Reply{{Text: fmt.Sprintf("Язык сохранён: %s", cmd.ChoiceValue)}}

	default:
		return []Reply{{Text: msgUnknown}}
	}
}

func (m *DialogueManager) handleText(ctx context.Context, userID string, sess *session.Session, text string) []Reply {
	switch sess.State {
	case session.StateAwaitingCity:
		sess.Reset()
		if m.responders.Weather == nil {
			return []Reply{{Text: msgExternalFailure}}
		}
		answer, err := m.responders.Weather(ctx, text)
		if err != nil {
			log.Printf("weather responder: %v", err)
			return []Reply{{Text: msgExternalFailure}}
		}
		return []Reply{{Text: answer}}

	case session.StateAwaitingReminderText:
		sess.Scratch = session.ReminderScratch{Text: text}
		sess.State = session.StateAwaitingReminderMinutes
		return []Reply{{Text: msgAskMinutes}}

	case session.StateAwaitingReminderMinutes:
		minutes, err := strconv.Atoi(strings.TrimSpace(text))
		if err != nil || minutes <= 0 {
			// Recoverable validation failure: keep state and scratch.
			return []Reply{{Text: msgBadMinutes}}
		}
		scratch, ok := sess.Scratch.(session.ReminderScratch)
		if !ok {
			sess.Reset()
			return []Reply{{Text: msgFlowBroken}}
		}
		dueAt := m.now().Add(time.Duration(minutes) * time.Minute)
		if _, err := m.store.CreateReminder(userID, scratch.Text, dueAt); err != nil {
			log.Printf("store: create reminder for %s: %v", userID, err)
			sess.Reset()
			return []Reply{{Text: msgStoreFailure}}
		}
		sess.Reset()
		return []Reply{{Text: fmt.Sprintf("Готово! Напомню через %d мин: %s", minutes, scratch.Text)}}

	case session.StateAwaitingMoodLabel:
		sess.Scratch = session.MoodScratch{Label: text}
		sess.State = session.StateAwaitingMoodNote
		return []Reply{{Text: msgAskMoodNote}}

	case session.StateAwaitingMoodNote:
		scratch, ok := sess.Scratch.(session.MoodScratch)
		if !ok {
			sess.Reset()
			return []Reply{{Text: msgFlowBroken}}
		}
		note := strings.TrimSpace(text)
		if note == "-" {
			note = ""
		}
		if err := m.store.AppendMoodEntry(userID, scratch.Label, note); err != nil {
			log.Printf("store: append mood for %s: %v", userID, err)
			sess.Reset()
			return []Reply{{Text: msgStoreFailure}}
		}
		sess.Reset()
		return []Reply{{Text: msgMoodSaved}}

	case session.StateAwaitingFoodName:
		sess.Scratch = session.FoodScratch{Name: text}
		sess.State = session.StateAwaitingFoodCalories
		return []Reply{{Text: msgAskCalories}}

	case session.StateAwaitingFoodCalories:
		calories, err := strconv.Atoi(strings.TrimSpace(text))
		if err != nil || calories < 0 {
			return []Reply{{Text: msgBadCalories}}
		}
		scratch, ok := sess.Scratch.(session.FoodScratch)
		if !ok {
			sess.Reset()
			return []Reply{{Text: msgFlowBroken}}
		}
		if err := m.store.AppendCalorieEntry(userID, scratch.Name, calories); err != nil {
			log.Printf("store: append calories for %s: %v", userID, err)
			sess.Reset()
			return []Reply{{Text: msgStoreFailure}}
		}
		sess.Reset()
		total, err := m.store.SumCaloriesForDay(userID, m.now())
		if err != nil {
			log.Printf("store: sum calories for %s: %v", userID, err)
			return []Reply{{Text: fmt.Sprintf("Записал %s: %d ккал.", scratch.Name, calories)}}
		}
		return []Reply{{Text: fmt.Sprintf("Записал %s: %d ккал. Сегодня всего: %d ккал.", scratch.Name, calories, total)}}

	case session.StateAwaitingWikiQuery:
		sess.Reset()
		if m.responders.Wiki == nil {
			return []Reply{{Text: msgExternalFailure}}
		}
		answer, err := m.responders.Wiki(ctx, text)
		if err != nil {
			log.Printf("wiki responder: %v", err)
			return []Reply{{Text: msgExternalFailure}}
		}
		return []Reply{{Text: answer}}

	case session.StateAwaitingTranslateText:
		sess.Scratch = session.TranslateScratch{Text: text}
		sess.State = session.StateAwaitingTargetLanguage
		return []Reply{{Text: msgAskTargetLang, Keyboard: LanguageKeyboard()}}

	case session.StateAwaitingTargetLanguage:
		code, ok := languageCode(text)
		if !ok {
			return []Reply{{Text: msgBadLanguage}}
		}
		return m.finishTranslate(ctx, sess, code)

	case session.StateAwaitingFeedback:
		sess.Reset()
		log.Printf("feedback from %s: %s", userID, text)
		return []Reply{{Text: msgFeedbackThanks}}

	case session.StateAwaitingNumberGuess:
		return m.handleGuess(sess, text)

	default: // IDLE
		if sess.Game != nil {
			// An active game intercepts free text ahead of classification.
			return m.handleGuess(sess, text)
		}
		return m.handleFreeText(ctx, userID, text)
	}
}

func (m *DialogueManager) finishTranslate(ctx context.Context, sess *session.Session, target string) []Reply {
	scratch, ok := sess.Scratch.(session.TranslateScratch)
	if !ok {
		sess.Reset()
		return []Reply{{Text: msgFlowBroken}}
	}
	sess.Reset()
	if m.responders.Translate == nil {
		return []Reply{{Text: msgExternalFailure}}
	}
	answer, err := m.responders.Translate(ctx, scratch.Text, target)
	if err != nil {
		log.Printf("translate responder: %v", err)
		return []Reply{{Text: msgExternalFailure}}
	}
	return []Reply{{Text: answer}}
}

// handleGuess advances the number-guess game. Non-numeric input keeps the
// game alive; a correct guess clears it.
func (m *DialogueManager) handleGuess(sess *session.Session, text string) []Reply {
	game := sess.Game
	if game == nil {
		sess.State = session.StateIdle
		return []Reply{{Text: msgCancelled}}
	}

	guess, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return []Reply{{Text: msgGameNotNumber}}
	}

	game.Attempts++
	switch {
	case guess < game.Target:
		return []Reply{{Text: msgGameHigher}}
	case guess > game.Target:
		return []Reply{{Text: msgGameLower}}
	default:
		attempts := game.Attempts
		sess.Game = nil
		sess.State = session.StateIdle
		return []Reply{{Text: fmt.Sprintf("Угадал за %d попыток! 🎉", attempts)}}
	}
}

// handleFreeText is the IDLE default: classify, else fall back to the
// generative responder. The exchange is recorded in history either way.
func (m *DialogueManager) handleFreeText(ctx context.Context, userID, text string) []Reply {
	var answer string

	if in := m.classifier.Recognize(text); in != nil && len(in.Responses) > 0 {
		answer = in.Responses[m.rng.Intn(len(in.Responses))]
	} else if m.responders.Complete != nil {
		completed, err := m.responders.Complete(ctx, text)
		if err != nil {
			log.Printf("completion responder: %v", err)
			answer = msgExternalFailure
		} else {
			answer = completed
		}
	} else {
		answer = msgUnknown
	}

	if err := m.store.AppendHistory(userID, text, answer, sentimentOf(text)); err != nil {
		log.Printf("store: append history for %s: %v", userID, err)
	}
	return []Reply{{Text: answer}}
}

func (m *DialogueManager) statsReply(userID string) []Reply {
	stats, err := m.store.GetUserStats(userID)
	if err != nil {
		log.Printf("store: stats for %s: %v", userID, err)
		return []Reply{{Text: msgStoreFailure}}
	}
	calories, err := m.store.SumCaloriesForDay(userID, m.now())
	if err != nil {
		log.Printf("store: calories for %s: %v", userID, err)
	}
	moods, err := m.store.GetMoodHistory(userID, 7)
	if err != nil {
		log.Printf("store: mood history for %s: %v", userID, err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📊 Твоя статистика\n")
	fmt.Fprintf(&b, "Сообщений: %d\n", stats.MessageCount)
	fmt.Fprintf(&b, "Активных напоминаний: %d\n", stats.Reminders)
	fmt.Fprintf(&b, "Калорий сегодня: %d\n", calories)
	if stats.CurrentMood != "" {
		fmt.Fprintf(&b, "Настроение: %s\n", stats.CurrentMood)
	}
	fmt.Fprintf(&b, "Записей настроения за неделю: %d", len(moods))
	return []Reply{{Text: b.String()}}
}

func helpText() string {
	return strings.Join([]string{
		"Вот что я умею:",
		labelWeather + " — прогноз по городу",
		labelReminder + " — напоминание через N минут",
		labelMood + " — дневник настроения",
		labelCalories + " — учёт калорий",
		labelWiki + " — поиск по Википедии",
		labelTranslate + " — перевод текста",
		labelGame + " — угадай число",
		labelNews + " — свежие заголовки",
		labelStats + " — твоя статистика",
		labelFeedback + " — отзыв разработчику",
		labelCancel + " — выйти из текущего сценария",
	}, "\n")
}
