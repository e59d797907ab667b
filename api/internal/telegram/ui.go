package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	cbEngineGemini = "engine:gemini"
	cbEngineGPT    = "engine:gpt"
	cbSchemaV1     = "schema:v1"
	cbSchemaV2     = "schema:v2"
	cbRetake       = "retake"
)

// Выбор движка и схемы
func engineKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Gemini", cbEngineGemini),
			tgbotapi.NewInlineKeyboardButtonData("GPT", cbEngineGPT),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Basic (v1)", cbSchemaV1),
			tgbotapi.NewInlineKeyboardButtonData("Detailed (v2)", cbSchemaV2),
		),
	)
}

// Под отчётом: переснять
func resultKeyboard() tgbotapi.InlineKeyboardMarkup {
	btn := tgbotapi.NewInlineKeyboardButtonData("📷 Retake", cbRetake)
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(btn))
}
