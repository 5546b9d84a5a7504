package errors

import "errors"

var (
	ErrMissingBotToken  = errors.New("STEAM_BROWSER_TELEGRAM_BOT_TOKEN is required to start the bot")
	ErrKeyNotFound      = errors.New("key not found")
	ErrInvalidKey       = errors.New("invalid storage key")
	ErrNoData           = errors.New("no data")
	ErrInvalidAppID     = errors.New("invalid app id")
	ErrCorruptFavorites = errors.New("favorites blob is corrupt")
)
