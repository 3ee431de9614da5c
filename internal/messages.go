package internal

// FailureText selects the canned user-facing text for a failed exchange.
type FailureText string

const (
	FailureConnection FailureText = "connection"
	FailureTimeout    FailureText = "timeout"
	FailureServer     FailureText = "server"
	FailureUnknown    FailureText = "unknown"
)

// User-facing texts. The widget speaks Russian to its users.
const (
	TextEmptyResponse     = "Получен пустой ответ от сервера"
	TextOpaqueResponse    = "Получен ответ от сервера, но его содержимое недоступно из-за ограничений CORS."
	TextConnectionRestore = "Соединение восстановлено. Вы можете продолжить общение."
	TextRestoreFailed     = "Не удалось восстановить соединение. Пожалуйста, попробуйте позже."
	TextProcessingFailed  = "Произошла ошибка при обработке сообщения. Пожалуйста, попробуйте позже."
	TextAudioEcho         = "🎤 Аудиосообщение"
	// AudioTranscription stands in for speech-to-text output.
	AudioTranscription = "Это текст, полученный из аудиосообщения"
	TextGreeting       = "Здравствуй, расскажи кратко о себе, ответив на несколько вопросов. Как твоё имя?"
)

var failureTexts = map[FailureText]string{
	FailureConnection: "Не удалось подключиться к серверу. Пожалуйста, проверьте подключение к интернету и попробуйте снова.",
	FailureTimeout:    "Превышено время ожидания ответа от сервера. Пожалуйста, попробуйте снова позже.",
	FailureServer:     "Сервер временно недоступен. Наша команда уже работает над устранением проблемы.",
	FailureUnknown:    "Произошла неизвестная ошибка. Пожалуйста, попробуйте снова позже.",
}

// Text returns the localized message for f.
func (f FailureText) Text() string {
	if s, ok := failureTexts[f]; ok {
		return s
	}
	return failureTexts[FailureUnknown]
}

// FailureFor maps an error kind onto the text shown to the user.
func FailureFor(kind ErrorKind) FailureText {
	switch kind {
	case KindTimeout:
		return FailureTimeout
	case KindNonSuccessStatus:
		return FailureServer
	case KindNetworkUnreachable, KindAllCandidatesExhausted, KindUnreadableBody:
		return FailureConnection
	default:
		return FailureUnknown
	}
}
