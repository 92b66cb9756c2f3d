package account

// FallbackMessage is shown when an auth error has no known translation.
const FallbackMessage = "Ocorreu um erro inesperado. Tente novamente."

// messages maps auth provider error codes and messages to user-facing text.
var messages = map[string]string{
	"Invalid login credentials":                 "E-mail ou senha incorretos.",
	"Email not confirmed":                       "Confirme seu e-mail antes de entrar.",
	"User already registered":                   "Este e-mail já está cadastrado.",
	"Password should be at least 8 characters.": "A senha deve ter pelo menos 8 caracteres.",
	"Anonymous sign-ins are disabled":           "Preencha todos os campos para se cadastrar.",
	"Signup requires a valid password":          "Escolha uma senha para se cadastrar.",
	"missing email or phone":                    "Preencha o Email.",
	"account is locked":                         "Muitas tentativas. Tente novamente em alguns minutos.",
}

// Translate returns the localized text for an auth error.
// The code is looked up first, then the message, then FallbackMessage.
func Translate(code, message string) string {
	if code != "" {
		if m, ok := messages[code]; ok {
			return m
		}
	}
	if m, ok := messages[message]; ok {
		return m
	}
	return FallbackMessage
}

// TranslateError is Translate for a Go error value.
func TranslateError(err error) string {
	if err == nil {
		return ""
	}
	return Translate("", err.Error())
}
