// Package contentfilter определяет, содержит ли текст сообщения попытку
// увести общение за пределы платформы (почта, телефон, сторонние мессенджеры).
//
// Проверка сводится к поиску подстроки без учёта регистра по фиксированному списку токенов.
// Ложные срабатывания (например, слово "call" в обычной фразе) допустимы:
// исключений и белых списков нет.
package contentfilter

import "strings"

// tokens — признаки обмена контактами. Порядок влияет только на то,
// какой токен вернёт Match при нескольких совпадениях.
var tokens = []string{
	"@",
	"email",
	".com",
	"phone",
	"call",
	"whatsapp",
	"telegram",
	"discord",
	"skype",
	"zoom",
}

func Tokens() []string {
	out := make([]string, len(tokens))
	copy(out, tokens)
	return out
}

// Match возвращает первый найденный токен.
func Match(content string) (string, bool) {
	lowered := strings.ToLower(content)
	for _, token := range tokens {
		if strings.Contains(lowered, token) {
			return token, true
		}
	}
	return "", false
}

// IsBlocked сообщает, должно ли сообщение быть отклонено целиком.
func IsBlocked(content string) bool {
	_, blocked := Match(content)
	return blocked
}
